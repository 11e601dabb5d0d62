package rhi

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/rhi/config"
)

// Option configures a Backend during creation.
//
// Example:
//
//	cfg, _ := config.Load("rhi.toml")
//	b, err := rhi.New(dev,
//	    rhi.WithConfig(cfg),
//	    rhi.WithWindow(app),
//	)
type Option func(*options)

// options holds optional configuration for Backend creation.
type options struct {
	cfg    config.Config
	window gpucontext.WindowProvider
}

// defaultOptions returns the default backend options: the default config
// and a headless 1280x720 window.
func defaultOptions() options {
	return options{
		cfg:    config.Default(),
		window: gpucontext.NullWindowProvider{W: 1280, H: 720},
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithWindow sets the window whose size defines the back buffer. The size is
// read at creation and at every Present; a change drops all cached
// framebuffers.
func WithWindow(w gpucontext.WindowProvider) Option {
	return func(o *options) {
		if w != nil {
			o.window = w
		}
	}
}
