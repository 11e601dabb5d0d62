//go:build linux && !(js && wasm)

package main

import (
	"log/slog"

	"github.com/gogpu/rhi/driver"
	"github.com/gogpu/rhi/driver/gles"
)

// openDevice opens the named driver. The GL driver is opened directly so
// its backbuffer matches the script window.
func openDevice(name string, width, height int) (driver.Device, string, error) {
	if name == driver.NameGLES || name == "" {
		cfg := gles.DefaultConfig()
		cfg.Width, cfg.Height = width, height
		dev, err := gles.Open(cfg)
		if err == nil {
			return dev, driver.NameGLES, nil
		}
		if name != "" {
			return nil, name, err
		}
		slog.Warn("rhireplay: GL unavailable, using the null driver", "err", err)
		nullDev, err := driver.Open(driver.NameNull)
		return nullDev, driver.NameNull, err
	}
	dev, err := driver.Open(name)
	return dev, name, err
}
