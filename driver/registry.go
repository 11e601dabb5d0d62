package driver

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
)

// Well-known driver names.
const (
	NameGLES = "gles"
	NameNull = "null"
)

// ErrNotRegistered is returned by Open for an unknown driver name.
var ErrNotRegistered = errors.New("driver: not registered")

// Opener opens a native device.
type Opener func() (Device, error)

// registry holds registered drivers. Native drivers win over the recording
// null driver.
var registry = gpucontext.NewRegistry[Opener](
	gpucontext.WithPriority(NameGLES, NameNull),
)

// Register registers a driver under name. It is typically called from an
// init function. A driver with the same name is replaced.
func Register(name string, open Opener) {
	registry.Register(name, func() Opener { return open })
}

// Unregister removes a driver from the registry.
func Unregister(name string) {
	registry.Unregister(name)
}

// Available returns the registered driver names.
func Available() []string {
	return registry.Available()
}

// Open opens the driver registered under name.
func Open(name string) (Device, error) {
	open := registry.Get(name)
	if open == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	dev, err := open()
	if err != nil {
		return nil, fmt.Errorf("driver: open %s: %w", name, err)
	}
	return dev, nil
}

// OpenBest opens the highest-priority registered driver.
func OpenBest() (Device, string, error) {
	name := registry.BestName()
	if name == "" {
		return nil, "", ErrNotRegistered
	}
	dev, err := Open(name)
	return dev, name, err
}
