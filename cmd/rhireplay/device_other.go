//go:build !linux || (js && wasm)

package main

import "github.com/gogpu/rhi/driver"

func openDevice(name string, _, _ int) (driver.Device, string, error) {
	if name == "" {
		return driver.OpenBest()
	}
	dev, err := driver.Open(name)
	return dev, name, err
}
