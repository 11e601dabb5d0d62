package rhi

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal/gles/gl"
)

// Errors returned by Backend operations.
var (
	// ErrNilDevice is returned by New without a device.
	ErrNilDevice = errors.New("rhi: device is nil")

	// ErrReservedHandle is returned when creating a resource at handle 0 or
	// at one of the back-buffer handles.
	ErrReservedHandle = errors.New("rhi: reserved handle")

	// ErrInvalidDescriptor is returned for descriptors that cannot describe
	// a resource (zero size, short initial data, too many attributes).
	ErrInvalidDescriptor = errors.New("rhi: invalid descriptor")

	// ErrUnsupported is returned when the device lacks a required capability.
	ErrUnsupported = errors.New("rhi: unsupported by device")

	// ErrShaderSource is returned when a WGSL module cannot be translated.
	ErrShaderSource = errors.New("rhi: shader source")
)

// AssertionError is the panic value for contract violations: binding a
// handle of the wrong kind, overflowing a fixed binding table, unbalanced
// perf markers, enum values without a native mapping and, in debug mode,
// native driver errors.
type AssertionError struct {
	Op  string
	Msg string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("rhi: %s: %s", e.Op, e.Msg)
}

// assertf panics with an *AssertionError when cond is false.
func assertf(cond bool, op, format string, args ...any) {
	if cond {
		return
	}
	err := &AssertionError{Op: op, Msg: fmt.Sprintf(format, args...)}
	Logger().Error("rhi: assertion failed", "op", op, "msg", err.Msg)
	panic(err)
}

// glErrorName returns the symbolic name of a native error code.
func glErrorName(code uint32) string {
	switch code {
	case gl.NO_ERROR:
		return "GL_NO_ERROR"
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	default:
		return fmt.Sprintf("0x%04X", code)
	}
}

// maxErrorDrain bounds the error queue drain so a broken context cannot
// spin forever.
const maxErrorDrain = 16

// checkErrors drains the native error queue after an operation group.
func (b *Backend) checkErrors(op string) {
	if !b.cfg.CheckErrors {
		return
	}
	for range maxErrorDrain {
		code := b.dev.GetError()
		if code == gl.NO_ERROR {
			return
		}
		b.stats.DriverErrors++
		Logger().Error("rhi: driver error", "op", op, "code", glErrorName(code))
		assertf(!b.cfg.Debug, op, "driver error %s", glErrorName(code))
	}
}
