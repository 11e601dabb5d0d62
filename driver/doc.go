// Package driver defines the native boundary of rhi.
//
// A Device is a thin, GL-class function table: native enums and object names
// are plain uint32 values, exactly as the native API expects them. The rhi
// backend context translates API-neutral descriptions into these calls and
// keeps shadow state so that a Device sees as few calls as possible.
//
// Implementations:
//
//   - driver/gles: OpenGL 3.3 core / GLES 3 through gogpu/wgpu's pure-Go
//     function loader and a headless EGL context (Linux)
//   - driver/drivertest: a recording device used by tests and dry runs
//
// Devices register themselves with Register from an init function and are
// opened by name with Open, or by priority with OpenBest.
package driver
