// Package gles implements driver.Device on OpenGL 3.3 core and OpenGL ES 3
// through the pure-Go function loader of gogpu/wgpu.
//
// The device runs headless: it creates an EGL context with a small pbuffer
// surface and renders the backbuffer into an offscreen framebuffer sized by
// Config. Present flushes the context.
//
// Entry points missing from the wgpu loader (3D textures, layered
// attachments, queries, transform feedback and a few state setters) are
// resolved through eglGetProcAddress and called with goffi. Capabilities
// whose entry points cannot be resolved are reported as absent in Caps.
//
// Importing the package registers the "gles" driver on Linux:
//
//	import _ "github.com/gogpu/rhi/driver/gles"
//
// A Device locks the goroutine that opens it to its OS thread and must only
// be used from that goroutine.
package gles
