//go:build linux && !(js && wasm)

package gles

import (
	"fmt"
	"log/slog"
	"runtime"
	"unsafe"

	"github.com/gogpu/rhi/driver"
	"github.com/gogpu/wgpu/hal/gles/egl"
	"github.com/gogpu/wgpu/hal/gles/gl"
)

const (
	glExtensions           = 0x1F03
	glNumExtensions        = 0x821D
	glQueryResult          = 0x8866
	glQueryResultAvailable = 0x8867
	glTransformFeedback    = 0x8E22
	glInterleavedAttribs   = 0x8C8C
	glColorAttachment0     = gl.COLOR_ATTACHMENT0
)

func init() {
	driver.Register(driver.NameGLES, func() (driver.Device, error) {
		d, err := Open(DefaultConfig())
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}

// Config selects the context flavor and the backbuffer size.
type Config struct {
	// ES requests an OpenGL ES 3 context instead of desktop GL 3.3 core.
	ES bool
	// Debug requests a debug context.
	Debug bool
	// Width and Height size the offscreen backbuffer.
	Width, Height int
}

// DefaultConfig returns a desktop GL configuration with a 1280x720
// backbuffer.
func DefaultConfig() Config {
	return Config{Width: 1280, Height: 720}
}

// Device is a driver.Device backed by a headless EGL context.
type Device struct {
	egl  *egl.Context
	gl   *gl.Context
	ext  *ext
	caps driver.Caps

	// offscreen backbuffer
	fbo, color, depth uint32
	width, height     int32

	// transform feedback object drawn by DrawTransformFeedback
	xfb uint32

	log *slog.Logger
}

var _ driver.Device = (*Device)(nil)

// Open creates the context, loads the function table and detects
// capabilities. The calling goroutine is locked to its OS thread until
// Release.
func Open(cfg Config) (*Device, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("gles: invalid backbuffer size %dx%d", cfg.Width, cfg.Height)
	}
	runtime.LockOSThread()
	d, err := open(cfg)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return d, nil
}

func open(cfg Config) (*Device, error) {
	if err := egl.Init(); err != nil {
		return nil, fmt.Errorf("gles: init EGL: %w", err)
	}
	ecfg := egl.DefaultContextConfig()
	ecfg.GLES = cfg.ES
	ecfg.Debug = cfg.Debug
	if cfg.ES {
		ecfg.GLVersionMajor, ecfg.GLVersionMinor = 3, 0
		ecfg.CoreProfile = false
	}
	ectx, err := egl.NewContext(ecfg)
	if err != nil {
		return nil, fmt.Errorf("gles: create context: %w", err)
	}
	if err := ectx.MakeCurrent(); err != nil {
		ectx.Destroy()
		return nil, fmt.Errorf("gles: make current: %w", err)
	}

	d := &Device{egl: ectx, gl: &gl.Context{}, log: logger()}
	if err := d.gl.Load(egl.GetGLProcAddress); err != nil {
		ectx.Destroy()
		return nil, fmt.Errorf("gles: load functions: %w", err)
	}
	if d.ext, err = loadExt(egl.GetGLProcAddress); err != nil {
		ectx.Destroy()
		return nil, fmt.Errorf("gles: load extensions: %w", err)
	}

	info, err := d.queryInfo()
	if err != nil {
		ectx.Destroy()
		return nil, err
	}
	d.caps = deriveCaps(info)

	if err := d.createBackbuffer(int32(cfg.Width), int32(cfg.Height)); err != nil {
		d.destroy()
		return nil, err
	}
	if d.caps.StreamOut {
		n := int32(1)
		ids := unsafe.Pointer(&d.xfb)
		d.ext.genTransformFeedbacks.call(nil, unsafe.Pointer(&n), unsafe.Pointer(&ids))
		target := uint32(glTransformFeedback)
		d.ext.bindTransformFeedback.call(nil, unsafe.Pointer(&target), unsafe.Pointer(&d.xfb))
	}
	d.log.Info("gles: device opened", "caps", d.caps.String(), "backbuffer", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	return d, nil
}

func (d *Device) queryInfo() (contextInfo, error) {
	info := contextInfo{
		vendor:   d.gl.GetString(gl.VENDOR),
		renderer: d.gl.GetString(gl.RENDERER),
	}
	raw := d.gl.GetString(gl.VERSION)
	v, err := parseVersion(raw)
	if err != nil {
		return info, err
	}
	if !v.supported() {
		return info, versionError(v)
	}
	info.version = v

	var n int32
	d.gl.GetIntegerv(glNumExtensions, &n)
	info.exts = d.ext.extensions(n)

	d.gl.GetIntegerv(gl.MAX_COLOR_ATTACHMENTS, &info.maxColorAttachments)
	d.gl.GetIntegerv(gl.MAX_DRAW_BUFFERS, &info.maxDrawBuffers)
	d.gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &info.maxTextureUnits)
	d.gl.GetIntegerv(gl.MAX_VERTEX_ATTRIBS, &info.maxVertexAttribs)
	d.gl.GetIntegerv(gl.MAX_UNIFORM_BUFFER_BINDINGS, &info.maxUniformBlocks)
	d.gl.GetIntegerv(gl.MAX_SAMPLES, &info.maxSamples)

	info.compute = d.gl.SupportsCompute()
	info.samplerObjects = d.gl.SupportsSamplerObjects()
	info.loaded = d.ext.entryPoints()
	info.loaded.multisample = !v.es && v.atLeast(3, 2) || v.es && v.atLeast(3, 1)

	d.log.Debug("gles: context", "version", raw, "renderer", info.renderer, "extensions", len(info.exts))
	return info, nil
}

// createBackbuffer builds the offscreen framebuffer returned by
// DefaultFramebuffer.
func (d *Device) createBackbuffer(w, h int32) error {
	d.color = d.gl.GenRenderbuffers(1)
	d.gl.BindRenderbuffer(gl.RENDERBUFFER, d.color)
	d.gl.RenderbufferStorage(gl.RENDERBUFFER, gl.RGBA8, w, h)
	d.depth = d.gl.GenRenderbuffers(1)
	d.gl.BindRenderbuffer(gl.RENDERBUFFER, d.depth)
	d.gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, w, h)
	d.gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	d.fbo = d.gl.GenFramebuffers(1)
	d.gl.BindFramebuffer(gl.FRAMEBUFFER, d.fbo)
	d.gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, glColorAttachment0, gl.RENDERBUFFER, d.color)
	d.gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, d.depth)
	status := d.gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("gles: backbuffer incomplete: 0x%x", status)
	}
	d.width, d.height = w, h
	return nil
}

// SetLogger sets the device logger.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = logger()
	}
	d.log = l
}

// Size returns the backbuffer size.
func (d *Device) Size() (int, int) { return int(d.width), int(d.height) }

func (d *Device) Caps() driver.Caps { return d.caps }
func (d *Device) GetError() uint32  { return d.gl.GetError() }

// addr returns the address of the first element of b, or 0.
func addr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// Buffers.

func (d *Device) GenBuffer() uint32               { return d.gl.GenBuffers(1) }
func (d *Device) DeleteBuffer(buf uint32)         { d.gl.DeleteBuffers(buf) }
func (d *Device) BindBuffer(target, buf uint32)   { d.gl.BindBuffer(target, buf) }
func (d *Device) BindBufferBase(t, i, buf uint32) { d.gl.BindBufferBase(t, i, buf) }

func (d *Device) BufferData(target uint32, size int, data []byte, usage uint32) {
	d.gl.BufferData(target, size, addr(data), usage)
	runtime.KeepAlive(data)
}

func (d *Device) BufferSubData(target uint32, offset int, data []byte) {
	d.gl.BufferSubData(target, offset, len(data), addr(data))
	runtime.KeepAlive(data)
}

// ReadBufferData maps the whole buffer read-only and copies the range out.
func (d *Device) ReadBufferData(target uint32, offset int, dst []byte) {
	p := d.gl.MapBuffer(target, gl.READ_ONLY)
	if p == 0 {
		return
	}
	src := unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(p), offset)), len(dst)) //nolint:govet // mapped memory
	copy(dst, src)
	d.gl.UnmapBuffer(target)
}

// Shaders and programs.

func (d *Device) CreateShader(stage uint32) uint32     { return d.gl.CreateShader(stage) }
func (d *Device) ShaderSource(sh uint32, src string)   { d.gl.ShaderSource(sh, src) }
func (d *Device) CompileShader(sh uint32)              { d.gl.CompileShader(sh) }
func (d *Device) DeleteShader(sh uint32)               { d.gl.DeleteShader(sh) }
func (d *Device) CreateProgram() uint32                { return d.gl.CreateProgram() }
func (d *Device) AttachShader(prog, sh uint32)         { d.gl.AttachShader(prog, sh) }
func (d *Device) LinkProgram(prog uint32)              { d.gl.LinkProgram(prog) }
func (d *Device) UseProgram(prog uint32)               { d.gl.UseProgram(prog) }
func (d *Device) DeleteProgram(prog uint32)            { d.gl.DeleteProgram(prog) }
func (d *Device) UniformBlockBinding(p, blk, b uint32) { d.gl.UniformBlockBinding(p, blk, b) }
func (d *Device) Uniform1i(location, value int32)      { d.gl.Uniform1i(location, value) }

func (d *Device) GetUniformBlockIndex(prog uint32, name string) uint32 {
	return d.gl.GetUniformBlockIndex(prog, name)
}

func (d *Device) GetUniformLocation(prog uint32, name string) int32 {
	return d.gl.GetUniformLocation(prog, name)
}

func (d *Device) ShaderStatus(sh uint32) (bool, string) {
	var status int32
	d.gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	return false, d.gl.GetShaderInfoLog(sh)
}

func (d *Device) ProgramStatus(prog uint32) (bool, string) {
	var status int32
	d.gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	return false, d.gl.GetProgramInfoLog(prog)
}

// TransformFeedbackVaryings captures varyings interleaved into one buffer.
func (d *Device) TransformFeedbackVaryings(prog uint32, varyings []string) {
	if len(varyings) == 0 || !d.ext.transformFeedbackVaryings.ok() {
		return
	}
	names := make([][]byte, len(varyings))
	ptrs := make([]uintptr, len(varyings))
	for i, v := range varyings {
		names[i] = append([]byte(v), 0)
		ptrs[i] = uintptr(unsafe.Pointer(&names[i][0]))
	}
	count := int32(len(varyings))
	mode := uint32(glInterleavedAttribs)
	list := unsafe.Pointer(&ptrs[0])
	d.ext.transformFeedbackVaryings.call(nil,
		unsafe.Pointer(&prog), unsafe.Pointer(&count), unsafe.Pointer(&list), unsafe.Pointer(&mode))
	runtime.KeepAlive(names)
	runtime.KeepAlive(ptrs)
}

// Vertex specification.

func (d *Device) GenVertexArray() uint32            { return d.gl.GenVertexArrays(1) }
func (d *Device) DeleteVertexArray(vao uint32)      { d.gl.DeleteVertexArrays(vao) }
func (d *Device) BindVertexArray(vao uint32)        { d.gl.BindVertexArray(vao) }
func (d *Device) EnableVertexAttribArray(i uint32)  { d.gl.EnableVertexAttribArray(i) }
func (d *Device) DisableVertexAttribArray(i uint32) { d.gl.DisableVertexAttribArray(i) }

func (d *Device) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset int) {
	d.gl.VertexAttribPointer(index, size, typ, normalized, stride, uintptr(offset))
}

func (d *Device) VertexAttribDivisor(index, divisor uint32) {
	d.ext.vertexAttribDivisor.call(nil, unsafe.Pointer(&index), unsafe.Pointer(&divisor))
}

// Textures and samplers.

func (d *Device) GenTexture() uint32                 { return d.gl.GenTextures(1) }
func (d *Device) DeleteTexture(tex uint32)           { d.gl.DeleteTextures(tex) }
func (d *Device) ActiveTexture(unit uint32)          { d.gl.ActiveTexture(unit) }
func (d *Device) BindTexture(target, tex uint32)     { d.gl.BindTexture(target, tex) }
func (d *Device) GenerateMipmap(target uint32)       { d.gl.GenerateMipmap(target) }
func (d *Device) GenSampler() uint32                 { return d.gl.GenSamplers(1) }
func (d *Device) DeleteSampler(s uint32)             { d.gl.DeleteSamplers(s) }
func (d *Device) BindSampler(unit, s uint32)         { d.gl.BindSampler(unit, s) }
func (d *Device) TexParameteri(t, p uint32, v int32) { d.gl.TexParameteri(t, p, v) }

func (d *Device) TexParameterf(t, p uint32, v float32) {
	d.ext.texParameterf.call(nil, unsafe.Pointer(&t), unsafe.Pointer(&p), unsafe.Pointer(&v))
}

func (d *Device) SamplerParameteri(s, pname uint32, value int32) {
	d.gl.SamplerParameteri(s, pname, value)
}

func (d *Device) SamplerParameterf(s, pname uint32, value float32) {
	d.gl.SamplerParameterf(s, pname, value)
}

func (d *Device) TexImage2D(target uint32, level int32, internal uint32, width, height int32, format, typ uint32, data []byte) {
	d.gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	d.gl.TexImage2D(target, level, int32(internal), width, height, 0, format, typ, addr(data))
	runtime.KeepAlive(data)
}

func (d *Device) CompressedTexImage2D(target uint32, level int32, internal uint32, width, height int32, data []byte) {
	var border int32
	size := int32(len(data))
	ptr := addr(data)
	d.ext.compressedTexImage2D.call(nil,
		unsafe.Pointer(&target), unsafe.Pointer(&level), unsafe.Pointer(&internal),
		unsafe.Pointer(&width), unsafe.Pointer(&height), unsafe.Pointer(&border),
		unsafe.Pointer(&size), unsafe.Pointer(&ptr))
	runtime.KeepAlive(data)
}

func (d *Device) TexImage3D(target uint32, level int32, internal uint32, width, height, depth int32, format, typ uint32, data []byte) {
	var border int32
	in := int32(internal)
	ptr := addr(data)
	d.gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	d.ext.texImage3D.call(nil,
		unsafe.Pointer(&target), unsafe.Pointer(&level), unsafe.Pointer(&in),
		unsafe.Pointer(&width), unsafe.Pointer(&height), unsafe.Pointer(&depth),
		unsafe.Pointer(&border), unsafe.Pointer(&format), unsafe.Pointer(&typ), unsafe.Pointer(&ptr))
	runtime.KeepAlive(data)
}

func (d *Device) TexSubImage2D(target uint32, level, x, y, width, height int32, format, typ uint32, data []byte) {
	d.gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	d.gl.TexSubImage2D(target, level, x, y, width, height, format, typ, addr(data))
	runtime.KeepAlive(data)
}

func (d *Device) TexImage2DMultisample(target uint32, samples int32, internal uint32, width, height int32) {
	d.gl.TexImage2DMultisample(target, samples, internal, width, height, true)
}

// Framebuffers.

// DefaultFramebuffer returns the offscreen backbuffer.
func (d *Device) DefaultFramebuffer() uint32         { return d.fbo }
func (d *Device) GenFramebuffer() uint32             { return d.gl.GenFramebuffers(1) }
func (d *Device) DeleteFramebuffer(fbo uint32)       { d.gl.DeleteFramebuffers(fbo) }
func (d *Device) BindFramebuffer(target, fbo uint32) { d.gl.BindFramebuffer(target, fbo) }

func (d *Device) CheckFramebufferStatus(target uint32) uint32 {
	return d.gl.CheckFramebufferStatus(target)
}

func (d *Device) FramebufferTexture2D(target, attachment, textarget, tex uint32, level int32) {
	d.gl.FramebufferTexture2D(target, attachment, textarget, tex, level)
}

func (d *Device) FramebufferTextureLayer(target, attachment, tex uint32, level, layer int32) {
	d.ext.framebufferTextureLayer.call(nil,
		unsafe.Pointer(&target), unsafe.Pointer(&attachment), unsafe.Pointer(&tex),
		unsafe.Pointer(&level), unsafe.Pointer(&layer))
}

func (d *Device) DrawBuffers(n int) {
	if n <= 0 || !d.ext.drawBuffers.ok() {
		return
	}
	bufs := make([]uint32, n)
	for i := range bufs {
		bufs[i] = glColorAttachment0 + uint32(i)
	}
	count := int32(n)
	list := unsafe.Pointer(&bufs[0])
	d.ext.drawBuffers.call(nil, unsafe.Pointer(&count), unsafe.Pointer(&list))
	runtime.KeepAlive(bufs)
}

func (d *Device) BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1 int32, mask, filter uint32) {
	d.gl.BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1, mask, filter)
}

func (d *Device) ReadPixels(x, y, width, height int32, format, typ uint32, dst []byte) {
	if len(dst) == 0 {
		return
	}
	d.gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	d.gl.ReadPixels(x, y, width, height, format, typ, unsafe.Pointer(&dst[0]))
}

// Fixed-function state.

func (d *Device) Enable(c uint32)                     { d.gl.Enable(c) }
func (d *Device) Disable(c uint32)                    { d.gl.Disable(c) }
func (d *Device) CullFace(mode uint32)                { d.gl.CullFace(mode) }
func (d *Device) FrontFace(mode uint32)               { d.gl.FrontFace(mode) }
func (d *Device) DepthFunc(fn uint32)                 { d.gl.DepthFunc(fn) }
func (d *Device) DepthMask(write bool)                { d.gl.DepthMask(write) }
func (d *Device) ColorMask(r, g, b, a bool)           { d.gl.ColorMask(r, g, b, a) }
func (d *Device) Viewport(x, y, w, h int32)           { d.gl.Viewport(x, y, w, h) }
func (d *Device) Scissor(x, y, w, h int32)            { d.gl.Scissor(x, y, w, h) }
func (d *Device) ClearColor(r, g, b, a float32)       { d.gl.ClearColor(r, g, b, a) }
func (d *Device) Clear(mask uint32)                   { d.gl.Clear(mask) }
func (d *Device) StencilMaskSeparate(face, m uint32)  { d.gl.StencilMaskSeparate(face, m) }
func (d *Device) BlendEquationSeparate(rgb, a uint32) { d.gl.BlendEquationSeparate(rgb, a) }

func (d *Device) PolygonMode(face, mode uint32) {
	d.ext.polygonMode.call(nil, unsafe.Pointer(&face), unsafe.Pointer(&mode))
}

func (d *Device) StencilFuncSeparate(face, fn uint32, ref int32, mask uint32) {
	d.gl.StencilFuncSeparate(face, fn, ref, mask)
}

func (d *Device) StencilOpSeparate(face, sfail, dpfail, dppass uint32) {
	d.gl.StencilOpSeparate(face, sfail, dpfail, dppass)
}

func (d *Device) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32) {
	d.gl.BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha)
}

func (d *Device) ClearDepth(depth float32) {
	d.ext.clearDepthf.call(nil, unsafe.Pointer(&depth))
}

func (d *Device) ClearStencil(s int32) {
	d.ext.clearStencil.call(nil, unsafe.Pointer(&s))
}

// Draws and dispatch.

func (d *Device) DrawArrays(mode uint32, first, count int32) { d.gl.DrawArrays(mode, first, count) }
func (d *Device) DispatchCompute(x, y, z uint32)             { d.gl.DispatchCompute(x, y, z) }
func (d *Device) MemoryBarrier(bits uint32)                  { d.gl.MemoryBarrier(bits) }

func (d *Device) DrawArraysInstanced(mode uint32, first, count, instances int32) {
	d.gl.DrawArraysInstanced(mode, first, count, instances)
}

func (d *Device) DrawElements(mode uint32, count int32, typ uint32, offset int) {
	d.gl.DrawElements(mode, count, typ, uintptr(offset))
}

func (d *Device) DrawElementsInstanced(mode uint32, count int32, typ uint32, offset int, instances int32) {
	d.gl.DrawElementsInstanced(mode, count, typ, uintptr(offset), instances)
}

func (d *Device) BeginTransformFeedback(mode uint32) {
	d.ext.beginTransformFeedback.call(nil, unsafe.Pointer(&mode))
}

func (d *Device) EndTransformFeedback() {
	d.ext.endTransformFeedback.call(nil)
}

// DrawTransformFeedback draws what the device's transform feedback object
// captured last.
func (d *Device) DrawTransformFeedback(mode uint32) {
	d.ext.drawTransformFeedback.call(nil, unsafe.Pointer(&mode), unsafe.Pointer(&d.xfb))
}

// Queries.

func (d *Device) GenQuery() uint32 {
	var q uint32
	n := int32(1)
	ids := unsafe.Pointer(&q)
	d.ext.genQueries.call(nil, unsafe.Pointer(&n), unsafe.Pointer(&ids))
	return q
}

func (d *Device) DeleteQuery(q uint32) {
	n := int32(1)
	list := unsafe.Pointer(&q)
	d.ext.deleteQueries.call(nil, unsafe.Pointer(&n), unsafe.Pointer(&list))
}

func (d *Device) BeginQuery(target, q uint32) {
	d.ext.beginQuery.call(nil, unsafe.Pointer(&target), unsafe.Pointer(&q))
}

func (d *Device) EndQuery(target uint32) {
	d.ext.endQuery.call(nil, unsafe.Pointer(&target))
}

func (d *Device) QueryResultAvailable(q uint32) bool {
	var v uint32
	pname := uint32(glQueryResultAvailable)
	out := unsafe.Pointer(&v)
	d.ext.getQueryObjectuiv.call(nil, unsafe.Pointer(&q), unsafe.Pointer(&pname), unsafe.Pointer(&out))
	return v != 0
}

func (d *Device) QueryResult(q uint32) uint64 {
	var v uint64
	pname := uint32(glQueryResult)
	out := unsafe.Pointer(&v)
	d.ext.getQueryObjectui64v.call(nil, unsafe.Pointer(&q), unsafe.Pointer(&pname), unsafe.Pointer(&out))
	return v
}

// Present flushes the context. The backbuffer stays readable until the
// next frame renders over it.
func (d *Device) Present() {
	d.gl.Flush()
}

// Release destroys the backbuffer and the context and unlocks the OS thread.
func (d *Device) Release() {
	if d.egl == nil {
		return
	}
	d.destroy()
	runtime.UnlockOSThread()
	d.log.Debug("gles: device released")
}

func (d *Device) destroy() {
	if d.xfb != 0 {
		n := int32(1)
		list := unsafe.Pointer(&d.xfb)
		d.ext.deleteTransformFeedbacks.call(nil, unsafe.Pointer(&n), unsafe.Pointer(&list))
	}
	if d.fbo != 0 {
		d.gl.DeleteFramebuffers(d.fbo)
		d.gl.DeleteRenderbuffers(d.color, d.depth)
	}
	d.egl.Destroy()
	d.egl = nil
}
