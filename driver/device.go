package driver

// Device is the native driver function table used by the rhi backend.
//
// Object-creating calls return 0 on failure. Calls for functionality the
// device reports as unsupported in Caps are allowed and must be no-ops.
//
// A Device is bound to the goroutine that replays commands; it is not safe
// for concurrent use.
type Device interface {
	// Caps returns the capabilities detected when the device was opened.
	Caps() Caps

	// GetError returns and clears the oldest recorded native error code.
	GetError() uint32

	// Buffers.
	GenBuffer() uint32
	DeleteBuffer(buf uint32)
	BindBuffer(target, buf uint32)
	BufferData(target uint32, size int, data []byte, usage uint32)
	BufferSubData(target uint32, offset int, data []byte)
	// ReadBufferData copies len(dst) bytes from offset of the buffer bound
	// to target.
	ReadBufferData(target uint32, offset int, dst []byte)
	BindBufferBase(target, index, buf uint32)

	// Shaders and programs.
	CreateShader(stage uint32) uint32
	ShaderSource(sh uint32, source string)
	CompileShader(sh uint32)
	// ShaderStatus reports the compile status and info log.
	ShaderStatus(sh uint32) (ok bool, log string)
	DeleteShader(sh uint32)
	CreateProgram() uint32
	AttachShader(prog, sh uint32)
	TransformFeedbackVaryings(prog uint32, varyings []string)
	LinkProgram(prog uint32)
	// ProgramStatus reports the link status and info log.
	ProgramStatus(prog uint32) (ok bool, log string)
	UseProgram(prog uint32)
	DeleteProgram(prog uint32)
	GetUniformBlockIndex(prog uint32, name string) uint32
	UniformBlockBinding(prog, block, binding uint32)
	GetUniformLocation(prog uint32, name string) int32
	Uniform1i(location, value int32)

	// Vertex specification.
	GenVertexArray() uint32
	DeleteVertexArray(vao uint32)
	BindVertexArray(vao uint32)
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset int)
	VertexAttribDivisor(index, divisor uint32)

	// Textures and samplers.
	GenTexture() uint32
	DeleteTexture(tex uint32)
	ActiveTexture(unit uint32)
	BindTexture(target, tex uint32)
	TexParameteri(target, pname uint32, value int32)
	TexParameterf(target, pname uint32, value float32)
	TexImage2D(target uint32, level int32, internal uint32, width, height int32, format, typ uint32, data []byte)
	CompressedTexImage2D(target uint32, level int32, internal uint32, width, height int32, data []byte)
	TexImage3D(target uint32, level int32, internal uint32, width, height, depth int32, format, typ uint32, data []byte)
	TexSubImage2D(target uint32, level, x, y, width, height int32, format, typ uint32, data []byte)
	TexImage2DMultisample(target uint32, samples int32, internal uint32, width, height int32)
	GenerateMipmap(target uint32)
	GenSampler() uint32
	DeleteSampler(s uint32)
	BindSampler(unit, s uint32)
	SamplerParameteri(s, pname uint32, value int32)
	SamplerParameterf(s, pname uint32, value float32)

	// Framebuffers.
	DefaultFramebuffer() uint32
	GenFramebuffer() uint32
	DeleteFramebuffer(fbo uint32)
	BindFramebuffer(target, fbo uint32)
	FramebufferTexture2D(target, attachment, textarget, tex uint32, level int32)
	FramebufferTextureLayer(target, attachment, tex uint32, level, layer int32)
	CheckFramebufferStatus(target uint32) uint32
	// DrawBuffers enables color attachments 0..n-1 of the bound draw framebuffer.
	DrawBuffers(n int)
	BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32)
	ReadPixels(x, y, width, height int32, format, typ uint32, dst []byte)

	// Fixed-function state.
	Enable(capability uint32)
	Disable(capability uint32)
	CullFace(mode uint32)
	FrontFace(mode uint32)
	PolygonMode(face, mode uint32)
	DepthFunc(fn uint32)
	DepthMask(write bool)
	StencilFuncSeparate(face, fn uint32, ref int32, mask uint32)
	StencilOpSeparate(face, sfail, dpfail, dppass uint32)
	StencilMaskSeparate(face, mask uint32)
	BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32)
	BlendEquationSeparate(modeRGB, modeAlpha uint32)
	ColorMask(r, g, b, a bool)
	Viewport(x, y, width, height int32)
	Scissor(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	ClearDepth(depth float32)
	ClearStencil(s int32)
	Clear(mask uint32)

	// Draws and dispatch.
	DrawArrays(mode uint32, first, count int32)
	DrawArraysInstanced(mode uint32, first, count, instances int32)
	DrawElements(mode uint32, count int32, typ uint32, offset int)
	DrawElementsInstanced(mode uint32, count int32, typ uint32, offset int, instances int32)
	BeginTransformFeedback(mode uint32)
	EndTransformFeedback()
	// DrawTransformFeedback draws the vertices captured by the last
	// transform feedback pass.
	DrawTransformFeedback(mode uint32)
	DispatchCompute(x, y, z uint32)
	MemoryBarrier(bits uint32)

	// Queries.
	GenQuery() uint32
	DeleteQuery(q uint32)
	BeginQuery(target, q uint32)
	EndQuery(target uint32)
	QueryResultAvailable(q uint32) bool
	// QueryResult returns the query result; for time-elapsed queries the
	// value is in nanoseconds.
	QueryResult(q uint32) uint64

	// Present makes the default framebuffer contents visible.
	Present()

	// Release destroys the native context. The device is unusable afterwards.
	Release()
}
