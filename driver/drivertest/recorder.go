// Package drivertest provides a recording driver.Device.
//
// Recorder performs no rendering. It hands out object names, remembers
// buffer contents, logs every call and counts calls per method name so tests
// can assert how many native calls a sequence of backend operations caused.
// It is also registered as the "null" driver for dry runs.
package drivertest

import (
	"fmt"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"

	"github.com/gogpu/rhi/driver"
)

func init() {
	driver.Register(driver.NameNull, func() (driver.Device, error) {
		return New(DefaultCaps()), nil
	})
}

// invalidIndex mirrors GL_INVALID_INDEX.
const invalidIndex = 0xFFFFFFFF

// Call is one recorded device call.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name + "()"
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// DefaultCaps returns capabilities with every optional feature enabled.
func DefaultCaps() driver.Caps {
	var f gputypes.Features
	f.Insert(gputypes.FeatureTextureCompressionBC)
	f.Insert(gputypes.FeatureTimestampQuery)
	return driver.Caps{
		Adapter:             gpucontext.AdapterInfo{Name: "recorder", Type: gpucontext.AdapterTypeSoftware},
		Version:             "recorder 1.0",
		Features:            f,
		Texture3D:           true,
		CubeArray:           true,
		Compute:             true,
		Multisample:         true,
		PolygonMode:         true,
		StreamOut:           true,
		InstanceStep:        true,
		SamplerObjects:      true,
		ClampToBorder:       true,
		MaxColorAttachments: 8,
		MaxTextureUnits:     16,
		MaxVertexAttribs:    16,
		MaxUniformBlocks:    16,
		MaxSamples:          8,
	}
}

// Recorder is a driver.Device that records calls.
type Recorder struct {
	caps  driver.Caps
	calls []Call
	count map[string]int
	next  uint32

	live map[string]map[uint32]bool

	// bound buffer per target and stored contents per buffer name.
	bound   map[uint32]uint32
	buffers map[uint32][]byte

	queries     map[uint32]uint64
	queryPolls  map[uint32]int
	beginsSoFar int

	// Errors is drained by GetError, oldest first.
	Errors []uint32

	// QueryDurations assigns results to time-elapsed queries in BeginQuery
	// order. Queries past the end of the slice get DefaultDuration.
	QueryDurations  []uint64
	DefaultDuration uint64
	// QueryLatency is the number of QueryResultAvailable polls that report
	// false before a query becomes available.
	QueryLatency int

	// FailCompile, when set, decides whether a shader source fails to compile.
	FailCompile func(source string) bool
	// FailLink makes every LinkProgram fail.
	FailLink bool
	// FramebufferStatus is returned by CheckFramebufferStatus; zero means complete.
	FramebufferStatus uint32

	// UniformBlocks and Uniforms answer reflection queries by name for any
	// program. Missing names resolve to GL_INVALID_INDEX and -1.
	UniformBlocks map[string]uint32
	Uniforms      map[string]int32

	// Pixels is copied into ReadPixels destinations.
	Pixels []byte

	sources map[uint32]string
}

var _ driver.Device = (*Recorder)(nil)

// New returns a Recorder reporting caps.
func New(caps driver.Caps) *Recorder {
	return &Recorder{
		caps:       caps,
		count:      make(map[string]int),
		live:       make(map[string]map[uint32]bool),
		bound:      make(map[uint32]uint32),
		buffers:    make(map[uint32][]byte),
		queries:    make(map[uint32]uint64),
		queryPolls: make(map[uint32]int),
		sources:    make(map[uint32]string),
	}
}

func (r *Recorder) record(name string, args ...any) {
	r.calls = append(r.calls, Call{Name: name, Args: args})
	r.count[name]++
}

func (r *Recorder) gen(kind string) uint32 {
	r.next++
	m := r.live[kind]
	if m == nil {
		m = make(map[uint32]bool)
		r.live[kind] = m
	}
	m[r.next] = true
	return r.next
}

func (r *Recorder) del(kind string, name uint32) {
	delete(r.live[kind], name)
}

// Calls returns the calls recorded since the last Reset.
func (r *Recorder) Calls() []Call { return r.calls }

// Count returns how many times the named method was called since the last Reset.
func (r *Recorder) Count(name string) int { return r.count[name] }

// Total returns the number of calls recorded since the last Reset.
func (r *Recorder) Total() int { return len(r.calls) }

// Names returns the recorded method names in call order.
func (r *Recorder) Names() []string {
	names := make([]string, len(r.calls))
	for i, c := range r.calls {
		names[i] = c.Name
	}
	return names
}

// Reset clears the call log and counters. Live objects are kept.
func (r *Recorder) Reset() {
	r.calls = r.calls[:0]
	clear(r.count)
}

// Live returns the number of live native objects of a kind: "buffer",
// "shader", "program", "vertexarray", "texture", "sampler", "framebuffer"
// or "query".
func (r *Recorder) Live(kind string) int { return len(r.live[kind]) }

// BufferContents returns the stored contents of a native buffer.
func (r *Recorder) BufferContents(buf uint32) []byte { return r.buffers[buf] }

// ShaderSourceOf returns the source last given to a native shader.
func (r *Recorder) ShaderSourceOf(sh uint32) string { return r.sources[sh] }

func (r *Recorder) Caps() driver.Caps { return r.caps }

func (r *Recorder) GetError() uint32 {
	r.record("GetError")
	if len(r.Errors) == 0 {
		return gl.NO_ERROR
	}
	e := r.Errors[0]
	r.Errors = r.Errors[1:]
	return e
}

func (r *Recorder) GenBuffer() uint32 {
	b := r.gen("buffer")
	r.record("GenBuffer", b)
	return b
}

func (r *Recorder) DeleteBuffer(buf uint32) {
	r.record("DeleteBuffer", buf)
	r.del("buffer", buf)
	delete(r.buffers, buf)
}

func (r *Recorder) BindBuffer(target, buf uint32) {
	r.record("BindBuffer", target, buf)
	r.bound[target] = buf
}

func (r *Recorder) BufferData(target uint32, size int, data []byte, usage uint32) {
	r.record("BufferData", target, size, usage)
	store := make([]byte, size)
	copy(store, data)
	r.buffers[r.bound[target]] = store
}

func (r *Recorder) BufferSubData(target uint32, offset int, data []byte) {
	r.record("BufferSubData", target, offset, len(data))
	store := r.buffers[r.bound[target]]
	if offset < len(store) {
		copy(store[offset:], data)
	}
}

func (r *Recorder) ReadBufferData(target uint32, offset int, dst []byte) {
	r.record("ReadBufferData", target, offset, len(dst))
	store := r.buffers[r.bound[target]]
	if offset < len(store) {
		copy(dst, store[offset:])
	}
}

func (r *Recorder) BindBufferBase(target, index, buf uint32) {
	r.record("BindBufferBase", target, index, buf)
}

func (r *Recorder) CreateShader(stage uint32) uint32 {
	s := r.gen("shader")
	r.record("CreateShader", stage, s)
	return s
}

func (r *Recorder) ShaderSource(sh uint32, source string) {
	r.record("ShaderSource", sh)
	r.sources[sh] = source
}

func (r *Recorder) CompileShader(sh uint32) { r.record("CompileShader", sh) }

func (r *Recorder) ShaderStatus(sh uint32) (bool, string) {
	r.record("ShaderStatus", sh)
	if r.FailCompile != nil && r.FailCompile(r.sources[sh]) {
		return false, "0:1(1): error: syntax error"
	}
	return true, ""
}

func (r *Recorder) DeleteShader(sh uint32) {
	r.record("DeleteShader", sh)
	r.del("shader", sh)
}

func (r *Recorder) CreateProgram() uint32 {
	p := r.gen("program")
	r.record("CreateProgram", p)
	return p
}

func (r *Recorder) AttachShader(prog, sh uint32) { r.record("AttachShader", prog, sh) }

func (r *Recorder) TransformFeedbackVaryings(prog uint32, varyings []string) {
	r.record("TransformFeedbackVaryings", prog, strings.Join(varyings, ","))
}

func (r *Recorder) LinkProgram(prog uint32) { r.record("LinkProgram", prog) }

func (r *Recorder) ProgramStatus(prog uint32) (bool, string) {
	r.record("ProgramStatus", prog)
	if r.FailLink {
		return false, "error: vertex output does not match fragment input"
	}
	return true, ""
}

func (r *Recorder) UseProgram(prog uint32) { r.record("UseProgram", prog) }

func (r *Recorder) DeleteProgram(prog uint32) {
	r.record("DeleteProgram", prog)
	r.del("program", prog)
}

func (r *Recorder) GetUniformBlockIndex(prog uint32, name string) uint32 {
	r.record("GetUniformBlockIndex", prog, name)
	if idx, ok := r.UniformBlocks[name]; ok {
		return idx
	}
	return invalidIndex
}

func (r *Recorder) UniformBlockBinding(prog, block, binding uint32) {
	r.record("UniformBlockBinding", prog, block, binding)
}

func (r *Recorder) GetUniformLocation(prog uint32, name string) int32 {
	r.record("GetUniformLocation", prog, name)
	if loc, ok := r.Uniforms[name]; ok {
		return loc
	}
	return -1
}

func (r *Recorder) Uniform1i(location, value int32) { r.record("Uniform1i", location, value) }

func (r *Recorder) GenVertexArray() uint32 {
	v := r.gen("vertexarray")
	r.record("GenVertexArray", v)
	return v
}

func (r *Recorder) DeleteVertexArray(vao uint32) {
	r.record("DeleteVertexArray", vao)
	r.del("vertexarray", vao)
}

func (r *Recorder) BindVertexArray(vao uint32) { r.record("BindVertexArray", vao) }

func (r *Recorder) EnableVertexAttribArray(index uint32) {
	r.record("EnableVertexAttribArray", index)
}

func (r *Recorder) DisableVertexAttribArray(index uint32) {
	r.record("DisableVertexAttribArray", index)
}

func (r *Recorder) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset int) {
	r.record("VertexAttribPointer", index, size, typ, normalized, stride, offset)
}

func (r *Recorder) VertexAttribDivisor(index, divisor uint32) {
	r.record("VertexAttribDivisor", index, divisor)
}

func (r *Recorder) GenTexture() uint32 {
	t := r.gen("texture")
	r.record("GenTexture", t)
	return t
}

func (r *Recorder) DeleteTexture(tex uint32) {
	r.record("DeleteTexture", tex)
	r.del("texture", tex)
}

func (r *Recorder) ActiveTexture(unit uint32) { r.record("ActiveTexture", unit) }

func (r *Recorder) BindTexture(target, tex uint32) { r.record("BindTexture", target, tex) }

func (r *Recorder) TexParameteri(target, pname uint32, value int32) {
	r.record("TexParameteri", target, pname, value)
}

func (r *Recorder) TexParameterf(target, pname uint32, value float32) {
	r.record("TexParameterf", target, pname, value)
}

func (r *Recorder) TexImage2D(target uint32, level int32, internal uint32, width, height int32, format, typ uint32, data []byte) {
	r.record("TexImage2D", target, level, internal, width, height, format, typ, len(data))
}

func (r *Recorder) CompressedTexImage2D(target uint32, level int32, internal uint32, width, height int32, data []byte) {
	r.record("CompressedTexImage2D", target, level, internal, width, height, len(data))
}

func (r *Recorder) TexImage3D(target uint32, level int32, internal uint32, width, height, depth int32, format, typ uint32, data []byte) {
	r.record("TexImage3D", target, level, internal, width, height, depth, format, typ, len(data))
}

func (r *Recorder) TexSubImage2D(target uint32, level, x, y, width, height int32, format, typ uint32, data []byte) {
	r.record("TexSubImage2D", target, level, x, y, width, height, format, typ, len(data))
}

func (r *Recorder) TexImage2DMultisample(target uint32, samples int32, internal uint32, width, height int32) {
	r.record("TexImage2DMultisample", target, samples, internal, width, height)
}

func (r *Recorder) GenerateMipmap(target uint32) { r.record("GenerateMipmap", target) }

func (r *Recorder) GenSampler() uint32 {
	s := r.gen("sampler")
	r.record("GenSampler", s)
	return s
}

func (r *Recorder) DeleteSampler(s uint32) {
	r.record("DeleteSampler", s)
	r.del("sampler", s)
}

func (r *Recorder) BindSampler(unit, s uint32) { r.record("BindSampler", unit, s) }

func (r *Recorder) SamplerParameteri(s, pname uint32, value int32) {
	r.record("SamplerParameteri", s, pname, value)
}

func (r *Recorder) SamplerParameterf(s, pname uint32, value float32) {
	r.record("SamplerParameterf", s, pname, value)
}

func (r *Recorder) DefaultFramebuffer() uint32 { return 0 }

func (r *Recorder) GenFramebuffer() uint32 {
	f := r.gen("framebuffer")
	r.record("GenFramebuffer", f)
	return f
}

func (r *Recorder) DeleteFramebuffer(fbo uint32) {
	r.record("DeleteFramebuffer", fbo)
	r.del("framebuffer", fbo)
}

func (r *Recorder) BindFramebuffer(target, fbo uint32) { r.record("BindFramebuffer", target, fbo) }

func (r *Recorder) FramebufferTexture2D(target, attachment, textarget, tex uint32, level int32) {
	r.record("FramebufferTexture2D", target, attachment, textarget, tex, level)
}

func (r *Recorder) FramebufferTextureLayer(target, attachment, tex uint32, level, layer int32) {
	r.record("FramebufferTextureLayer", target, attachment, tex, level, layer)
}

func (r *Recorder) CheckFramebufferStatus(target uint32) uint32 {
	r.record("CheckFramebufferStatus", target)
	if r.FramebufferStatus != 0 {
		return r.FramebufferStatus
	}
	return gl.FRAMEBUFFER_COMPLETE
}

func (r *Recorder) DrawBuffers(n int) { r.record("DrawBuffers", n) }

func (r *Recorder) BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32) {
	r.record("BlitFramebuffer", srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1, mask, filter)
}

func (r *Recorder) ReadPixels(x, y, width, height int32, format, typ uint32, dst []byte) {
	r.record("ReadPixels", x, y, width, height, format, typ, len(dst))
	copy(dst, r.Pixels)
}

func (r *Recorder) Enable(capability uint32)  { r.record("Enable", capability) }
func (r *Recorder) Disable(capability uint32) { r.record("Disable", capability) }
func (r *Recorder) CullFace(mode uint32)      { r.record("CullFace", mode) }
func (r *Recorder) FrontFace(mode uint32)     { r.record("FrontFace", mode) }

func (r *Recorder) PolygonMode(face, mode uint32) { r.record("PolygonMode", face, mode) }
func (r *Recorder) DepthFunc(fn uint32)           { r.record("DepthFunc", fn) }
func (r *Recorder) DepthMask(write bool)          { r.record("DepthMask", write) }

func (r *Recorder) StencilFuncSeparate(face, fn uint32, ref int32, mask uint32) {
	r.record("StencilFuncSeparate", face, fn, ref, mask)
}

func (r *Recorder) StencilOpSeparate(face, sfail, dpfail, dppass uint32) {
	r.record("StencilOpSeparate", face, sfail, dpfail, dppass)
}

func (r *Recorder) StencilMaskSeparate(face, mask uint32) {
	r.record("StencilMaskSeparate", face, mask)
}

func (r *Recorder) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32) {
	r.record("BlendFuncSeparate", srcRGB, dstRGB, srcAlpha, dstAlpha)
}

func (r *Recorder) BlendEquationSeparate(modeRGB, modeAlpha uint32) {
	r.record("BlendEquationSeparate", modeRGB, modeAlpha)
}

func (r *Recorder) ColorMask(red, green, blue, alpha bool) {
	r.record("ColorMask", red, green, blue, alpha)
}

func (r *Recorder) Viewport(x, y, width, height int32) { r.record("Viewport", x, y, width, height) }
func (r *Recorder) Scissor(x, y, width, height int32)  { r.record("Scissor", x, y, width, height) }
func (r *Recorder) ClearColor(red, green, blue, alpha float32) {
	r.record("ClearColor", red, green, blue, alpha)
}
func (r *Recorder) ClearDepth(depth float32) { r.record("ClearDepth", depth) }
func (r *Recorder) ClearStencil(s int32)     { r.record("ClearStencil", s) }
func (r *Recorder) Clear(mask uint32)        { r.record("Clear", mask) }

func (r *Recorder) DrawArrays(mode uint32, first, count int32) {
	r.record("DrawArrays", mode, first, count)
}

func (r *Recorder) DrawArraysInstanced(mode uint32, first, count, instances int32) {
	r.record("DrawArraysInstanced", mode, first, count, instances)
}

func (r *Recorder) DrawElements(mode uint32, count int32, typ uint32, offset int) {
	r.record("DrawElements", mode, count, typ, offset)
}

func (r *Recorder) DrawElementsInstanced(mode uint32, count int32, typ uint32, offset int, instances int32) {
	r.record("DrawElementsInstanced", mode, count, typ, offset, instances)
}

func (r *Recorder) BeginTransformFeedback(mode uint32) { r.record("BeginTransformFeedback", mode) }
func (r *Recorder) EndTransformFeedback()              { r.record("EndTransformFeedback") }
func (r *Recorder) DrawTransformFeedback(mode uint32)  { r.record("DrawTransformFeedback", mode) }

func (r *Recorder) DispatchCompute(x, y, z uint32) { r.record("DispatchCompute", x, y, z) }
func (r *Recorder) MemoryBarrier(bits uint32)      { r.record("MemoryBarrier", bits) }

func (r *Recorder) GenQuery() uint32 {
	q := r.gen("query")
	r.record("GenQuery", q)
	return q
}

func (r *Recorder) DeleteQuery(q uint32) {
	r.record("DeleteQuery", q)
	r.del("query", q)
	delete(r.queries, q)
	delete(r.queryPolls, q)
}

func (r *Recorder) BeginQuery(target, q uint32) {
	r.record("BeginQuery", target, q)
	v := r.DefaultDuration
	if r.beginsSoFar < len(r.QueryDurations) {
		v = r.QueryDurations[r.beginsSoFar]
	}
	r.beginsSoFar++
	r.queries[q] = v
	r.queryPolls[q] = r.QueryLatency
}

func (r *Recorder) EndQuery(target uint32) { r.record("EndQuery", target) }

func (r *Recorder) QueryResultAvailable(q uint32) bool {
	r.record("QueryResultAvailable", q)
	if r.queryPolls[q] > 0 {
		r.queryPolls[q]--
		return false
	}
	return true
}

func (r *Recorder) QueryResult(q uint32) uint64 {
	r.record("QueryResult", q)
	return r.queries[q]
}

func (r *Recorder) Present() { r.record("Present") }

func (r *Recorder) Release() { r.record("Release") }
