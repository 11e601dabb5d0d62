//go:build linux && !(js && wasm)

package gles

import (
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// proc is an optional entry point with its call interface.
type proc struct {
	fn  unsafe.Pointer
	cif *types.CallInterface
}

func (p proc) ok() bool { return p.fn != nil }

func (p proc) call(ret unsafe.Pointer, args ...unsafe.Pointer) {
	if p.fn == nil {
		return
	}
	_ = ffi.CallFunction(p.cif, p.fn, ret, args)
}

// Call interfaces, named by signature: v = void, u = uint32, i = int32,
// f = float32, p = pointer.
var (
	cifV      types.CallInterface
	cifVU     types.CallInterface
	cifVI     types.CallInterface
	cifVF     types.CallInterface
	cifVUU    types.CallInterface
	cifVUUF   types.CallInterface
	cifVIP    types.CallInterface
	cifVUUP   types.CallInterface
	cifVUIPU  types.CallInterface
	cifVUUUII types.CallInterface
	cifCTex   types.CallInterface
	cifTex3D  types.CallInterface
	cifPUU    types.CallInterface
)

func prepareCalls() error {
	u := types.UInt32TypeDescriptor
	i := types.SInt32TypeDescriptor
	f := types.FloatTypeDescriptor
	p := types.PointerTypeDescriptor
	void := types.VoidTypeDescriptor

	sigs := []struct {
		cif  *types.CallInterface
		ret  *types.TypeDescriptor
		args []*types.TypeDescriptor
	}{
		{&cifV, void, []*types.TypeDescriptor{}},
		{&cifVU, void, []*types.TypeDescriptor{u}},
		{&cifVI, void, []*types.TypeDescriptor{i}},
		{&cifVF, void, []*types.TypeDescriptor{f}},
		{&cifVUU, void, []*types.TypeDescriptor{u, u}},
		{&cifVUUF, void, []*types.TypeDescriptor{u, u, f}},
		{&cifVIP, void, []*types.TypeDescriptor{i, p}},
		{&cifVUUP, void, []*types.TypeDescriptor{u, u, p}},
		{&cifVUIPU, void, []*types.TypeDescriptor{u, i, p, u}},
		{&cifVUUUII, void, []*types.TypeDescriptor{u, u, u, i, i}},
		// glCompressedTexImage2D(target, level, internal, w, h, border, size, data)
		{&cifCTex, void, []*types.TypeDescriptor{u, i, u, i, i, i, i, p}},
		// glTexImage3D(target, level, internal, w, h, d, border, format, type, data)
		{&cifTex3D, void, []*types.TypeDescriptor{u, i, i, i, i, i, i, u, u, p}},
		{&cifPUU, p, []*types.TypeDescriptor{u, u}},
	}
	for _, s := range sigs {
		if err := ffi.PrepareCallInterface(s.cif, types.DefaultCall, s.ret, s.args); err != nil {
			return err
		}
	}
	return nil
}

// ext holds entry points the wgpu loader does not expose.
type ext struct {
	getStringi                proc
	texImage3D                proc
	compressedTexImage2D      proc
	framebufferTextureLayer   proc
	drawBuffers               proc
	polygonMode               proc
	texParameterf             proc
	clearDepthf               proc
	clearStencil              proc
	vertexAttribDivisor       proc
	genQueries                proc
	deleteQueries             proc
	beginQuery                proc
	endQuery                  proc
	getQueryObjectuiv         proc
	getQueryObjectui64v       proc
	transformFeedbackVaryings proc
	beginTransformFeedback    proc
	endTransformFeedback      proc
	genTransformFeedbacks     proc
	bindTransformFeedback     proc
	deleteTransformFeedbacks  proc
	drawTransformFeedback     proc
}

// loadExt resolves the optional entry points. The first name that resolves
// wins, so core names come before their extension aliases.
func loadExt(lookup func(string) unsafe.Pointer) (*ext, error) {
	if err := prepareCalls(); err != nil {
		return nil, err
	}
	get := func(cif *types.CallInterface, names ...string) proc {
		for _, n := range names {
			if fn := lookup(n); fn != nil {
				return proc{fn: fn, cif: cif}
			}
		}
		return proc{}
	}
	return &ext{
		getStringi:                get(&cifPUU, "glGetStringi"),
		texImage3D:                get(&cifTex3D, "glTexImage3D"),
		compressedTexImage2D:      get(&cifCTex, "glCompressedTexImage2D"),
		framebufferTextureLayer:   get(&cifVUUUII, "glFramebufferTextureLayer"),
		drawBuffers:               get(&cifVIP, "glDrawBuffers"),
		polygonMode:               get(&cifVUU, "glPolygonMode"),
		texParameterf:             get(&cifVUUF, "glTexParameterf"),
		clearDepthf:               get(&cifVF, "glClearDepthf"),
		clearStencil:              get(&cifVI, "glClearStencil"),
		vertexAttribDivisor:       get(&cifVUU, "glVertexAttribDivisor"),
		genQueries:                get(&cifVIP, "glGenQueries", "glGenQueriesEXT"),
		deleteQueries:             get(&cifVIP, "glDeleteQueries", "glDeleteQueriesEXT"),
		beginQuery:                get(&cifVUU, "glBeginQuery", "glBeginQueryEXT"),
		endQuery:                  get(&cifVU, "glEndQuery", "glEndQueryEXT"),
		getQueryObjectuiv:         get(&cifVUUP, "glGetQueryObjectuiv", "glGetQueryObjectuivEXT"),
		getQueryObjectui64v:       get(&cifVUUP, "glGetQueryObjectui64v", "glGetQueryObjectui64vEXT"),
		transformFeedbackVaryings: get(&cifVUIPU, "glTransformFeedbackVaryings"),
		beginTransformFeedback:    get(&cifVU, "glBeginTransformFeedback"),
		endTransformFeedback:      get(&cifV, "glEndTransformFeedback"),
		genTransformFeedbacks:     get(&cifVIP, "glGenTransformFeedbacks"),
		bindTransformFeedback:     get(&cifVUU, "glBindTransformFeedback"),
		deleteTransformFeedbacks:  get(&cifVIP, "glDeleteTransformFeedbacks"),
		drawTransformFeedback:     get(&cifVUU, "glDrawTransformFeedback"),
	}, nil
}

func (e *ext) entryPoints() entryPoints {
	return entryPoints{
		texImage3D:        e.texImage3D.ok(),
		compressedTex:     e.compressedTexImage2D.ok(),
		textureLayer:      e.framebufferTextureLayer.ok(),
		drawBuffers:       e.drawBuffers.ok(),
		polygonMode:       e.polygonMode.ok(),
		divisor:           e.vertexAttribDivisor.ok(),
		queries:           e.genQueries.ok() && e.beginQuery.ok() && e.getQueryObjectuiv.ok(),
		queryResult64:     e.getQueryObjectui64v.ok(),
		transformFeedback: e.transformFeedbackVaryings.ok() && e.beginTransformFeedback.ok(),
		drawTransformFB:   e.drawTransformFeedback.ok() && e.genTransformFeedbacks.ok(),
	}
}

// extensions lists GL_EXTENSIONS through glGetStringi.
func (e *ext) extensions(count int32) map[string]bool {
	exts := make(map[string]bool, count)
	if !e.getStringi.ok() {
		return exts
	}
	name := uint32(glExtensions)
	for i := uint32(0); i < uint32(count); i++ {
		var s uintptr
		e.getStringi.call(unsafe.Pointer(&s), unsafe.Pointer(&name), unsafe.Pointer(&i))
		if s != 0 {
			exts[cString(s)] = true
		}
	}
	return exts
}

// cString copies a NUL-terminated C string.
func cString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 { //nolint:govet // native string
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n)) //nolint:govet // native string
}
