package rhi

import "github.com/gogpu/rhi/shader"

// resource is the closed set of records a pool slot can hold. A nil
// resource is an empty slot.
type resource interface {
	kind() ResourceKind
}

type clearState struct {
	desc ClearDesc
}

type inputLayout struct {
	attrs []VertexAttribute
	// vao is created on first use.
	vao uint32
}

type rasterState struct {
	desc RasterStateDesc
}

type depthStencilState struct {
	desc DepthStencilDesc
}

type blendState struct {
	desc BlendDesc
}

type bufferObject struct {
	native uint32
	target uint32
	usage  uint32
	size   int
	bind   BindFlags
}

type shaderObject struct {
	// native is 0 for a stream-out stage without source and for a shader
	// whose compilation failed.
	native     uint32
	stage      ShaderStage
	reflection *shader.Reflection
	varyings   []string
	failed     bool
}

type samplerObject struct {
	// native is 0 on devices without sampler objects; desc is then applied
	// to the texture at bind time.
	native uint32
	desc   SamplerDesc
}

// textureInfo is one native texture with its layout.
type textureInfo struct {
	native     uint32
	target     uint32
	width      int
	height     int
	depth      int
	layers     int
	mips       int
	samples    int
	collection CollectionType
	fi         formatInfo
}

type textureObject struct {
	textureInfo
	// sampler is the sampler last applied through texture parameters.
	sampler Handle
}

type renderTarget struct {
	// textureInfo is the single-sample surface that is sampled and read back.
	textureInfo
	// msaa is the multisampled surface rendered into; msaa.native is 0 when
	// the target is single-sampled.
	msaa       textureInfo
	invalidate bool
	sampler    Handle
	// handle is the slot holding the target; it keys resolve framebuffers.
	handle Handle
}

type programRef struct {
	prog *linkedProgram
}

func (*clearState) kind() ResourceKind        { return KindClearState }
func (*inputLayout) kind() ResourceKind       { return KindInputLayout }
func (*rasterState) kind() ResourceKind       { return KindRasterState }
func (*depthStencilState) kind() ResourceKind { return KindDepthStencilState }
func (*blendState) kind() ResourceKind        { return KindBlendState }
func (*bufferObject) kind() ResourceKind      { return KindBuffer }
func (*shaderObject) kind() ResourceKind      { return KindShader }
func (*samplerObject) kind() ResourceKind     { return KindSampler }
func (*textureObject) kind() ResourceKind     { return KindTexture }
func (*renderTarget) kind() ResourceKind      { return KindRenderTarget }
func (*programRef) kind() ResourceKind        { return KindProgram }

// kindOf returns the kind held by r, KindNone for an empty slot.
func kindOf(r resource) ResourceKind {
	if r == nil {
		return KindNone
	}
	return r.kind()
}

// resourceAs returns the resource in slot h as T. Handle 0 yields the zero
// T. A slot outside the pool or holding another kind is a contract
// violation.
func resourceAs[T resource](b *Backend, op string, h Handle) T {
	var zero T
	if h == NoHandle {
		return zero
	}
	assertf(b.res.Has(uint32(h)), op, "handle %d was never created", h)
	r := *b.res.At(uint32(h))
	v, ok := r.(T)
	assertf(ok, op, "handle %d holds %s, want %s", h, kindOf(r), zero.kind())
	return v
}
