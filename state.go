package rhi

import "github.com/gogpu/gputypes"

// bindState is one snapshot of everything a draw depends on. The backend
// keeps two: requested, written by the Set methods, and applied, the shadow
// of what the device has. They are diffed by resolve right before a draw.
type bindState struct {
	vbs         [MaxVertexBuffers]VertexBuffer
	indexBuffer Handle
	indexFormat gputypes.IndexFormat
	indexOffset int
	layout      Handle

	vs, ps, so, cs Handle

	raster       Handle
	depthStencil Handle
	stencilRef   uint8
	blend        Handle
	baseVertex   int

	backbufferBound bool

	constantBuffers [MaxUniformBlocks]Handle
	streamOut       Handle
}

// stateGroup selects native state groups that must be re-applied even when
// requested and applied agree.
type stateGroup uint8

const (
	groupProgram stateGroup = 1 << iota
	groupVertex
	groupRaster
	groupBlend
	groupConstants
	groupStreamOut
	groupDepthStencil

	allGroups = groupProgram | groupVertex | groupRaster | groupBlend |
		groupConstants | groupStreamOut | groupDepthStencil
)

// unitState shadows one texture unit. A stale unit keeps what it last
// bound but no longer matches the device, so the next bind is issued even
// when it looks redundant.
type unitState struct {
	target  uint32
	native  uint32
	sampler uint32
	stale   bool
}

// SetVertexBuffers binds buffers to consecutive input slots starting at
// first. A zero Buffer unbinds the slot.
func (b *Backend) SetVertexBuffers(first int, vbs []VertexBuffer) {
	const op = "SetVertexBuffers"
	assertf(first >= 0 && first+len(vbs) <= MaxVertexBuffers, op,
		"slots %d..%d exceed %d vertex buffers", first, first+len(vbs)-1, MaxVertexBuffers)
	for i, vb := range vbs {
		resourceAs[*bufferObject](b, op, vb.Buffer)
		b.requested.vbs[first+i] = vb
	}
}

// SetIndexBuffer binds the index buffer. offset is in bytes.
func (b *Backend) SetIndexBuffer(h Handle, format gputypes.IndexFormat, offset int) {
	resourceAs[*bufferObject](b, "SetIndexBuffer", h)
	b.requested.indexBuffer = h
	b.requested.indexFormat = format
	b.requested.indexOffset = offset
}

// SetInputLayout binds a vertex input layout. Handle 0 disables all
// attributes.
func (b *Backend) SetInputLayout(h Handle) {
	resourceAs[*inputLayout](b, "SetInputLayout", h)
	b.requested.layout = h
}

// SetShader binds a shader to its stage. Handle 0 clears the stage.
func (b *Backend) SetShader(stage ShaderStage, h Handle) {
	const op = "SetShader"
	if sh := resourceAs[*shaderObject](b, op, h); sh != nil {
		assertf(sh.stage == stage, op, "handle %d is a %s shader, bound as %s", h, sh.stage, stage)
	}
	switch stage {
	case StageVertex:
		b.requested.vs = h
	case StagePixel:
		b.requested.ps = h
	case StageStreamOut:
		b.requested.so = h
	case StageCompute:
		b.requested.cs = h
	default:
		assertf(false, op, "unmapped stage %v", stage)
	}
}

// SetRasterState binds rasterizer state. Handle 0 selects the defaults:
// solid fill, no culling, depth clipping on.
func (b *Backend) SetRasterState(h Handle) {
	resourceAs[*rasterState](b, "SetRasterState", h)
	b.requested.raster = h
}

// SetDepthStencilState binds depth and stencil state. Handle 0 disables
// both tests.
func (b *Backend) SetDepthStencilState(h Handle) {
	resourceAs[*depthStencilState](b, "SetDepthStencilState", h)
	b.requested.depthStencil = h
}

// SetBlendState binds blend state. Handle 0 disables blending.
func (b *Backend) SetBlendState(h Handle) {
	resourceAs[*blendState](b, "SetBlendState", h)
	b.requested.blend = h
}

// SetStencilRef sets the stencil reference value.
func (b *Backend) SetStencilRef(ref uint8) {
	b.requested.stencilRef = ref
}

// SetConstantBuffer binds a buffer to a constant-buffer slot.
func (b *Backend) SetConstantBuffer(slot int, h Handle) {
	const op = "SetConstantBuffer"
	assertf(slot >= 0 && slot < MaxUniformBlocks, op, "slot %d exceeds %d", slot, MaxUniformBlocks)
	resourceAs[*bufferObject](b, op, h)
	b.requested.constantBuffers[slot] = h
}

// SetStreamOutTarget binds the buffer that captures stream-out output.
func (b *Backend) SetStreamOutTarget(h Handle) {
	resourceAs[*bufferObject](b, "SetStreamOutTarget", h)
	b.requested.streamOut = h
}

// forget drops every requested reference to h and forces a full re-apply,
// so a resource later created in the same slot is never mistaken for the
// applied one.
func (b *Backend) forget(h Handle) {
	r := &b.requested
	for i := range r.vbs {
		if r.vbs[i].Buffer == h {
			r.vbs[i] = VertexBuffer{}
		}
	}
	for i := range r.constantBuffers {
		if r.constantBuffers[i] == h {
			r.constantBuffers[i] = NoHandle
		}
	}
	for _, f := range []*Handle{
		&r.indexBuffer, &r.layout, &r.vs, &r.ps, &r.so, &r.cs,
		&r.raster, &r.depthStencil, &r.blend, &r.streamOut,
	} {
		if *f == h {
			*f = NoHandle
		}
	}
	b.dirty = allGroups
}
