package rhi

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"
)

// Draw draws count vertices starting at first.
func (b *Backend) Draw(topology gputypes.PrimitiveTopology, count, first int) {
	const op = "Draw"
	b.requested.baseVertex = 0
	p := b.resolveDraw(op)
	if p == nil {
		b.stats.SkippedDraws++
		return
	}
	mode := b.drawMode(topology)
	b.streamOut(p, mode, func() {
		b.dev.DrawArrays(mode, int32(first), int32(count))
	})
	b.stats.Draws++
	b.checkErrors(op)
}

// DrawIndexed draws count indices starting at index first. baseVertex is
// added to every index by offsetting the vertex attributes.
func (b *Backend) DrawIndexed(topology gputypes.PrimitiveTopology, count, first, baseVertex int) {
	b.drawIndexed("DrawIndexed", topology, count, first, baseVertex, 1)
}

// DrawIndexedInstanced draws instances copies of an indexed draw.
func (b *Backend) DrawIndexedInstanced(topology gputypes.PrimitiveTopology, count, instances, first, baseVertex int) {
	b.drawIndexed("DrawIndexedInstanced", topology, count, first, baseVertex, instances)
}

func (b *Backend) drawIndexed(op string, topology gputypes.PrimitiveTopology, count, first, baseVertex, instances int) {
	assertf(b.requested.indexBuffer != NoHandle, op, "no index buffer bound")
	b.requested.baseVertex = baseVertex
	p := b.resolveDraw(op)
	if p == nil {
		b.stats.SkippedDraws++
		return
	}
	mode := b.drawMode(topology)
	typ, size := toIndexType(b.requested.indexFormat)
	offset := b.requested.indexOffset + first*size
	b.streamOut(p, mode, func() {
		if instances > 1 {
			b.dev.DrawElementsInstanced(mode, int32(count), typ, offset, int32(instances))
		} else {
			b.dev.DrawElements(mode, int32(count), typ, offset)
		}
	})
	b.stats.Draws++
	b.checkErrors(op)
}

// DrawAuto draws the vertices captured by the last stream-out pass.
func (b *Backend) DrawAuto(topology gputypes.PrimitiveTopology) {
	const op = "DrawAuto"
	if !b.caps.StreamOut {
		b.stats.SkippedDraws++
		return
	}
	b.requested.baseVertex = 0
	p := b.resolveDraw(op)
	if p == nil {
		b.stats.SkippedDraws++
		return
	}
	mode := b.drawMode(topology)
	b.streamOut(p, mode, func() {
		b.dev.DrawTransformFeedback(mode)
	})
	b.stats.Draws++
	b.checkErrors(op)
}

// DispatchCompute runs the bound compute shader over x*y*z work groups.
func (b *Backend) DispatchCompute(x, y, z uint32) {
	const op = "DispatchCompute"
	if !b.caps.Compute {
		return
	}
	if b.resolveDispatch(op) == nil {
		return
	}
	b.dev.DispatchCompute(x, y, z)
	b.dev.MemoryBarrier(gl.ALL_BARRIER_BITS)
	b.stats.Dispatches++
	b.checkErrors(op)
}

// drawMode maps the topology and substitutes a line strip for triangles
// when wireframe fill must be emulated.
func (b *Backend) drawMode(t gputypes.PrimitiveTopology) uint32 {
	mode := toTopology(t)
	if b.caps.PolygonMode || (mode != gl.TRIANGLES && mode != gl.TRIANGLE_STRIP) {
		return mode
	}
	rs := resourceAs[*rasterState](b, "draw", b.requested.raster)
	if rs != nil && rs.desc.Fill == FillWireframe {
		return gl.LINE_STRIP
	}
	return mode
}

// streamOut runs draw inside a transform feedback pass when p captures
// stream-out output. Rasterization is discarded for such passes.
func (b *Backend) streamOut(p *linkedProgram, mode uint32, draw func()) {
	if p.key.so == NoHandle || !b.caps.StreamOut {
		draw()
		return
	}
	b.dev.Enable(glRasterizerDiscard)
	b.dev.BeginTransformFeedback(feedbackMode(mode))
	draw()
	b.dev.EndTransformFeedback()
	b.dev.Disable(glRasterizerDiscard)
}

// feedbackMode returns the primitive class a transform feedback pass
// records for a draw mode.
func feedbackMode(mode uint32) uint32 {
	switch mode {
	case gl.POINTS:
		return gl.POINTS
	case gl.LINES, gl.LINE_STRIP, gl.LINE_LOOP:
		return gl.LINES
	default:
		return gl.TRIANGLES
	}
}

// Clear clears the bound targets with the clear state at slot h. The
// scissor rectangle does not apply.
func (b *Backend) Clear(h Handle) {
	const op = "Clear"
	cs := resourceAs[*clearState](b, op, h)
	if cs == nil {
		return
	}
	if b.targets.stale {
		b.bindTargets()
	}
	d := cs.desc
	if d.Flags&ClearColor != 0 {
		b.dev.ClearColor(d.Color[0], d.Color[1], d.Color[2], d.Color[3])
		b.dev.ColorMask(true, true, true, true)
	}
	if d.Flags&ClearDepth != 0 {
		b.dev.ClearDepth(d.Depth)
		b.dev.DepthMask(true)
	}
	if d.Flags&ClearStencil != 0 {
		b.dev.ClearStencil(int32(d.Stencil))
		b.dev.StencilMaskSeparate(gl.FRONT_AND_BACK, 0xFF)
	}
	b.dev.Disable(gl.SCISSOR_TEST)
	b.dev.Clear(toClearMask(d.Flags))
	b.dirty |= groupRaster | groupBlend | groupDepthStencil
	b.checkErrors(op)
}

// Present ends the frame: perf markers of the previous frame are
// collected, the image is shown, the applied state is forgotten and a
// changed window size drops the framebuffer cache.
func (b *Backend) Present() {
	const op = "Present"
	b.perf.endFrame(b.dev)
	b.dev.Present()
	b.resetApplied()

	if w, h := b.backBufferSize(); w != b.bbWidth || h != b.bbHeight {
		Logger().Debug("rhi: back buffer resized", "from", [2]int{b.bbWidth, b.bbHeight}, "to", [2]int{w, h})
		b.bbWidth, b.bbHeight = w, h
		b.dropFramebuffers()
	}
	b.frame++
	b.stats.Frames++
	b.checkErrors(op)
}
