package rhi

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"
)

var (
	defaultRaster = RasterStateDesc{DepthClip: true}
	defaultBlend  = BlendTarget{WriteMask: gputypes.ColorWriteMaskAll}
)

// resolveDraw brings the device in line with the requested snapshot before
// a draw. Groups are applied in a fixed order: program, vertex input,
// raster, blend, constant buffers, stream-out target, depth-stencil.
// It returns nil when no usable program is bound and the draw must be
// skipped.
func (b *Backend) resolveDraw(op string) *linkedProgram {
	req, app := &b.requested, &b.applied
	if b.targets.stale {
		b.bindTargets()
	}

	key := req.graphicsKey()
	if key.vs == NoHandle {
		Logger().Debug("rhi: draw without vertex shader", "op", op)
		return nil
	}
	prog := b.useProgram(key)
	if prog == nil {
		return nil
	}

	if b.dirty&groupVertex != 0 || req.layout != app.layout || req.vbs != app.vbs || req.baseVertex != app.baseVertex {
		b.applyVertexInput(op)
		b.stats.StateChanges++
	}
	b.bindElements(op)

	if b.dirty&groupRaster != 0 || req.raster != app.raster || req.backbufferBound != app.backbufferBound {
		b.applyRaster(op)
		b.stats.StateChanges++
	}
	if b.dirty&groupBlend != 0 || req.blend != app.blend {
		b.applyBlend(op)
		b.stats.StateChanges++
	}
	b.applyConstantBuffers(op)
	if b.dirty&groupStreamOut != 0 || req.streamOut != app.streamOut {
		b.applyStreamOutTarget(op)
		b.stats.StateChanges++
	}
	if b.dirty&groupDepthStencil != 0 || req.depthStencil != app.depthStencil || req.stencilRef != app.stencilRef {
		b.applyDepthStencil(op)
		b.stats.StateChanges++
	}

	*app = *req
	b.dirty = 0
	return prog
}

// resolveDispatch binds the compute program and constant buffers.
func (b *Backend) resolveDispatch(op string) *linkedProgram {
	req := &b.requested
	if req.cs == NoHandle {
		Logger().Debug("rhi: dispatch without compute shader", "op", op)
		return nil
	}
	prog := b.useProgram(programKey{cs: req.cs})
	if prog == nil {
		return nil
	}
	b.applyConstantBuffers(op)
	b.applied.cs = req.cs
	b.applied.constantBuffers = req.constantBuffers
	b.dirty &^= groupProgram | groupConstants
	return prog
}

// graphicsKey returns the stage tuple of the graphics program to draw with.
// A stream-out stage takes precedence over the pixel stage.
func (s *bindState) graphicsKey() programKey {
	if s.so != NoHandle {
		return programKey{vs: s.vs, so: s.so}
	}
	return programKey{vs: s.vs, ps: s.ps}
}

// useProgram makes the program for key current, linking it on first use.
func (b *Backend) useProgram(key programKey) *linkedProgram {
	cur := b.current
	if b.dirty&groupProgram == 0 && cur != nil && cur.key == key && !cur.retired {
		if cur.inert() {
			return nil
		}
		return cur
	}
	p := b.program(key, nil)
	b.current = p
	if p.inert() {
		return nil
	}
	b.dev.UseProgram(p.native)
	for unit, loc := range p.textureLocs {
		if loc != unusedLocation {
			b.dev.Uniform1i(loc, int32(unit))
		}
	}
	b.stats.StateChanges++
	return p
}

func (b *Backend) applyVertexInput(op string) {
	req := &b.requested
	layout := resourceAs[*inputLayout](b, op, req.layout)
	vao := b.defaultVAO
	var attrs []VertexAttribute
	if layout != nil {
		if layout.vao == 0 {
			layout.vao = b.dev.GenVertexArray()
		}
		vao = layout.vao
		attrs = layout.attrs
	}
	b.bindVertexArray(vao)

	for slot, vb := range req.vbs {
		var buf *bufferObject
		for _, a := range attrs {
			if a.InputSlot != uint32(slot) {
				continue
			}
			if buf == nil {
				buf = resourceAs[*bufferObject](b, op, vb.Buffer)
			}
			if buf == nil {
				b.dev.DisableVertexAttribArray(a.Location)
				continue
			}
			vf := toVertexFormat(a.Format)
			offset := vb.Offset + a.Offset
			instanced := a.StepMode == gputypes.VertexStepModeInstance
			if !instanced {
				offset += vb.Stride * req.baseVertex
			}
			b.dev.BindBuffer(gl.ARRAY_BUFFER, buf.native)
			b.dev.EnableVertexAttribArray(a.Location)
			b.dev.VertexAttribPointer(a.Location, vf.components, vf.typ, vf.normalized, int32(vb.Stride), offset)
			if b.caps.InstanceStep {
				var divisor uint32
				if instanced {
					divisor = max(a.StepRate, 1)
				}
				b.dev.VertexAttribDivisor(a.Location, divisor)
			}
		}
	}
}

func (b *Backend) bindVertexArray(vao uint32) {
	if vao == b.boundVAO {
		return
	}
	b.dev.BindVertexArray(vao)
	b.boundVAO = vao
	// The element buffer binding is part of the vertex array.
	b.elements = 0
	b.elementsKnown = false
}

// bindElements binds the requested index buffer to the current vertex array.
func (b *Backend) bindElements(op string) {
	var native uint32
	if ib := resourceAs[*bufferObject](b, op, b.requested.indexBuffer); ib != nil {
		native = ib.native
	}
	if b.elementsKnown && native == b.elements {
		return
	}
	b.dev.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, native)
	b.elements = native
	b.elementsKnown = true
}

func (b *Backend) applyRaster(op string) {
	req := &b.requested
	d := defaultRaster
	if rs := resourceAs[*rasterState](b, op, req.raster); rs != nil {
		d = rs.desc
	}
	if face, ok := toCull(d.Cull); ok {
		b.dev.Enable(gl.CULL_FACE)
		b.dev.CullFace(face)
	} else {
		b.dev.Disable(gl.CULL_FACE)
	}
	// Off-screen targets are rendered upside down, which flips winding.
	ccw := d.FrontCCW
	if !req.backbufferBound {
		ccw = !ccw
	}
	if ccw {
		b.dev.FrontFace(gl.CCW)
	} else {
		b.dev.FrontFace(gl.CW)
	}
	if b.caps.PolygonMode {
		b.dev.PolygonMode(gl.FRONT_AND_BACK, toFill(d.Fill))
	}
	enable(b, gl.SCISSOR_TEST, d.Scissor)
	enable(b, glDepthClamp, !d.DepthClip)
	if b.caps.Multisample {
		enable(b, glMultisample, d.Multisample)
	}
}

func (b *Backend) applyBlend(op string) {
	d := BlendDesc{}
	if bs := resourceAs[*blendState](b, op, b.requested.blend); bs != nil {
		d = bs.desc
	}
	t := defaultBlend
	if len(d.Targets) > 0 {
		t = d.Targets[0]
	}
	if t.Enable {
		b.dev.Enable(gl.BLEND)
		b.dev.BlendFuncSeparate(toBlendFactor(t.SrcColor), toBlendFactor(t.DstColor),
			toBlendFactor(t.SrcAlpha), toBlendFactor(t.DstAlpha))
		b.dev.BlendEquationSeparate(toBlendOp(t.ColorOp), toBlendOp(t.AlphaOp))
	} else {
		b.dev.Disable(gl.BLEND)
	}
	m := t.WriteMask
	b.dev.ColorMask(m&gputypes.ColorWriteMaskRed != 0, m&gputypes.ColorWriteMaskGreen != 0,
		m&gputypes.ColorWriteMaskBlue != 0, m&gputypes.ColorWriteMaskAlpha != 0)
	enable(b, glSampleAlphaToCoverage, d.AlphaToCoverage)
}

func (b *Backend) applyConstantBuffers(op string) {
	req, app := &b.requested, &b.applied
	changed := false
	for slot, h := range req.constantBuffers {
		if b.dirty&groupConstants == 0 && h == app.constantBuffers[slot] {
			continue
		}
		var native uint32
		if buf := resourceAs[*bufferObject](b, op, h); buf != nil {
			native = buf.native
		}
		b.dev.BindBufferBase(gl.UNIFORM_BUFFER, uint32(slot), native)
		changed = true
	}
	if changed {
		b.stats.StateChanges++
	}
}

func (b *Backend) applyStreamOutTarget(op string) {
	if !b.caps.StreamOut {
		return
	}
	var native uint32
	if buf := resourceAs[*bufferObject](b, op, b.requested.streamOut); buf != nil {
		native = buf.native
	}
	b.dev.BindBufferBase(gl.TRANSFORM_FEEDBACK_BUFFER, 0, native)
}

func (b *Backend) applyDepthStencil(op string) {
	req := &b.requested
	var d DepthStencilDesc
	if ds := resourceAs[*depthStencilState](b, op, req.depthStencil); ds != nil {
		d = ds.desc
	}
	if d.DepthTest {
		b.dev.Enable(gl.DEPTH_TEST)
		b.dev.DepthFunc(toCompare(compareOr(d.DepthCompare, gputypes.CompareFunctionLess)))
	} else {
		b.dev.Disable(gl.DEPTH_TEST)
	}
	b.dev.DepthMask(d.DepthWrite)
	if !d.StencilEnable {
		b.dev.Disable(gl.STENCIL_TEST)
		return
	}
	b.dev.Enable(gl.STENCIL_TEST)
	for _, f := range [...]struct {
		face uint32
		desc StencilFaceDesc
	}{{gl.FRONT, d.Front}, {gl.BACK, d.Back}} {
		b.dev.StencilFuncSeparate(f.face, toCompare(compareOr(f.desc.Compare, gputypes.CompareFunctionAlways)),
			int32(req.stencilRef), uint32(d.StencilReadMask))
		b.dev.StencilOpSeparate(f.face, toStencilOp(stencilOpOr(f.desc.FailOp)),
			toStencilOp(stencilOpOr(f.desc.DepthFailOp)), toStencilOp(stencilOpOr(f.desc.PassOp)))
		b.dev.StencilMaskSeparate(f.face, uint32(d.StencilWriteMask))
	}
}

func compareOr(f, def gputypes.CompareFunction) gputypes.CompareFunction {
	if f == gputypes.CompareFunctionUndefined {
		return def
	}
	return f
}

func stencilOpOr(op gputypes.StencilOperation) gputypes.StencilOperation {
	if op == gputypes.StencilOperationUndefined {
		return gputypes.StencilOperationKeep
	}
	return op
}

func enable(b *Backend, capability uint32, on bool) {
	if on {
		b.dev.Enable(capability)
	} else {
		b.dev.Disable(capability)
	}
}
