package rhi

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"

	"github.com/gogpu/rhi/shader"
)

// CreateClearState stores clear values at slot h.
func (b *Backend) CreateClearState(h Handle, desc ClearDesc) error {
	slot, err := b.slotFor("CreateClearState", h)
	if err != nil {
		return err
	}
	*slot = &clearState{desc: desc}
	return nil
}

// CreateInputLayout stores a vertex input layout at slot h.
func (b *Backend) CreateInputLayout(h Handle, desc InputLayoutDesc) error {
	const op = "CreateInputLayout"
	if len(desc.Attributes) > MaxVertexAttribs {
		return fmt.Errorf("rhi: %s %d: %d attributes exceed %d: %w", op, h, len(desc.Attributes), MaxVertexAttribs, ErrInvalidDescriptor)
	}
	for _, a := range desc.Attributes {
		if a.InputSlot >= MaxVertexBuffers || a.Location >= MaxVertexAttribs {
			return fmt.Errorf("rhi: %s %d: attribute %d on slot %d out of range: %w", op, h, a.Location, a.InputSlot, ErrInvalidDescriptor)
		}
		if a.Format == gputypes.VertexFormatUndefined {
			return fmt.Errorf("rhi: %s %d: attribute %d has no format: %w", op, h, a.Location, ErrInvalidDescriptor)
		}
		if a.StepMode == gputypes.VertexStepModeInstance && !b.caps.InstanceStep {
			return fmt.Errorf("rhi: %s %d: per-instance attributes: %w", op, h, ErrUnsupported)
		}
	}
	slot, err := b.slotFor(op, h)
	if err != nil {
		return err
	}
	*slot = &inputLayout{attrs: append([]VertexAttribute(nil), desc.Attributes...)}
	return nil
}

// CreateRasterState stores rasterizer state at slot h.
//
// Wireframe fill on a device without polygon mode draws triangle
// primitives as a single line strip through their vertices. Edges back to
// each triangle's first vertex are missing; it is meant for debug views only.
func (b *Backend) CreateRasterState(h Handle, desc RasterStateDesc) error {
	slot, err := b.slotFor("CreateRasterState", h)
	if err != nil {
		return err
	}
	if desc.Fill == FillWireframe && !b.caps.PolygonMode {
		Logger().Warn("rhi: wireframe emulated with line strips", "handle", h)
	}
	*slot = &rasterState{desc: desc}
	return nil
}

// CreateDepthStencilState stores depth and stencil state at slot h.
func (b *Backend) CreateDepthStencilState(h Handle, desc DepthStencilDesc) error {
	slot, err := b.slotFor("CreateDepthStencilState", h)
	if err != nil {
		return err
	}
	*slot = &depthStencilState{desc: desc}
	return nil
}

// CreateBlendState stores blend state at slot h. Only the first target's
// blend equation is applied; GL-class devices share one equation across
// attachments.
func (b *Backend) CreateBlendState(h Handle, desc BlendDesc) error {
	const op = "CreateBlendState"
	if len(desc.Targets) > MaxColorTargets {
		return fmt.Errorf("rhi: %s %d: %d targets exceed %d: %w", op, h, len(desc.Targets), MaxColorTargets, ErrInvalidDescriptor)
	}
	slot, err := b.slotFor(op, h)
	if err != nil {
		return err
	}
	if desc.IndependentBlend && len(desc.Targets) > 1 {
		Logger().Warn("rhi: independent blend not supported, using target 0", "handle", h)
	}
	*slot = &blendState{desc: BlendDesc{
		AlphaToCoverage:  desc.AlphaToCoverage,
		IndependentBlend: desc.IndependentBlend,
		Targets:          append([]BlendTarget(nil), desc.Targets...),
	}}
	return nil
}

// CreateBuffer creates a buffer at slot h.
func (b *Backend) CreateBuffer(h Handle, desc BufferDesc) error {
	const op = "CreateBuffer"
	size := desc.Size
	if size == 0 {
		size = len(desc.Data)
	}
	if size <= 0 || len(desc.Data) > size {
		return fmt.Errorf("rhi: %s %d: size %d with %d bytes of data: %w", op, h, size, len(desc.Data), ErrInvalidDescriptor)
	}
	if desc.BindFlags&BindStreamOutput != 0 && !b.caps.StreamOut {
		return fmt.Errorf("rhi: %s %d: stream-out buffer: %w", op, h, ErrUnsupported)
	}
	slot, err := b.slotFor(op, h)
	if err != nil {
		return err
	}
	buf := &bufferObject{
		native: b.dev.GenBuffer(),
		target: toBufferTarget(desc.BindFlags),
		usage:  toUsage(desc.Usage, desc.CPUAccess),
		size:   size,
		bind:   desc.BindFlags,
	}
	b.bindBufferForUpload(buf)
	if len(desc.Data) == size {
		b.dev.BufferData(buf.target, size, desc.Data, buf.usage)
	} else {
		b.dev.BufferData(buf.target, size, nil, buf.usage)
		if len(desc.Data) > 0 {
			b.dev.BufferSubData(buf.target, 0, desc.Data)
		}
	}
	*slot = buf
	b.checkErrors(op)
	return nil
}

// UpdateBuffer writes data at offset into the buffer at slot h.
func (b *Backend) UpdateBuffer(h Handle, offset int, data []byte) error {
	const op = "UpdateBuffer"
	buf := resourceAs[*bufferObject](b, op, h)
	if buf == nil {
		return fmt.Errorf("rhi: %s: %w", op, ErrReservedHandle)
	}
	if offset < 0 || offset+len(data) > buf.size {
		return fmt.Errorf("rhi: %s %d: range %d+%d exceeds size %d: %w", op, h, offset, len(data), buf.size, ErrInvalidDescriptor)
	}
	b.bindBufferForUpload(buf)
	b.dev.BufferSubData(buf.target, offset, data)
	b.checkErrors(op)
	return nil
}

// bindBufferForUpload binds buf to its creation target. Element buffers are
// vertex array state, so the default vertex array is bound first.
func (b *Backend) bindBufferForUpload(buf *bufferObject) {
	if buf.target == gl.ELEMENT_ARRAY_BUFFER {
		b.bindVertexArray(b.defaultVAO)
		b.elements = buf.native
		b.elementsKnown = true
		b.dirty |= groupVertex
	}
	b.dev.BindBuffer(buf.target, buf.native)
}

// CreateShader compiles a shader at slot h.
//
// WGSL sources are translated to GLSL and their bindings reflected, so
// programs linked from them resolve uniform blocks and samplers without an
// explicit ProgramDesc. A stream-out shader without source only names the
// vertex outputs to capture; with GLSL source it is a geometry stage whose
// outputs are captured.
//
// Translation errors are returned. Native compile errors are logged with
// the numbered source and leave an inert shader: programs using it skip
// their draws.
func (b *Backend) CreateShader(h Handle, desc ShaderDesc) error {
	const op = "CreateShader"
	switch {
	case desc.Stage == StageCompute && !b.caps.Compute:
		return fmt.Errorf("rhi: %s %d: compute: %w", op, h, ErrUnsupported)
	case desc.Stage == StageStreamOut && !b.caps.StreamOut:
		return fmt.Errorf("rhi: %s %d: stream-out: %w", op, h, ErrUnsupported)
	case desc.Stage == StageStreamOut && len(desc.StreamOutVaryings) == 0:
		return fmt.Errorf("rhi: %s %d: stream-out shader names no outputs: %w", op, h, ErrInvalidDescriptor)
	case desc.Source == "" && desc.Stage != StageStreamOut:
		return fmt.Errorf("rhi: %s %d: empty source: %w", op, h, ErrInvalidDescriptor)
	case desc.Stage == StageStreamOut && desc.Language == LanguageWGSL && desc.Source != "":
		return fmt.Errorf("rhi: %s %d: WGSL has no geometry stage: %w", op, h, ErrUnsupported)
	}
	stage := toShaderStage(desc.Stage)

	sh := &shaderObject{
		stage:    desc.Stage,
		varyings: append([]string(nil), desc.StreamOutVaryings...),
	}
	src := desc.Source
	if desc.Language == LanguageWGSL && src != "" {
		out, err := shader.Translate(src, desc.EntryPoint, shader.Options{Version: b.glsl, Debug: b.cfg.Debug})
		if err != nil {
			return fmt.Errorf("rhi: %s %d: %w: %w", op, h, ErrShaderSource, err)
		}
		if got := shaderStageOf(out.Reflection.Stage); got != desc.Stage {
			return fmt.Errorf("rhi: %s %d: entry point %q is a %s shader: %w", op, h, out.Reflection.EntryPoint, got, ErrInvalidDescriptor)
		}
		src = out.GLSL
		sh.reflection = &out.Reflection
	}

	slot, err := b.slotFor(op, h)
	if err != nil {
		return err
	}
	if src != "" {
		native := b.dev.CreateShader(stage)
		b.dev.ShaderSource(native, src)
		b.dev.CompileShader(native)
		if ok, info := b.dev.ShaderStatus(native); !ok {
			Logger().Error("rhi: shader compile failed", "handle", h, "stage", desc.Stage,
				"log", info, "source", numberLines(src))
			b.dev.DeleteShader(native)
			sh.failed = true
		} else {
			sh.native = native
		}
	}
	*slot = sh
	b.checkErrors(op)
	return nil
}

// numberLines prefixes each source line with its 1-based number.
func numberLines(src string) string {
	lines := strings.Split(src, "\n")
	var sb strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&sb, "%4d: %s\n", i+1, l)
	}
	return sb.String()
}

// CreateSampler creates a sampler at slot h. On devices without sampler
// objects the parameters are applied to each texture it is bound with.
func (b *Backend) CreateSampler(h Handle, desc SamplerDesc) error {
	slot, err := b.slotFor("CreateSampler", h)
	if err != nil {
		return err
	}
	s := &samplerObject{desc: desc}
	if b.caps.SamplerObjects {
		s.native = b.dev.GenSampler()
		b.applySampler(desc,
			func(pname uint32, v int32) { b.dev.SamplerParameteri(s.native, pname, v) },
			func(pname uint32, v float32) { b.dev.SamplerParameterf(s.native, pname, v) })
	}
	*slot = s
	b.checkErrors("CreateSampler")
	return nil
}

// applySampler emits the native parameters of d through seti and setf.
func (b *Backend) applySampler(d SamplerDesc, seti func(uint32, int32), setf func(uint32, float32)) {
	minf, magf := toFilter(d.MinFilter, d.MagFilter, d.MipFilter)
	seti(gl.TEXTURE_MIN_FILTER, int32(minf))
	seti(gl.TEXTURE_MAG_FILTER, int32(magf))
	seti(gl.TEXTURE_WRAP_S, int32(toAddress(addressOr(d.AddressU), b.caps.ClampToBorder)))
	seti(gl.TEXTURE_WRAP_T, int32(toAddress(addressOr(d.AddressV), b.caps.ClampToBorder)))
	seti(gl.TEXTURE_WRAP_R, int32(toAddress(addressOr(d.AddressW), b.caps.ClampToBorder)))
	if d.Compare != gputypes.CompareFunctionUndefined {
		seti(gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		seti(gl.TEXTURE_COMPARE_FUNC, int32(toCompare(d.Compare)))
	} else {
		seti(gl.TEXTURE_COMPARE_MODE, 0)
	}
	maxLOD := d.MaxLOD
	if maxLOD == 0 {
		maxLOD = 1000
	}
	setf(gl.TEXTURE_MIN_LOD, d.MinLOD)
	setf(gl.TEXTURE_MAX_LOD, maxLOD)
	if d.MipLODBias != 0 {
		setf(glTextureLODBias, d.MipLODBias)
	}
	if d.MaxAnisotropy > 1 {
		setf(gl.TEXTURE_MAX_ANISOTROPY, float32(d.MaxAnisotropy))
	}
}

func addressOr(m gputypes.AddressMode) gputypes.AddressMode {
	if m == gputypes.AddressModeUndefined {
		return gputypes.AddressModeClampToEdge
	}
	return m
}
