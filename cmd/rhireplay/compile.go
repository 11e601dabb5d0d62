package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

// step is one compiled script operation.
type step struct {
	what string
	line int
	run  func(b *rhi.Backend) error
}

// compiled is a script with every resource and command resolved to a step.
type compiled struct {
	setup  []step
	frames [][]step
}

func compile(s *Script) (*compiled, error) {
	c := &compiled{}
	for _, r := range s.Resources {
		st, err := compileResource(r)
		if err != nil {
			return nil, fmt.Errorf("line %d: resource %d (%s): %w", r.node.Line, r.Handle, r.Kind, err)
		}
		c.setup = append(c.setup, st)
	}
	for i, f := range s.Frames {
		var steps []step
		for _, cmd := range f {
			st, err := compileCommand(cmd)
			if err != nil {
				return nil, fmt.Errorf("line %d: frame %d: %s: %w", cmd.node.Line, i, cmd.Op, err)
			}
			steps = append(steps, st)
		}
		c.frames = append(c.frames, steps)
	}
	return c, nil
}

type attributeSpec struct {
	Location uint32 `yaml:"location"`
	Format   string `yaml:"format"`
	Slot     uint32 `yaml:"slot"`
	Offset   int    `yaml:"offset"`
	Instance bool   `yaml:"instance"`
	Rate     uint32 `yaml:"rate"`
}

type stencilFaceSpec struct {
	Compare   string `yaml:"compare"`
	Fail      string `yaml:"fail"`
	DepthFail string `yaml:"depth_fail"`
	Pass      string `yaml:"pass"`
}

type blendTargetSpec struct {
	Enable   bool   `yaml:"enable"`
	Src      string `yaml:"src"`
	Dst      string `yaml:"dst"`
	Op       string `yaml:"op"`
	SrcAlpha string `yaml:"src_alpha"`
	DstAlpha string `yaml:"dst_alpha"`
	AlphaOp  string `yaml:"alpha_op"`
	NoWrite  bool   `yaml:"no_write"`
}

// resourceSpec holds every field a resource kind may use.
type resourceSpec struct {
	payload `yaml:",inline"`

	// clear-state
	Flags      []string   `yaml:"flags"`
	Color      [4]float32 `yaml:"color"`
	ClearDepth float32    `yaml:"clear_depth"`
	Stencil    uint8      `yaml:"stencil"`

	// input-layout
	Attributes []attributeSpec `yaml:"attributes"`

	// raster-state
	Wireframe   bool   `yaml:"wireframe"`
	Cull        string `yaml:"cull"`
	FrontCCW    bool   `yaml:"front_ccw"`
	DepthClip   bool   `yaml:"depth_clip"`
	Scissor     bool   `yaml:"scissor"`
	Multisample bool   `yaml:"multisample"`

	// depth-stencil-state
	DepthTest     bool            `yaml:"depth_test"`
	DepthWrite    bool            `yaml:"depth_write"`
	Compare       string          `yaml:"compare"`
	StencilEnable bool            `yaml:"stencil_enable"`
	ReadMask      *uint8          `yaml:"read_mask"`
	WriteMask     *uint8          `yaml:"write_mask"`
	Front         stencilFaceSpec `yaml:"front"`
	Back          stencilFaceSpec `yaml:"back"`

	// blend-state
	AlphaToCoverage bool              `yaml:"alpha_to_coverage"`
	Independent     bool              `yaml:"independent"`
	Targets         []blendTargetSpec `yaml:"targets"`

	// buffer, texture, render-target
	Bind   []string `yaml:"bind"`
	Usage  string   `yaml:"usage"`
	Size   int      `yaml:"size"`
	Read   bool     `yaml:"cpu_read"`
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
	Depth  int      `yaml:"depth"`
	Layers int      `yaml:"layers"`
	Mips   int      `yaml:"mips"`
	// Format is a texture format name.
	Format     string `yaml:"format"`
	Collection string `yaml:"collection"`
	Samples    int    `yaml:"samples"`

	// shader
	Stage    string   `yaml:"stage"`
	Language string   `yaml:"language"`
	Source   string   `yaml:"source"`
	Entry    string   `yaml:"entry"`
	Varyings []string `yaml:"varyings"`

	// sampler
	Min        string  `yaml:"min"`
	Mag        string  `yaml:"mag"`
	Mip        string  `yaml:"mip"`
	Address    string  `yaml:"address"`
	LODBias    float32 `yaml:"lod_bias"`
	Anisotropy int     `yaml:"anisotropy"`
	MinLOD     float32 `yaml:"min_lod"`
	MaxLOD     float32 `yaml:"max_lod"`

	// program
	Vertex        Handle            `yaml:"vertex"`
	Pixel         Handle            `yaml:"pixel"`
	StreamOut     Handle            `yaml:"stream_out"`
	Compute       Handle            `yaml:"compute"`
	UniformBlocks map[string]uint32 `yaml:"uniform_blocks"`
	Samplers      map[string]uint32 `yaml:"samplers"`
}

func compileResource(r Resource) (step, error) {
	var spec resourceSpec
	if err := r.node.Decode(&spec); err != nil {
		return step{}, err
	}
	h := rhi.Handle(r.Handle)
	st := step{what: "create " + r.Kind, line: r.node.Line}

	kind, err := lookup("kind", kinds, r.Kind, rhi.KindNone)
	if err != nil {
		return st, err
	}
	switch kind {
	case rhi.KindClearState:
		fl, err := flags("clear flag", clearFlags, spec.Flags)
		if err != nil {
			return st, err
		}
		if len(spec.Flags) == 0 {
			fl = rhi.ClearColor | rhi.ClearDepth | rhi.ClearStencil
		}
		desc := rhi.ClearDesc{Flags: fl, Color: spec.Color, Depth: spec.ClearDepth, Stencil: spec.Stencil}
		st.run = func(b *rhi.Backend) error { return b.CreateClearState(h, desc) }

	case rhi.KindInputLayout:
		var desc rhi.InputLayoutDesc
		for _, a := range spec.Attributes {
			f, err := lookup("vertex format", vertexFormats, a.Format, gputypes.VertexFormatFloat32x4)
			if err != nil {
				return st, err
			}
			va := rhi.VertexAttribute{Location: a.Location, Format: f, InputSlot: a.Slot, Offset: a.Offset,
				StepMode: gputypes.VertexStepModeVertex}
			if a.Instance {
				va.StepMode = gputypes.VertexStepModeInstance
				va.StepRate = max(a.Rate, 1)
			}
			desc.Attributes = append(desc.Attributes, va)
		}
		st.run = func(b *rhi.Backend) error { return b.CreateInputLayout(h, desc) }

	case rhi.KindRasterState:
		cull, err := lookup("cull mode", cullModes, spec.Cull, gputypes.CullModeNone)
		if err != nil {
			return st, err
		}
		desc := rhi.RasterStateDesc{Cull: cull, FrontCCW: spec.FrontCCW, DepthClip: spec.DepthClip,
			Scissor: spec.Scissor, Multisample: spec.Multisample}
		if spec.Wireframe {
			desc.Fill = rhi.FillWireframe
		}
		st.run = func(b *rhi.Backend) error { return b.CreateRasterState(h, desc) }

	case rhi.KindDepthStencilState:
		desc, err := depthStencilDesc(spec)
		if err != nil {
			return st, err
		}
		st.run = func(b *rhi.Backend) error { return b.CreateDepthStencilState(h, desc) }

	case rhi.KindBlendState:
		desc := rhi.BlendDesc{AlphaToCoverage: spec.AlphaToCoverage, IndependentBlend: spec.Independent}
		for _, t := range spec.Targets {
			bt, err := blendTarget(t)
			if err != nil {
				return st, err
			}
			desc.Targets = append(desc.Targets, bt)
		}
		st.run = func(b *rhi.Backend) error { return b.CreateBlendState(h, desc) }

	case rhi.KindBuffer:
		bind, err := flags("bind flag", bindFlags, spec.Bind)
		if err != nil {
			return st, err
		}
		usage, err := lookup("usage", usages, spec.Usage, rhi.UsageDefault)
		if err != nil {
			return st, err
		}
		desc := rhi.BufferDesc{Usage: usage, BindFlags: bind, Size: spec.Size, Data: spec.payload.bytes()}
		if spec.Read {
			desc.CPUAccess = rhi.CPUAccessRead
		}
		st.run = func(b *rhi.Backend) error { return b.CreateBuffer(h, desc) }

	case rhi.KindTexture, rhi.KindRenderTarget:
		desc, err := textureDesc(spec)
		if err != nil {
			return st, err
		}
		if kind == rhi.KindTexture {
			st.run = func(b *rhi.Backend) error { return b.CreateTexture(h, desc) }
		} else {
			st.run = func(b *rhi.Backend) error { return b.CreateRenderTarget(h, desc) }
		}

	case rhi.KindShader:
		stage, err := lookup("stage", stages, spec.Stage, rhi.StageVertex)
		if err != nil {
			return st, err
		}
		desc := rhi.ShaderDesc{Stage: stage, Source: spec.Source, EntryPoint: spec.Entry,
			StreamOutVaryings: spec.Varyings}
		switch normalize(spec.Language) {
		case "", "glsl":
		case "wgsl":
			desc.Language = rhi.LanguageWGSL
		default:
			return st, fmt.Errorf("unknown language %q", spec.Language)
		}
		st.run = func(b *rhi.Backend) error { return b.CreateShader(h, desc) }

	case rhi.KindSampler:
		desc, err := samplerDesc(spec)
		if err != nil {
			return st, err
		}
		st.run = func(b *rhi.Backend) error { return b.CreateSampler(h, desc) }

	case rhi.KindProgram:
		desc := rhi.ProgramDesc{
			VertexShader:    rhi.Handle(spec.Vertex),
			PixelShader:     rhi.Handle(spec.Pixel),
			StreamOutShader: rhi.Handle(spec.StreamOut),
			ComputeShader:   rhi.Handle(spec.Compute),
			UniformBlocks:   bindings(spec.UniformBlocks),
			Samplers:        bindings(spec.Samplers),
		}
		st.run = func(b *rhi.Backend) error { return b.LinkShaderProgram(h, desc) }

	default:
		return st, fmt.Errorf("kind %q cannot be created", r.Kind)
	}
	return st, nil
}

func bindings(m map[string]uint32) []rhi.ProgramBinding {
	var out []rhi.ProgramBinding
	for _, name := range slices.Sorted(maps.Keys(m)) {
		out = append(out, rhi.ProgramBinding{Name: name, Slot: m[name]})
	}
	return out
}

func depthStencilDesc(spec resourceSpec) (rhi.DepthStencilDesc, error) {
	cmp, err := lookup("compare", compares, spec.Compare, gputypes.CompareFunctionLess)
	if err != nil {
		return rhi.DepthStencilDesc{}, err
	}
	desc := rhi.DepthStencilDesc{
		DepthTest:        spec.DepthTest,
		DepthWrite:       spec.DepthWrite,
		DepthCompare:     cmp,
		StencilEnable:    spec.StencilEnable,
		StencilReadMask:  0xFF,
		StencilWriteMask: 0xFF,
	}
	if spec.ReadMask != nil {
		desc.StencilReadMask = *spec.ReadMask
	}
	if spec.WriteMask != nil {
		desc.StencilWriteMask = *spec.WriteMask
	}
	if desc.Front, err = stencilFace(spec.Front); err != nil {
		return desc, err
	}
	desc.Back, err = stencilFace(spec.Back)
	return desc, err
}

func stencilFace(s stencilFaceSpec) (rhi.StencilFaceDesc, error) {
	var (
		f   rhi.StencilFaceDesc
		err error
	)
	if f.Compare, err = lookup("compare", compares, s.Compare, gputypes.CompareFunctionAlways); err != nil {
		return f, err
	}
	keep := gputypes.StencilOperationKeep
	if f.FailOp, err = lookup("stencil op", stencilOps, s.Fail, keep); err != nil {
		return f, err
	}
	if f.DepthFailOp, err = lookup("stencil op", stencilOps, s.DepthFail, keep); err != nil {
		return f, err
	}
	f.PassOp, err = lookup("stencil op", stencilOps, s.Pass, keep)
	return f, err
}

func blendTarget(t blendTargetSpec) (rhi.BlendTarget, error) {
	bt := rhi.BlendTarget{Enable: t.Enable, WriteMask: gputypes.ColorWriteMaskAll}
	if t.NoWrite {
		bt.WriteMask = gputypes.ColorWriteMaskNone
	}
	var err error
	one, zero := gputypes.BlendFactorOne, gputypes.BlendFactorZero
	if bt.SrcColor, err = lookup("blend factor", blendFactors, t.Src, one); err != nil {
		return bt, err
	}
	if bt.DstColor, err = lookup("blend factor", blendFactors, t.Dst, zero); err != nil {
		return bt, err
	}
	if bt.ColorOp, err = lookup("blend op", blendOps, t.Op, gputypes.BlendOperationAdd); err != nil {
		return bt, err
	}
	if bt.SrcAlpha, err = lookup("blend factor", blendFactors, t.SrcAlpha, bt.SrcColor); err != nil {
		return bt, err
	}
	if bt.DstAlpha, err = lookup("blend factor", blendFactors, t.DstAlpha, bt.DstColor); err != nil {
		return bt, err
	}
	bt.AlphaOp, err = lookup("blend op", blendOps, t.AlphaOp, bt.ColorOp)
	return bt, err
}

func textureDesc(spec resourceSpec) (rhi.TextureDesc, error) {
	format, err := lookup("texture format", textureFmts, spec.Format, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		return rhi.TextureDesc{}, err
	}
	coll, err := lookup("collection", collections, spec.Collection, rhi.CollectionNone)
	if err != nil {
		return rhi.TextureDesc{}, err
	}
	bind, err := flags("bind flag", bindFlags, spec.Bind)
	if err != nil {
		return rhi.TextureDesc{}, err
	}
	usage, err := lookup("usage", usages, spec.Usage, rhi.UsageDefault)
	if err != nil {
		return rhi.TextureDesc{}, err
	}
	desc := rhi.TextureDesc{
		Width:       spec.Width,
		Height:      spec.Height,
		Depth:       spec.Depth,
		ArrayLayers: spec.Layers,
		NumMips:     spec.Mips,
		Format:      format,
		Collection:  coll,
		SampleCount: spec.Samples,
		Usage:       usage,
		BindFlags:   bind,
		Data:        spec.payload.bytes(),
	}
	if spec.Read {
		desc.CPUAccess = rhi.CPUAccessRead
	}
	return desc, nil
}

func samplerDesc(spec resourceSpec) (rhi.SamplerDesc, error) {
	var (
		d   rhi.SamplerDesc
		err error
	)
	if d.MinFilter, err = lookup("filter", filters, spec.Min, gputypes.FilterModeLinear); err != nil {
		return d, err
	}
	if d.MagFilter, err = lookup("filter", filters, spec.Mag, d.MinFilter); err != nil {
		return d, err
	}
	if d.MipFilter, err = lookup("mip filter", mipFilters, spec.Mip, gputypes.MipmapFilterModeNearest); err != nil {
		return d, err
	}
	addr, err := lookup("address mode", addressModes, spec.Address, gputypes.AddressModeClampToEdge)
	if err != nil {
		return d, err
	}
	d.AddressU, d.AddressV, d.AddressW = addr, addr, addr
	if spec.Compare != "" {
		if d.Compare, err = lookup("compare", compares, spec.Compare, gputypes.CompareFunctionUndefined); err != nil {
			return d, err
		}
	}
	d.MipLODBias = spec.LODBias
	d.MaxAnisotropy = spec.Anisotropy
	d.MinLOD = spec.MinLOD
	d.MaxLOD = spec.MaxLOD
	if d.MaxLOD == 0 {
		d.MaxLOD = 1000
	}
	return d, nil
}
