package main

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

type vertexBufferSpec struct {
	Buffer Handle `yaml:"buffer"`
	Stride int    `yaml:"stride"`
	Offset int    `yaml:"offset"`
}

// commandSpec holds every field a command may use.
type commandSpec struct {
	payload `yaml:",inline"`

	Handle  Handle `yaml:"handle"`
	Sampler Handle `yaml:"sampler"`
	Slot    int    `yaml:"slot"`
	Unit    int    `yaml:"unit"`
	Stage   string `yaml:"stage"`
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Src     Handle `yaml:"src"`
	Value   uint8  `yaml:"value"`

	// targets
	Colors     []Handle `yaml:"colors"`
	Depth      Handle   `yaml:"depth"`
	ColorSlice int      `yaml:"color_slice"`
	DepthSlice int      `yaml:"depth_slice"`

	// vertex and index buffers
	First   int                `yaml:"first"`
	Buffers []vertexBufferSpec `yaml:"buffers"`
	Format  string             `yaml:"format"`
	Offset  int                `yaml:"offset"`

	// draws
	Topology   string `yaml:"topology"`
	Count      int    `yaml:"count"`
	BaseVertex int    `yaml:"base_vertex"`
	Instances  int    `yaml:"instances"`
	X          uint32 `yaml:"x"`
	Y          uint32 `yaml:"y"`
	Z          uint32 `yaml:"z"`

	// viewport and scissor
	Rect [4]float32 `yaml:"rect"`

	// resolve
	Method string `yaml:"method"`
	Vertex Handle `yaml:"vertex"`
	Pixel  Handle `yaml:"pixel"`

	// update-texture
	Level  int `yaml:"level"`
	Layer  int `yaml:"layer"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func compileCommand(c Command) (step, error) {
	var s commandSpec
	if err := c.node.Decode(&s); err != nil {
		return step{}, err
	}
	st := step{what: c.Op, line: c.node.Line}
	h := rhi.Handle(s.Handle)

	topology, err := lookup("topology", topologies, s.Topology, gputypes.PrimitiveTopologyTriangleList)
	if err != nil {
		return st, err
	}

	switch normalize(c.Op) {
	case "targets":
		colors := make([]rhi.Handle, len(s.Colors))
		for i, c := range s.Colors {
			colors[i] = rhi.Handle(c)
		}
		st.run = set(func(b *rhi.Backend) { b.SetTargets(colors, rhi.Handle(s.Depth), s.ColorSlice, s.DepthSlice) })
	case "clear":
		st.run = set(func(b *rhi.Backend) { b.Clear(h) })
	case "vertexbuffers":
		vbs := make([]rhi.VertexBuffer, len(s.Buffers))
		for i, v := range s.Buffers {
			vbs[i] = rhi.VertexBuffer{Buffer: rhi.Handle(v.Buffer), Stride: v.Stride, Offset: v.Offset}
		}
		st.run = set(func(b *rhi.Backend) { b.SetVertexBuffers(s.First, vbs) })
	case "indexbuffer":
		f, err := lookup("index format", indexFormats, s.Format, gputypes.IndexFormatUint16)
		if err != nil {
			return st, err
		}
		st.run = set(func(b *rhi.Backend) { b.SetIndexBuffer(h, f, s.Offset) })
	case "layout":
		st.run = set(func(b *rhi.Backend) { b.SetInputLayout(h) })
	case "shader":
		stage, err := lookup("stage", stages, s.Stage, rhi.StageVertex)
		if err != nil {
			return st, err
		}
		st.run = set(func(b *rhi.Backend) { b.SetShader(stage, h) })
	case "raster":
		st.run = set(func(b *rhi.Backend) { b.SetRasterState(h) })
	case "depthstencil":
		st.run = set(func(b *rhi.Backend) { b.SetDepthStencilState(h) })
	case "blend":
		st.run = set(func(b *rhi.Backend) { b.SetBlendState(h) })
	case "stencilref":
		st.run = set(func(b *rhi.Backend) { b.SetStencilRef(s.Value) })
	case "constantbuffer":
		st.run = set(func(b *rhi.Backend) { b.SetConstantBuffer(s.Slot, h) })
	case "streamout":
		st.run = set(func(b *rhi.Backend) { b.SetStreamOutTarget(h) })
	case "texture":
		st.run = set(func(b *rhi.Backend) { b.SetTexture(s.Unit, h, rhi.Handle(s.Sampler)) })
	case "viewport":
		v := rhi.Viewport{X: s.Rect[0], Y: s.Rect[1], Width: s.Rect[2], Height: s.Rect[3], MaxDepth: 1}
		st.run = set(func(b *rhi.Backend) { b.SetViewport(v) })
	case "scissor":
		r := rhi.Rect{Left: int32(s.Rect[0]), Top: int32(s.Rect[1]), Right: int32(s.Rect[2]), Bottom: int32(s.Rect[3])}
		st.run = set(func(b *rhi.Backend) { b.SetScissorRect(r) })
	case "draw":
		st.run = set(func(b *rhi.Backend) { b.Draw(topology, s.Count, s.First) })
	case "drawindexed":
		if s.Instances > 1 {
			st.run = set(func(b *rhi.Backend) {
				b.DrawIndexedInstanced(topology, s.Count, s.Instances, s.First, s.BaseVertex)
			})
		} else {
			st.run = set(func(b *rhi.Backend) { b.DrawIndexed(topology, s.Count, s.First, s.BaseVertex) })
		}
	case "drawauto":
		st.run = set(func(b *rhi.Backend) { b.DrawAuto(topology) })
	case "dispatch":
		x, y, z := max(s.X, 1), max(s.Y, 1), max(s.Z, 1)
		st.run = set(func(b *rhi.Backend) { b.DispatchCompute(x, y, z) })
	case "updatebuffer":
		data := s.payload.bytes()
		st.run = func(b *rhi.Backend) error { return b.UpdateBuffer(h, s.Offset, data) }
	case "updatetexture":
		data := s.payload.bytes()
		st.run = func(b *rhi.Backend) error {
			return b.UpdateTexture(h, s.Level, s.Layer, int(s.X), int(s.Y), s.Width, s.Height, data)
		}
	case "resolve":
		m, err := lookup("resolve method", resolveMethod, s.Method, rhi.ResolveAverage)
		if err != nil {
			return st, err
		}
		st.run = set(func(b *rhi.Backend) { b.ResolveTarget(h, m) })
	case "resolveshader":
		m, err := lookup("resolve method", resolveMethod, s.Method, rhi.ResolveCustom)
		if err != nil {
			return st, err
		}
		st.run = set(func(b *rhi.Backend) { b.SetResolveShader(m, rhi.Handle(s.Vertex), rhi.Handle(s.Pixel)) })
	case "push":
		st.run = set(func(b *rhi.Backend) { b.PushPerfMarker(s.Name) })
	case "pop":
		st.run = set(func(b *rhi.Backend) { b.PopPerfMarker() })
	case "release":
		kind, err := lookup("kind", kinds, s.Kind, rhi.KindNone)
		if err != nil {
			return st, err
		}
		rel, err := releaser(kind)
		if err != nil {
			return st, err
		}
		st.run = set(func(b *rhi.Backend) { rel(b, h) })
	case "replace":
		kind, err := lookup("kind", kinds, s.Kind, rhi.KindNone)
		if err != nil {
			return st, err
		}
		st.run = func(b *rhi.Backend) error { return b.ReplaceResource(h, rhi.Handle(s.Src), kind) }
	default:
		return st, fmt.Errorf("unknown op %q", c.Op)
	}
	return st, nil
}

// set adapts an operation without an error result.
func set(fn func(b *rhi.Backend)) func(b *rhi.Backend) error {
	return func(b *rhi.Backend) error {
		fn(b)
		return nil
	}
}

func releaser(kind rhi.ResourceKind) (func(*rhi.Backend, rhi.Handle), error) {
	switch kind {
	case rhi.KindClearState:
		return (*rhi.Backend).ReleaseClearState, nil
	case rhi.KindInputLayout:
		return (*rhi.Backend).ReleaseInputLayout, nil
	case rhi.KindRasterState:
		return (*rhi.Backend).ReleaseRasterState, nil
	case rhi.KindDepthStencilState:
		return (*rhi.Backend).ReleaseDepthStencilState, nil
	case rhi.KindBlendState:
		return (*rhi.Backend).ReleaseBlendState, nil
	case rhi.KindBuffer:
		return (*rhi.Backend).ReleaseBuffer, nil
	case rhi.KindShader:
		return (*rhi.Backend).ReleaseShader, nil
	case rhi.KindSampler:
		return (*rhi.Backend).ReleaseSampler, nil
	case rhi.KindTexture:
		return (*rhi.Backend).ReleaseTexture, nil
	case rhi.KindRenderTarget:
		return (*rhi.Backend).ReleaseRenderTarget, nil
	case rhi.KindProgram:
		return (*rhi.Backend).ReleaseProgram, nil
	}
	return nil, fmt.Errorf("kind %s cannot be released", kind)
}
