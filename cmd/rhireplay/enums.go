package main

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

// named builds a lookup from the lower-case String() of every value in
// [first, last]. Names are matched after dropping dashes and underscores,
// so "triangle-list", "triangle_list" and "TriangleList" are equal.
func named[T interface {
	~uint8 | ~uint32
	String() string
}](first, last T) map[string]T {
	m := make(map[string]T, int(last-first)+1)
	for v := first; v <= last; v++ {
		s := v.String()
		if s == "Unknown" || s == "Undefined" {
			continue
		}
		m[normalize(s)] = v
	}
	return m
}

func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
}

var (
	topologies    = named(gputypes.PrimitiveTopologyTriangleList, gputypes.PrimitiveTopologyTriangleStrip)
	textureFmts   = named(gputypes.TextureFormatR8Unorm, gputypes.TextureFormatASTC12x12UnormSrgb)
	compares      = named(gputypes.CompareFunctionNever, gputypes.CompareFunctionAlways)
	blendFactors  = named(gputypes.BlendFactorZero, gputypes.BlendFactorOneMinusConstant)
	blendOps      = named(gputypes.BlendOperationAdd, gputypes.BlendOperationMax)
	stencilOps    = named(gputypes.StencilOperationKeep, gputypes.StencilOperationDecrementWrap)
	cullModes     = named(gputypes.CullModeNone, gputypes.CullModeBack)
	filters       = named(gputypes.FilterModeNearest, gputypes.FilterModeLinear)
	mipFilters    = named(gputypes.MipmapFilterModeNearest, gputypes.MipmapFilterModeLinear)
	indexFormats  = named(gputypes.IndexFormatUint16, gputypes.IndexFormatUint32)
	resolveMethod = named(rhi.ResolveAverage, rhi.ResolveCustom)
)

var addressModes = func() map[string]gputypes.AddressMode {
	m := named(gputypes.AddressModeClampToEdge, gputypes.AddressModeMirrorRepeat)
	m["border"] = rhi.AddressModeBorder
	m["mirroronce"] = rhi.AddressModeMirrorOnce
	return m
}()

var vertexFormats = map[string]gputypes.VertexFormat{
	"float32":      gputypes.VertexFormatFloat32,
	"float32x2":    gputypes.VertexFormatFloat32x2,
	"float32x3":    gputypes.VertexFormatFloat32x3,
	"float32x4":    gputypes.VertexFormatFloat32x4,
	"float16x2":    gputypes.VertexFormatFloat16x2,
	"float16x4":    gputypes.VertexFormatFloat16x4,
	"uint32":       gputypes.VertexFormatUint32,
	"uint32x2":     gputypes.VertexFormatUint32x2,
	"uint32x3":     gputypes.VertexFormatUint32x3,
	"uint32x4":     gputypes.VertexFormatUint32x4,
	"sint32":       gputypes.VertexFormatSint32,
	"sint32x2":     gputypes.VertexFormatSint32x2,
	"sint32x3":     gputypes.VertexFormatSint32x3,
	"sint32x4":     gputypes.VertexFormatSint32x4,
	"unorm8x2":     gputypes.VertexFormatUnorm8x2,
	"unorm8x4":     gputypes.VertexFormatUnorm8x4,
	"snorm8x4":     gputypes.VertexFormatSnorm8x4,
	"uint8x4":      gputypes.VertexFormatUint8x4,
	"unorm16x2":    gputypes.VertexFormatUnorm16x2,
	"unorm16x4":    gputypes.VertexFormatUnorm16x4,
	"uint16x2":     gputypes.VertexFormatUint16x2,
	"uint16x4":     gputypes.VertexFormatUint16x4,
	"sint16x2":     gputypes.VertexFormatSint16x2,
	"sint16x4":     gputypes.VertexFormatSint16x4,
	"unorm1010102": gputypes.VertexFormatUnorm1010102,
}

var stages = map[string]rhi.ShaderStage{
	"vertex":    rhi.StageVertex,
	"pixel":     rhi.StagePixel,
	"fragment":  rhi.StagePixel,
	"streamout": rhi.StageStreamOut,
	"compute":   rhi.StageCompute,
}

var collections = map[string]rhi.CollectionType{
	"":          rhi.CollectionNone,
	"2d":        rhi.CollectionNone,
	"cube":      rhi.CollectionCube,
	"cubearray": rhi.CollectionCubeArray,
	"volume":    rhi.CollectionVolume,
	"3d":        rhi.CollectionVolume,
	"array":     rhi.CollectionArray,
}

var bindFlags = map[string]rhi.BindFlags{
	"vertex":         rhi.BindVertexBuffer,
	"index":          rhi.BindIndexBuffer,
	"constant":       rhi.BindConstantBuffer,
	"shaderresource": rhi.BindShaderResource,
	"rendertarget":   rhi.BindRenderTarget,
	"depthstencil":   rhi.BindDepthStencil,
	"streamout":      rhi.BindStreamOutput,
	"shaderwrite":    rhi.BindShaderWrite,
}

var usages = map[string]rhi.Usage{
	"":          rhi.UsageDefault,
	"default":   rhi.UsageDefault,
	"immutable": rhi.UsageImmutable,
	"dynamic":   rhi.UsageDynamic,
	"staging":   rhi.UsageStaging,
}

var clearFlags = map[string]rhi.ClearFlags{
	"color":   rhi.ClearColor,
	"depth":   rhi.ClearDepth,
	"stencil": rhi.ClearStencil,
}

var kinds = map[string]rhi.ResourceKind{
	"clearstate":        rhi.KindClearState,
	"inputlayout":       rhi.KindInputLayout,
	"rasterstate":       rhi.KindRasterState,
	"depthstencilstate": rhi.KindDepthStencilState,
	"blendstate":        rhi.KindBlendState,
	"buffer":            rhi.KindBuffer,
	"shader":            rhi.KindShader,
	"sampler":           rhi.KindSampler,
	"texture":           rhi.KindTexture,
	"rendertarget":      rhi.KindRenderTarget,
	"program":           rhi.KindProgram,
}

// lookup resolves name in m. An empty name yields def.
func lookup[T any](what string, m map[string]T, name string, def T) (T, error) {
	if name == "" {
		return def, nil
	}
	v, ok := m[normalize(name)]
	if !ok {
		return def, fmt.Errorf("unknown %s %q", what, name)
	}
	return v, nil
}

// flags ORs the named flags.
func flags[T ~uint8 | ~uint32](what string, m map[string]T, names []string) (T, error) {
	var out T
	for _, n := range names {
		v, ok := m[normalize(n)]
		if !ok {
			return 0, fmt.Errorf("unknown %s %q", what, n)
		}
		out |= v
	}
	return out, nil
}
