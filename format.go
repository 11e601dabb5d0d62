package rhi

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"
)

// Native constants not defined by the gl package.
const (
	glLine                    = 0x1B01
	glFill                    = 0x1B02
	glTimeElapsed             = 0x88BF
	glTextureCubeMapArray     = 0x9009
	glClampToBorder           = 0x812D
	glGeometryShader          = 0x8DD9
	glRasterizerDiscard       = 0x8C89
	glDepthClamp              = 0x864F
	glMultisample             = 0x809D
	glSampleAlphaToCoverage   = 0x809E
	glTextureLODBias          = 0x8501
	glInvalidIndex            = 0xFFFFFFFF
	glRGB10A2                 = 0x8059
	glUnsignedInt2101010Rev   = 0x8368
	glR11FG11FB10F            = 0x8C3A
	glUnsignedInt10F11F11FRev = 0x8C3B
	glFloat32UnsignedInt248   = 0x8DAD
	glDepthComponent32F       = 0x8CAC
	glCompressedRGBAS3TCDXT1  = 0x83F1
	glCompressedRGBAS3TCDXT3  = 0x83F2
	glCompressedRGBAS3TCDXT5  = 0x83F3
	glCompressedRedRGTC1      = 0x8DBB
	glCompressedRGRGTC2       = 0x8DBD
	glCompressedRGBABPTC      = 0x8E8C
	glCompressedRGB8ETC2      = 0x9274
	glCompressedRGBA8ETC2EAC  = 0x9278
	glCompressedRGBAASTC4x4   = 0x93B0
)

// formatInfo maps an abstract texture format to its native description.
type formatInfo struct {
	format     gputypes.TextureFormat
	internal   uint32
	transfer   uint32
	typ        uint32
	attachment uint32
	// bytes per pixel, or per 4x4 block when compressed
	size       int
	compressed bool
	feature    gputypes.Feature
}

var formatTable = [...]formatInfo{
	{gputypes.TextureFormatR8Unorm, gl.R8, gl.RED, gl.UNSIGNED_BYTE, gl.COLOR_ATTACHMENT0, 1, false, 0},
	{gputypes.TextureFormatRG8Unorm, gl.RG8, gl.RG, gl.UNSIGNED_BYTE, gl.COLOR_ATTACHMENT0, 2, false, 0},
	{gputypes.TextureFormatRGBA8Unorm, gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, gl.COLOR_ATTACHMENT0, 4, false, 0},
	{gputypes.TextureFormatRGBA8UnormSrgb, gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE, gl.COLOR_ATTACHMENT0, 4, false, 0},
	{gputypes.TextureFormatBGRA8Unorm, gl.RGBA8, gl.BGRA, gl.UNSIGNED_BYTE, gl.COLOR_ATTACHMENT0, 4, false, 0},
	{gputypes.TextureFormatRGBA8Uint, gl.RGBA8UI, gl.RGBA_INTEGER, gl.UNSIGNED_BYTE, gl.COLOR_ATTACHMENT0, 4, false, 0},
	{gputypes.TextureFormatR16Float, gl.R16F, gl.RED, gl.HALF_FLOAT, gl.COLOR_ATTACHMENT0, 2, false, 0},
	{gputypes.TextureFormatRG16Float, gl.RG16F, gl.RG, gl.HALF_FLOAT, gl.COLOR_ATTACHMENT0, 4, false, 0},
	{gputypes.TextureFormatRGBA16Float, gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT, gl.COLOR_ATTACHMENT0, 8, false, 0},
	{gputypes.TextureFormatR32Float, gl.R32F, gl.RED, gl.FLOAT, gl.COLOR_ATTACHMENT0, 4, false, 0},
	{gputypes.TextureFormatRG32Float, gl.RG32F, gl.RG, gl.FLOAT, gl.COLOR_ATTACHMENT0, 8, false, 0},
	{gputypes.TextureFormatRGBA32Float, gl.RGBA32F, gl.RGBA, gl.FLOAT, gl.COLOR_ATTACHMENT0, 16, false, 0},
	{gputypes.TextureFormatR32Uint, gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT, gl.COLOR_ATTACHMENT0, 4, false, 0},
	{gputypes.TextureFormatRGB10A2Unorm, glRGB10A2, gl.RGBA, glUnsignedInt2101010Rev, gl.COLOR_ATTACHMENT0, 4, false, 0},
	{gputypes.TextureFormatRG11B10Ufloat, glR11FG11FB10F, gl.RGB, glUnsignedInt10F11F11FRev, gl.COLOR_ATTACHMENT0, 4, false, 0},
	{gputypes.TextureFormatDepth16Unorm, gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT, gl.UNSIGNED_SHORT, gl.DEPTH_ATTACHMENT, 2, false, 0},
	{gputypes.TextureFormatDepth24Plus, gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT, gl.DEPTH_ATTACHMENT, 4, false, 0},
	{gputypes.TextureFormatDepth24PlusStencil8, gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8, gl.DEPTH_STENCIL_ATTACHMENT, 4, false, 0},
	{gputypes.TextureFormatDepth32Float, glDepthComponent32F, gl.DEPTH_COMPONENT, gl.FLOAT, gl.DEPTH_ATTACHMENT, 4, false, 0},
	{gputypes.TextureFormatDepth32FloatStencil8, gl.DEPTH32F_STENCIL8, gl.DEPTH_STENCIL, glFloat32UnsignedInt248, gl.DEPTH_STENCIL_ATTACHMENT, 8, false, 0},
	{gputypes.TextureFormatBC1RGBAUnorm, glCompressedRGBAS3TCDXT1, 0, 0, 0, 8, true, gputypes.FeatureTextureCompressionBC},
	{gputypes.TextureFormatBC2RGBAUnorm, glCompressedRGBAS3TCDXT3, 0, 0, 0, 16, true, gputypes.FeatureTextureCompressionBC},
	{gputypes.TextureFormatBC3RGBAUnorm, glCompressedRGBAS3TCDXT5, 0, 0, 0, 16, true, gputypes.FeatureTextureCompressionBC},
	{gputypes.TextureFormatBC4RUnorm, glCompressedRedRGTC1, 0, 0, 0, 8, true, gputypes.FeatureTextureCompressionBC},
	{gputypes.TextureFormatBC5RGUnorm, glCompressedRGRGTC2, 0, 0, 0, 16, true, gputypes.FeatureTextureCompressionBC},
	{gputypes.TextureFormatBC7RGBAUnorm, glCompressedRGBABPTC, 0, 0, 0, 16, true, gputypes.FeatureTextureCompressionBC},
	{gputypes.TextureFormatETC2RGB8Unorm, glCompressedRGB8ETC2, 0, 0, 0, 8, true, gputypes.FeatureTextureCompressionETC2},
	{gputypes.TextureFormatETC2RGBA8Unorm, glCompressedRGBA8ETC2EAC, 0, 0, 0, 16, true, gputypes.FeatureTextureCompressionETC2},
	{gputypes.TextureFormatASTC4x4Unorm, glCompressedRGBAASTC4x4, 0, 0, 0, 16, true, gputypes.FeatureTextureCompressionASTC},
}

// lookupFormat returns the table entry of f.
func lookupFormat(f gputypes.TextureFormat) (formatInfo, bool) {
	for _, fi := range formatTable {
		if fi.format == f {
			return fi, true
		}
	}
	return formatInfo{}, false
}

func (fi formatInfo) depth() bool {
	return fi.attachment == gl.DEPTH_ATTACHMENT || fi.attachment == gl.DEPTH_STENCIL_ATTACHMENT
}

// rowPitch returns the byte size of one row (or one row of blocks) of a
// level with the given width.
func (fi formatInfo) rowPitch(width int) int {
	if fi.compressed {
		return (width + 3) / 4 * fi.size
	}
	return width * fi.size
}

// imageSize returns the byte size of one 2D image.
func (fi formatInfo) imageSize(width, height int) int {
	if fi.compressed {
		return fi.rowPitch(width) * ((height + 3) / 4)
	}
	return fi.rowPitch(width) * height
}

// mipDim halves a dimension per level, floored at 1.
func mipDim(d, level int) int {
	d >>= uint(level)
	if d < 1 {
		return 1
	}
	return d
}

// vertexFormatInfo maps a vertex format to {components, native type, normalized}.
type vertexFormatInfo struct {
	format     gputypes.VertexFormat
	components int32
	typ        uint32
	normalized bool
}

var vertexFormatTable = [...]vertexFormatInfo{
	{gputypes.VertexFormatUint8x2, 2, gl.UNSIGNED_BYTE, false},
	{gputypes.VertexFormatUint8x4, 4, gl.UNSIGNED_BYTE, false},
	{gputypes.VertexFormatSint8x2, 2, gl.BYTE, false},
	{gputypes.VertexFormatSint8x4, 4, gl.BYTE, false},
	{gputypes.VertexFormatUnorm8x2, 2, gl.UNSIGNED_BYTE, true},
	{gputypes.VertexFormatUnorm8x4, 4, gl.UNSIGNED_BYTE, true},
	{gputypes.VertexFormatSnorm8x2, 2, gl.BYTE, true},
	{gputypes.VertexFormatSnorm8x4, 4, gl.BYTE, true},
	{gputypes.VertexFormatUint16x2, 2, gl.UNSIGNED_SHORT, false},
	{gputypes.VertexFormatUint16x4, 4, gl.UNSIGNED_SHORT, false},
	{gputypes.VertexFormatSint16x2, 2, gl.SHORT, false},
	{gputypes.VertexFormatSint16x4, 4, gl.SHORT, false},
	{gputypes.VertexFormatUnorm16x2, 2, gl.UNSIGNED_SHORT, true},
	{gputypes.VertexFormatUnorm16x4, 4, gl.UNSIGNED_SHORT, true},
	{gputypes.VertexFormatSnorm16x2, 2, gl.SHORT, true},
	{gputypes.VertexFormatSnorm16x4, 4, gl.SHORT, true},
	{gputypes.VertexFormatFloat16x2, 2, gl.HALF_FLOAT, false},
	{gputypes.VertexFormatFloat16x4, 4, gl.HALF_FLOAT, false},
	{gputypes.VertexFormatFloat32, 1, gl.FLOAT, false},
	{gputypes.VertexFormatFloat32x2, 2, gl.FLOAT, false},
	{gputypes.VertexFormatFloat32x3, 3, gl.FLOAT, false},
	{gputypes.VertexFormatFloat32x4, 4, gl.FLOAT, false},
	{gputypes.VertexFormatUint32, 1, gl.UNSIGNED_INT, false},
	{gputypes.VertexFormatUint32x2, 2, gl.UNSIGNED_INT, false},
	{gputypes.VertexFormatUint32x3, 3, gl.UNSIGNED_INT, false},
	{gputypes.VertexFormatUint32x4, 4, gl.UNSIGNED_INT, false},
	{gputypes.VertexFormatSint32, 1, gl.INT, false},
	{gputypes.VertexFormatSint32x2, 2, gl.INT, false},
	{gputypes.VertexFormatSint32x3, 3, gl.INT, false},
	{gputypes.VertexFormatSint32x4, 4, gl.INT, false},
	{gputypes.VertexFormatUnorm1010102, 4, glUnsignedInt2101010Rev, true},
}

func toVertexFormat(f gputypes.VertexFormat) vertexFormatInfo {
	for _, vf := range vertexFormatTable {
		if vf.format == f {
			return vf
		}
	}
	assertf(false, "vertex format", "unmapped %v", f)
	return vertexFormatInfo{}
}

func toTopology(t gputypes.PrimitiveTopology) uint32 {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return gl.POINTS
	case gputypes.PrimitiveTopologyLineList:
		return gl.LINES
	case gputypes.PrimitiveTopologyLineStrip:
		return gl.LINE_STRIP
	case gputypes.PrimitiveTopologyTriangleList:
		return gl.TRIANGLES
	case gputypes.PrimitiveTopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	}
	assertf(false, "topology", "unmapped %v", t)
	return 0
}

// toIndexType returns the native element type and element size.
func toIndexType(f gputypes.IndexFormat) (uint32, int) {
	switch f {
	case gputypes.IndexFormatUint16:
		return gl.UNSIGNED_SHORT, 2
	case gputypes.IndexFormatUint32:
		return gl.UNSIGNED_INT, 4
	}
	assertf(false, "index format", "unmapped %v", f)
	return 0, 0
}

func toCompare(f gputypes.CompareFunction) uint32 {
	switch f {
	case gputypes.CompareFunctionNever:
		return gl.NEVER
	case gputypes.CompareFunctionLess:
		return gl.LESS
	case gputypes.CompareFunctionEqual:
		return gl.EQUAL
	case gputypes.CompareFunctionLessEqual:
		return gl.LEQUAL
	case gputypes.CompareFunctionGreater:
		return gl.GREATER
	case gputypes.CompareFunctionNotEqual:
		return gl.NOTEQUAL
	case gputypes.CompareFunctionGreaterEqual:
		return gl.GEQUAL
	case gputypes.CompareFunctionAlways:
		return gl.ALWAYS
	}
	assertf(false, "compare function", "unmapped %v", f)
	return 0
}

func toStencilOp(op gputypes.StencilOperation) uint32 {
	switch op {
	case gputypes.StencilOperationKeep:
		return gl.KEEP
	case gputypes.StencilOperationZero:
		return gl.ZERO
	case gputypes.StencilOperationReplace:
		return gl.REPLACE
	case gputypes.StencilOperationInvert:
		return gl.INVERT
	case gputypes.StencilOperationIncrementClamp:
		return gl.INCR
	case gputypes.StencilOperationDecrementClamp:
		return gl.DECR
	case gputypes.StencilOperationIncrementWrap:
		return gl.INCR_WRAP
	case gputypes.StencilOperationDecrementWrap:
		return gl.DECR_WRAP
	}
	assertf(false, "stencil operation", "unmapped %v", op)
	return 0
}

func toBlendFactor(f gputypes.BlendFactor) uint32 {
	switch f {
	case gputypes.BlendFactorZero:
		return gl.ZERO
	case gputypes.BlendFactorOne:
		return gl.ONE
	case gputypes.BlendFactorSrc:
		return gl.SRC_COLOR
	case gputypes.BlendFactorOneMinusSrc:
		return gl.ONE_MINUS_SRC_COLOR
	case gputypes.BlendFactorSrcAlpha:
		return gl.SRC_ALPHA
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case gputypes.BlendFactorDst:
		return gl.DST_COLOR
	case gputypes.BlendFactorOneMinusDst:
		return gl.ONE_MINUS_DST_COLOR
	case gputypes.BlendFactorDstAlpha:
		return gl.DST_ALPHA
	case gputypes.BlendFactorOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	case gputypes.BlendFactorSrcAlphaSaturated:
		return gl.SRC_ALPHA_SATURATE
	case gputypes.BlendFactorConstant:
		return gl.CONSTANT_COLOR
	case gputypes.BlendFactorOneMinusConstant:
		return gl.ONE_MINUS_CONSTANT_COLOR
	}
	assertf(false, "blend factor", "unmapped %v", f)
	return 0
}

func toBlendOp(op gputypes.BlendOperation) uint32 {
	switch op {
	case gputypes.BlendOperationAdd:
		return gl.FUNC_ADD
	case gputypes.BlendOperationSubtract:
		return gl.FUNC_SUBTRACT
	case gputypes.BlendOperationReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT
	case gputypes.BlendOperationMin:
		return gl.MIN
	case gputypes.BlendOperationMax:
		return gl.MAX
	}
	assertf(false, "blend operation", "unmapped %v", op)
	return 0
}

// toCull returns the culled face; ok is false for CullModeNone.
func toCull(c gputypes.CullMode) (face uint32, ok bool) {
	switch c {
	case gputypes.CullModeNone:
		return 0, false
	case gputypes.CullModeFront:
		return gl.FRONT, true
	case gputypes.CullModeBack:
		return gl.BACK, true
	}
	assertf(false, "cull mode", "unmapped %v", c)
	return 0, false
}

func toFill(f FillMode) uint32 {
	switch f {
	case FillSolid:
		return glFill
	case FillWireframe:
		return glLine
	}
	assertf(false, "fill mode", "unmapped %d", f)
	return 0
}

// toAddress maps an address mode. Border and mirror-once fall back to the
// nearest mode the device supports.
func toAddress(m gputypes.AddressMode, border bool) uint32 {
	switch m {
	case gputypes.AddressModeClampToEdge:
		return gl.CLAMP_TO_EDGE
	case gputypes.AddressModeRepeat:
		return gl.REPEAT
	case gputypes.AddressModeMirrorRepeat, AddressModeMirrorOnce:
		return gl.MIRRORED_REPEAT
	case AddressModeBorder:
		if border {
			return glClampToBorder
		}
		return gl.CLAMP_TO_EDGE
	}
	assertf(false, "address mode", "unmapped %v", m)
	return 0
}

// toFilter maps the abstract filter triple to the native minification and
// magnification filters. The mip filter folds into the minification value.
func toFilter(minf, magf gputypes.FilterMode, mip gputypes.MipmapFilterMode) (minNative, magNative uint32) {
	linearMin := filterLinear(minf)
	if filterLinear(magf) {
		magNative = gl.LINEAR
	} else {
		magNative = gl.NEAREST
	}
	switch mip {
	case gputypes.MipmapFilterModeUndefined:
		if linearMin {
			return gl.LINEAR, magNative
		}
		return gl.NEAREST, magNative
	case gputypes.MipmapFilterModeNearest:
		if linearMin {
			return gl.LINEAR_MIPMAP_NEAREST, magNative
		}
		return gl.NEAREST_MIPMAP_NEAREST, magNative
	case gputypes.MipmapFilterModeLinear:
		if linearMin {
			return gl.LINEAR_MIPMAP_LINEAR, magNative
		}
		return gl.NEAREST_MIPMAP_LINEAR, magNative
	}
	assertf(false, "mip filter", "unmapped %v", mip)
	return 0, 0
}

func filterLinear(f gputypes.FilterMode) bool {
	switch f {
	case gputypes.FilterModeUndefined, gputypes.FilterModeNearest:
		return false
	case gputypes.FilterModeLinear:
		return true
	}
	assertf(false, "filter mode", "unmapped %v", f)
	return false
}

func toShaderStage(s ShaderStage) uint32 {
	switch s {
	case StageVertex:
		return gl.VERTEX_SHADER
	case StageStreamOut:
		return glGeometryShader
	case StagePixel:
		return gl.FRAGMENT_SHADER
	case StageCompute:
		return gl.COMPUTE_SHADER
	}
	assertf(false, "shader stage", "unmapped %v", s)
	return 0
}

func toUsage(u Usage, cpu CPUAccess) uint32 {
	switch u {
	case UsageDefault, UsageImmutable:
		return gl.STATIC_DRAW
	case UsageDynamic:
		return gl.DYNAMIC_DRAW
	case UsageStaging:
		if cpu&CPUAccessRead != 0 {
			return gl.STREAM_READ
		}
		return gl.STREAM_DRAW
	}
	assertf(false, "usage", "unmapped %d", u)
	return 0
}

// toBufferTarget picks the native target a buffer is created on. Buffers
// may later be bound to any target.
func toBufferTarget(f BindFlags) uint32 {
	switch {
	case f&BindIndexBuffer != 0:
		return gl.ELEMENT_ARRAY_BUFFER
	case f&BindConstantBuffer != 0:
		return gl.UNIFORM_BUFFER
	case f&BindStreamOutput != 0:
		return gl.TRANSFORM_FEEDBACK_BUFFER
	case f&BindShaderWrite != 0:
		return gl.SHADER_STORAGE_BUFFER
	default:
		return gl.ARRAY_BUFFER
	}
}

func toTextureTarget(c CollectionType, msaa bool) uint32 {
	switch c {
	case CollectionNone:
		if msaa {
			return gl.TEXTURE_2D_MULTISAMPLE
		}
		return gl.TEXTURE_2D
	case CollectionCube:
		return gl.TEXTURE_CUBE_MAP
	case CollectionCubeArray:
		return glTextureCubeMapArray
	case CollectionVolume:
		return gl.TEXTURE_3D
	case CollectionArray:
		return gl.TEXTURE_2D_ARRAY
	}
	assertf(false, "collection", "unmapped %v", c)
	return 0
}

func toClearMask(f ClearFlags) uint32 {
	var mask uint32
	if f&ClearColor != 0 {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if f&ClearDepth != 0 {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if f&ClearStencil != 0 {
		mask |= gl.STENCIL_BUFFER_BIT
	}
	return mask
}
