package rhi

import "github.com/gogpu/gputypes"

// BufferDesc describes a buffer.
type BufferDesc struct {
	Usage     Usage
	BindFlags BindFlags
	CPUAccess CPUAccess
	// Size in bytes. Zero means len(Data).
	Size int
	Data []byte
}

// TextureDesc describes a texture or render target.
//
// Initial data is laid out face-major (cube), slice-major (array, cube
// array: each slice holds its full mip chain, cube array slices are
// layer*6+face) or mip-major (2D, volume: each level holds all its depth
// slices).
type TextureDesc struct {
	Width, Height int
	// Depth is the slice count of a volume texture.
	Depth int
	// ArrayLayers is the layer count of array and cube-array textures.
	ArrayLayers int
	// NumMips is the mip level count. Zero means 1.
	NumMips    int
	Format     gputypes.TextureFormat
	Collection CollectionType
	// SampleCount above 1 creates a multisampled render target.
	SampleCount int
	Usage       Usage
	BindFlags   BindFlags
	CPUAccess   CPUAccess
	Data        []byte
}

// ShaderDesc describes a shader stage.
type ShaderDesc struct {
	Stage    ShaderStage
	Language ShaderLanguage
	Source   string
	// EntryPoint selects the WGSL entry point. Empty picks the first.
	EntryPoint string
	// StreamOutVaryings lists the outputs captured by a stream-out stage.
	// A stream-out stage may have no Source, in which case it only names
	// the captured outputs of the paired vertex shader.
	StreamOutVaryings []string
}

// VertexAttribute describes one vertex attribute.
type VertexAttribute struct {
	Location  uint32
	Format    gputypes.VertexFormat
	InputSlot uint32
	// Offset within a vertex of the input slot's buffer, in bytes.
	Offset   int
	StepMode gputypes.VertexStepMode
	// StepRate is the instance divisor for per-instance attributes.
	StepRate uint32
}

// InputLayoutDesc describes how vertex buffers feed attributes.
type InputLayoutDesc struct {
	Attributes []VertexAttribute
}

// RasterStateDesc describes rasterizer state.
type RasterStateDesc struct {
	Fill FillMode
	Cull gputypes.CullMode
	// FrontCCW makes counter-clockwise triangles front facing when drawing
	// to the back buffer.
	FrontCCW    bool
	DepthClip   bool
	Scissor     bool
	Multisample bool
}

// StencilFaceDesc describes the stencil test of one face.
type StencilFaceDesc struct {
	Compare     gputypes.CompareFunction
	FailOp      gputypes.StencilOperation
	DepthFailOp gputypes.StencilOperation
	PassOp      gputypes.StencilOperation
}

// DepthStencilDesc describes depth and stencil state.
type DepthStencilDesc struct {
	DepthTest        bool
	DepthWrite       bool
	DepthCompare     gputypes.CompareFunction
	StencilEnable    bool
	StencilReadMask  uint8
	StencilWriteMask uint8
	Front, Back      StencilFaceDesc
}

// BlendTarget describes blending for one color target.
type BlendTarget struct {
	Enable    bool
	SrcColor  gputypes.BlendFactor
	DstColor  gputypes.BlendFactor
	ColorOp   gputypes.BlendOperation
	SrcAlpha  gputypes.BlendFactor
	DstAlpha  gputypes.BlendFactor
	AlphaOp   gputypes.BlendOperation
	WriteMask gputypes.ColorWriteMask
}

// BlendDesc describes blend state. Without IndependentBlend only the first
// target is used for every attachment.
type BlendDesc struct {
	AlphaToCoverage  bool
	IndependentBlend bool
	Targets          []BlendTarget
}

// SamplerDesc describes a sampler.
type SamplerDesc struct {
	MinFilter, MagFilter gputypes.FilterMode
	MipFilter            gputypes.MipmapFilterMode
	AddressU             gputypes.AddressMode
	AddressV             gputypes.AddressMode
	AddressW             gputypes.AddressMode
	MipLODBias           float32
	MaxAnisotropy        int
	// Compare enables depth comparison when not CompareFunctionUndefined.
	Compare        gputypes.CompareFunction
	MinLOD, MaxLOD float32
}

// ClearDesc describes a clear operation.
type ClearDesc struct {
	Flags   ClearFlags
	Color   [4]float32
	Depth   float32
	Stencil uint8
}

// ProgramBinding binds a resource name in a linked program to a slot.
type ProgramBinding struct {
	Name string
	Slot uint32
}

// ProgramDesc describes an explicitly linked program. Zero handles are
// absent stages.
type ProgramDesc struct {
	VertexShader    Handle
	PixelShader     Handle
	StreamOutShader Handle
	ComputeShader   Handle
	// UniformBlocks binds uniform block names to constant-buffer slots.
	UniformBlocks []ProgramBinding
	// Samplers binds sampler uniform names to texture units.
	Samplers []ProgramBinding
}

// VertexBuffer binds a buffer to an input slot.
type VertexBuffer struct {
	Buffer Handle
	Stride int
	Offset int
}

// Viewport is a viewport in pixels with top-left origin.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Rect is a scissor rectangle in pixels with top-left origin.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// ReadBackData is passed to a ReadBackResource callback. Data is only valid
// during the callback.
type ReadBackData struct {
	Data        []byte
	Format      gputypes.TextureFormat
	RowPitch    int
	DepthPitch  int
	ElementSize int
}
