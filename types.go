package rhi

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Handle identifies a resource slot. The zero Handle means "no resource".
type Handle uint32

// Reserved handles.
const (
	// NoHandle is the null binding.
	NoHandle Handle = 0
	// BackBufferColor denotes the swap-chain color image in SetTargets.
	BackBufferColor Handle = 0xFFFFFFFF
	// BackBufferDepth denotes the swap-chain depth image in SetTargets.
	BackBufferDepth Handle = 0xFFFFFFFE
)

func (h Handle) reserved() bool {
	return h == NoHandle || h == BackBufferColor || h == BackBufferDepth
}

// Fixed binding table sizes.
const (
	MaxVertexBuffers = 8
	MaxVertexAttribs = 16
	MaxUniformBlocks = 16
	MaxTextureUnits  = 16
	MaxColorTargets  = 8
)

// ShaderStage is a programmable pipeline stage.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StagePixel
	// StageStreamOut is a stage whose outputs are captured into the
	// stream-out target. Its descriptor names the captured varyings.
	StageStreamOut
	StageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	case StageStreamOut:
		return "stream-out"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("ShaderStage(%d)", s)
	}
}

// ShaderLanguage is the language of a shader source.
type ShaderLanguage uint8

const (
	// LanguageGLSL passes the source to the driver unchanged.
	LanguageGLSL ShaderLanguage = iota
	// LanguageWGSL translates the source with naga and reflects its bindings.
	LanguageWGSL
)

// FillMode selects solid or wireframe rasterization.
type FillMode uint8

const (
	FillSolid FillMode = iota
	FillWireframe
)

// Usage hints how often a resource is updated.
type Usage uint8

const (
	UsageDefault Usage = iota
	UsageImmutable
	UsageDynamic
	UsageStaging
)

// BindFlags declare how a resource is bound to the pipeline.
type BindFlags uint32

const (
	BindVertexBuffer BindFlags = 1 << iota
	BindIndexBuffer
	BindConstantBuffer
	BindShaderResource
	BindRenderTarget
	BindDepthStencil
	BindStreamOutput
	BindShaderWrite
)

// CPUAccess declares CPU access to a resource.
type CPUAccess uint8

const (
	CPUAccessWrite CPUAccess = 1 << iota
	CPUAccessRead
)

// CollectionType is the layout of a texture's images.
type CollectionType uint8

const (
	CollectionNone CollectionType = iota
	CollectionCube
	CollectionCubeArray
	CollectionVolume
	CollectionArray
)

func (c CollectionType) String() string {
	switch c {
	case CollectionNone:
		return "2d"
	case CollectionCube:
		return "cube"
	case CollectionCubeArray:
		return "cube-array"
	case CollectionVolume:
		return "volume"
	case CollectionArray:
		return "array"
	default:
		return fmt.Sprintf("CollectionType(%d)", c)
	}
}

// Address modes beyond the gputypes set. GL-class devices without border
// support fall back to clamp-to-edge; mirror-once falls back to mirrored
// repeat.
const (
	AddressModeBorder     gputypes.AddressMode = 0x100
	AddressModeMirrorOnce gputypes.AddressMode = 0x101
)

// ClearFlags select the buffers a clear state clears.
type ClearFlags uint8

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil
)

// ResolveMethod selects how a multisampled target is resolved.
type ResolveMethod uint8

const (
	// ResolveAverage resolves with a hardware blit.
	ResolveAverage ResolveMethod = iota
	// ResolveMin, ResolveMax and ResolveCustom run a full-screen shader
	// pass registered with SetResolveShader.
	ResolveMin
	ResolveMax
	ResolveCustom
)

func (m ResolveMethod) String() string {
	switch m {
	case ResolveAverage:
		return "average"
	case ResolveMin:
		return "min"
	case ResolveMax:
		return "max"
	case ResolveCustom:
		return "custom"
	default:
		return fmt.Sprintf("ResolveMethod(%d)", m)
	}
}

// ResourceKind names the variant held by a resource slot.
type ResourceKind uint8

const (
	KindNone ResourceKind = iota
	KindClearState
	KindInputLayout
	KindRasterState
	KindDepthStencilState
	KindBlendState
	KindBuffer
	KindShader
	KindSampler
	KindTexture
	KindRenderTarget
	KindProgram
)

func (k ResourceKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindClearState:
		return "clear-state"
	case KindInputLayout:
		return "input-layout"
	case KindRasterState:
		return "raster-state"
	case KindDepthStencilState:
		return "depth-stencil-state"
	case KindBlendState:
		return "blend-state"
	case KindBuffer:
		return "buffer"
	case KindShader:
		return "shader"
	case KindSampler:
		return "sampler"
	case KindTexture:
		return "texture"
	case KindRenderTarget:
		return "render-target"
	case KindProgram:
		return "program"
	default:
		return fmt.Sprintf("ResourceKind(%d)", k)
	}
}
