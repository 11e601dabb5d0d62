package driver

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Caps describes what a Device can do.
//
// Features carries the texture compression families
// (FeatureTextureCompressionBC, ETC2, ASTC) and FeatureTimestampQuery when
// time-elapsed queries are available.
type Caps struct {
	Adapter  gpucontext.AdapterInfo
	Version  string
	Features gputypes.Features

	// Texture3D covers volume and 2D array textures.
	Texture3D   bool
	CubeArray   bool
	Compute     bool
	Multisample bool
	// PolygonMode is false when wireframe fill has to be emulated.
	PolygonMode    bool
	StreamOut      bool
	InstanceStep   bool
	SamplerObjects bool
	ClampToBorder  bool
	// TopLeftOrigin is true when texture and framebuffer row 0 is the top
	// row. GL-class devices report false.
	TopLeftOrigin bool

	MaxColorAttachments int
	MaxTextureUnits     int
	MaxVertexAttribs    int
	MaxUniformBlocks    int
	MaxSamples          int
}

// GPUTimer reports whether time-elapsed queries are available.
func (c Caps) GPUTimer() bool {
	return c.Features.Contains(gputypes.FeatureTimestampQuery)
}

// String returns a one-line summary suitable for logging.
func (c Caps) String() string {
	return fmt.Sprintf("%s (%s) %s: compute=%t timer=%t msaa=%t tex3d=%t cubeArray=%t streamOut=%t",
		c.Adapter.Name, c.Adapter.Type, c.Version,
		c.Compute, c.GPUTimer(), c.Multisample, c.Texture3D, c.CubeArray, c.StreamOut)
}
