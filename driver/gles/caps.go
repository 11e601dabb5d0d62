package gles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rhi/driver"
)

// ErrVersion is returned when the context is older than OpenGL 3.3 or
// OpenGL ES 3.0.
var ErrVersion = errors.New("gles: unsupported GL version")

// glVersion is a parsed GL_VERSION string.
type glVersion struct {
	es    bool
	major int
	minor int
}

func (v glVersion) atLeast(major, minor int) bool {
	return v.major > major || (v.major == major && v.minor >= minor)
}

func (v glVersion) String() string {
	if v.es {
		return fmt.Sprintf("OpenGL ES %d.%d", v.major, v.minor)
	}
	return fmt.Sprintf("OpenGL %d.%d", v.major, v.minor)
}

// parseVersion parses strings such as "4.6 (Core Profile) Mesa 24.0.5" and
// "OpenGL ES 3.2 Mesa 24.0.5".
func parseVersion(s string) (glVersion, error) {
	var v glVersion
	rest := strings.TrimSpace(s)
	for _, prefix := range []string{"OpenGL ES-CM ", "OpenGL ES-CL ", "OpenGL ES "} {
		if strings.HasPrefix(rest, prefix) {
			v.es = true
			rest = strings.TrimPrefix(rest, prefix)
			break
		}
	}
	if _, err := fmt.Sscanf(rest, "%d.%d", &v.major, &v.minor); err != nil {
		return glVersion{}, fmt.Errorf("gles: parse version %q: %w", s, err)
	}
	return v, nil
}

// supported reports whether v meets the minimum the device needs.
func (v glVersion) supported() bool {
	if v.es {
		return v.atLeast(3, 0)
	}
	return v.atLeast(3, 3)
}

func adapterType(vendor, renderer string) gpucontext.AdapterType {
	r := strings.ToLower(vendor + " " + renderer)
	switch {
	case strings.Contains(r, "llvmpipe"), strings.Contains(r, "softpipe"),
		strings.Contains(r, "swiftshader"), strings.Contains(r, "software"):
		return gpucontext.AdapterTypeSoftware
	case strings.Contains(r, "intel"), strings.Contains(r, "mali"),
		strings.Contains(r, "adreno"), strings.Contains(r, "powervr"),
		strings.Contains(r, "apple"), strings.Contains(r, "v3d"):
		return gpucontext.AdapterTypeIntegrated
	case strings.Contains(r, "nvidia"), strings.Contains(r, "geforce"),
		strings.Contains(r, "radeon"), strings.Contains(r, "amd"):
		return gpucontext.AdapterTypeDiscrete
	}
	return gpucontext.AdapterTypeUnknown
}

// contextInfo is what a freshly current context reports about itself.
type contextInfo struct {
	vendor   string
	renderer string
	version  glVersion
	exts     map[string]bool

	maxColorAttachments int32
	maxDrawBuffers      int32
	maxTextureUnits     int32
	maxVertexAttribs    int32
	maxUniformBlocks    int32
	maxSamples          int32

	// Resolved entry points.
	compute        bool
	samplerObjects bool
	loaded         entryPoints
}

// entryPoints records which optional entry points resolved.
type entryPoints struct {
	texImage3D        bool
	compressedTex     bool
	textureLayer      bool
	drawBuffers       bool
	polygonMode       bool
	divisor           bool
	queries           bool
	queryResult64     bool
	transformFeedback bool
	drawTransformFB   bool
	multisample       bool
}

// deriveCaps turns the queried context state into driver capabilities.
func deriveCaps(info contextInfo) driver.Caps {
	v := info.version
	c := driver.Caps{
		Adapter: gpucontext.AdapterInfo{
			Name: info.renderer,
			Type: adapterType(info.vendor, info.renderer),
		},
		Version:          v.String(),
		Texture3D:        info.loaded.texImage3D && info.loaded.textureLayer,
		Compute:          info.compute && (v.es && v.atLeast(3, 1) || !v.es && v.atLeast(4, 3)),
		Multisample:      info.loaded.multisample && info.maxSamples > 1,
		PolygonMode:      !v.es && info.loaded.polygonMode,
		StreamOut:        info.loaded.transformFeedback && info.loaded.drawTransformFB && (!v.es && v.atLeast(4, 0)),
		InstanceStep:     info.loaded.divisor,
		SamplerObjects:   info.samplerObjects,
		ClampToBorder:    !v.es || v.atLeast(3, 2) || info.exts["GL_EXT_texture_border_clamp"],
		MaxTextureUnits:  int(info.maxTextureUnits),
		MaxVertexAttribs: int(info.maxVertexAttribs),
		MaxUniformBlocks: int(info.maxUniformBlocks),
		MaxSamples:       int(info.maxSamples),
	}
	c.CubeArray = c.Texture3D && (!v.es && v.atLeast(4, 0) || v.es && v.atLeast(3, 2) ||
		info.exts["GL_ARB_texture_cube_map_array"] || info.exts["GL_EXT_texture_cube_map_array"])

	c.MaxColorAttachments = 1
	if info.loaded.drawBuffers {
		c.MaxColorAttachments = int(min(info.maxColorAttachments, info.maxDrawBuffers))
	}
	if !c.Multisample {
		c.MaxSamples = 1
	}

	if info.loaded.compressedTex {
		if info.exts["GL_EXT_texture_compression_s3tc"] && (info.exts["GL_ARB_texture_compression_rgtc"] ||
			info.exts["GL_EXT_texture_compression_rgtc"]) && (info.exts["GL_ARB_texture_compression_bptc"] ||
			info.exts["GL_EXT_texture_compression_bptc"]) {
			c.Features.Insert(gputypes.FeatureTextureCompressionBC)
		}
		if v.es || v.atLeast(4, 3) || info.exts["GL_ARB_ES3_compatibility"] {
			c.Features.Insert(gputypes.FeatureTextureCompressionETC2)
		}
		if info.exts["GL_KHR_texture_compression_astc_ldr"] {
			c.Features.Insert(gputypes.FeatureTextureCompressionASTC)
		}
	}
	timer := !v.es || info.exts["GL_EXT_disjoint_timer_query"]
	if timer && info.loaded.queries && info.loaded.queryResult64 {
		c.Features.Insert(gputypes.FeatureTimestampQuery)
	}
	return c
}

func versionError(v glVersion) error {
	return fmt.Errorf("%w: %s (need OpenGL 3.3 or OpenGL ES 3.0)", ErrVersion, v)
}
