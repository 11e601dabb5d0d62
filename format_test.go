package rhi

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"
)

func TestFormatTable(t *testing.T) {
	tests := []struct {
		format     gputypes.TextureFormat
		internal   uint32
		depth      bool
		compressed bool
	}{
		{gputypes.TextureFormatRGBA8Unorm, gl.RGBA8, false, false},
		{gputypes.TextureFormatRGBA8UnormSrgb, gl.SRGB8_ALPHA8, false, false},
		{gputypes.TextureFormatR32Float, gl.R32F, false, false},
		{gputypes.TextureFormatDepth24PlusStencil8, gl.DEPTH24_STENCIL8, true, false},
		{gputypes.TextureFormatDepth32Float, glDepthComponent32F, true, false},
		{gputypes.TextureFormatBC1RGBAUnorm, glCompressedRGBAS3TCDXT1, false, true},
		{gputypes.TextureFormatBC7RGBAUnorm, glCompressedRGBABPTC, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			fi, ok := lookupFormat(tt.format)
			if !ok {
				t.Fatalf("lookupFormat(%v) not found", tt.format)
			}
			if fi.internal != tt.internal {
				t.Errorf("internal = 0x%X, want 0x%X", fi.internal, tt.internal)
			}
			if fi.depth() != tt.depth {
				t.Errorf("depth() = %v, want %v", fi.depth(), tt.depth)
			}
			if fi.compressed != tt.compressed {
				t.Errorf("compressed = %v, want %v", fi.compressed, tt.compressed)
			}
		})
	}
}

func TestFormatTableUnique(t *testing.T) {
	seen := make(map[gputypes.TextureFormat]bool)
	for _, fi := range formatTable {
		if seen[fi.format] {
			t.Errorf("%v listed twice", fi.format)
		}
		seen[fi.format] = true
		if fi.size <= 0 {
			t.Errorf("%v: size = %d", fi.format, fi.size)
		}
	}
}

func TestFormatImageSize(t *testing.T) {
	rgba, _ := lookupFormat(gputypes.TextureFormatRGBA8Unorm)
	bc1, _ := lookupFormat(gputypes.TextureFormatBC1RGBAUnorm)
	bc3, _ := lookupFormat(gputypes.TextureFormatBC3RGBAUnorm)

	tests := []struct {
		name string
		fi   formatInfo
		w, h int
		want int
	}{
		{"rgba 4x4", rgba, 4, 4, 64},
		{"rgba 3x1", rgba, 3, 1, 12},
		{"bc1 4x4", bc1, 4, 4, 8},
		{"bc1 1x1", bc1, 1, 1, 8},
		{"bc1 5x5", bc1, 5, 5, 32},
		{"bc3 8x4", bc3, 8, 4, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fi.imageSize(tt.w, tt.h); got != tt.want {
				t.Errorf("imageSize(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestMipDim(t *testing.T) {
	tests := []struct{ d, level, want int }{
		{256, 0, 256},
		{256, 1, 128},
		{256, 8, 1},
		{256, 12, 1},
		{5, 1, 2},
		{1, 3, 1},
	}
	for _, tt := range tests {
		if got := mipDim(tt.d, tt.level); got != tt.want {
			t.Errorf("mipDim(%d, %d) = %d, want %d", tt.d, tt.level, got, tt.want)
		}
	}
}

func TestVertexFormatTable(t *testing.T) {
	tests := []struct {
		format     gputypes.VertexFormat
		components int32
		typ        uint32
		normalized bool
	}{
		{gputypes.VertexFormatFloat32x3, 3, gl.FLOAT, false},
		{gputypes.VertexFormatUnorm8x4, 4, gl.UNSIGNED_BYTE, true},
		{gputypes.VertexFormatSint16x2, 2, gl.SHORT, false},
		{gputypes.VertexFormatFloat16x4, 4, gl.HALF_FLOAT, false},
		{gputypes.VertexFormatUint32, 1, gl.UNSIGNED_INT, false},
	}
	for _, tt := range tests {
		vf := toVertexFormat(tt.format)
		if vf.components != tt.components || vf.typ != tt.typ || vf.normalized != tt.normalized {
			t.Errorf("toVertexFormat(%v) = {%d, 0x%X, %v}, want {%d, 0x%X, %v}",
				tt.format, vf.components, vf.typ, vf.normalized, tt.components, tt.typ, tt.normalized)
		}
	}
}

func TestUnmappedEnumPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"topology", func() { toTopology(gputypes.PrimitiveTopology(99)) }},
		{"compare", func() { toCompare(gputypes.CompareFunctionUndefined) }},
		{"blend factor", func() { toBlendFactor(gputypes.BlendFactor(99)) }},
		{"address", func() { toAddress(gputypes.AddressModeUndefined, true) }},
		{"vertex format", func() { toVertexFormat(gputypes.VertexFormat(0xFF)) }},
		{"fill", func() { toFill(FillMode(7)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := expectAssert(t, tt.fn)
			if ae.Op != tt.name {
				t.Errorf("Op = %q, want %q", ae.Op, tt.name)
			}
		})
	}
}

func TestToAddress(t *testing.T) {
	tests := []struct {
		mode   gputypes.AddressMode
		border bool
		want   uint32
	}{
		{gputypes.AddressModeClampToEdge, true, gl.CLAMP_TO_EDGE},
		{gputypes.AddressModeRepeat, true, gl.REPEAT},
		{gputypes.AddressModeMirrorRepeat, true, gl.MIRRORED_REPEAT},
		{AddressModeMirrorOnce, true, gl.MIRRORED_REPEAT},
		{AddressModeBorder, true, glClampToBorder},
		{AddressModeBorder, false, gl.CLAMP_TO_EDGE},
	}
	for _, tt := range tests {
		if got := toAddress(tt.mode, tt.border); got != tt.want {
			t.Errorf("toAddress(%v, %v) = 0x%X, want 0x%X", tt.mode, tt.border, got, tt.want)
		}
	}
}

func TestToFilter(t *testing.T) {
	tests := []struct {
		min, mag         gputypes.FilterMode
		mip              gputypes.MipmapFilterMode
		wantMin, wantMag uint32
	}{
		{gputypes.FilterModeNearest, gputypes.FilterModeNearest, gputypes.MipmapFilterModeUndefined, gl.NEAREST, gl.NEAREST},
		{gputypes.FilterModeLinear, gputypes.FilterModeLinear, gputypes.MipmapFilterModeUndefined, gl.LINEAR, gl.LINEAR},
		{gputypes.FilterModeLinear, gputypes.FilterModeNearest, gputypes.MipmapFilterModeNearest, gl.LINEAR_MIPMAP_NEAREST, gl.NEAREST},
		{gputypes.FilterModeLinear, gputypes.FilterModeLinear, gputypes.MipmapFilterModeLinear, gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR},
		{gputypes.FilterModeNearest, gputypes.FilterModeLinear, gputypes.MipmapFilterModeLinear, gl.NEAREST_MIPMAP_LINEAR, gl.LINEAR},
	}
	for _, tt := range tests {
		gotMin, gotMag := toFilter(tt.min, tt.mag, tt.mip)
		if gotMin != tt.wantMin || gotMag != tt.wantMag {
			t.Errorf("toFilter(%v, %v, %v) = (0x%X, 0x%X), want (0x%X, 0x%X)",
				tt.min, tt.mag, tt.mip, gotMin, gotMag, tt.wantMin, tt.wantMag)
		}
	}
}

func TestToIndexType(t *testing.T) {
	typ, size := toIndexType(gputypes.IndexFormatUint16)
	if typ != gl.UNSIGNED_SHORT || size != 2 {
		t.Errorf("Uint16 = (0x%X, %d), want (UNSIGNED_SHORT, 2)", typ, size)
	}
	typ, size = toIndexType(gputypes.IndexFormatUint32)
	if typ != gl.UNSIGNED_INT || size != 4 {
		t.Errorf("Uint32 = (0x%X, %d), want (UNSIGNED_INT, 4)", typ, size)
	}
}

func TestToClearMask(t *testing.T) {
	got := toClearMask(ClearColor | ClearStencil)
	want := uint32(gl.COLOR_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)
	if got != want {
		t.Errorf("toClearMask = 0x%X, want 0x%X", got, want)
	}
	if toClearMask(0) != 0 {
		t.Error("toClearMask(0) != 0")
	}
}
