package shader

import (
	"errors"
	"strings"
	"testing"
)

const quadWGSL = `
struct Globals {
    tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> globals: Globals;
@group(0) @binding(1) var albedo: texture_2d<f32>;
@group(0) @binding(2) var albedo_sampler: sampler;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec2<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(pos, 0.0, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(albedo, albedo_sampler, in.uv) * globals.tint;
}
`

func TestTranslateVertexEntryPoint(t *testing.T) {
	out, err := Translate(quadWGSL, "vs_main", Options{})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if !strings.Contains(out.GLSL, "#version 330") {
		t.Errorf("GLSL does not declare version 330:\n%s", out.GLSL)
	}
	if out.Reflection.Stage != StageVertex {
		t.Errorf("Stage = %v, want vertex", out.Reflection.Stage)
	}
	if out.Reflection.EntryPoint != "vs_main" {
		t.Errorf("EntryPoint = %q, want vs_main", out.Reflection.EntryPoint)
	}
}

func TestTranslateFragmentReflection(t *testing.T) {
	out, err := Translate(quadWGSL, "fs_main", Options{})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if out.Reflection.Stage != StageFragment {
		t.Errorf("Stage = %v, want fragment", out.Reflection.Stage)
	}
	for _, b := range out.Reflection.UniformBlocks {
		if !strings.Contains(out.GLSL, b.Name) {
			t.Errorf("reflected block %q not present in GLSL", b.Name)
		}
	}
	for _, s := range out.Reflection.Samplers {
		if !strings.Contains(out.GLSL, s.Name) {
			t.Errorf("reflected sampler %q not present in GLSL", s.Name)
		}
		if s.Slot != 1 {
			t.Errorf("sampler %q slot = %d, want texture binding 1", s.Name, s.Slot)
		}
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		entry  string
		want   error
	}{
		{"empty", "", "", ErrEmptySource},
		{"missing entry point", quadWGSL, "cs_main", ErrNoEntryPoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(tt.source, tt.entry, Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("Translate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTranslateSyntaxError(t *testing.T) {
	if _, err := Translate("fn broken( {", "", Options{}); err == nil {
		t.Error("Translate() accepted malformed WGSL")
	}
}

func TestReflectUniformBlocks(t *testing.T) {
	src := `#version 330 core
uniform Globals_block_0Fragment { vec4 tint; } _group_0_binding_0_fs;
layout(std140) uniform Light_block_1Fragment {
    vec4 dir;
    vec4 color;
} _group_1_binding_3_fs;
uniform Odd { float x; } not_a_binding;
uniform sampler2D albedo_albedo_sampler;
`
	got := ReflectUniformBlocks(src)
	want := []Binding{
		{Name: "Globals_block_0Fragment", Slot: 0},
		{Name: "Light_block_1Fragment", Slot: GroupStride + 3},
	}
	if len(got) != len(want) {
		t.Fatalf("ReflectUniformBlocks() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ReflectUniformBlocks()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStageString(t *testing.T) {
	tests := []struct {
		s    Stage
		want string
	}{
		{StageVertex, "vertex"},
		{StageFragment, "fragment"},
		{StageCompute, "compute"},
		{Stage(9), "Stage(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
