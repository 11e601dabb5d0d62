// Package shader translates WGSL shader modules into GLSL for GL-class
// drivers and reflects the resource names the linker needs.
//
// Translation goes through gogpu/naga: WGSL is parsed, lowered to naga IR,
// validated and emitted as GLSL for one entry point. GLSL 3.30 has no
// layout(binding = N) qualifiers, so uniform blocks and samplers are bound
// by name after linking. Translate therefore returns, next to the GLSL text,
// the GLSL-side name of every uniform block and combined sampler together
// with the slot its WGSL @binding asked for.
package shader

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/ir"
)

// Errors returned by Translate.
var (
	// ErrEmptySource is returned for an empty WGSL module.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrNoEntryPoint is returned when the requested entry point does not exist.
	ErrNoEntryPoint = errors.New("shader: entry point not found")

	// ErrInvalidModule is returned when naga validation rejects the module.
	ErrInvalidModule = errors.New("shader: invalid module")
)

// Stage is the pipeline stage of a translated entry point.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// GroupStride is the number of slots reserved per WGSL bind group when
// flattening @group/@binding pairs into GL slots.
const GroupStride = 8

// Binding pairs a GLSL-side resource name with its GL slot.
type Binding struct {
	Name string
	Slot uint32
}

// Reflection lists the name-bound resources of a translated entry point.
type Reflection struct {
	EntryPoint    string
	Stage         Stage
	UniformBlocks []Binding
	Samplers      []Binding
}

// Options configures Translate.
type Options struct {
	// Version is the GLSL dialect to emit. Zero means GLSL 3.30 core.
	Version glsl.Version
	// Debug keeps naga debug names in the output.
	Debug bool
}

// Output is a translated entry point.
type Output struct {
	GLSL       string
	Reflection Reflection
}

// Translate converts the entry point of a WGSL module to GLSL.
// An empty entryPoint selects the first entry point in the module.
func Translate(source, entryPoint string, opts Options) (*Output, error) {
	if source == "" {
		return nil, ErrEmptySource
	}

	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("shader: parse: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("shader: lower: %w", err)
	}
	if verrs, err := naga.Validate(module); err != nil {
		return nil, fmt.Errorf("shader: validate: %w", err)
	} else if len(verrs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidModule, verrs[0].Message)
	}

	ep, err := findEntryPoint(module, entryPoint)
	if err != nil {
		return nil, err
	}

	version := opts.Version
	if version == (glsl.Version{}) {
		version = glsl.Version330
	}
	flags := glsl.WriterFlagAdjustCoordinateSpace
	if opts.Debug {
		flags |= glsl.WriterFlagDebugInfo
	}
	src, info, err := glsl.Compile(module, glsl.Options{
		LangVersion:        version,
		EntryPoint:         ep.Name,
		ForceHighPrecision: true,
		WriterFlags:        flags,
	})
	if err != nil {
		return nil, fmt.Errorf("shader: glsl %q: %w", ep.Name, err)
	}

	refl := Reflection{
		EntryPoint:    ep.Name,
		Stage:         stageOf(ep.Stage),
		UniformBlocks: ReflectUniformBlocks(src),
		Samplers:      samplersOf(info),
	}
	return &Output{GLSL: src, Reflection: refl}, nil
}

func findEntryPoint(module *ir.Module, name string) (*ir.EntryPoint, error) {
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		if name == "" || ep.Name == name {
			return ep, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoEntryPoint, name)
}

func stageOf(s ir.ShaderStage) Stage {
	switch s {
	case ir.StageFragment:
		return StageFragment
	case ir.StageCompute:
		return StageCompute
	default:
		return StageVertex
	}
}

// flatten maps a WGSL (group, binding) pair to a GL slot.
func flatten(b ir.ResourceBinding) uint32 {
	return b.Group*GroupStride + b.Binding
}

func samplersOf(info glsl.TranslationInfo) []Binding {
	out := make([]Binding, 0, len(info.TextureMappings))
	for name, m := range info.TextureMappings {
		out = append(out, Binding{Name: name, Slot: flatten(m.TextureBinding)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

var (
	blockDecl    = regexp.MustCompile(`uniform\s+(\w+)\s*\{[^}]*\}\s*(\w+)\s*;`)
	instanceName = regexp.MustCompile(`^_group_(\d+)_binding_(\d+)_`)
)

// ReflectUniformBlocks finds the uniform block declarations emitted by the
// naga GLSL writer and recovers each block's WGSL binding from its instance
// name (_group_G_binding_B_stage). Blocks without such an instance name are
// skipped.
func ReflectUniformBlocks(glslSource string) []Binding {
	var out []Binding
	for _, m := range blockDecl.FindAllStringSubmatch(glslSource, -1) {
		im := instanceName.FindStringSubmatch(m[2])
		if im == nil {
			continue
		}
		group, _ := strconv.ParseUint(im[1], 10, 32)
		binding, _ := strconv.ParseUint(im[2], 10, 32)
		out = append(out, Binding{
			Name: m[1],
			Slot: flatten(ir.ResourceBinding{Group: uint32(group), Binding: uint32(binding)}),
		})
	}
	return out
}
