package rhi

import (
	"fmt"

	"github.com/gogpu/rhi/internal/cache"
	"github.com/gogpu/rhi/shader"
)

// unusedLocation marks a program table entry with no resolved name.
const unusedLocation int32 = -1

// programKey is the tuple of stage handles a program is linked from.
type programKey struct {
	vs, ps, so, cs Handle
}

func (k programKey) hash(h *cache.Hasher) uint64 {
	h.Reset()
	h.Uint32(uint32(k.vs))
	h.Uint32(uint32(k.ps))
	h.Uint32(uint32(k.so))
	h.Uint32(uint32(k.cs))
	return h.Sum()
}

func (k programKey) references(h Handle) bool {
	return h != NoHandle && (k.vs == h || k.ps == h || k.so == h || k.cs == h)
}

// linkedProgram is a native program with its binding tables.
//
// uniformBlockLocs holds, per constant-buffer slot, the block index bound to
// that slot. textureLocs holds, per texture unit, the location of the
// sampler uniform reading that unit.
type linkedProgram struct {
	key programKey
	// stages is key, or zero when linking failed. A program with zero
	// stages is inert.
	stages programKey
	native uint32

	uniformBlockLocs [MaxUniformBlocks]int32
	textureLocs      [MaxTextureUnits]int32

	// retired programs stay alive until Close but are never reused.
	retired bool
}

func newLinkedProgram(key programKey) *linkedProgram {
	p := &linkedProgram{key: key, stages: key}
	for i := range p.uniformBlockLocs {
		p.uniformBlockLocs[i] = unusedLocation
	}
	for i := range p.textureLocs {
		p.textureLocs[i] = unusedLocation
	}
	return p
}

// LinkShaderProgram links the shaders of desc into the program stored at
// slot h. A program already linked from the same stages is reused; the
// names in desc are then bound on it as well. Names the program does not
// declare stay unbound. A link failure is logged and leaves an inert
// program that skips every draw using it.
func (b *Backend) LinkShaderProgram(h Handle, desc ProgramDesc) error {
	const op = "LinkShaderProgram"
	var key programKey
	switch {
	case desc.ComputeShader != NoHandle:
		key = programKey{cs: desc.ComputeShader}
	case desc.StreamOutShader != NoHandle:
		key = programKey{vs: desc.VertexShader, so: desc.StreamOutShader}
	default:
		key = programKey{vs: desc.VertexShader, ps: desc.PixelShader}
	}
	if key.cs == NoHandle && key.vs == NoHandle {
		return fmt.Errorf("rhi: %s %d: no vertex or compute shader: %w", op, h, ErrInvalidDescriptor)
	}
	for _, s := range [...]struct {
		h     Handle
		stage ShaderStage
	}{{key.vs, StageVertex}, {key.ps, StagePixel}, {key.so, StageStreamOut}, {key.cs, StageCompute}} {
		if s.h == NoHandle {
			continue
		}
		if sh, ok := b.shaderAt(s.h); !ok || sh.stage != s.stage {
			return fmt.Errorf("rhi: %s %d: handle %d is not a %s shader: %w", op, h, s.h, s.stage, ErrInvalidDescriptor)
		}
	}

	slot, err := b.slotFor(op, h)
	if err != nil {
		return err
	}
	p := b.program(key, &desc)
	*slot = &programRef{prog: p}
	return nil
}

// ReleaseProgram releases the program stored at slot h. The native program
// is retired, not deleted: it stays alive until Close and is never reused.
func (b *Backend) ReleaseProgram(h Handle) {
	release[*programRef](b, "ReleaseProgram", h)
}

func (b *Backend) shaderAt(h Handle) (*shaderObject, bool) {
	if h == NoHandle || !b.res.Has(uint32(h)) {
		return nil, false
	}
	sh, ok := (*b.res.At(uint32(h))).(*shaderObject)
	return sh, ok
}

// program returns the cached program for key, linking it on a miss.
// Explicit bindings in desc are applied either way.
func (b *Backend) program(key programKey, desc *ProgramDesc) *linkedProgram {
	hk := key.hash(&b.hasher)
	p, ok := b.programs.Get(hk)
	if !ok || p.key != key {
		p = b.link(key)
		b.programs.Put(hk, p)
	}
	if desc != nil && p.native != 0 {
		for _, ub := range desc.UniformBlocks {
			b.bindUniformBlock(p, ub.Name, ub.Slot)
		}
		for _, s := range desc.Samplers {
			b.bindSamplerName(p, s.Name, s.Slot)
		}
		if b.current == p {
			// The sampler uniforms of the bound program changed.
			b.current = nil
		}
	}
	return p
}

// link creates the native program for key. Any failure yields an inert
// program.
func (b *Backend) link(key programKey) *linkedProgram {
	p := newLinkedProgram(key)
	log := Logger()
	log.Debug("rhi: program cache miss", "vs", key.vs, "ps", key.ps, "so", key.so, "cs", key.cs)

	var shaders []*shaderObject
	for _, h := range [...]Handle{key.vs, key.ps, key.so, key.cs} {
		if h == NoHandle {
			continue
		}
		sh, ok := b.shaderAt(h)
		if !ok || sh.failed {
			log.Error("rhi: program stage unusable", "handle", h, "vs", key.vs, "ps", key.ps)
			p.stages = programKey{}
			b.stats.LinkFailures++
			return p
		}
		shaders = append(shaders, sh)
	}

	prog := b.dev.CreateProgram()
	var varyings []string
	for _, sh := range shaders {
		if sh.native != 0 {
			b.dev.AttachShader(prog, sh.native)
		}
		if sh.stage == StageStreamOut {
			varyings = sh.varyings
		}
	}
	if len(varyings) > 0 && b.caps.StreamOut {
		b.dev.TransformFeedbackVaryings(prog, varyings)
	}
	b.dev.LinkProgram(prog)
	b.stats.ProgramsLinked++
	if ok, info := b.dev.ProgramStatus(prog); !ok {
		log.Error("rhi: program link failed", "vs", key.vs, "ps", key.ps, "so", key.so, "cs", key.cs, "log", info)
		b.dev.DeleteProgram(prog)
		p.stages = programKey{}
		b.stats.LinkFailures++
		return p
	}
	p.native = prog

	for _, sh := range shaders {
		if sh.reflection == nil {
			continue
		}
		for _, ub := range sh.reflection.UniformBlocks {
			b.bindUniformBlock(p, ub.Name, ub.Slot)
		}
		for _, s := range sh.reflection.Samplers {
			b.bindSamplerName(p, s.Name, s.Slot)
		}
	}
	b.checkErrors("link")
	return p
}

func (b *Backend) bindUniformBlock(p *linkedProgram, name string, slot uint32) {
	assertf(slot < MaxUniformBlocks, "link", "uniform block %q slot %d exceeds %d", name, slot, MaxUniformBlocks)
	idx := b.dev.GetUniformBlockIndex(p.native, name)
	if idx == glInvalidIndex {
		Logger().Debug("rhi: uniform block not found", "name", name, "slot", slot)
		return
	}
	b.dev.UniformBlockBinding(p.native, idx, slot)
	p.uniformBlockLocs[slot] = int32(idx)
}

func (b *Backend) bindSamplerName(p *linkedProgram, name string, unit uint32) {
	assertf(unit < MaxTextureUnits, "link", "sampler %q unit %d exceeds %d", name, unit, MaxTextureUnits)
	loc := b.dev.GetUniformLocation(p.native, name)
	if loc < 0 {
		Logger().Debug("rhi: sampler uniform not found", "name", name, "unit", unit)
		return
	}
	p.textureLocs[unit] = loc
}

// retirePrograms removes every cached program linked from shader h. Their
// native programs are kept until Close.
func (b *Backend) retirePrograms(h Handle) {
	var keys []uint64
	b.programs.Each(func(k uint64, p *linkedProgram) {
		if p.key.references(h) {
			keys = append(keys, k)
		}
	})
	for _, k := range keys {
		p, _ := b.programs.Delete(k)
		b.retire(p)
	}
}

func (b *Backend) retire(p *linkedProgram) {
	if p == nil || p.retired {
		return
	}
	p.retired = true
	b.retired = append(b.retired, p)
	if b.current == p {
		b.current = nil
	}
	k := p.key.hash(&b.hasher)
	if q, ok := b.programs.Peek(k); ok && q == p {
		b.programs.Delete(k)
	}
}

func (p *linkedProgram) inert() bool {
	return p.stages == programKey{}
}

func (b *Backend) deleteProgram(p *linkedProgram) {
	if p.native != 0 {
		b.dev.DeleteProgram(p.native)
		p.native = 0
	}
}

// shaderStageOf maps a translated entry point stage to a ShaderStage.
func shaderStageOf(s shader.Stage) ShaderStage {
	switch s {
	case shader.StageFragment:
		return StagePixel
	case shader.StageCompute:
		return StageCompute
	default:
		return StageVertex
	}
}
