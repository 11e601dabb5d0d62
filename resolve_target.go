package rhi

import (
	"github.com/gogpu/wgpu/hal/gles/gl"
)

// SetResolveShader registers the full-screen program used by ResolveTarget
// for method. The vertex shader must emit a full-screen triangle from
// vertex IDs 0..2; the pixel shader reads the multisampled surface bound on
// texture unit 0. Methods without a registered program fall back to the
// blit resolve.
func (b *Backend) SetResolveShader(method ResolveMethod, vs, ps Handle) {
	const op = "SetResolveShader"
	assertf(method != ResolveAverage, op, "the average resolve is a blit")
	if vs == NoHandle && ps == NoHandle {
		delete(b.resolvers, method)
		return
	}
	if sh, ok := b.shaderAt(vs); !ok || sh.stage != StageVertex {
		assertf(false, op, "handle %d is not a vertex shader", vs)
	}
	if sh, ok := b.shaderAt(ps); !ok || sh.stage != StagePixel {
		assertf(false, op, "handle %d is not a pixel shader", ps)
	}
	b.resolvers[method] = programKey{vs: vs, ps: ps}
}

// ResolveTarget makes the sampled surface of render target h current: a
// multisampled target is resolved with method, then mips are regenerated.
// Repeating it without new rendering yields the same result, and the
// framebuffers it uses come from the framebuffer cache.
func (b *Backend) ResolveTarget(h Handle, method ResolveMethod) {
	const op = "ResolveTarget"
	rt := resourceAs[*renderTarget](b, op, h)
	if rt == nil {
		return
	}
	prev := b.units[0]
	b.refreshTarget(0, rt, method)
	if prev.native != 0 {
		b.bindUnit(0, prev.target, prev.native)
	}
	b.checkErrors(op)
}

// refreshTarget resolves and regenerates mips of rt using unit as scratch,
// then clears its invalidate flag.
func (b *Backend) refreshTarget(unit int, rt *renderTarget, method ResolveMethod) {
	h := rt.handle
	if rt.msaa.native != 0 {
		key, custom := b.resolvers[method]
		switch {
		case method == ResolveAverage || !custom:
			b.blitResolve(h, rt)
		case rt.fi.depth():
			Logger().Warn("rhi: shader resolve of depth target, using blit", "handle", h, "method", method)
			b.blitResolve(h, rt)
		default:
			if !b.shaderResolve(h, rt, key) {
				b.blitResolve(h, rt)
			}
		}
		b.stats.Resolves++
	}
	if rt.mips > 1 {
		b.bindUnit(unit, rt.target, rt.native)
		b.dev.GenerateMipmap(rt.target)
		b.stats.MipGenerations++
	}
	rt.invalidate = false
}

func (b *Backend) blitResolve(h Handle, rt *renderTarget) {
	src := b.surfaceFramebuffer("resolve", h, &rt.msaa, true)
	dst := b.surfaceFramebuffer("resolve", h, &rt.textureInfo, false)
	b.dev.BindFramebuffer(gl.READ_FRAMEBUFFER, src)
	b.dev.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dst)
	mask := uint32(gl.COLOR_BUFFER_BIT)
	switch rt.fi.attachment {
	case gl.DEPTH_ATTACHMENT:
		mask = gl.DEPTH_BUFFER_BIT
	case gl.DEPTH_STENCIL_ATTACHMENT:
		mask = gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT
	}
	w, ht := int32(rt.width), int32(rt.height)
	b.dev.BlitFramebuffer(0, 0, w, ht, 0, 0, w, ht, mask, gl.NEAREST)
	b.restoreTargets()
}

// shaderResolve draws a full-screen triangle sampling the multisampled
// surface into the sampled one. It reports false when the program is
// unusable.
func (b *Backend) shaderResolve(h Handle, rt *renderTarget, key programKey) bool {
	p := b.program(key, nil)
	if p.inert() {
		return false
	}
	dst := b.surfaceFramebuffer("resolve", h, &rt.textureInfo, false)
	b.bindFramebuffer(dst)
	b.dev.Viewport(0, 0, int32(rt.width), int32(rt.height))

	b.dev.UseProgram(p.native)
	if loc := p.textureLocs[0]; loc != unusedLocation {
		b.dev.Uniform1i(loc, 0)
	}
	b.bindUnit(0, rt.msaa.target, rt.msaa.native)
	b.bindVertexArray(b.defaultVAO)
	for _, c := range [...]uint32{gl.DEPTH_TEST, gl.STENCIL_TEST, gl.BLEND, gl.CULL_FACE, gl.SCISSOR_TEST} {
		b.dev.Disable(c)
	}
	b.dev.ColorMask(true, true, true, true)
	b.dev.DrawArrays(gl.TRIANGLES, 0, 3)

	// The pass clobbered program, vertex and fixed-function state.
	b.current = nil
	b.dirty = allGroups
	b.restoreTargets()
	b.applyViewport()
	return true
}
