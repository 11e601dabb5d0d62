package rhi

import "fmt"

// release releases slot h after checking it holds a T. Handle 0 is a no-op.
func release[T resource](b *Backend, op string, h Handle) {
	if h == NoHandle {
		return
	}
	resourceAs[T](b, op, h)
	b.releaseSlot(h)
}

func (b *Backend) ReleaseClearState(h Handle) { release[*clearState](b, "ReleaseClearState", h) }
func (b *Backend) ReleaseInputLayout(h Handle) {
	release[*inputLayout](b, "ReleaseInputLayout", h)
}
func (b *Backend) ReleaseRasterState(h Handle) {
	release[*rasterState](b, "ReleaseRasterState", h)
}
func (b *Backend) ReleaseDepthStencilState(h Handle) {
	release[*depthStencilState](b, "ReleaseDepthStencilState", h)
}
func (b *Backend) ReleaseBlendState(h Handle) { release[*blendState](b, "ReleaseBlendState", h) }
func (b *Backend) ReleaseBuffer(h Handle)     { release[*bufferObject](b, "ReleaseBuffer", h) }
func (b *Backend) ReleaseSampler(h Handle)    { release[*samplerObject](b, "ReleaseSampler", h) }
func (b *Backend) ReleaseTexture(h Handle)    { release[*textureObject](b, "ReleaseTexture", h) }

// ReleaseShader releases a shader. Cached programs linked from it are
// retired.
func (b *Backend) ReleaseShader(h Handle) { release[*shaderObject](b, "ReleaseShader", h) }

// ReleaseRenderTarget releases a render target and drops the framebuffer
// cache.
func (b *Backend) ReleaseRenderTarget(h Handle) {
	release[*renderTarget](b, "ReleaseRenderTarget", h)
}

// releaseSlot frees the native objects of slot h and empties it.
func (b *Backend) releaseSlot(h Handle) {
	slot := b.res.At(uint32(h))
	switch r := (*slot).(type) {
	case *inputLayout:
		if r.vao != 0 {
			if b.boundVAO == r.vao {
				b.bindVertexArray(b.defaultVAO)
			}
			b.dev.DeleteVertexArray(r.vao)
		}
	case *bufferObject:
		b.dev.DeleteBuffer(r.native)
		if b.elements == r.native {
			b.elementsKnown = false
		}
	case *shaderObject:
		b.retirePrograms(h)
		for m, key := range b.resolvers {
			if key.references(h) {
				delete(b.resolvers, m)
			}
		}
		if r.native != 0 {
			b.dev.DeleteShader(r.native)
		}
	case *samplerObject:
		if r.native != 0 {
			b.dev.DeleteSampler(r.native)
			for i := range b.units {
				if b.units[i].sampler == r.native {
					b.units[i].sampler = 0
					b.dev.BindSampler(uint32(i), 0)
				}
			}
		}
	case *textureObject:
		b.forgetTexture(r.native)
		b.dev.DeleteTexture(r.native)
	case *renderTarget:
		b.dropFramebuffers()
		b.forgetTexture(r.native)
		b.dev.DeleteTexture(r.native)
		if r.msaa.native != 0 {
			b.forgetTexture(r.msaa.native)
			b.dev.DeleteTexture(r.msaa.native)
		}
		b.forgetTarget(h)
	case *programRef:
		b.retire(r.prog)
	}
	*slot = nil
	b.forget(h)
}

// forgetTarget switches to the window framebuffer when h is one of the
// current targets.
func (b *Backend) forgetTarget(h Handle) {
	t := &b.targets
	if t.backbuffer {
		return
	}
	used := t.depth == h
	for _, c := range t.colors[:t.count] {
		used = used || c == h
	}
	if used {
		b.SetTargets([]Handle{BackBufferColor}, BackBufferDepth, 0, 0)
	}
}

// ReplaceResource moves the resource at src into dest, releasing what dest
// held first. src is left empty. Both slots must hold kind, dest may also
// be empty. Programs and framebuffers referring to either slot are dropped
// and the whole binding state is re-applied on the next draw.
func (b *Backend) ReplaceResource(dest, src Handle, kind ResourceKind) error {
	const op = "ReplaceResource"
	if dest.reserved() || src.reserved() {
		return fmt.Errorf("rhi: %s %d <- %d: %w", op, dest, src, ErrReservedHandle)
	}
	assertf(b.Kind(src) == kind, op, "source %d holds %s, want %s", src, b.Kind(src), kind)
	if dk := b.Kind(dest); dk != KindNone {
		assertf(dk == kind, op, "destination %d holds %s, want %s", dest, dk, kind)
		b.releaseSlot(dest)
	}
	b.res.Grow(uint32(dest))

	moved := *b.res.At(uint32(src))
	*b.res.At(uint32(dest)) = moved
	*b.res.At(uint32(src)) = nil

	switch r := moved.(type) {
	case *shaderObject:
		b.retirePrograms(src)
		b.retirePrograms(dest)
	case *renderTarget:
		r.handle = dest
		b.forgetTarget(src)
		b.dropFramebuffers()
	case *textureObject:
		b.forgetTexture(r.native)
	}
	b.forget(src)
	b.forget(dest)
	b.resetApplied()
	b.checkErrors(op)
	return nil
}
