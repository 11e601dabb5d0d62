package rhi

import (
	"github.com/gogpu/wgpu/hal/gles/gl"
)

// targetState is the current SetTargets request.
type targetState struct {
	colors     [MaxColorTargets]Handle
	count      int
	depth      Handle
	colorSlice int
	depthSlice int
	backbuffer bool
	// fbo is the native framebuffer of the request.
	fbo uint32
	// stale is set when the framebuffer was dropped while in use; it is
	// recreated before the next draw.
	stale bool
}

// Framebuffer key tags keep target, resolve and read-back keys apart.
const (
	fboTagTargets uint32 = iota + 1
	fboTagSurface
)

// SetTargets binds color targets and a depth target. colorSlice selects the
// cube face, array layer or volume slice of every color target; depthSlice
// that of the depth target.
//
// BackBufferColor as the first color target, or BackBufferDepth as the
// depth target, binds the window's framebuffer. Other combinations are
// served from a framebuffer cache keyed by the targets and slices. Every
// render target passed is marked as written, so it is resolved before it is
// next sampled.
func (b *Backend) SetTargets(colors []Handle, depth Handle, colorSlice, depthSlice int) {
	const op = "SetTargets"
	assertf(len(colors) <= MaxColorTargets, op, "%d color targets exceed %d", len(colors), MaxColorTargets)
	assertf(b.caps.MaxColorAttachments == 0 || len(colors) <= b.caps.MaxColorAttachments, op,
		"%d color targets exceed device limit %d", len(colors), b.caps.MaxColorAttachments)

	t := targetState{count: len(colors), depth: depth, colorSlice: colorSlice, depthSlice: depthSlice}
	copy(t.colors[:], colors)
	t.backbuffer = (len(colors) > 0 && colors[0] == BackBufferColor) || depth == BackBufferDepth ||
		(len(colors) == 0 && depth == NoHandle)
	if !t.backbuffer {
		for _, h := range colors {
			if rt := resourceAs[*renderTarget](b, op, h); rt != nil {
				rt.invalidate = true
			}
		}
		if rt := resourceAs[*renderTarget](b, op, depth); rt != nil {
			rt.invalidate = true
		}
	}
	flipChanged := t.backbuffer != b.targets.backbuffer
	b.targets = t
	b.bindTargets()
	if flipChanged {
		b.applyViewport()
		b.applyScissor()
	}
}

// bindTargets binds the framebuffer of b.targets, creating it on a cache
// miss.
func (b *Backend) bindTargets() {
	t := &b.targets
	t.stale = false
	b.requested.backbufferBound = t.backbuffer
	if t.backbuffer {
		t.fbo = b.dev.DefaultFramebuffer()
		b.bindFramebuffer(t.fbo)
		return
	}

	h := &b.hasher
	h.Reset()
	h.Uint32(fboTagTargets)
	h.Uint32(uint32(t.depth))
	h.Uint32(uint32(t.depthSlice))
	h.Uint32(uint32(t.count))
	for _, c := range t.colors[:t.count] {
		h.Uint32(uint32(c))
		h.Uint32(uint32(t.colorSlice))
	}
	key := h.Sum()
	fbo, ok := b.framebuffers.Get(key)
	if !ok {
		fbo = b.createFramebuffer("SetTargets", t)
		b.framebuffers.Put(key, fbo)
	}
	t.fbo = fbo
	b.bindFramebuffer(fbo)
}

func (b *Backend) createFramebuffer(op string, t *targetState) uint32 {
	fbo := b.dev.GenFramebuffer()
	b.bindFramebuffer(fbo)
	for i, h := range t.colors[:t.count] {
		rt := resourceAs[*renderTarget](b, op, h)
		if rt == nil {
			continue
		}
		assertf(!rt.fi.depth(), op, "handle %d has a depth format, bound as color", h)
		b.attach(gl.COLOR_ATTACHMENT0+uint32(i), rt.surface(), t.colorSlice)
	}
	if rt := resourceAs[*renderTarget](b, op, t.depth); rt != nil {
		assertf(rt.fi.depth(), op, "handle %d has a color format, bound as depth", t.depth)
		b.attach(rt.fi.attachment, rt.surface(), t.depthSlice)
	}
	b.dev.DrawBuffers(t.count)
	b.checkFramebuffer(op, fbo)
	Logger().Debug("rhi: framebuffer created", "fbo", fbo, "colors", t.count, "depth", t.depth)
	return fbo
}

// surface returns the texture rendered into: the multisampled one if any.
func (rt *renderTarget) surface() *textureInfo {
	if rt.msaa.native != 0 {
		return &rt.msaa
	}
	return &rt.textureInfo
}

// attach attaches level 0 of one image of t to the bound framebuffer.
func (b *Backend) attach(attachment uint32, t *textureInfo, slice int) {
	switch {
	case t.samples > 1:
		b.dev.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_2D_MULTISAMPLE, t.native, 0)
	case t.collection == CollectionCube:
		b.dev.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(slice), t.native, 0)
	case t.collection == CollectionArray || t.collection == CollectionCubeArray || t.collection == CollectionVolume:
		b.dev.FramebufferTextureLayer(gl.FRAMEBUFFER, attachment, t.native, 0, int32(slice))
	default:
		b.dev.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_2D, t.native, 0)
	}
}

func (b *Backend) checkFramebuffer(op string, fbo uint32) {
	status := b.dev.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status == gl.FRAMEBUFFER_COMPLETE {
		return
	}
	b.stats.DriverErrors++
	Logger().Error("rhi: framebuffer incomplete", "op", op, "fbo", fbo, "status", glErrorName(status))
	assertf(!b.cfg.Debug, op, "framebuffer %d incomplete: 0x%04X", fbo, status)
}

// surfaceFramebuffer returns a cached framebuffer with one image of t
// attached alone. It serves resolves and read-back.
func (b *Backend) surfaceFramebuffer(op string, h Handle, t *textureInfo, msaa bool) uint32 {
	hs := &b.hasher
	hs.Reset()
	hs.Uint32(fboTagSurface)
	hs.Uint32(uint32(h))
	hs.Bool(msaa)
	key := hs.Sum()
	if fbo, ok := b.framebuffers.Get(key); ok {
		return fbo
	}
	fbo := b.dev.GenFramebuffer()
	b.bindFramebuffer(fbo)
	attachment := uint32(gl.COLOR_ATTACHMENT0)
	if t.fi.depth() {
		attachment = t.fi.attachment
		b.dev.DrawBuffers(0)
	} else {
		b.dev.DrawBuffers(1)
	}
	b.attach(attachment, t, 0)
	b.checkFramebuffer(op, fbo)
	b.framebuffers.Put(key, fbo)
	return fbo
}

func (b *Backend) bindFramebuffer(fbo uint32) {
	if b.fboKnown && b.boundFBO == fbo {
		return
	}
	b.dev.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	b.boundFBO = fbo
	b.fboKnown = true
}

// restoreTargets rebinds the framebuffer of the current targets after a
// resolve or read-back used others.
func (b *Backend) restoreTargets() {
	b.fboKnown = false
	if b.targets.stale {
		b.bindTargets()
		return
	}
	b.bindFramebuffer(b.targets.fbo)
}

// dropFramebuffers deletes every cached framebuffer. Targets in use are
// recreated before the next draw.
func (b *Backend) dropFramebuffers() {
	n := b.framebuffers.Len()
	b.framebuffers.Reset(func(fbo uint32) { b.dev.DeleteFramebuffer(fbo) })
	b.fboKnown = false
	if !b.targets.backbuffer {
		b.targets.stale = true
	}
	if n > 0 {
		Logger().Debug("rhi: framebuffer cache dropped", "entries", n)
	}
}

// SetViewport sets the viewport in pixels from the top-left corner.
func (b *Backend) SetViewport(v Viewport) {
	b.viewport = v
	b.applyViewport()
}

// SetScissorRect sets the scissor rectangle in pixels from the top-left
// corner. It applies while the bound raster state enables scissoring.
func (b *Backend) SetScissorRect(r Rect) {
	b.scissor = r
	b.applyScissor()
}

// flipY converts a top-left origin rectangle to the device's bottom-left
// origin when drawing to the window.
func (b *Backend) flipY(y, height int32) int32 {
	if !b.targets.backbuffer || b.caps.TopLeftOrigin {
		return y
	}
	return int32(b.bbHeight) - y - height
}

func (b *Backend) applyViewport() {
	v := b.viewport
	if v.Width == 0 && v.Height == 0 {
		return
	}
	x, y, w, h := int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height)
	b.dev.Viewport(x, b.flipY(y, h), w, h)
}

func (b *Backend) applyScissor() {
	r := b.scissor
	if r == (Rect{}) {
		return
	}
	w, h := r.Right-r.Left, r.Bottom-r.Top
	b.dev.Scissor(r.Left, b.flipY(r.Top, h), w, h)
}
