package rhi

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"
)

func createTargets(t *testing.T, b *Backend) {
	t.Helper()
	for _, h := range []Handle{5, 6} {
		must(t, b.CreateRenderTarget(h, TextureDesc{Width: 64, Height: 64, Format: gputypes.TextureFormatRGBA8Unorm}))
	}
	for _, h := range []Handle{7, 8} {
		must(t, b.CreateRenderTarget(h, TextureDesc{Width: 64, Height: 64, Format: gputypes.TextureFormatDepth24PlusStencil8}))
	}
}

func TestFramebufferCacheDedup(t *testing.T) {
	b, rec := newTestBackend(t)
	createTargets(t, b)

	b.SetTargets([]Handle{5, 6}, 7, 0, 0)
	b.SetTargets([]Handle{BackBufferColor}, BackBufferDepth, 0, 0)
	b.SetTargets([]Handle{5, 6}, 7, 0, 0)
	if n := rec.Count("GenFramebuffer"); n != 1 {
		t.Errorf("GenFramebuffer = %d, want 1 for a repeated target set", n)
	}

	b.SetTargets([]Handle{5, 6}, 8, 0, 0)
	if n := rec.Count("GenFramebuffer"); n != 2 {
		t.Errorf("GenFramebuffer = %d, want 2 after a depth change", n)
	}
	b.SetTargets([]Handle{6, 5}, 8, 0, 0)
	if n := rec.Count("GenFramebuffer"); n != 3 {
		t.Errorf("GenFramebuffer = %d, want 3 after reordering colors", n)
	}
	if got := b.Stats().Framebuffers.Entries; got != 3 {
		t.Errorf("Framebuffers.Entries = %d, want 3", got)
	}
}

func TestFramebufferAttachments(t *testing.T) {
	b, rec := newTestBackend(t)
	createTargets(t, b)
	rec.Reset()

	b.SetTargets([]Handle{5, 6}, 7, 0, 0)
	var attachments []uint32
	for _, c := range calls(rec, "FramebufferTexture2D") {
		attachments = append(attachments, c.Args[1].(uint32))
	}
	want := []uint32{gl.COLOR_ATTACHMENT0, gl.COLOR_ATTACHMENT0 + 1, gl.DEPTH_STENCIL_ATTACHMENT}
	if len(attachments) != len(want) {
		t.Fatalf("attachments = %v, want %v", attachments, want)
	}
	for i := range want {
		if attachments[i] != want[i] {
			t.Errorf("attachment %d = 0x%X, want 0x%X", i, attachments[i], want[i])
		}
	}
	db := calls(rec, "DrawBuffers")
	if len(db) != 1 || db[0].Args[0] != 2 {
		t.Errorf("DrawBuffers = %v, want 2", db)
	}
}

func TestFramebufferKindMismatchPanics(t *testing.T) {
	b, _ := newTestBackend(t)
	createTargets(t, b)
	expectAssert(t, func() { b.SetTargets([]Handle{7}, NoHandle, 0, 0) })
}

func TestBackBufferBypassesCache(t *testing.T) {
	tests := []struct {
		name   string
		colors []Handle
		depth  Handle
	}{
		{"color", []Handle{BackBufferColor}, NoHandle},
		{"depth", nil, BackBufferDepth},
		{"both", []Handle{BackBufferColor}, BackBufferDepth},
		{"none", nil, NoHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, rec := newTestBackend(t)
			createTargets(t, b)
			b.SetTargets([]Handle{5}, NoHandle, 0, 0)
			rec.Reset()

			b.SetTargets(tt.colors, tt.depth, 0, 0)
			if rec.Count("GenFramebuffer") != 0 {
				t.Error("back buffer went through the framebuffer cache")
			}
			bf := calls(rec, "BindFramebuffer")
			if len(bf) != 1 || bf[0].Args[1] != uint32(0) {
				t.Errorf("BindFramebuffer = %v, want the default framebuffer", bf)
			}
		})
	}
}

func TestSetTargetsMarksWritten(t *testing.T) {
	b, _ := newTestBackend(t)
	createTargets(t, b)
	rt := resourceAs[*renderTarget](b, "test", 5)
	if rt.invalidate {
		t.Fatal("new render target already invalidated")
	}
	b.SetTargets([]Handle{5}, 7, 0, 0)
	if !rt.invalidate {
		t.Error("color target not invalidated by SetTargets")
	}
	if !resourceAs[*renderTarget](b, "test", 7).invalidate {
		t.Error("depth target not invalidated by SetTargets")
	}
}

func TestResizeDropsFramebuffers(t *testing.T) {
	win := &testWindow{w: 320, h: 240}
	b, rec := newTestBackend(t, WithWindow(win))
	setupTriangle(t, b)
	createTargets(t, b)
	b.SetTargets([]Handle{5}, 7, 0, 0)
	b.Present()
	if rec.Count("DeleteFramebuffer") != 0 {
		t.Fatal("framebuffers dropped without a resize")
	}

	win.w, win.h = 640, 480
	b.Present()
	if n := rec.Count("DeleteFramebuffer"); n != 1 {
		t.Errorf("DeleteFramebuffer = %d after resize, want 1", n)
	}
	if got := b.Stats().Framebuffers.Entries; got != 0 {
		t.Errorf("Framebuffers.Entries = %d after resize, want 0", got)
	}

	rec.Reset()
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	if rec.Count("GenFramebuffer") != 1 {
		t.Errorf("GenFramebuffer = %d, want the bound targets recreated before the draw", rec.Count("GenFramebuffer"))
	}
	if firstIndex(rec, "GenFramebuffer") > firstIndex(rec, "DrawArrays") {
		t.Error("framebuffer recreated after the draw")
	}
}

func TestResizeUsesScaleFactor(t *testing.T) {
	win := &testWindow{w: 100, h: 50, scale: 2}
	b, _ := newTestBackend(t, WithWindow(win))
	if b.bbWidth != 200 || b.bbHeight != 100 {
		t.Errorf("back buffer = %dx%d, want 200x100", b.bbWidth, b.bbHeight)
	}
}

func TestReleaseBoundTargetFallsBack(t *testing.T) {
	b, rec := newTestBackend(t)
	createTargets(t, b)
	b.SetTargets([]Handle{5}, 7, 0, 0)
	rec.Reset()

	b.ReleaseRenderTarget(5)
	if !b.targets.backbuffer {
		t.Error("targets still off-screen after releasing the bound color target")
	}
	if rec.Count("DeleteFramebuffer") != 1 {
		t.Errorf("DeleteFramebuffer = %d, want 1", rec.Count("DeleteFramebuffer"))
	}
}

func TestLayeredTargetAttachment(t *testing.T) {
	b, rec := newTestBackend(t)
	must(t, b.CreateRenderTarget(5, TextureDesc{Width: 32, Height: 32, Format: gputypes.TextureFormatRGBA8Unorm, Collection: CollectionCube}))
	must(t, b.CreateRenderTarget(6, TextureDesc{Width: 32, Height: 32, Format: gputypes.TextureFormatRGBA8Unorm, Collection: CollectionArray, ArrayLayers: 4}))
	rec.Reset()

	b.SetTargets([]Handle{5}, NoHandle, 3, 0)
	ft := calls(rec, "FramebufferTexture2D")
	if len(ft) != 1 || ft[0].Args[2] != uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+3) {
		t.Errorf("cube attachment = %v, want face +3", ft)
	}

	b.SetTargets([]Handle{6}, NoHandle, 2, 0)
	fl := calls(rec, "FramebufferTextureLayer")
	if len(fl) != 1 || fl[0].Args[4] != int32(2) {
		t.Errorf("array attachment = %v, want layer 2", fl)
	}

	b.SetTargets([]Handle{6}, NoHandle, 1, 0)
	if n := rec.Count("GenFramebuffer"); n != 3 {
		t.Errorf("GenFramebuffer = %d, want a framebuffer per slice", n)
	}
}
