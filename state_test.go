package rhi

import (
	"slices"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"

	"github.com/gogpu/rhi/driver/drivertest"
)

func TestRepeatedDrawEmitsOnlyTheDraw(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	rec.Reset()

	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	if got := rec.Names(); !slices.Equal(got, []string{"DrawArrays"}) {
		t.Errorf("second draw calls = %v, want [DrawArrays]", got)
	}
}

func TestSetWithoutDrawIsDeferred(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	must(t, b.CreateRasterState(10, RasterStateDesc{Cull: gputypes.CullModeBack}))
	must(t, b.CreateBlendState(11, BlendDesc{Targets: []BlendTarget{{Enable: true,
		SrcColor: gputypes.BlendFactorSrcAlpha, DstColor: gputypes.BlendFactorOneMinusSrcAlpha,
		SrcAlpha: gputypes.BlendFactorOne, DstAlpha: gputypes.BlendFactorZero,
		WriteMask: gputypes.ColorWriteMaskAll}}}))
	rec.Reset()

	b.SetRasterState(10)
	b.SetBlendState(11)
	b.SetStencilRef(3)
	if rec.Total() != 0 {
		t.Errorf("Set methods emitted %v", rec.Names())
	}
}

func TestResolveOrder(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	must(t, b.CreateRasterState(10, RasterStateDesc{Cull: gputypes.CullModeBack, DepthClip: true}))
	must(t, b.CreateDepthStencilState(12, DepthStencilDesc{DepthTest: true, DepthWrite: true}))
	must(t, b.CreateBuffer(13, BufferDesc{Size: 64, BindFlags: BindConstantBuffer}))
	b.SetRasterState(10)
	b.SetDepthStencilState(12)
	b.SetConstantBuffer(0, 13)
	rec.Reset()

	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)

	order := []string{"UseProgram", "VertexAttribPointer", "CullFace", "ColorMask", "BindBufferBase", "DepthFunc", "DrawArrays"}
	last := -1
	for _, name := range order {
		i := firstIndex(rec, name)
		if i < 0 {
			t.Fatalf("%s not called; calls: %v", name, rec.Names())
		}
		if i < last {
			t.Errorf("%s at %d, before the previous group at %d", name, i, last)
		}
		last = i
	}
}

func TestChangedGroupOnly(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	must(t, b.CreateRasterState(10, RasterStateDesc{Cull: gputypes.CullModeFront}))
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	rec.Reset()

	b.SetRasterState(10)
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)

	if rec.Count("CullFace") != 1 {
		t.Errorf("CullFace = %d, want 1", rec.Count("CullFace"))
	}
	for _, name := range []string{"UseProgram", "VertexAttribPointer", "ColorMask", "DepthMask"} {
		if n := rec.Count(name); n != 0 {
			t.Errorf("%s = %d after raster-only change, want 0", name, n)
		}
	}
}

func TestBaseVertexOffsetsAttributes(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	must(t, b.CreateBuffer(20, BufferDesc{Size: 12, BindFlags: BindIndexBuffer}))
	b.SetVertexBuffers(0, []VertexBuffer{{Buffer: hVB, Stride: 12, Offset: 4}})
	b.SetIndexBuffer(20, gputypes.IndexFormatUint16, 2)
	rec.Reset()

	b.DrawIndexed(gputypes.PrimitiveTopologyTriangleList, 3, 1, 5)

	ptr := calls(rec, "VertexAttribPointer")
	if len(ptr) != 1 {
		t.Fatalf("VertexAttribPointer calls = %d, want 1", len(ptr))
	}
	if got, want := ptr[0].Args[5], 4+12*5; got != want {
		t.Errorf("attribute offset = %v, want %d", got, want)
	}
	de := calls(rec, "DrawElements")
	if len(de) != 1 {
		t.Fatalf("DrawElements calls = %d, want 1", len(de))
	}
	if got, want := de[0].Args[3], 2+1*2; got != want {
		t.Errorf("index offset = %v, want %d", got, want)
	}
	if got := de[0].Args[2]; got != uint32(gl.UNSIGNED_SHORT) {
		t.Errorf("index type = %v, want UNSIGNED_SHORT", got)
	}

	// A new base vertex re-applies vertex input only.
	rec.Reset()
	b.DrawIndexed(gputypes.PrimitiveTopologyTriangleList, 3, 0, 6)
	ptr = calls(rec, "VertexAttribPointer")
	if len(ptr) != 1 || ptr[0].Args[5] != 4+12*6 {
		t.Errorf("VertexAttribPointer after base vertex change = %v", ptr)
	}
}

func TestDrawIndexedWithoutIndexBufferPanics(t *testing.T) {
	b, _ := newTestBackend(t)
	setupTriangle(t, b)
	expectAssert(t, func() { b.DrawIndexed(gputypes.PrimitiveTopologyTriangleList, 3, 0, 0) })
}

func TestInstanceStep(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	must(t, b.CreateInputLayout(21, InputLayoutDesc{Attributes: []VertexAttribute{
		{Location: 0, Format: gputypes.VertexFormatFloat32x3, StepMode: gputypes.VertexStepModeVertex},
		{Location: 1, Format: gputypes.VertexFormatFloat32x4, InputSlot: 1, StepMode: gputypes.VertexStepModeInstance, StepRate: 2},
	}}))
	must(t, b.CreateBuffer(22, BufferDesc{Size: 64}))
	must(t, b.CreateBuffer(23, BufferDesc{Size: 12, BindFlags: BindIndexBuffer}))
	b.SetInputLayout(21)
	b.SetVertexBuffers(1, []VertexBuffer{{Buffer: 22, Stride: 16}})
	b.SetIndexBuffer(23, gputypes.IndexFormatUint32, 0)
	rec.Reset()

	b.DrawIndexedInstanced(gputypes.PrimitiveTopologyTriangleList, 3, 4, 0, 2)

	var divisors []uint32
	for _, c := range calls(rec, "VertexAttribDivisor") {
		divisors = append(divisors, c.Args[1].(uint32))
	}
	if !slices.Equal(divisors, []uint32{0, 2}) {
		t.Errorf("divisors = %v, want [0 2]", divisors)
	}
	for _, c := range calls(rec, "VertexAttribPointer") {
		if c.Args[0] == uint32(1) && c.Args[5] != 0 {
			t.Errorf("instance attribute offset = %v, want 0 (base vertex applies per vertex only)", c.Args[5])
		}
	}
	if rec.Count("DrawElementsInstanced") != 1 {
		t.Errorf("DrawElementsInstanced = %d, want 1", rec.Count("DrawElementsInstanced"))
	}

	caps := drivertest.DefaultCaps()
	caps.InstanceStep = false
	b2, _ := newTestBackendCaps(t, caps)
	err := b2.CreateInputLayout(1, InputLayoutDesc{Attributes: []VertexAttribute{
		{Format: gputypes.VertexFormatFloat32, StepMode: gputypes.VertexStepModeInstance},
	}})
	if err == nil {
		t.Error("per-instance layout accepted without instance stepping")
	}
}

func TestWindingInvertedOffscreen(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	must(t, b.CreateRasterState(10, RasterStateDesc{FrontCCW: true}))
	must(t, b.CreateRenderTarget(5, TextureDesc{Width: 8, Height: 8, Format: gputypes.TextureFormatRGBA8Unorm}))
	b.SetRasterState(10)

	frontFace := func() any {
		ff := calls(rec, "FrontFace")
		if len(ff) == 0 {
			t.Fatalf("FrontFace not called: %v", rec.Names())
		}
		return ff[len(ff)-1].Args[0]
	}

	rec.Reset()
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	if got := frontFace(); got != uint32(gl.CCW) {
		t.Errorf("back buffer FrontFace = %v, want CCW", got)
	}

	b.SetTargets([]Handle{5}, NoHandle, 0, 0)
	rec.Reset()
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	if got := frontFace(); got != uint32(gl.CW) {
		t.Errorf("render target FrontFace = %v, want CW", got)
	}
}

func TestWireframe(t *testing.T) {
	tests := []struct {
		name        string
		polygonMode bool
		wantMode    uint32
		wantPolygon int
	}{
		{"native", true, gl.TRIANGLES, 1},
		{"emulated", false, gl.LINE_STRIP, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := drivertest.DefaultCaps()
			caps.PolygonMode = tt.polygonMode
			b, rec := newTestBackendCaps(t, caps)
			setupTriangle(t, b)
			must(t, b.CreateRasterState(10, RasterStateDesc{Fill: FillWireframe}))
			b.SetRasterState(10)
			rec.Reset()

			b.Draw(gputypes.PrimitiveTopologyTriangleList, 6, 0)
			da := calls(rec, "DrawArrays")
			if len(da) != 1 || da[0].Args[0] != tt.wantMode {
				t.Errorf("DrawArrays = %v, want mode 0x%X", da, tt.wantMode)
			}
			if n := rec.Count("PolygonMode"); n != tt.wantPolygon {
				t.Errorf("PolygonMode = %d, want %d", n, tt.wantPolygon)
			}
		})
	}
}

func TestPresentReappliesState(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	b.Present()
	rec.Reset()

	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	for _, name := range []string{"UseProgram", "BindVertexArray", "VertexAttribPointer", "FrontFace", "ColorMask", "DepthMask"} {
		if rec.Count(name) == 0 {
			t.Errorf("%s not re-applied after Present", name)
		}
	}
	if got := b.Stats().Frames; got != 1 {
		t.Errorf("Frames = %d, want 1", got)
	}
}

func TestDrawWithoutVertexShaderSkipped(t *testing.T) {
	b, rec := newTestBackend(t)
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	if rec.Count("DrawArrays") != 0 {
		t.Error("draw without a vertex shader reached the device")
	}
	if got := b.Stats().SkippedDraws; got != 1 {
		t.Errorf("SkippedDraws = %d, want 1", got)
	}
}

func TestStencilState(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	must(t, b.CreateDepthStencilState(12, DepthStencilDesc{
		StencilEnable:    true,
		StencilReadMask:  0xF0,
		StencilWriteMask: 0x0F,
		Front:            StencilFaceDesc{Compare: gputypes.CompareFunctionEqual, PassOp: gputypes.StencilOperationReplace},
	}))
	b.SetDepthStencilState(12)
	b.SetStencilRef(7)
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)

	fn := calls(rec, "StencilFuncSeparate")
	if len(fn) != 2 {
		t.Fatalf("StencilFuncSeparate = %d calls, want 2", len(fn))
	}
	if fn[0].Args[1] != uint32(gl.EQUAL) || fn[0].Args[2] != int32(7) || fn[0].Args[3] != uint32(0xF0) {
		t.Errorf("front StencilFuncSeparate = %v", fn[0])
	}
	if fn[1].Args[1] != uint32(gl.ALWAYS) {
		t.Errorf("back compare = %v, want ALWAYS", fn[1].Args[1])
	}

	// Changing only the reference re-applies depth-stencil state.
	rec.Reset()
	b.SetStencilRef(8)
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	if rec.Count("StencilFuncSeparate") != 2 {
		t.Errorf("StencilFuncSeparate after ref change = %d, want 2", rec.Count("StencilFuncSeparate"))
	}
}

func TestClearIgnoresScissorAndRestoresMasks(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	must(t, b.CreateClearState(30, ClearDesc{Flags: ClearColor | ClearDepth, Color: [4]float32{1, 0, 0, 1}, Depth: 1}))
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	rec.Reset()

	b.Clear(30)
	cl := calls(rec, "Clear")
	if len(cl) != 1 || cl[0].Args[0] != uint32(gl.COLOR_BUFFER_BIT|gl.DEPTH_BUFFER_BIT) {
		t.Errorf("Clear = %v", cl)
	}
	if firstIndex(rec, "Disable") > firstIndex(rec, "Clear") {
		t.Error("scissor test not disabled before Clear")
	}

	rec.Reset()
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	for _, name := range []string{"ColorMask", "DepthMask", "FrontFace"} {
		if rec.Count(name) == 0 {
			t.Errorf("%s not re-applied after Clear", name)
		}
	}
}

func TestReleasedBindingIsForgotten(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)

	b.ReleaseBuffer(hVB)
	must(t, b.CreateBuffer(hVB, BufferDesc{Size: 36}))
	rec.Reset()
	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	if rec.Count("VertexAttribPointer") != 0 {
		t.Error("released vertex buffer still bound after recreation in the same slot")
	}
	if rec.Count("DisableVertexAttribArray") != 1 {
		t.Errorf("DisableVertexAttribArray = %d, want 1", rec.Count("DisableVertexAttribArray"))
	}
}

func TestDispatchCompute(t *testing.T) {
	b, rec := newTestBackend(t)
	must(t, b.CreateShader(40, ShaderDesc{Stage: StageCompute, Source: "#version 430\nlayout(local_size_x = 1) in;\nvoid main() {}\n"}))
	b.SetShader(StageCompute, 40)
	rec.Reset()

	b.DispatchCompute(4, 2, 1)
	dc := calls(rec, "DispatchCompute")
	if len(dc) != 1 || dc[0].Args[0] != uint32(4) || dc[0].Args[1] != uint32(2) {
		t.Errorf("DispatchCompute = %v", dc)
	}
	if rec.Count("MemoryBarrier") != 1 {
		t.Error("no memory barrier after dispatch")
	}

	caps := drivertest.DefaultCaps()
	caps.Compute = false
	b2, _ := newTestBackendCaps(t, caps)
	if err := b2.CreateShader(1, ShaderDesc{Stage: StageCompute, Source: "x"}); err == nil {
		t.Error("compute shader accepted without compute support")
	}
}

func TestStreamOut(t *testing.T) {
	b, rec := newTestBackend(t)
	setupTriangle(t, b)
	must(t, b.CreateShader(41, ShaderDesc{Stage: StageStreamOut, StreamOutVaryings: []string{"gl_Position"}}))
	must(t, b.CreateBuffer(42, BufferDesc{Size: 256, BindFlags: BindStreamOutput}))
	b.SetShader(StageStreamOut, 41)
	b.SetStreamOutTarget(42)
	rec.Reset()

	b.Draw(gputypes.PrimitiveTopologyTriangleList, 3, 0)
	want := []string{"Enable", "BeginTransformFeedback", "DrawArrays", "EndTransformFeedback", "Disable"}
	names := rec.Names()
	got := names[len(names)-len(want):]
	if !slices.Equal(got, want) {
		t.Errorf("stream-out tail = %v, want %v", got, want)
	}
	if rec.Count("TransformFeedbackVaryings") != 1 {
		t.Error("varyings not declared before link")
	}

	rec.Reset()
	b.DrawAuto(gputypes.PrimitiveTopologyPointList)
	if rec.Count("DrawTransformFeedback") != 1 {
		t.Errorf("DrawTransformFeedback = %d, want 1", rec.Count("DrawTransformFeedback"))
	}
}

func TestViewportFlip(t *testing.T) {
	b, rec := newTestBackend(t, WithWindow(&testWindow{w: 100, h: 50}))
	b.SetViewport(Viewport{X: 0, Y: 5, Width: 20, Height: 30})
	vp := calls(rec, "Viewport")
	if len(vp) != 1 {
		t.Fatalf("Viewport calls = %d, want 1", len(vp))
	}
	// 50 - 5 - 30
	if vp[0].Args[1] != int32(15) {
		t.Errorf("flipped y = %v, want 15", vp[0].Args[1])
	}

	must(t, b.CreateRenderTarget(5, TextureDesc{Width: 100, Height: 50, Format: gputypes.TextureFormatRGBA8Unorm}))
	rec.Reset()
	b.SetTargets([]Handle{5}, NoHandle, 0, 0)
	vp = calls(rec, "Viewport")
	if len(vp) != 1 || vp[0].Args[1] != int32(5) {
		t.Errorf("off-screen viewport = %v, want y 5 unflipped", vp)
	}

	b.SetScissorRect(Rect{Left: 1, Top: 2, Right: 11, Bottom: 12})
	sc := calls(rec, "Scissor")
	if len(sc) == 0 || sc[len(sc)-1].Args[1] != int32(2) {
		t.Errorf("off-screen scissor = %v", sc)
	}
}
