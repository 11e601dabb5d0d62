package rhi

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"

	"github.com/gogpu/rhi/driver"
	"github.com/gogpu/rhi/driver/drivertest"
)

const (
	testVS = "#version 330 core\nlayout(location = 0) in vec3 pos;\nvoid main() { gl_Position = vec4(pos, 1.0); }\n"
	testPS = "#version 330 core\nout vec4 color;\nvoid main() { color = vec4(1.0); }\n"
)

// Slots used by setupTriangle.
const (
	hVS     Handle = 1
	hPS     Handle = 2
	hVB     Handle = 3
	hLayout Handle = 4
)

func newTestBackend(t *testing.T, opts ...Option) (*Backend, *drivertest.Recorder) {
	t.Helper()
	return newTestBackendCaps(t, drivertest.DefaultCaps(), opts...)
}

func newTestBackendCaps(t *testing.T, caps driver.Caps, opts ...Option) (*Backend, *drivertest.Recorder) {
	t.Helper()
	rec := drivertest.New(caps)
	b, err := New(rec, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(b.Close)
	rec.Reset()
	return b, rec
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// setupTriangle creates and binds a vertex/pixel shader pair, a vertex
// buffer with three float3 positions and its input layout.
func setupTriangle(t *testing.T, b *Backend) {
	t.Helper()
	must(t, b.CreateShader(hVS, ShaderDesc{Stage: StageVertex, Source: testVS}))
	must(t, b.CreateShader(hPS, ShaderDesc{Stage: StagePixel, Source: testPS}))
	must(t, b.CreateBuffer(hVB, BufferDesc{BindFlags: BindVertexBuffer, Data: make([]byte, 36)}))
	must(t, b.CreateInputLayout(hLayout, InputLayoutDesc{Attributes: []VertexAttribute{
		{Location: 0, Format: gputypes.VertexFormatFloat32x3, StepMode: gputypes.VertexStepModeVertex},
	}}))
	b.SetShader(StageVertex, hVS)
	b.SetShader(StagePixel, hPS)
	b.SetVertexBuffers(0, []VertexBuffer{{Buffer: hVB, Stride: 12}})
	b.SetInputLayout(hLayout)
}

// expectAssert runs fn and returns the *AssertionError it panics with.
func expectAssert(t *testing.T, fn func()) (ae *AssertionError) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected an assertion panic")
		}
		err, ok := r.(error)
		if !ok || !errors.As(err, &ae) {
			t.Fatalf("panic value = %v, want *AssertionError", r)
		}
	}()
	fn()
	return nil
}

// calls returns the recorded calls named name.
func calls(rec *drivertest.Recorder, name string) []drivertest.Call {
	var out []drivertest.Call
	for _, c := range rec.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// firstIndex returns the position of the first call named name, -1 if none.
func firstIndex(rec *drivertest.Recorder, name string) int {
	for i, c := range rec.Calls() {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// activeUnits returns the texture unit that was active at each call named
// name, replaying ActiveTexture from the start of the log.
func activeUnits(rec *drivertest.Recorder, name string) []int {
	var out []int
	active := 0
	for _, c := range rec.Calls() {
		switch c.Name {
		case "ActiveTexture":
			active = int(c.Args[0].(uint32) - gl.TEXTURE0)
		case name:
			out = append(out, active)
		}
	}
	return out
}

// testWindow is a resizable window.
type testWindow struct {
	w, h  int
	scale float64
}

func (w *testWindow) Size() (int, int) { return w.w, w.h }
func (w *testWindow) ScaleFactor() float64 {
	if w.scale == 0 {
		return 1
	}
	return w.scale
}
func (w *testWindow) RequestRedraw() {}
