package main

import (
	"bytes"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/bmp"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/driver/drivertest"
)

func newBackend(t *testing.T, w, h int) (*rhi.Backend, *drivertest.Recorder) {
	t.Helper()
	rec := drivertest.New(drivertest.DefaultCaps())
	b, err := rhi.New(rec, rhi.WithWindow(gpucontext.NullWindowProvider{W: w, H: h, SF: 1}))
	if err != nil {
		t.Fatalf("rhi.New() error = %v", err)
	}
	t.Cleanup(b.Close)
	return b, rec
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte("frames:\n  - - {op: draw, count: 3}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Window.Width != 1280 || s.Window.Height != 720 || s.Window.Scale != 1 {
		t.Errorf("Window = %+v, want 1280x720 at scale 1", s.Window)
	}
	if s.Repeat != 1 {
		t.Errorf("Repeat = %d, want 1", s.Repeat)
	}
	if len(s.Frames) != 1 || s.Frames[0][0].Op != "draw" {
		t.Errorf("Frames = %+v, want one draw", s.Frames)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse([]byte("window: {width: 10}\n")); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("Parse() error = %v, want ErrEmptyScript", err)
	}
	if _, err := Parse([]byte("frames: [")); err == nil {
		t.Error("Parse() of broken YAML should fail")
	}
}

func TestHandleNames(t *testing.T) {
	s, err := Parse([]byte(`
dump: backbuffer
frames:
  - - {op: targets, colors: [backbuffer, 5], depth: backbuffer-depth}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rhi.Handle(s.Dump) != rhi.BackBufferColor {
		t.Errorf("Dump = %#x, want BackBufferColor", s.Dump)
	}
	var spec commandSpec
	if err := s.Frames[0][0].node.Decode(&spec); err != nil {
		t.Fatal(err)
	}
	if rhi.Handle(spec.Colors[0]) != rhi.BackBufferColor || spec.Colors[1] != 5 {
		t.Errorf("Colors = %v, want [backbuffer 5]", spec.Colors)
	}
	if rhi.Handle(spec.Depth) != rhi.BackBufferDepth {
		t.Errorf("Depth = %#x, want BackBufferDepth", spec.Depth)
	}
}

func TestPayloadBytes(t *testing.T) {
	tests := []struct {
		name string
		p    payload
		want []byte
	}{
		{"floats", payload{Floats: []float32{1}}, []byte{0, 0, 0x80, 0x3f}},
		{"uint16", payload{Uint16s: []uint16{1, 0x0203}}, []byte{1, 0, 3, 2}},
		{"uint32", payload{Uint32s: []uint32{0x01020304}}, []byte{4, 3, 2, 1}},
		{"bytes", payload{Bytes: []byte{7}}, []byte{7}},
		{"empty", payload{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("bytes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnumLookup(t *testing.T) {
	if got, err := lookup("topology", topologies, "triangle-strip", 0); err != nil || got != gputypes.PrimitiveTopologyTriangleStrip {
		t.Errorf("lookup(triangle-strip) = %v, %v", got, err)
	}
	if got, err := lookup("format", textureFmts, "Depth24Plus_Stencil8", 0); err != nil || got != gputypes.TextureFormatDepth24PlusStencil8 {
		t.Errorf("lookup(depth24plus-stencil8) = %v, %v", got, err)
	}
	if got, err := lookup("address", addressModes, "border", 0); err != nil || got != rhi.AddressModeBorder {
		t.Errorf("lookup(border) = %v, %v", got, err)
	}
	if got, err := lookup("method", resolveMethod, "max", rhi.ResolveAverage); err != nil || got != rhi.ResolveMax {
		t.Errorf("lookup(max) = %v, %v", got, err)
	}
	if _, err := lookup("compare", compares, "sometimes", 0); err == nil {
		t.Error("lookup(sometimes) should fail")
	}
	fl, err := flags("bind flag", bindFlags, []string{"vertex", "stream-out"})
	if err != nil || fl != rhi.BindVertexBuffer|rhi.BindStreamOutput {
		t.Errorf("flags() = %v, %v", fl, err)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"unknown op", "frames:\n  - - {op: teleport}\n", `unknown op "teleport"`},
		{"unknown topology", "frames:\n  - - {op: draw, topology: hexagons}\n", "unknown topology"},
		{"unknown kind", "resources:\n  - {handle: 1, kind: widget}\nframes:\n  - []\n", "unknown kind"},
		{"unknown format", "resources:\n  - {handle: 1, kind: texture, format: rgb9}\nframes:\n  - []\n", "unknown texture format"},
		{"unknown vertex format", "resources:\n  - {handle: 1, kind: input-layout, attributes: [{format: float5}]}\nframes:\n  - []\n", "unknown vertex format"},
		{"release unknown kind", "frames:\n  - - {op: release, handle: 1, kind: none}\n", "unknown kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.script))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			_, err = compile(s)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("compile() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestReplayTriangle(t *testing.T) {
	s, err := Load("testdata/triangle.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	b, rec := newBackend(t, s.Window.Width, s.Window.Height)

	res, err := Replay(b, s)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if res.Frames != 2 {
		t.Errorf("Frames = %d, want 2", res.Frames)
	}
	if res.Stats.Draws != 4 {
		t.Errorf("Draws = %d, want 4", res.Stats.Draws)
	}
	if res.Stats.SkippedDraws != 0 {
		t.Errorf("SkippedDraws = %d, want 0", res.Stats.SkippedDraws)
	}
	if res.Stats.Programs.Entries != 1 {
		t.Errorf("Programs.Entries = %d, want 1", res.Stats.Programs.Entries)
	}
	if res.Stats.Resolves < 2 {
		t.Errorf("Resolves = %d, want at least 2", res.Stats.Resolves)
	}
	if n := rec.Count("LinkProgram"); n != 1 {
		t.Errorf("LinkProgram calls = %d, want 1", n)
	}
	if rec.Count("BlitFramebuffer") == 0 {
		t.Error("no resolve blit recorded")
	}

	var out bytes.Buffer
	if err := WriteReport(&out, res); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"frames", "draws", "program cache"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q:\n%s", want, out.String())
		}
	}
}

func TestReplayAssertionBecomesError(t *testing.T) {
	s, err := Parse([]byte(`
resources:
  - {handle: 3, kind: buffer, bind: [vertex], floats: [0, 0, 0]}
frames:
  - - {op: shader, stage: vertex, handle: 3}
`))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := newBackend(t, 32, 32)

	_, err = Replay(b, s)
	var ae *rhi.AssertionError
	if !errors.As(err, &ae) {
		t.Fatalf("Replay() error = %v, want *rhi.AssertionError", err)
	}
	if !strings.Contains(err.Error(), "line 5") {
		t.Errorf("error %q does not name the script line", err)
	}
}

func TestReplayCreateError(t *testing.T) {
	s, err := Parse([]byte(`
resources:
  - {handle: 1, kind: buffer, bind: [vertex]}
frames:
  - []
`))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := newBackend(t, 32, 32)
	if _, err := Replay(b, s); !errors.Is(err, rhi.ErrInvalidDescriptor) {
		t.Errorf("Replay() error = %v, want ErrInvalidDescriptor", err)
	}
}

func TestDumpWindow(t *testing.T) {
	b, rec := newBackend(t, 4, 2)
	rec.Pixels = make([]byte, 4*2*4)
	for i := 0; i < 4*4; i += 4 {
		copy(rec.Pixels[i:], []byte{255, 0, 0, 255}) // bottom row red
	}

	var buf bytes.Buffer
	if err := Dump(&buf, b, rhi.NoHandle); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	img, err := bmp.Decode(&buf)
	if err != nil {
		t.Fatalf("bmp.Decode() error = %v", err)
	}
	if got := img.Bounds().Size(); got.X != 4 || got.Y != 2 {
		t.Fatalf("size = %v, want 4x2", got)
	}
	red := color.NRGBAModel.Convert(img.At(0, 1)).(color.NRGBA)
	if red != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("bottom-left = %v, want red", red)
	}
}

func TestToImage(t *testing.T) {
	d := rhi.ReadBackData{
		Data:        []byte{1, 2},
		Format:      gputypes.TextureFormatR8Unorm,
		RowPitch:    1,
		ElementSize: 1,
	}
	img, err := toImage(d, 0, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := color.GrayModel.Convert(img.At(0, 0)).(color.Gray).Y; got != 2 {
		t.Errorf("top pixel = %d, want 2 when bottom-up", got)
	}

	bgra := rhi.ReadBackData{
		Data:        []byte{10, 20, 30, 40},
		Format:      gputypes.TextureFormatBGRA8Unorm,
		RowPitch:    4,
		ElementSize: 4,
	}
	img, err = toImage(bgra, 0, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA); got != (color.NRGBA{R: 30, G: 20, B: 10, A: 40}) {
		t.Errorf("BGRA pixel = %v, want swizzled", got)
	}

	d.Format = gputypes.TextureFormatRGBA32Float
	if _, err := toImage(d, 0, 0, false); !errors.Is(err, ErrDumpFormat) {
		t.Errorf("toImage(RGBA32Float) error = %v, want ErrDumpFormat", err)
	}
}
