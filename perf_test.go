package rhi

import (
	"testing"
	"time"

	"github.com/gogpu/rhi/config"
	"github.com/gogpu/rhi/driver/drivertest"
)

func TestPerfNestedScopes(t *testing.T) {
	b, rec := newTestBackend(t)
	rec.QueryDurations = []uint64{1, 2, 3, 4, 5}

	b.PushPerfMarker("frame")
	b.PushPerfMarker("shadow")
	b.PopPerfMarker()
	b.PushPerfMarker("main")
	b.PopPerfMarker()
	b.PopPerfMarker()
	b.Present()
	if got := b.PerfReport(); len(got) != 0 {
		t.Fatalf("report after one frame = %v, want empty", got)
	}
	b.Present()

	want := []PerfResult{
		{Name: "frame", Depth: 0, Frame: 0, Elapsed: 15},
		{Name: "shadow", Depth: 1, Frame: 0, Elapsed: 2},
		{Name: "main", Depth: 1, Frame: 0, Elapsed: 4},
	}
	got := b.PerfReport()
	if len(got) != len(want) {
		t.Fatalf("report = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if n := rec.Count("BeginQuery"); n != 5 {
		t.Errorf("BeginQuery = %d, want 5", n)
	}
}

func TestPerfQueriesDoNotOverlap(t *testing.T) {
	b, rec := newTestBackend(t)
	b.PushPerfMarker("a")
	b.PushPerfMarker("b")
	b.PopPerfMarker()
	b.PopPerfMarker()

	open := 0
	for _, c := range rec.Calls() {
		switch c.Name {
		case "BeginQuery":
			open++
			if open > 1 {
				t.Fatal("two time queries open at once")
			}
		case "EndQuery":
			open--
		}
	}
	if open != 0 {
		t.Errorf("%d queries left open", open)
	}
	b.Present()
}

func TestPerfUnbalancedPresentPanics(t *testing.T) {
	b, _ := newTestBackend(t)
	b.PushPerfMarker("frame")
	ae := expectAssert(t, b.Present)
	if ae.Op != "Present" {
		t.Errorf("Op = %q, want Present", ae.Op)
	}
	b.PopPerfMarker()
}

func TestPerfPopEmptyPanics(t *testing.T) {
	b, _ := newTestBackend(t)
	expectAssert(t, b.PopPerfMarker)
}

func TestPerfLatency(t *testing.T) {
	b, rec := newTestBackend(t)
	rec.DefaultDuration = 7
	rec.QueryLatency = 2

	frame := func(name string) {
		b.PushPerfMarker(name)
		b.PopPerfMarker()
		b.Present()
	}
	frame("f0")
	frame("f1")
	if got := b.PerfReport(); len(got) != 0 {
		t.Fatalf("report with pending queries = %v, want empty", got)
	}
	// Pending results keep the current buffer collecting.
	frame("f2")
	if got := b.PerfReport(); len(got) != 0 {
		t.Fatalf("report = %v, want still pending", got)
	}
	frame("f3")
	got := b.PerfReport()
	if len(got) != 1 || got[0].Name != "f0" || got[0].Elapsed != 7*time.Nanosecond {
		t.Errorf("report = %v, want f0 7ns", got)
	}
}

func TestPerfWithoutTimer(t *testing.T) {
	caps := drivertest.DefaultCaps()
	caps.Features = 0
	b, rec := newTestBackendCaps(t, caps)
	b.PushPerfMarker("a")
	b.PopPerfMarker()
	b.Present()
	b.Present()
	if rec.Count("BeginQuery") != 0 {
		t.Error("queries issued without a GPU timer")
	}
	if len(b.PerfReport()) != 0 {
		t.Error("report produced without a GPU timer")
	}
}

func TestPerfRingFull(t *testing.T) {
	cfg := config.Default()
	cfg.Perf.RingSize = 2
	b, rec := newTestBackend(t, WithConfig(cfg))
	for range 4 {
		b.PushPerfMarker("m")
		b.PopPerfMarker()
	}
	if n := rec.Count("BeginQuery"); n != 2 {
		t.Errorf("BeginQuery = %d, want 2 with a ring of 2", n)
	}
	b.Present()
}

func TestAggregatePaddingAcrossFrames(t *testing.T) {
	markers := []perfMarker{
		{frame: 1, depth: 0, name: "a", elapsed: 10},
		{frame: 2, depth: 0, name: "b", elapsed: 1},
		{frame: 2, depth: 1, name: "c", elapsed: 2},
		{frame: 2, depth: 0, name: "b", padding: true, elapsed: 3},
	}
	got := aggregate(markers)
	want := []PerfResult{
		{Name: "a", Depth: 0, Frame: 1, Elapsed: 10},
		{Name: "b", Depth: 0, Frame: 2, Elapsed: 6},
		{Name: "c", Depth: 1, Frame: 2, Elapsed: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("aggregate = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPerfMarkerIssuedUntilRead(t *testing.T) {
	b, rec := newTestBackend(t)
	rec.QueryLatency = 1

	b.PushPerfMarker("a")
	b.PopPerfMarker()
	m := &b.perf.buffers[0].markers[0]
	if !m.issued {
		t.Fatal("marker not issued after push")
	}
	b.Present()
	b.Present()
	if !m.issued || len(b.PerfReport()) != 0 {
		t.Errorf("issued = %v, report = %v while the result is pending", m.issued, b.PerfReport())
	}
	b.Present()
	if m.issued {
		t.Error("marker still issued after its result was read")
	}
	if got := len(b.PerfReport()); got != 1 {
		t.Errorf("report length = %d, want 1", got)
	}
}
