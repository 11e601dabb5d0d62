package rhi

import (
	"time"

	"github.com/gogpu/rhi/config"
	"github.com/gogpu/rhi/driver"
)

// PerfResult is the GPU time of one perf marker scope, children included.
type PerfResult struct {
	Name    string
	Depth   int
	Frame   uint64
	Elapsed time.Duration
}

// perfMarker is one time-elapsed query. Padding markers time the part of a
// parent scope after a child closed; they are added to that parent.
// issued is set from BeginQuery until its result has been read back.
type perfMarker struct {
	query   uint32
	frame   uint64
	depth   int
	name    string
	issued  bool
	padding bool
	elapsed uint64
}

type perfBuffer struct {
	markers []perfMarker
	n       int
}

// perfState runs perf markers on two buffers: one is written during the
// frame while the other waits for its query results.
type perfState struct {
	timed   bool
	buffers [2]perfBuffer
	cur     int
	// open is set while a query of the current buffer is running.
	open    bool
	stack   []string
	report  []PerfResult
	dropped int
}

func (p *perfState) init(cfg config.Perf, timer bool) {
	p.timed = cfg.Enabled && timer
	if !p.timed {
		return
	}
	size := max(cfg.RingSize, 1)
	for i := range p.buffers {
		p.buffers[i].markers = make([]perfMarker, size)
	}
}

func (p *perfState) release(dev driver.Device) {
	if p.open {
		dev.EndQuery(glTimeElapsed)
		p.open = false
	}
	for i := range p.buffers {
		for j := range p.buffers[i].markers {
			if q := p.buffers[i].markers[j].query; q != 0 {
				dev.DeleteQuery(q)
			}
		}
	}
}

// PushPerfMarker opens a named GPU timing scope. Scopes nest and must be
// closed with PopPerfMarker before Present.
func (b *Backend) PushPerfMarker(name string) {
	p := &b.perf
	p.stack = append(p.stack, name)
	if p.timed {
		p.closeQuery(b.dev)
		p.begin(b.dev, name, len(p.stack)-1, false, b.frame)
	}
}

// PopPerfMarker closes the innermost scope.
func (b *Backend) PopPerfMarker() {
	p := &b.perf
	assertf(len(p.stack) > 0, "PopPerfMarker", "no perf marker pushed")
	p.stack = p.stack[:len(p.stack)-1]
	if !p.timed {
		return
	}
	p.closeQuery(b.dev)
	if d := len(p.stack); d > 0 {
		p.begin(b.dev, p.stack[d-1], d-1, true, b.frame)
	}
}

// PerfReport returns the scopes of the most recent frame whose queries
// completed, in push order. Results lag rendering by at least one frame.
func (b *Backend) PerfReport() []PerfResult {
	return append([]PerfResult(nil), b.perf.report...)
}

func (p *perfState) begin(dev driver.Device, name string, depth int, padding bool, frame uint64) {
	buf := &p.buffers[p.cur]
	if buf.n == len(buf.markers) {
		if p.dropped == 0 {
			Logger().Warn("rhi: perf marker buffer full, dropping markers", "capacity", len(buf.markers))
		}
		p.dropped++
		return
	}
	m := &buf.markers[buf.n]
	if m.query == 0 {
		m.query = dev.GenQuery()
	}
	m.frame, m.depth, m.name, m.padding, m.elapsed = frame, depth, name, padding, 0
	dev.BeginQuery(glTimeElapsed, m.query)
	m.issued = true
	buf.n++
	p.open = true
}

func (p *perfState) closeQuery(dev driver.Device) {
	if p.open {
		dev.EndQuery(glTimeElapsed)
		p.open = false
	}
}

// endFrame collects the previous buffer once every one of its queries is
// available, then swaps buffers. While results are pending the current
// buffer keeps collecting.
func (p *perfState) endFrame(dev driver.Device) {
	assertf(len(p.stack) == 0, "Present", "%d perf markers still pushed: %v", len(p.stack), p.stack)
	p.dropped = 0
	if !p.timed {
		return
	}
	prev := &p.buffers[1-p.cur]
	if prev.n > 0 {
		for i := range prev.n {
			if m := &prev.markers[i]; m.issued && !dev.QueryResultAvailable(m.query) {
				return
			}
		}
		for i := range prev.n {
			m := &prev.markers[i]
			if m.issued {
				m.elapsed = dev.QueryResult(m.query)
				m.issued = false
			}
		}
		p.report = aggregate(prev.markers[:prev.n])
		prev.n = 0
		log := Logger()
		for _, r := range p.report {
			log.Debug("rhi: perf", "frame", r.Frame, "depth", r.Depth, "name", r.Name, "elapsed", r.Elapsed)
		}
	}
	p.cur = 1 - p.cur
}

// aggregate turns markers into one result per pushed scope. A padding
// marker adds to the closest earlier scope of its depth in the same frame,
// then every scope adds to its parent, deepest first.
func aggregate(markers []perfMarker) []PerfResult {
	out := make([]PerfResult, 0, len(markers))
	for _, m := range markers {
		if m.padding {
			for i := len(out) - 1; i >= 0; i-- {
				if out[i].Frame != m.frame {
					break
				}
				if out[i].Depth == m.depth {
					out[i].Elapsed += time.Duration(m.elapsed)
					break
				}
			}
			continue
		}
		out = append(out, PerfResult{Name: m.name, Depth: m.depth, Frame: m.frame, Elapsed: time.Duration(m.elapsed)})
	}
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Depth == 0 {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if out[j].Frame != out[i].Frame {
				break
			}
			if out[j].Depth == out[i].Depth-1 {
				out[j].Elapsed += out[i].Elapsed
				break
			}
		}
	}
	return out
}
