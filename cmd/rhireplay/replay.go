package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/gogpu/rhi"
)

// Result summarizes a replay.
type Result struct {
	Frames int
	Perf   []rhi.PerfResult
	Stats  rhi.Stats
}

// Replay creates the script's resources on b and runs every frame Repeat
// times, presenting after each frame. Contract violations reported by the
// backend stop the replay with an error naming the script line.
func Replay(b *rhi.Backend, s *Script) (Result, error) {
	c, err := compile(s)
	if err != nil {
		return Result{}, err
	}
	var res Result
	for _, st := range c.setup {
		if err := run(b, st); err != nil {
			return res, err
		}
	}
	for r := 0; r < s.Repeat; r++ {
		for _, frame := range c.frames {
			for _, st := range frame {
				if err := run(b, st); err != nil {
					return res, err
				}
			}
			if err := run(b, step{what: "present", run: set((*rhi.Backend).Present)}); err != nil {
				return res, err
			}
			res.Frames++
			res.Perf = append(res.Perf, b.PerfReport()...)
		}
	}
	res.Stats = b.Stats()
	return res, nil
}

func run(b *rhi.Backend, st step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ae *rhi.AssertionError
			if e, ok := r.(error); ok && errors.As(e, &ae) {
				err = fmt.Errorf("line %d: %s: %w", st.line, st.what, ae)
				return
			}
			panic(r)
		}
	}()
	if err := st.run(b); err != nil {
		return fmt.Errorf("line %d: %s: %w", st.line, st.what, err)
	}
	slog.Debug("rhireplay: step", "op", st.what, "line", st.line)
	return nil
}

// WriteReport prints perf timings and backend counters.
func WriteReport(w io.Writer, r Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "frames\t%d\n", r.Frames)
	if len(r.Perf) > 0 {
		fmt.Fprintln(tw, "\nframe\tmarker\telapsed")
		for _, p := range r.Perf {
			fmt.Fprintf(tw, "%d\t%*s%s\t%v\n", p.Frame, 2*p.Depth, "", p.Name, p.Elapsed)
		}
	}
	s := r.Stats
	fmt.Fprintln(tw, "\ncounter\tvalue")
	rows := []struct {
		name string
		v    uint64
	}{
		{"draws", s.Draws},
		{"dispatches", s.Dispatches},
		{"skipped draws", s.SkippedDraws},
		{"state changes", s.StateChanges},
		{"programs linked", s.ProgramsLinked},
		{"link failures", s.LinkFailures},
		{"mip generations", s.MipGenerations},
		{"resolves", s.Resolves},
		{"driver errors", s.DriverErrors},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\n", row.name, row.v)
	}
	fmt.Fprintf(tw, "program cache\t%d entries, %d hits, %d misses\n",
		s.Programs.Entries, s.Programs.Hits, s.Programs.Misses)
	fmt.Fprintf(tw, "framebuffer cache\t%d entries, %d hits, %d misses\n",
		s.Framebuffers.Entries, s.Framebuffers.Hits, s.Framebuffers.Misses)
	return tw.Flush()
}
