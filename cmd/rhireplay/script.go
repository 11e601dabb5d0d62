package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/rhi"
)

// Script is a replayable command stream.
//
//	window: {width: 256, height: 256}
//	resources:
//	  - {handle: 1, kind: shader, stage: vertex, source: "..."}
//	  - {handle: 2, kind: buffer, bind: [vertex], floats: [0, 0, 0, 1, 0, 0, 0, 1, 0]}
//	frames:
//	  - - {op: shader, stage: vertex, handle: 1}
//	    - {op: draw, topology: triangle-list, count: 3}
//
// Each frame is a command list followed by Present.
type Script struct {
	Window    Window      `yaml:"window"`
	Repeat    int         `yaml:"repeat"`
	Resources []Resource  `yaml:"resources"`
	Frames    [][]Command `yaml:"frames"`
	// Dump names the resource read back by -dump. Zero reads the window.
	Dump Handle `yaml:"dump"`
}

// Window sizes the headless back buffer.
type Window struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"`
}

// Handle is a resource handle. Scripts may spell the reserved back buffer
// handles as "backbuffer" and "backbuffer-depth".
type Handle rhi.Handle

func (h *Handle) UnmarshalYAML(n *yaml.Node) error {
	switch normalize(n.Value) {
	case "backbuffer", "backbuffercolor":
		*h = Handle(rhi.BackBufferColor)
		return nil
	case "backbufferdepth":
		*h = Handle(rhi.BackBufferDepth)
		return nil
	}
	var v uint32
	if err := n.Decode(&v); err != nil {
		return fmt.Errorf("line %d: handle: %w", n.Line, err)
	}
	*h = Handle(v)
	return nil
}

// Resource is one create operation. Fields beyond handle and kind depend
// on the kind and are decoded when the script is compiled.
type Resource struct {
	Handle Handle
	Kind   string
	node   yaml.Node
}

func (r *Resource) UnmarshalYAML(n *yaml.Node) error {
	var head struct {
		Handle Handle `yaml:"handle"`
		Kind   string `yaml:"kind"`
	}
	if err := n.Decode(&head); err != nil {
		return err
	}
	r.Handle, r.Kind, r.node = head.Handle, head.Kind, *n
	return nil
}

// Command is one set, draw or marker operation.
type Command struct {
	Op   string
	node yaml.Node
}

func (c *Command) UnmarshalYAML(n *yaml.Node) error {
	var head struct {
		Op string `yaml:"op"`
	}
	if err := n.Decode(&head); err != nil {
		return err
	}
	c.Op, c.node = head.Op, *n
	return nil
}

// ErrEmptyScript is returned for scripts without frames.
var ErrEmptyScript = errors.New("rhireplay: script has no frames")

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses a script and fills in defaults.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("rhireplay: %w", err)
	}
	if len(s.Frames) == 0 {
		return nil, ErrEmptyScript
	}
	if s.Window.Width == 0 {
		s.Window.Width = 1280
	}
	if s.Window.Height == 0 {
		s.Window.Height = 720
	}
	if s.Window.Scale == 0 {
		s.Window.Scale = 1
	}
	if s.Repeat < 1 {
		s.Repeat = 1
	}
	return &s, nil
}

// payload is inline buffer or texture data. At most one field is set.
type payload struct {
	Floats  []float32 `yaml:"floats"`
	Uint16s []uint16  `yaml:"uint16"`
	Uint32s []uint32  `yaml:"uint32"`
	Bytes   []byte    `yaml:"bytes"`
}

// bytes returns the little-endian encoding of the payload.
func (p payload) bytes() []byte {
	switch {
	case len(p.Floats) > 0:
		out := make([]byte, 0, 4*len(p.Floats))
		for _, f := range p.Floats {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
		return out
	case len(p.Uint16s) > 0:
		out := make([]byte, 0, 2*len(p.Uint16s))
		for _, v := range p.Uint16s {
			out = binary.LittleEndian.AppendUint16(out, v)
		}
		return out
	case len(p.Uint32s) > 0:
		out := make([]byte, 0, 4*len(p.Uint32s))
		for _, v := range p.Uint32s {
			out = binary.LittleEndian.AppendUint32(out, v)
		}
		return out
	}
	return p.Bytes
}
