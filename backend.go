package rhi

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/glsl"

	"github.com/gogpu/rhi/config"
	"github.com/gogpu/rhi/driver"
	"github.com/gogpu/rhi/internal/cache"
	"github.com/gogpu/rhi/internal/pool"
)

// devices tracks the devices of open backends so SetLogger can reach them.
var (
	devicesMu sync.Mutex
	devices   = make(map[driver.Device]struct{})
)

// Backend replays rendering commands onto one native device.
//
// A Backend owns every native object it creates. It is not safe for
// concurrent use: all calls must come from the goroutine that replays the
// command stream.
type Backend struct {
	dev    driver.Device
	caps   driver.Caps
	cfg    config.Config
	window gpucontext.WindowProvider
	glsl   glsl.Version

	res *pool.Pool[resource]

	requested bindState
	applied   bindState
	// dirty marks groups re-applied by the next resolution regardless of
	// the snapshots.
	dirty stateGroup

	programs *cache.Table[*linkedProgram]
	retired  []*linkedProgram
	current  *linkedProgram

	framebuffers *cache.Table[uint32]
	hasher       cache.Hasher
	bbWidth      int
	bbHeight     int
	targets      targetState
	viewport     Viewport
	scissor      Rect

	units      [MaxTextureUnits]unitState
	activeUnit int
	defaultVAO uint32
	boundVAO   uint32
	boundFBO   uint32
	fboKnown   bool
	// elements is the element buffer bound to boundVAO.
	elements      uint32
	elementsKnown bool

	resolvers map[ResolveMethod]programKey

	perf  perfState
	frame uint64
	stats Stats
}

// Stats are running counters of a Backend.
type Stats struct {
	Frames     uint64
	Draws      uint64
	Dispatches uint64
	// SkippedDraws counts draws dropped because no usable program was bound.
	SkippedDraws uint64
	// StateChanges counts state groups re-applied by bind resolution.
	StateChanges   uint64
	ProgramsLinked uint64
	LinkFailures   uint64
	MipGenerations uint64
	Resolves       uint64
	DriverErrors   uint64
	Programs       CacheStats
	Framebuffers   CacheStats
}

// CacheStats describe one object cache.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

func cacheStats(s cache.Stats) CacheStats {
	return CacheStats{Entries: s.Len, Hits: s.Hits, Misses: s.Misses}
}

// New creates a backend on dev. The backend takes ownership of dev and
// releases it in Close.
func New(dev driver.Device, opts ...Option) (*Backend, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rhi: %w", err)
	}
	version, err := o.cfg.GLSLVersion()
	if err != nil {
		return nil, fmt.Errorf("rhi: %w", err)
	}

	b := &Backend{
		dev:          dev,
		caps:         dev.Caps(),
		cfg:          o.cfg,
		window:       o.window,
		glsl:         version,
		res:          pool.New[resource](o.cfg.InitialSlots),
		programs:     cache.New[*linkedProgram](),
		framebuffers: cache.New[uint32](),
		resolvers:    make(map[ResolveMethod]programKey),
		activeUnit:   -1,
	}
	b.bbWidth, b.bbHeight = b.backBufferSize()
	b.defaultVAO = dev.GenVertexArray()
	b.perf.init(o.cfg.Perf, b.caps.GPUTimer())
	b.targets.backbuffer = true
	b.requested.backbufferBound = true
	b.resetApplied()

	devicesMu.Lock()
	devices[dev] = struct{}{}
	devicesMu.Unlock()
	propagateLogger(dev, Logger())

	Logger().Info("rhi: device opened", "caps", b.caps.String(),
		"backbuffer", fmt.Sprintf("%dx%d", b.bbWidth, b.bbHeight))
	return b, nil
}

// Close releases every resource, cached program and framebuffer, then the
// device itself.
func (b *Backend) Close() {
	if b.dev == nil {
		return
	}
	b.res.Each(func(slot uint32, r *resource) {
		if *r != nil {
			b.releaseSlot(Handle(slot))
		}
	})
	b.programs.Reset(func(p *linkedProgram) { b.deleteProgram(p) })
	for _, p := range b.retired {
		b.deleteProgram(p)
	}
	b.retired = nil
	b.dropFramebuffers()
	b.perf.release(b.dev)
	b.dev.DeleteVertexArray(b.defaultVAO)

	devicesMu.Lock()
	delete(devices, b.dev)
	devicesMu.Unlock()

	b.dev.Release()
	b.dev = nil
}

// Caps returns the device capabilities.
func (b *Backend) Caps() driver.Caps { return b.caps }

// FormatSupported reports whether textures of format f can be created.
func (b *Backend) FormatSupported(f gputypes.TextureFormat) bool {
	fi, ok := lookupFormat(f)
	if !ok {
		return false
	}
	return fi.feature == 0 || b.caps.Features.Contains(fi.feature)
}

// Stats returns the running counters.
func (b *Backend) Stats() Stats {
	s := b.stats
	s.Programs = cacheStats(b.programs.Stats())
	s.Framebuffers = cacheStats(b.framebuffers.Stats())
	return s
}

// Kind returns the kind of resource held by slot h.
func (b *Backend) Kind(h Handle) ResourceKind {
	if h == NoHandle || !b.res.Has(uint32(h)) {
		return KindNone
	}
	return kindOf(*b.res.At(uint32(h)))
}

// Slots returns the number of addressable resource slots, slot 0 included.
func (b *Backend) Slots() int { return b.res.Len() }

// backBufferSize returns the window size in pixels.
func (b *Backend) backBufferSize() (int, int) {
	w, h := b.window.Size()
	sf := b.window.ScaleFactor()
	if sf <= 0 {
		sf = 1
	}
	return int(math.Round(float64(w) * sf)), int(math.Round(float64(h) * sf))
}

// slotFor prepares slot h for a new resource of the given kind.
func (b *Backend) slotFor(op string, h Handle) (*resource, error) {
	if h.reserved() {
		return nil, fmt.Errorf("rhi: %s at %d: %w", op, h, ErrReservedHandle)
	}
	b.res.Grow(uint32(h))
	r := b.res.At(uint32(h))
	if *r != nil {
		Logger().Warn("rhi: slot reused without release", "op", op, "handle", h, "kind", kindOf(*r))
		b.releaseSlot(h)
	}
	return r, nil
}

// resetApplied forgets the native state shadow so the next draw re-applies
// everything.
func (b *Backend) resetApplied() {
	b.applied = bindState{}
	b.dirty = allGroups
	b.current = nil
	b.boundVAO = 0
	b.elements = 0
	b.elementsKnown = false
	for i := range b.units {
		u := &b.units[i]
		u.stale = u.target != 0 || u.sampler != 0
	}
	b.activeUnit = -1
}
