package rhi

import (
	"fmt"

	"github.com/gogpu/wgpu/hal/gles/gl"
)

// CreateTexture creates a sampled texture at slot h.
func (b *Backend) CreateTexture(h Handle, desc TextureDesc) error {
	const op = "CreateTexture"
	if desc.SampleCount > 1 {
		return fmt.Errorf("rhi: %s %d: multisampled textures must be render targets: %w", op, h, ErrInvalidDescriptor)
	}
	info, err := b.newTexture(op, h, desc)
	if err != nil {
		return err
	}
	slot, err := b.slotFor(op, h)
	if err != nil {
		b.dev.DeleteTexture(info.native)
		return err
	}
	*slot = &textureObject{textureInfo: info}
	b.checkErrors(op)
	return nil
}

// CreateRenderTarget creates a render target at slot h. Depth formats make
// a depth target.
//
// With SampleCount above 1 the target renders into a multisampled surface
// that is resolved into the sampled one by ResolveTarget, or implicitly the
// next time it is bound with SetTexture. Devices without multisampling
// create a single-sampled target instead.
func (b *Backend) CreateRenderTarget(h Handle, desc TextureDesc) error {
	const op = "CreateRenderTarget"
	samples := max(desc.SampleCount, 1)
	if samples > 1 {
		switch {
		case desc.Collection != CollectionNone:
			return fmt.Errorf("rhi: %s %d: multisampled %s target: %w", op, h, desc.Collection, ErrUnsupported)
		case !b.caps.Multisample || !b.cfg.Multisample:
			Logger().Warn("rhi: multisampling unavailable, using 1 sample", "handle", h, "samples", samples)
			samples = 1
		case b.caps.MaxSamples > 0 && samples > b.caps.MaxSamples:
			samples = b.caps.MaxSamples
		}
	}
	info, err := b.newTexture(op, h, desc)
	if err != nil {
		return err
	}
	rt := &renderTarget{textureInfo: info, handle: h}
	if samples > 1 {
		rt.msaa = info
		rt.msaa.native = b.dev.GenTexture()
		rt.msaa.target = gl.TEXTURE_2D_MULTISAMPLE
		rt.msaa.mips = 1
		rt.msaa.samples = samples
		b.bindUnit(0, rt.msaa.target, rt.msaa.native)
		b.dev.TexImage2DMultisample(rt.msaa.target, int32(samples), info.fi.internal,
			int32(info.width), int32(info.height))
	}
	slot, err := b.slotFor(op, h)
	if err != nil {
		b.dev.DeleteTexture(info.native)
		if rt.msaa.native != 0 {
			b.dev.DeleteTexture(rt.msaa.native)
		}
		return err
	}
	*slot = rt
	b.checkErrors(op)
	return nil
}

// newTexture creates and uploads the single-sampled native texture of desc.
func (b *Backend) newTexture(op string, h Handle, desc TextureDesc) (textureInfo, error) {
	fail := func(reason string, err error) (textureInfo, error) {
		return textureInfo{}, fmt.Errorf("rhi: %s %d: %s: %w", op, h, reason, err)
	}
	if h.reserved() {
		return fail("slot", ErrReservedHandle)
	}
	fi, ok := lookupFormat(desc.Format)
	if !ok {
		return fail(fmt.Sprintf("format %v", desc.Format), ErrInvalidDescriptor)
	}
	if fi.feature != 0 && !b.caps.Features.Contains(fi.feature) {
		return fail(fmt.Sprintf("format %v", desc.Format), ErrUnsupported)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return fail(fmt.Sprintf("size %dx%d", desc.Width, desc.Height), ErrInvalidDescriptor)
	}

	info := textureInfo{
		width:      desc.Width,
		height:     desc.Height,
		depth:      1,
		layers:     1,
		mips:       max(desc.NumMips, 1),
		samples:    1,
		collection: desc.Collection,
		fi:         fi,
	}
	switch desc.Collection {
	case CollectionNone:
	case CollectionCube:
		if desc.Width != desc.Height {
			return fail("cube faces must be square", ErrInvalidDescriptor)
		}
	case CollectionCubeArray:
		if !b.caps.CubeArray {
			return fail("cube array", ErrUnsupported)
		}
		info.layers = max(desc.ArrayLayers, 1)
	case CollectionArray:
		if !b.caps.Texture3D {
			return fail("array", ErrUnsupported)
		}
		info.layers = max(desc.ArrayLayers, 1)
	case CollectionVolume:
		if !b.caps.Texture3D {
			return fail("volume", ErrUnsupported)
		}
		info.depth = max(desc.Depth, 1)
	default:
		return fail(fmt.Sprintf("collection %v", desc.Collection), ErrInvalidDescriptor)
	}
	if fi.compressed && (desc.Collection == CollectionVolume || desc.Collection == CollectionArray || desc.Collection == CollectionCubeArray) {
		return fail("compressed layered texture", ErrUnsupported)
	}
	if desc.Data != nil && len(desc.Data) < info.dataSize() {
		return fail(fmt.Sprintf("%d bytes of data, need %d", len(desc.Data), info.dataSize()), ErrInvalidDescriptor)
	}

	info.target = toTextureTarget(desc.Collection, false)
	info.native = b.dev.GenTexture()
	b.bindUnit(0, info.target, info.native)
	b.dev.TexParameteri(info.target, gl.TEXTURE_BASE_LEVEL, 0)
	b.dev.TexParameteri(info.target, gl.TEXTURE_MAX_LEVEL, int32(info.mips-1))
	minf := int32(gl.LINEAR)
	if info.mips > 1 {
		minf = gl.LINEAR_MIPMAP_LINEAR
	}
	b.dev.TexParameteri(info.target, gl.TEXTURE_MIN_FILTER, minf)
	b.dev.TexParameteri(info.target, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	b.upload(&info, desc.Data)
	return info, nil
}

// slices returns the number of 2D images per mip level: faces times layers
// for cube arrays, layers for arrays, 6 for cubes and 1 otherwise. Volume
// depth is handled separately.
func (t *textureInfo) slices() int {
	switch t.collection {
	case CollectionCube:
		return 6
	case CollectionCubeArray:
		return 6 * t.layers
	case CollectionArray:
		return t.layers
	default:
		return 1
	}
}

// levelSize returns the byte size of one mip level of one slice, all depth
// slices included.
func (t *textureInfo) levelSize(level int) int {
	w, h := mipDim(t.width, level), mipDim(t.height, level)
	d := 1
	if t.collection == CollectionVolume {
		d = mipDim(t.depth, level)
	}
	return t.fi.imageSize(w, h) * d
}

// chainSize returns the byte size of a full mip chain of one slice.
func (t *textureInfo) chainSize() int {
	n := 0
	for level := range t.mips {
		n += t.levelSize(level)
	}
	return n
}

func (t *textureInfo) dataSize() int {
	return t.chainSize() * t.slices()
}

// upload specifies every image of t from data, which may be nil.
func (b *Backend) upload(t *textureInfo, data []byte) {
	sub := func(off, n int) []byte {
		if data == nil {
			return nil
		}
		return data[off : off+n]
	}
	chain := t.chainSize()
	switch t.collection {
	case CollectionNone:
		off := 0
		for level := range t.mips {
			n := t.levelSize(level)
			b.image2D(t, gl.TEXTURE_2D, level, sub(off, n))
			off += n
		}
	case CollectionCube:
		for face := range 6 {
			off := face * chain
			for level := range t.mips {
				n := t.levelSize(level)
				b.image2D(t, gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), level, sub(off, n))
				off += n
			}
		}
	case CollectionVolume:
		off := 0
		for level := range t.mips {
			n := t.levelSize(level)
			b.dev.TexImage3D(t.target, int32(level), t.fi.internal,
				int32(mipDim(t.width, level)), int32(mipDim(t.height, level)), int32(mipDim(t.depth, level)),
				t.fi.transfer, t.fi.typ, sub(off, n))
			off += n
		}
	case CollectionArray, CollectionCubeArray:
		// Slices hold full mip chains; the native call takes every slice
		// of one level at once.
		slices := t.slices()
		levelOff := 0
		for level := range t.mips {
			n := t.levelSize(level)
			var buf []byte
			if data != nil {
				buf = make([]byte, 0, n*slices)
				for s := range slices {
					buf = append(buf, sub(s*chain+levelOff, n)...)
				}
			}
			b.dev.TexImage3D(t.target, int32(level), t.fi.internal,
				int32(mipDim(t.width, level)), int32(mipDim(t.height, level)), int32(slices),
				t.fi.transfer, t.fi.typ, buf)
			levelOff += n
		}
	}
}

func (b *Backend) image2D(t *textureInfo, target uint32, level int, data []byte) {
	w, h := int32(mipDim(t.width, level)), int32(mipDim(t.height, level))
	if t.fi.compressed {
		b.dev.CompressedTexImage2D(target, int32(level), t.fi.internal, w, h, data)
		return
	}
	b.dev.TexImage2D(target, int32(level), t.fi.internal, w, h, t.fi.transfer, t.fi.typ, data)
}

// UpdateTexture replaces a rectangle of one mip level. slice selects the
// cube face of cube textures and must be 0 otherwise.
func (b *Backend) UpdateTexture(h Handle, level, slice, x, y, width, height int, data []byte) error {
	const op = "UpdateTexture"
	var t *textureInfo
	switch r := b.resourceAt(op, h).(type) {
	case *textureObject:
		t = &r.textureInfo
	case *renderTarget:
		t = &r.textureInfo
	default:
		assertf(false, op, "handle %d holds %s, want texture", h, kindOf(r))
	}
	switch {
	case t.fi.compressed:
		return fmt.Errorf("rhi: %s %d: compressed update: %w", op, h, ErrUnsupported)
	case t.collection != CollectionNone && t.collection != CollectionCube:
		return fmt.Errorf("rhi: %s %d: %s update: %w", op, h, t.collection, ErrUnsupported)
	case level < 0 || level >= t.mips || slice < 0 || slice >= t.slices():
		return fmt.Errorf("rhi: %s %d: level %d slice %d: %w", op, h, level, slice, ErrInvalidDescriptor)
	case x < 0 || y < 0 || x+width > mipDim(t.width, level) || y+height > mipDim(t.height, level):
		return fmt.Errorf("rhi: %s %d: rectangle out of bounds: %w", op, h, ErrInvalidDescriptor)
	case len(data) < t.fi.imageSize(width, height):
		return fmt.Errorf("rhi: %s %d: %d bytes of data: %w", op, h, len(data), ErrInvalidDescriptor)
	}
	target := t.target
	if t.collection == CollectionCube {
		target = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(slice)
	}
	b.bindUnit(0, t.target, t.native)
	b.dev.TexSubImage2D(target, int32(level), int32(x), int32(y), int32(width), int32(height),
		t.fi.transfer, t.fi.typ, data)
	b.checkErrors(op)
	return nil
}

// SetTexture binds a texture or render target and a sampler to a texture
// unit. Handle 0 unbinds the unit.
//
// A render target written since it was last resolved is resolved first:
// a multisampled target is blitted into its sampled surface and a target
// with mips has them regenerated. Rebinding an unchanged target does
// neither.
func (b *Backend) SetTexture(unit int, tex, sampler Handle) {
	const op = "SetTexture"
	assertf(unit >= 0 && unit < MaxTextureUnits, op, "unit %d exceeds %d", unit, MaxTextureUnits)

	var (
		t       *textureInfo
		applied *Handle
		stale   = b.units[unit].stale
	)
	switch r := b.resourceAt(op, tex).(type) {
	case nil:
		b.unbindUnit(unit)
		return
	case *textureObject:
		t, applied = &r.textureInfo, &r.sampler
	case *renderTarget:
		if r.invalidate {
			b.refreshTarget(unit, r, ResolveAverage)
		}
		t, applied = &r.textureInfo, &r.sampler
	default:
		assertf(false, op, "handle %d holds %s, want texture", tex, kindOf(r))
	}
	b.bindUnit(unit, t.target, t.native)

	s := resourceAs[*samplerObject](b, op, sampler)
	if b.caps.SamplerObjects {
		var native uint32
		if s != nil {
			native = s.native
		}
		if u := &b.units[unit]; stale || u.sampler != native {
			b.dev.BindSampler(uint32(unit), native)
			u.sampler = native
		}
		return
	}
	if s != nil && *applied != sampler {
		b.applySampler(s.desc,
			func(pname uint32, v int32) { b.dev.TexParameteri(t.target, pname, v) },
			func(pname uint32, v float32) { b.dev.TexParameterf(t.target, pname, v) })
		*applied = sampler
	}
}

// resourceAt returns the resource in slot h, nil for handle 0.
func (b *Backend) resourceAt(op string, h Handle) resource {
	if h == NoHandle {
		return nil
	}
	assertf(b.res.Has(uint32(h)) && *b.res.At(uint32(h)) != nil, op, "handle %d was never created", h)
	return *b.res.At(uint32(h))
}

// bindUnit makes unit active and binds a native texture on it, skipping
// redundant binds. Callers rely on unit being active afterwards.
func (b *Backend) bindUnit(unit int, target, native uint32) {
	b.activate(unit)
	u := &b.units[unit]
	if !u.stale && u.target == target && u.native == native {
		return
	}
	if u.target != 0 && u.target != target {
		b.dev.BindTexture(u.target, 0)
	}
	b.dev.BindTexture(target, native)
	u.target, u.native, u.stale = target, native, false
}

func (b *Backend) unbindUnit(unit int) {
	u := &b.units[unit]
	if u.native != 0 {
		b.activate(unit)
		b.dev.BindTexture(u.target, 0)
	}
	u.target, u.native, u.stale = 0, 0, false
	if b.caps.SamplerObjects && u.sampler != 0 {
		b.dev.BindSampler(uint32(unit), 0)
		u.sampler = 0
	}
}

func (b *Backend) activate(unit int) {
	if b.activeUnit == unit {
		return
	}
	b.dev.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	b.activeUnit = unit
}

// forgetTexture drops unit bindings of a native texture about to be deleted.
func (b *Backend) forgetTexture(native uint32) {
	for i := range b.units {
		if b.units[i].native == native {
			b.units[i].target, b.units[i].native = 0, 0
		}
	}
}
