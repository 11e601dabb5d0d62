package rhi

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/gles/gl"
)

// ReadBackResource copies the contents of a buffer, texture or render
// target to the CPU and passes them to fn before returning. Textures are
// read at mip level 0 of their first slice. BackBufferColor reads the
// window as RGBA8 with the top row first.
//
// The read stalls until the device finished all prior work.
func (b *Backend) ReadBackResource(h Handle, fn func(ReadBackData)) error {
	const op = "ReadBackResource"
	if h == BackBufferColor {
		return b.readBackWindow(fn)
	}
	switch r := b.resourceAt(op, h).(type) {
	case nil:
		return fmt.Errorf("rhi: %s: %w", op, ErrReservedHandle)
	case *bufferObject:
		data := make([]byte, r.size)
		b.dev.BindBuffer(r.target, r.native)
		b.dev.ReadBufferData(r.target, 0, data)
		if r.target == gl.ELEMENT_ARRAY_BUFFER {
			b.elementsKnown = false
		}
		fn(ReadBackData{Data: data, RowPitch: r.size, DepthPitch: r.size, ElementSize: 1})
	case *textureObject:
		return b.readBackTexture(op, h, &r.textureInfo, fn)
	case *renderTarget:
		if r.invalidate && r.msaa.native != 0 {
			prev := b.units[0]
			b.refreshTarget(0, r, ResolveAverage)
			if prev.native != 0 {
				b.bindUnit(0, prev.target, prev.native)
			}
		}
		return b.readBackTexture(op, h, &r.textureInfo, fn)
	default:
		return fmt.Errorf("rhi: %s %d: %s has no contents: %w", op, h, kindOf(r), ErrInvalidDescriptor)
	}
	b.checkErrors(op)
	return nil
}

func (b *Backend) readBackTexture(op string, h Handle, t *textureInfo, fn func(ReadBackData)) error {
	if t.fi.compressed {
		return fmt.Errorf("rhi: %s %d: compressed texture: %w", op, h, ErrUnsupported)
	}
	fbo := b.surfaceFramebuffer(op, h, t, false)
	pitch := t.fi.rowPitch(t.width)
	data := make([]byte, pitch*t.height)
	b.dev.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	b.dev.ReadPixels(0, 0, int32(t.width), int32(t.height), t.fi.transfer, t.fi.typ, data)
	b.restoreTargets()
	b.checkErrors(op)
	fn(ReadBackData{
		Data:        data,
		Format:      t.fi.format,
		RowPitch:    pitch,
		DepthPitch:  len(data),
		ElementSize: t.fi.size,
	})
	return nil
}

func (b *Backend) readBackWindow(fn func(ReadBackData)) error {
	const op = "ReadBackResource"
	w, h := b.bbWidth, b.bbHeight
	pitch := w * 4
	data := make([]byte, pitch*h)
	b.dev.BindFramebuffer(gl.READ_FRAMEBUFFER, b.dev.DefaultFramebuffer())
	b.dev.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, data)
	b.restoreTargets()
	b.checkErrors(op)
	if !b.caps.TopLeftOrigin {
		flipRows(data, pitch)
	}
	fn(ReadBackData{
		Data:        data,
		Format:      gputypes.TextureFormatRGBA8Unorm,
		RowPitch:    pitch,
		DepthPitch:  len(data),
		ElementSize: 4,
	})
	return nil
}

// flipRows reverses the row order of an image in place.
func flipRows(data []byte, pitch int) {
	tmp := make([]byte, pitch)
	for top, bottom := 0, len(data)/pitch-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := data[top*pitch : (top+1)*pitch]
		c := data[bottom*pitch : (bottom+1)*pitch]
		copy(tmp, a)
		copy(a, c)
		copy(c, tmp)
	}
}
