package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/bmp"

	"github.com/gogpu/rhi"
)

// ErrDumpFormat is returned when a read-back format has no image mapping.
var ErrDumpFormat = errors.New("rhireplay: cannot dump format")

// toImage converts read-back texels to an image. With bottomUp the first
// row of d is the bottom row of the image.
func toImage(d rhi.ReadBackData, width, height int, bottomUp bool) (image.Image, error) {
	if d.RowPitch == 0 || d.ElementSize == 0 {
		return nil, fmt.Errorf("%w: %v", ErrDumpFormat, d.Format)
	}
	if width == 0 {
		width = d.RowPitch / d.ElementSize
	}
	if height == 0 {
		height = len(d.Data) / d.RowPitch
	}
	src := func(y int) []byte {
		if bottomUp {
			y = height - 1 - y
		}
		return d.Data[y*d.RowPitch:]
	}
	switch d.Format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+4*width], src(y))
		}
		return img, nil
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			row := src(y)
			for x := 0; x < width; x++ {
				p := row[4*x:]
				img.SetNRGBA(x, y, color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]})
			}
		}
		return img, nil
	case gputypes.TextureFormatR8Unorm:
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+width], src(y))
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrDumpFormat, d.Format)
}

// Dump reads back h (the window when h is 0) and writes it as BMP.
func Dump(w io.Writer, b *rhi.Backend, h rhi.Handle) error {
	if h == rhi.NoHandle {
		h = rhi.BackBufferColor
	}
	bottomUp := h != rhi.BackBufferColor && !b.Caps().TopLeftOrigin
	var (
		img    image.Image
		imgErr error
	)
	err := b.ReadBackResource(h, func(d rhi.ReadBackData) {
		img, imgErr = toImage(d, 0, 0, bottomUp)
	})
	if err != nil {
		return err
	}
	if imgErr != nil {
		return imgErr
	}
	return bmp.Encode(w, img)
}
