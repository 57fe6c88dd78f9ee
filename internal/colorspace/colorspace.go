// Package colorspace converts RGB frames into the two representations used
// by undertone analysis: 8-bit CIE L*a*b* and 8-bit HSV.
//
// Both follow OpenCV's 8-bit conventions so that the skin range and the
// classifier thresholds keep their meaning:
//   - Lab: L scaled to 0..255, a and b offset by 128.
//   - HSV: hue halved to 0..179, saturation and value scaled to 0..255.
package colorspace

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Channels is a three-channel 8-bit raster laid out like image.NRGBA
// without the alpha byte. Rect always starts at the origin.
type Channels struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

func newChannels(w, h int) Channels {
	return Channels{
		Pix:    make([]uint8, 3*w*h),
		Stride: 3 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
}

// Bounds returns the raster rectangle.
func (c *Channels) Bounds() image.Rectangle { return c.Rect }

// PixOffset returns the index of the first channel of the pixel at (x, y).
func (c *Channels) PixOffset(x, y int) int {
	return (y-c.Rect.Min.Y)*c.Stride + (x-c.Rect.Min.X)*3
}

// At returns the three channel values at (x, y).
func (c *Channels) At(x, y int) (uint8, uint8, uint8) {
	i := c.PixOffset(x, y)
	return c.Pix[i], c.Pix[i+1], c.Pix[i+2]
}

// Set stores the three channel values at (x, y).
func (c *Channels) Set(x, y int, c0, c1, c2 uint8) {
	i := c.PixOffset(x, y)
	c.Pix[i] = c0
	c.Pix[i+1] = c1
	c.Pix[i+2] = c2
}

// Lab is a frame in 8-bit L*a*b*. Channel 1 is the green-red axis,
// channel 2 the blue-yellow axis.
type Lab struct {
	Channels
}

// NewLab allocates a zeroed w×h Lab raster.
func NewLab(w, h int) *Lab {
	return &Lab{Channels: newChannels(w, h)}
}

// HSV is a frame in 8-bit hue/saturation/value.
type HSV struct {
	Channels
}

// NewHSV allocates a zeroed w×h HSV raster.
func NewHSV(w, h int) *HSV {
	return &HSV{Channels: newChannels(w, h)}
}

// ToLab converts img to 8-bit L*a*b* (sRGB, D65 white point).
func ToLab(img image.Image) *Lab {
	b := img.Bounds()
	dst := NewLab(b.Dx(), b.Dy())
	convert(img, func(x, y int, c colorful.Color) {
		l, a, bb := c.Lab()
		// go-colorful reports L in 0..1 and a/b in hundredths.
		dst.Set(x, y, roundU8(l*255), roundU8(a*100+128), roundU8(bb*100+128))
	})
	return dst
}

// ToHSV converts img to 8-bit HSV with hue in 0..179.
func ToHSV(img image.Image) *HSV {
	b := img.Bounds()
	dst := NewHSV(b.Dx(), b.Dy())
	convert(img, func(x, y int, c colorful.Color) {
		h, s, v := c.Hsv()
		hue := roundU8(h / 2)
		if hue >= 180 {
			hue -= 180
		}
		dst.Set(x, y, hue, roundU8(s*255), roundU8(v*255))
	})
	return dst
}

// convert walks img and hands each pixel, translated to origin-based
// coordinates, to fn. Alpha is ignored: frames are treated as opaque.
func convert(img image.Image, fn func(x, y int, c colorful.Color)) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl := rgb8(img.At(x, y))
			fn(x-b.Min.X, y-b.Min.Y, colorful.Color{
				R: float64(r) / 255.0,
				G: float64(g) / 255.0,
				B: float64(bl) / 255.0,
			})
		}
	}
}

// rgb8 extracts straight (non-premultiplied) 8-bit RGB.
func rgb8(c color.Color) (r, g, b uint8) {
	switch v := c.(type) {
	case color.NRGBA:
		return v.R, v.G, v.B
	case color.RGBA:
		if v.A == 0xff {
			return v.R, v.G, v.B
		}
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B
}
