// Package mask builds binary skin masks from HSV frames.
//
// Masks are *image.Gray rasters holding 255 for selected pixels and 0
// elsewhere, always with the same dimensions as the frame they came from.
package mask

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/MeKo-Tech/undertone/internal/colorspace"
	"github.com/disintegration/gift"
)

// DefaultKernelSize is the diameter of the elliptical structuring element
// used for closing and opening.
const DefaultKernelSize = 5

// SkinRange is an inclusive per-channel HSV window (H 0..179, S and V 0..255).
type SkinRange struct {
	Lo [3]uint8
	Hi [3]uint8
}

// DefaultSkinRange selects low-to-mid hues with moderate-to-high saturation
// and brightness.
var DefaultSkinRange = SkinRange{
	Lo: [3]uint8{0, 30, 60},
	Hi: [3]uint8{25, 255, 255},
}

// Contains reports whether an HSV triple lies inside the range.
func (r SkinRange) Contains(h, s, v uint8) bool {
	return h >= r.Lo[0] && h <= r.Hi[0] &&
		s >= r.Lo[1] && s <= r.Hi[1] &&
		v >= r.Lo[2] && v <= r.Hi[2]
}

// Skin segments an HSV frame with DefaultSkinRange, then closes and opens the
// result with a DefaultKernelSize ellipse.
func Skin(hsv *colorspace.HSV) *image.Gray {
	m := InRange(hsv, DefaultSkinRange)
	m = Close(m, DefaultKernelSize)
	return Open(m, DefaultKernelSize)
}

// InRange marks every pixel whose HSV triple lies inside r.
func InRange(hsv *colorspace.HSV, r SkinRange) *image.Gray {
	bounds := hsv.Bounds()
	m := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			h, s, v := hsv.At(x, y)
			if r.Contains(h, s, v) {
				m.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	return m
}

// Close fills holes smaller than the structuring element: dilation followed
// by erosion.
func Close(m *image.Gray, ksize int) *image.Gray {
	el := Ellipse(ksize)
	return morph(m, dilate(el), erode(el))
}

// Open removes specks smaller than the structuring element: erosion
// followed by dilation.
func Open(m *image.Gray, ksize int) *image.Gray {
	el := Ellipse(ksize)
	return morph(m, erode(el), dilate(el))
}

// Ellipse returns the offsets of the elliptical structuring element inscribed
// in a ksize x ksize box, relative to its centre. Each row dy spans
// round(c*sqrt(1-(dy/r)^2)) cells either side of the centre column, so
// size 5 yields 17 cells: full rows at dy=0 and dy=±1, the centre alone at
// dy=±2.
func Ellipse(ksize int) []image.Point {
	if ksize < 1 {
		return []image.Point{{}}
	}
	r := ksize / 2
	c := ksize / 2

	var pts []image.Point
	for i := 0; i < ksize; i++ {
		dy := i - r
		dx := c
		if r > 0 {
			dx = int(math.RoundToEven(float64(c) * math.Sqrt(float64(r*r-dy*dy)/float64(r*r))))
		}
		j1 := max(c-dx, 0)
		j2 := min(c+dx+1, ksize)
		for j := j1; j < j2; j++ {
			pts = append(pts, image.Pt(j-c, dy))
		}
	}
	return pts
}

// rankFilter is a binary erosion or dilation over an explicit structuring
// element. Offsets falling outside the image are ignored.
type rankFilter struct {
	element []image.Point
	dilate  bool
}

func erode(el []image.Point) gift.Filter  { return &rankFilter{element: el} }
func dilate(el []image.Point) gift.Filter { return &rankFilter{element: el, dilate: true} }

func (f *rankFilter) Bounds(srcBounds image.Rectangle) image.Rectangle {
	return srcBounds
}

func (f *rankFilter) Draw(dst draw.Image, src image.Image, _ *gift.Options) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	set := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			set[y*w+x] = g.Y != 0
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Erosion keeps a pixel only if every in-bounds neighbour is set;
			// dilation sets it if any is.
			hit := !f.dilate
			for _, o := range f.element {
				nx, ny := x+o.X, y+o.Y
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if set[ny*w+nx] == f.dilate {
					hit = f.dilate
					break
				}
			}
			v := color.Gray{}
			if hit {
				v.Y = 255
			}
			dst.Set(b.Min.X+x, b.Min.Y+y, v)
		}
	}
}

func morph(m *image.Gray, filters ...gift.Filter) *image.Gray {
	g := gift.New(filters...)
	dst := image.NewGray(g.Bounds(m.Bounds()))
	g.Draw(dst, m)
	return dst
}

// Count returns the number of set pixels.
func Count(m *image.Gray) int {
	bounds := m.Bounds()
	n := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if m.GrayAt(x, y).Y != 0 {
				n++
			}
		}
	}
	return n
}
