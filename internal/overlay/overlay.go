// Package overlay draws the result banner shown over analyzed frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/undertone/internal/stats"
	"github.com/MeKo-Tech/undertone/internal/undertone"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Scale enlarges the 7x13 bitmap glyphs so they stay legible on camera
// resolutions.
const Scale = 2

const padding = 8

var (
	// Green is used for results, Yellow for operator hints.
	Green  = color.NRGBA{G: 255, A: 255}
	Yellow = color.NRGBA{R: 255, G: 255, A: 255}

	// BannerColor is composited behind the text.
	BannerColor = color.NRGBA{A: 150}
)

// Line is one row of banner text.
type Line struct {
	Text  string
	Color color.NRGBA
}

// LabelLine shows the detected undertone.
func LabelLine(label undertone.Label) Line {
	return Line{Text: "Undertone: " + label.String(), Color: Green}
}

// InstructionLine lists the live-mode keys.
func InstructionLine() Line {
	return Line{Text: "Press 's' to save, 'q' to quit", Color: Yellow}
}

// ComparisonLine shows an expected and a detected label next to the
// whole-frame chroma means.
func ComparisonLine(expected, detected undertone.Label, means stats.Means) Line {
	return Line{
		Text:  fmt.Sprintf("%s->%s (a*/b*: %.1f/%.1f)", expected, detected, means.GR, means.BY),
		Color: Green,
	}
}

// Annotate returns an origin-based copy of frame with a translucent banner
// across the top holding lines. The frame itself is not modified.
func Annotate(frame image.Image, lines ...Line) *image.NRGBA {
	b := frame.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), frame, b.Min, draw.Src)

	if len(lines) == 0 {
		return dst
	}

	lineHeight := basicfont.Face7x13.Metrics().Height.Ceil() * Scale
	banner := image.NewNRGBA(image.Rect(0, 0, b.Dx(), 2*padding+len(lines)*lineHeight))
	draw.Draw(banner, banner.Bounds(), image.NewUniform(BannerColor), image.Point{}, draw.Src)
	alphaOver(dst, banner)

	for i, l := range lines {
		drawText(dst, l, image.Pt(padding, padding+i*lineHeight))
	}

	return dst
}

// drawText renders l at native size and scales it onto dst at the given
// top-left corner.
func drawText(dst *image.NRGBA, l Line, at image.Point) {
	face := basicfont.Face7x13
	m := face.Metrics()

	w := font.MeasureString(face, l.Text).Ceil()
	h := m.Height.Ceil()
	if w == 0 {
		return
	}

	glyphs := image.NewNRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(l.Color),
		Face: face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(l.Text)

	r := image.Rect(at.X, at.Y, at.X+w*Scale, at.Y+h*Scale)
	draw.NearestNeighbor.Scale(dst, r, glyphs, glyphs.Bounds(), draw.Over, nil)
}

// alphaOver composites src onto dst where their bounds overlap.
func alphaOver(dst *image.NRGBA, src image.Image) {
	bounds := dst.Bounds().Intersect(src.Bounds())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			s := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			if s.A == 0 {
				continue
			}

			d := dst.NRGBAAt(x, y)

			sa := float64(s.A) / 255.0
			da := float64(d.A) / 255.0

			outA := sa + da*(1.0-sa)
			if outA == 0 {
				dst.SetNRGBA(x, y, color.NRGBA{})
				continue
			}

			blend := func(srcVal, dstVal uint8) uint8 {
				outPremult := float64(srcVal)*sa + float64(dstVal)*da*(1.0-sa)
				return uint8(math.Round(outPremult / outA))
			}

			dst.SetNRGBA(x, y, color.NRGBA{
				R: blend(s.R, d.R),
				G: blend(s.G, d.G),
				B: blend(s.B, d.B),
				A: uint8(math.Round(outA * 255.0)),
			})
		}
	}
}
