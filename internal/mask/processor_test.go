package mask

import (
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/undertone/internal/colorspace"
)

func filledFrame(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func fillGray(m *image.Gray, rect image.Rectangle, v uint8) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			m.SetGray(x, y, color.Gray{Y: v})
		}
	}
}

func TestSkinRangeContains(t *testing.T) {
	tests := []struct {
		name    string
		h, s, v uint8
		want    bool
	}{
		{"lower corner", 0, 30, 60, true},
		{"upper corner", 25, 255, 255, true},
		{"typical skin", 12, 120, 200, true},
		{"hue too high", 26, 120, 200, false},
		{"undersaturated", 12, 29, 200, false},
		{"too dark", 12, 120, 59, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultSkinRange.Contains(tt.h, tt.s, tt.v); got != tt.want {
				t.Errorf("Contains(%d,%d,%d) = %v, want %v", tt.h, tt.s, tt.v, got, tt.want)
			}
		})
	}
}

func TestInRangeSelectsSkinPixels(t *testing.T) {
	img := filledFrame(6, 4, color.NRGBA{B: 200, A: 255})
	for y := 0; y < 4; y++ {
		for x := 3; x < 6; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 224, G: 172, B: 105, A: 255})
		}
	}

	m := InRange(colorspace.ToHSV(img), DefaultSkinRange)

	if got := m.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("blue pixel should be unselected, got %d", got)
	}
	if got := m.GrayAt(4, 2).Y; got != 255 {
		t.Errorf("skin pixel should be selected, got %d", got)
	}
	if got := Count(m); got != 12 {
		t.Errorf("expected 12 selected pixels, got %d", got)
	}
}

func TestCloseFillsSmallHole(t *testing.T) {
	m := image.NewGray(image.Rect(0, 0, 24, 24))
	fillGray(m, image.Rect(6, 6, 18, 18), 255)
	m.SetGray(12, 12, color.Gray{Y: 0})

	closed := Close(m, DefaultKernelSize)

	if closed.Bounds() != m.Bounds() {
		t.Fatalf("closed bounds %v != mask bounds %v", closed.Bounds(), m.Bounds())
	}
	if got := closed.GrayAt(12, 12).Y; got != 255 {
		t.Errorf("hole should be filled, got %d", got)
	}
	if got := closed.GrayAt(0, 12).Y; got != 0 {
		t.Errorf("background far from the block should stay empty, got %d", got)
	}
}

func TestOpenRemovesIsolatedSpeck(t *testing.T) {
	m := image.NewGray(image.Rect(0, 0, 24, 24))
	m.SetGray(3, 3, color.Gray{Y: 255})
	fillGray(m, image.Rect(8, 8, 20, 20), 255)

	opened := Open(m, DefaultKernelSize)

	if got := opened.GrayAt(3, 3).Y; got != 0 {
		t.Errorf("speck should be removed, got %d", got)
	}
	if got := opened.GrayAt(14, 14).Y; got != 255 {
		t.Errorf("block interior should survive, got %d", got)
	}
}

func TestSkinUniformFrame(t *testing.T) {
	img := filledFrame(20, 15, color.NRGBA{R: 224, G: 172, B: 105, A: 255})

	m := Skin(colorspace.ToHSV(img))

	if m.Bounds().Dx() != 20 || m.Bounds().Dy() != 15 {
		t.Fatalf("mask dimensions %dx%d, want 20x15", m.Bounds().Dx(), m.Bounds().Dy())
	}
	if got := Count(m); got != 20*15 {
		t.Errorf("uniform skin frame should be fully selected, got %d/%d", got, 20*15)
	}
}

func TestSkinNoMatchingPixels(t *testing.T) {
	img := filledFrame(12, 12, color.NRGBA{B: 200, A: 255})

	m := Skin(colorspace.ToHSV(img))

	if got := Count(m); got != 0 {
		t.Errorf("blue frame should produce an empty mask, got %d pixels", got)
	}
}

func TestSkinMaskDimensionsMatchFrame(t *testing.T) {
	sizes := []image.Point{{1, 1}, {2, 7}, {9, 3}, {33, 17}}
	for _, sz := range sizes {
		img := image.NewRGBA(image.Rect(5, 5, 5+sz.X, 5+sz.Y))
		for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
			for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
				img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: 60, A: 255})
			}
		}

		m := Skin(colorspace.ToHSV(img))
		if m.Bounds().Dx() != sz.X || m.Bounds().Dy() != sz.Y {
			t.Errorf("frame %v: mask dimensions %dx%d", sz, m.Bounds().Dx(), m.Bounds().Dy())
		}
	}
}

func TestEllipseMatchesFiveByFiveLayout(t *testing.T) {
	el := Ellipse(DefaultKernelSize)

	if len(el) != 17 {
		t.Fatalf("expected 17 cells, got %d", len(el))
	}
	perRow := map[int]int{}
	for _, p := range el {
		perRow[p.Y]++
		if p.Y == 2 || p.Y == -2 {
			if p.X != 0 {
				t.Errorf("row %d should hold only the centre cell, found dx=%d", p.Y, p.X)
			}
		}
	}
	want := map[int]int{-2: 1, -1: 5, 0: 5, 1: 5, 2: 1}
	for dy, n := range want {
		if perRow[dy] != n {
			t.Errorf("row %d: got %d cells, want %d", dy, perRow[dy], n)
		}
	}
}

func TestEllipseDegenerateSizes(t *testing.T) {
	if got := Ellipse(0); len(got) != 1 || got[0] != (image.Point{}) {
		t.Errorf("Ellipse(0) = %v, want the centre only", got)
	}
	if got := Ellipse(1); len(got) != 1 || got[0] != (image.Point{}) {
		t.Errorf("Ellipse(1) = %v, want the centre only", got)
	}
	if got := len(Ellipse(3)); got != 5 {
		t.Errorf("Ellipse(3) has %d cells, want 5", got)
	}
}

func TestOpenRemovesDiamondSpeck(t *testing.T) {
	m := image.NewGray(image.Rect(0, 0, 15, 15))
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if abs(dx)+abs(dy) <= 2 {
				m.SetGray(7+dx, 7+dy, color.Gray{Y: 255})
			}
		}
	}
	if got := Count(m); got != 13 {
		t.Fatalf("diamond should have 13 cells, got %d", got)
	}

	if got := Count(Open(m, DefaultKernelSize)); got != 0 {
		t.Errorf("diamond speck should be erased, %d pixels survived", got)
	}
}

func TestOpenRemovesFiveByThreeBlock(t *testing.T) {
	m := image.NewGray(image.Rect(0, 0, 15, 15))
	fillGray(m, image.Rect(5, 6, 10, 9), 255)

	if got := Count(Open(m, DefaultKernelSize)); got != 0 {
		t.Errorf("5x3 block should be erased, %d pixels survived", got)
	}
}

func TestOpenFiveByFiveBlockLeavesEllipse(t *testing.T) {
	m := image.NewGray(image.Rect(0, 0, 15, 15))
	fillGray(m, image.Rect(5, 5, 10, 10), 255)

	opened := Open(m, DefaultKernelSize)

	if got := Count(opened); got != 17 {
		t.Errorf("expected the 17-cell ellipse to survive, got %d pixels", got)
	}
	for _, corner := range []image.Point{{5, 5}, {9, 5}, {5, 9}, {9, 9}, {6, 5}} {
		if got := opened.GrayAt(corner.X, corner.Y).Y; got != 0 {
			t.Errorf("pixel %v outside the ellipse should be cleared, got %d", corner, got)
		}
	}
	if got := opened.GrayAt(7, 5).Y; got != 255 {
		t.Errorf("top centre should survive, got %d", got)
	}
}

func TestOpenKeepsRegionsTouchingBorder(t *testing.T) {
	m := image.NewGray(image.Rect(0, 0, 10, 10))
	fillGray(m, image.Rect(0, 0, 10, 4), 255)

	opened := Open(m, DefaultKernelSize)

	if got := opened.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("corner pixel should survive with out-of-bounds neighbours ignored, got %d", got)
	}
	if got := Count(opened); got != 40 {
		t.Errorf("expected the border band to survive intact, got %d pixels", got)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
