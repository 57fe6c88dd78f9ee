//go:build cv

package cv

import (
	"image"

	"github.com/MeKo-Tech/undertone/internal/acquire"
	"github.com/MeKo-Tech/undertone/internal/overlay"
	"github.com/MeKo-Tech/undertone/internal/pipeline"
	"gocv.io/x/gocv"
)

var (
	_ acquire.Display = (*Window)(nil)
	_ acquire.Input   = (*Window)(nil)
)

// Window shows annotated frames and collects the key pressed while each
// frame was on screen. HighGUI only processes events inside WaitKey, so
// Show both paints and samples the keyboard; Poll hands the key out.
type Window struct {
	win *gocv.Window
	key int
}

// NewWindow opens a resizable window.
func NewWindow(title string) *Window {
	win := gocv.NewWindow(title)
	win.ResizeWindow(960, 720)
	return &Window{win: win, key: -1}
}

// Show draws the label and the key help over frame.
func (w *Window) Show(frame image.Image, o pipeline.Outcome) error {
	annotated := overlay.Annotate(frame, overlay.LabelLine(o.Label), overlay.InstructionLine())

	mat, err := gocv.ImageToMatRGB(annotated)
	if err != nil {
		return err
	}
	defer mat.Close()

	w.win.IMShow(mat)
	w.key = w.win.WaitKey(1)
	return nil
}

// Poll returns the command for the key seen during the last Show.
func (w *Window) Poll() acquire.Command {
	key := w.key
	w.key = -1
	if key < 0 {
		return acquire.CommandNone
	}
	return acquire.CommandForKey(rune(key & 0xff))
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
