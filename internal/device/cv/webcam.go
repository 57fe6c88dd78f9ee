//go:build cv

// Package cv binds live sessions to OpenCV through gocv: a webcam Device
// and a window that is both Display and Input.
package cv

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/undertone/internal/acquire"
	"github.com/MeKo-Tech/undertone/internal/device"
	"gocv.io/x/gocv"
)

// ErrFrameCapture is returned when the capture device stops producing
// frames.
var ErrFrameCapture = device.ErrFrameCapture

var _ acquire.Device = Webcam{}

// Webcam opens a local capture device by index.
type Webcam struct {
	ID int
}

// Name returns a human-readable device name.
func (w Webcam) Name() string { return fmt.Sprintf("camera %d", w.ID) }

// Open opens the device. On failure the half-initialized capture handle is
// returned alongside the error so the caller can release it.
func (w Webcam) Open(ctx context.Context) (acquire.Camera, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(w.ID)
	if vc == nil {
		return nil, err
	}
	cam := &camera{vc: vc, mat: gocv.NewMat()}
	if err != nil {
		return cam, err
	}
	if !vc.IsOpened() {
		return cam, fmt.Errorf("%s did not open", w.Name())
	}
	return cam, nil
}

type camera struct {
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

func (c *camera) Read(ctx context.Context) (image.Image, error) {
	err := device.Grab(ctx, device.MaxEmptyGrabs, func() (bool, bool) {
		ok := c.vc.Read(&c.mat)
		return ok, c.mat.Empty()
	})
	if err != nil {
		return nil, err
	}
	return c.mat.ToImage()
}

func (c *camera) Close() error {
	matErr := c.mat.Close()
	return errors.Join(c.vc.Close(), matErr)
}
