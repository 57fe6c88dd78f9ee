package acquire

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/MeKo-Tech/undertone/internal/imageio"
	"github.com/MeKo-Tech/undertone/internal/pipeline"
)

// StillImage is a one-shot Device backed by an image file.
type StillImage struct {
	Path string
	// Load decodes Path; imageio.Load when nil.
	Load func(path string) (image.Image, error)
}

// Name returns the image path.
func (d StillImage) Name() string { return d.Path }

// Open decodes the image. The returned Camera yields it once, then io.EOF.
func (d StillImage) Open(ctx context.Context) (Camera, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	load := d.Load
	if load == nil {
		load = imageio.Load
	}
	img, err := load(d.Path)
	if err != nil {
		return nil, err
	}
	return &stillCamera{frame: img}, nil
}

type stillCamera struct {
	frame image.Image
	read  bool
}

func (c *stillCamera) Read(context.Context) (image.Image, error) {
	if c.read || c.frame == nil {
		return nil, io.EOF
	}
	c.read = true
	return c.frame, nil
}

func (c *stillCamera) Close() error {
	c.frame = nil
	return nil
}

// Once opens dev without retrying, reads exactly one frame, releases the
// device and analyzes the frame. Open and read failures are returned as
// *AcquisitionError; analysis faults are carried in the Outcome.
func Once(ctx context.Context, dev Device, analyzer Analyzer) (image.Image, pipeline.Outcome, error) {
	cam, err := dev.Open(ctx)
	if err == nil && cam == nil {
		err = errors.New("device returned no camera")
	}
	if err != nil {
		if cam != nil {
			cam.Close() // nolint:errcheck
		}
		return nil, pipeline.Outcome{}, &AcquisitionError{Source: dev.Name(), Attempts: 1, Err: err}
	}

	frame, err := cam.Read(ctx)
	cam.Close() // nolint:errcheck
	if err != nil {
		return nil, pipeline.Outcome{}, &AcquisitionError{
			Source:   dev.Name(),
			Attempts: 1,
			Err:      fmt.Errorf("failed to read frame: %w", err),
		}
	}

	return frame, analyzer.Analyze(frame), nil
}
