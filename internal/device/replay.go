package device

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/MeKo-Tech/undertone/internal/acquire"
	"github.com/MeKo-Tech/undertone/internal/imageio"
)

var _ acquire.Device = Replay{}

// Replay is a Device that plays a list of image files as a camera stream,
// pausing Interval between frames. With Loop set it starts over at the end
// instead of ending the stream.
type Replay struct {
	Paths    []string
	Interval time.Duration
	Loop     bool
}

// Name describes the replay source.
func (r Replay) Name() string {
	return fmt.Sprintf("replay of %d images", len(r.Paths))
}

// Open checks that there is something to play. Files are decoded lazily.
func (r Replay) Open(ctx context.Context) (acquire.Camera, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(r.Paths) == 0 {
		return nil, errors.New("no images to replay")
	}
	return &replayCamera{cfg: r}, nil
}

type replayCamera struct {
	cfg     Replay
	next    int
	started bool
}

func (c *replayCamera) Read(ctx context.Context) (image.Image, error) {
	if c.next >= len(c.cfg.Paths) {
		if !c.cfg.Loop {
			return nil, io.EOF
		}
		c.next = 0
	}
	if c.started {
		if err := acquire.SleepContext(ctx, c.cfg.Interval); err != nil {
			return nil, err
		}
	}
	c.started = true

	path := c.cfg.Paths[c.next]
	c.next++
	return imageio.Load(path)
}

func (c *replayCamera) Close() error { return nil }
