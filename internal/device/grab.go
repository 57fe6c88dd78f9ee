package device

import (
	"context"
	"errors"
	"fmt"
)

// ErrFrameCapture is returned when a capture device stops producing frames.
var ErrFrameCapture = errors.New("frame capture error")

// MaxEmptyGrabs is how many consecutive empty frames a capture device may
// deliver before it is treated as failed.
const MaxEmptyGrabs = 30

// Grab calls grab until it delivers a non-empty frame. grab reports whether
// the device delivered a frame at all and whether that frame was empty.
// Grab fails with ErrFrameCapture when the device stops delivering or after
// limit consecutive empty frames.
func Grab(ctx context.Context, limit int, grab func() (ok, empty bool)) error {
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n >= limit {
			return fmt.Errorf("%w: %d consecutive empty frames", ErrFrameCapture, limit)
		}

		ok, empty := grab()
		if !ok {
			return ErrFrameCapture
		}
		if !empty {
			return nil
		}
	}
}
