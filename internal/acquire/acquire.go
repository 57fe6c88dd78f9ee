// Package acquire feeds frames to the analysis pipeline from a live camera
// or a single still image.
//
// A live Session owns its camera handle for its whole lifetime. It retries
// opening the device a bounded number of times, then streams frames one at
// a time: read, analyze, display, poll for a command. Everything happens on
// the caller's goroutine.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/undertone/internal/pipeline"
)

// ErrCameraUnavailable is wrapped by AcquisitionError when a device could
// not be opened or yielded no frame.
var ErrCameraUnavailable = errors.New("camera unavailable")

// AcquisitionError reports a fatal failure to acquire frames.
type AcquisitionError struct {
	Source   string
	Attempts int
	Err      error
}

func (e *AcquisitionError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("failed to acquire %s after %d attempts: %v", e.Source, e.Attempts, e.Err)
	}
	return fmt.Sprintf("failed to acquire %s: %v", e.Source, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// State is the lifecycle state of a Session.
type State int

const (
	StateUninitialized State = iota
	StateRetrying
	StateStreaming
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRetrying:
		return "retrying"
	case StateStreaming:
		return "streaming"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateStopped
}

// Command is an operator request accepted between frames.
type Command int

const (
	CommandNone Command = iota
	CommandSave
	CommandQuit
)

// CommandForKey maps a keypress to a Command. Only 's' and 'q' are
// recognized.
func CommandForKey(r rune) Command {
	switch r {
	case 's':
		return CommandSave
	case 'q':
		return CommandQuit
	}
	return CommandNone
}

// Device opens a frame source. When Open fails it may still return a
// partially acquired Camera, which the caller closes.
type Device interface {
	Name() string
	Open(ctx context.Context) (Camera, error)
}

// Camera yields frames until Read returns an error. io.EOF marks a normal
// end of stream.
type Camera interface {
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// Analyzer runs the per-frame pipeline.
type Analyzer interface {
	Analyze(frame image.Image) pipeline.Outcome
}

// Display renders a raw frame and its outcome. It is owned by the caller,
// who closes it.
type Display interface {
	Show(frame image.Image, outcome pipeline.Outcome) error
}

// Input surfaces at most one pending command per call without blocking.
type Input interface {
	Poll() Command
}

// Snapshotter persists a raw frame and returns where it went.
type Snapshotter interface {
	Save(frame image.Image) (string, error)
}

// Reporter receives operator-facing diagnostics.
type Reporter interface {
	CameraGuidance()
	OpenAttemptFailed(attempt, max int, err error)
	CameraReady()
	AcquisitionFailed(err error)
	StreamEnded(err error)
	SnapshotSaved(path string)
	SnapshotFailed(err error)
}

// NopReporter discards all diagnostics.
type NopReporter struct{}

func (NopReporter) CameraGuidance() {}
func (NopReporter) OpenAttemptFailed(int, int, error) {}
func (NopReporter) CameraReady() {}
func (NopReporter) AcquisitionFailed(error) {}
func (NopReporter) StreamEnded(error) {}
func (NopReporter) SnapshotSaved(string) {}
func (NopReporter) SnapshotFailed(error) {}
