package acquire

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
)

// Config wires a live Session to its collaborators. Device and Analyzer are
// required; the rest are optional.
type Config struct {
	Device   Device
	Analyzer Analyzer
	Display  Display
	Input    Input
	Snapshot Snapshotter
	Reporter Reporter
	Retry    RetryPolicy
	Sleep    SleepFunc
	Logger   *slog.Logger
}

// Session drives one live acquisition from device open to release.
type Session struct {
	cfg      Config
	state    State
	camera   Camera
	attempts int
	frames   int
}

// NewSession returns a Session in StateUninitialized.
func NewSession(cfg Config) *Session {
	if cfg.Reporter == nil {
		cfg.Reporter = NopReporter{}
	}
	if cfg.Sleep == nil {
		cfg.Sleep = SleepContext
	}
	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy
	}
	return &Session{cfg: cfg}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Attempts returns how many times the device was opened.
func (s *Session) Attempts() int { return s.attempts }

// Frames returns how many frames were read while streaming.
func (s *Session) Frames() int { return s.frames }

// Run opens the device and streams until the operator quits, the stream
// ends, or ctx is cancelled. Cancellation and commands take effect between
// frames. An *AcquisitionError is returned when the device never opens.
func (s *Session) Run(ctx context.Context) error {
	if s.state != StateUninitialized {
		return fmt.Errorf("session already ran (state %s)", s.state)
	}
	if s.cfg.Device == nil || s.cfg.Analyzer == nil {
		return errors.New("session requires a device and an analyzer")
	}

	cam, err := s.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.transition(StateStopped)
			return ctx.Err()
		}
		s.transition(StateFailed)
		s.cfg.Reporter.AcquisitionFailed(err)
		return err
	}

	s.camera = cam
	s.transition(StateStreaming)
	s.cfg.Reporter.CameraReady()
	defer s.stop()

	s.stream(ctx)
	return nil
}

func (s *Session) open(ctx context.Context) (Camera, error) {
	maxAttempts := s.cfg.Retry.attempts()
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.cfg.Sleep(ctx, s.cfg.Retry.Delay); err != nil {
				return nil, err
			}
		}

		s.attempts = attempt
		cam, err := s.cfg.Device.Open(ctx)
		if err == nil && cam != nil {
			return cam, nil
		}
		if err == nil {
			err = errors.New("device returned no camera")
		}
		if cam != nil {
			// Partially acquired handle.
			s.closeCamera(cam)
		}
		lastErr = err

		if attempt == 1 {
			s.cfg.Reporter.CameraGuidance()
		}
		s.cfg.Reporter.OpenAttemptFailed(attempt, maxAttempts, err)
		s.log().Debug("Camera open failed", "device", s.cfg.Device.Name(), "attempt", attempt, "max", maxAttempts, "error", err)

		if attempt < maxAttempts {
			s.transition(StateRetrying)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &AcquisitionError{
		Source:   s.cfg.Device.Name(),
		Attempts: maxAttempts,
		Err:      fmt.Errorf("%w: %w", ErrCameraUnavailable, lastErr),
	}
}

func (s *Session) stream(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			s.log().Info("Acquisition cancelled", "frames", s.frames)
			return
		}

		frame, err := s.camera.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.log().Info("Acquisition cancelled", "frames", s.frames)
				return
			}
			if errors.Is(err, io.EOF) {
				s.cfg.Reporter.StreamEnded(nil)
			} else {
				s.cfg.Reporter.StreamEnded(err)
			}
			return
		}
		s.frames++

		outcome := s.cfg.Analyzer.Analyze(frame)
		if !outcome.OK() {
			s.log().Warn("Frame analysis failed", "frame", s.frames, "error", outcome.Fault)
		}

		if s.cfg.Display != nil {
			if err := s.cfg.Display.Show(frame, outcome); err != nil {
				s.log().Warn("Failed to display frame", "frame", s.frames, "error", err)
			}
		}

		switch s.poll() {
		case CommandQuit:
			s.log().Debug("Quit requested", "frames", s.frames)
			return
		case CommandSave:
			s.save(frame)
		}
	}
}

func (s *Session) poll() Command {
	if s.cfg.Input == nil {
		return CommandNone
	}
	return s.cfg.Input.Poll()
}

func (s *Session) save(frame image.Image) {
	if s.cfg.Snapshot == nil {
		s.log().Warn("Snapshot requested but no snapshot target is configured")
		return
	}
	path, err := s.cfg.Snapshot.Save(frame)
	if err != nil {
		s.cfg.Reporter.SnapshotFailed(err)
		return
	}
	s.cfg.Reporter.SnapshotSaved(path)
}

// stop releases the camera and enters StateStopped.
func (s *Session) stop() {
	if s.camera != nil {
		s.closeCamera(s.camera)
		s.camera = nil
	}
	s.transition(StateStopped)
}

func (s *Session) closeCamera(cam Camera) {
	if err := cam.Close(); err != nil {
		s.log().Warn("Failed to release camera", "device", s.cfg.Device.Name(), "error", err)
	}
}

func (s *Session) transition(to State) {
	if s.state == to {
		return
	}
	s.log().Debug("Acquisition state", "from", s.state.String(), "to", to.String())
	s.state = to
}

func (s *Session) log() *slog.Logger {
	if s.cfg.Logger != nil {
		return s.cfg.Logger
	}
	return slog.Default()
}
