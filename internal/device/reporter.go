// Package device provides the concrete collaborators of a live session:
// operator messages, headless display, keyboard input, snapshot files and
// a replay camera.
package device

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/undertone/internal/acquire"
)

var _ acquire.Reporter = (*Reporter)(nil)

// Reporter prints operator-facing messages to out and mirrors them as
// structured log records.
type Reporter struct {
	out    io.Writer
	logger *slog.Logger
}

// NewReporter creates a Reporter. A nil logger uses slog.Default().
func NewReporter(out io.Writer, logger *slog.Logger) *Reporter {
	return &Reporter{out: out, logger: logger}
}

func (r *Reporter) CameraGuidance() {
	fmt.Fprint(r.out, "\nCamera access required\n"+
		"Please grant camera permissions:\n"+
		"1. Open System Settings > Privacy & Security\n"+
		"2. Select Camera\n"+
		"3. Enable access for your terminal app\n"+
		"4. Try again after granting permissions\n\n")
}

func (r *Reporter) OpenAttemptFailed(attempt, max int, err error) {
	fmt.Fprintf(r.out, "Camera initialization attempt %d/%d\n", attempt, max)
	r.log().Warn("Camera open failed", "attempt", attempt, "max", max, "error", err)
}

func (r *Reporter) CameraReady() {
	fmt.Fprintln(r.out, "Camera successfully initialized!")
	r.log().Info("Camera ready")
}

func (r *Reporter) AcquisitionFailed(err error) {
	fmt.Fprint(r.out, "Failed to access camera after multiple attempts\n"+
		"Possible solutions:\n"+
		"- Check if another app is using the camera\n"+
		"- Restart your computer\n"+
		"- Try a different camera if available\n")
	r.log().Error("Camera acquisition failed", "error", err)
}

func (r *Reporter) StreamEnded(err error) {
	if err != nil {
		fmt.Fprintln(r.out, "Frame capture error")
		r.log().Error("Frame capture failed", "error", err)
		return
	}
	r.log().Info("Stream ended")
}

func (r *Reporter) SnapshotSaved(path string) {
	fmt.Fprintln(r.out, "Snapshot saved!")
	r.log().Info("Snapshot saved", "path", path)
}

func (r *Reporter) SnapshotFailed(err error) {
	fmt.Fprintln(r.out, "Snapshot failed")
	r.log().Error("Failed to save snapshot", "error", err)
}

func (r *Reporter) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
