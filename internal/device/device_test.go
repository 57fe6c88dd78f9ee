package device

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/undertone/internal/acquire"
	"github.com/MeKo-Tech/undertone/internal/imageio"
	"github.com/MeKo-Tech/undertone/internal/pipeline"
	"github.com/MeKo-Tech/undertone/internal/undertone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func solid(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestReporterMessages(t *testing.T) {
	var out, logs bytes.Buffer
	r := NewReporter(&out, testLogger(&logs))

	r.CameraGuidance()
	r.OpenAttemptFailed(2, 3, errors.New("busy"))
	r.CameraReady()
	r.SnapshotSaved("snap.jpg")
	r.StreamEnded(errors.New("unplugged"))
	r.AcquisitionFailed(errors.New("gone"))

	text := out.String()
	for _, want := range []string{
		"Camera access required",
		"2. Select Camera",
		"Camera initialization attempt 2/3",
		"Camera successfully initialized!",
		"Snapshot saved!",
		"Frame capture error",
		"Failed to access camera after multiple attempts",
		"- Try a different camera if available",
	} {
		assert.Contains(t, text, want)
	}

	assert.Contains(t, logs.String(), "error=busy")
	assert.Contains(t, logs.String(), "path=snap.jpg")
}

func TestReporterNormalStreamEndIsQuiet(t *testing.T) {
	var out bytes.Buffer
	r := NewReporter(&out, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r.StreamEnded(nil)
	assert.Empty(t, out.String())
}

func TestLogDisplayPrintsLabelChanges(t *testing.T) {
	var out, logs bytes.Buffer
	d := NewLogDisplay(&out, testLogger(&logs))

	for _, l := range []undertone.Label{undertone.Warm, undertone.Warm, undertone.Cool, undertone.Cool, undertone.Warm} {
		require.NoError(t, d.Show(nil, pipeline.Outcome{Label: l}))
	}

	assert.Equal(t, "Undertone: WARM\nUndertone: COOL\nUndertone: WARM\n", out.String())
	assert.Equal(t, 5, strings.Count(logs.String(), "Frame analyzed"))
}

func pollUntil(t *testing.T, k *KeyInput) acquire.Command {
	t.Helper()
	var got acquire.Command
	require.Eventually(t, func() bool {
		got = k.Poll()
		return got != acquire.CommandNone
	}, time.Second, time.Millisecond)
	return got
}

func TestKeyInputCommands(t *testing.T) {
	k := NewKeyInput(strings.NewReader("xs\x03"))
	defer k.Close()

	assert.Equal(t, acquire.CommandSave, pollUntil(t, k))
	assert.Equal(t, acquire.CommandQuit, pollUntil(t, k))
	assert.Equal(t, acquire.CommandNone, k.Poll())
}

func TestKeyInputPollDoesNotBlock(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	k := NewKeyInput(pr)
	done := make(chan acquire.Command, 1)
	go func() { done <- k.Poll() }()

	select {
	case c := <-done:
		assert.Equal(t, acquire.CommandNone, c)
	case <-time.After(time.Second):
		t.Fatal("Poll blocked without input")
	}

	require.NoError(t, k.Close())
	require.NoError(t, k.Close())
}

func TestOpenTerminalRejectsFiles(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "input")
	require.NoError(t, err)
	defer f.Close()

	_, err = OpenTerminal(f)
	assert.ErrorIs(t, err, ErrNotTerminal)
}

func TestCRLF(t *testing.T) {
	var buf bytes.Buffer
	w := CRLF(&buf)

	n, err := io.WriteString(w, "a\nb\n")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "a\r\nb\r\n", buf.String())
}

func TestSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shots", "snap.png")
	frame := solid(color.NRGBA{R: 224, G: 172, B: 105, A: 255})

	got, err := SnapshotFile{Path: path}.Save(frame)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	img, err := imageio.Load(path)
	require.NoError(t, err)
	assert.Equal(t, frame.Bounds(), img.Bounds())
}

func TestSnapshotFileUnsupportedExtension(t *testing.T) {
	_, err := SnapshotFile{Path: filepath.Join(t.TempDir(), "snap.xyz")}.Save(solid(color.NRGBA{A: 255}))
	assert.ErrorIs(t, err, imageio.ErrUnsupportedFormat)
}

func writeFrames(t *testing.T, colors ...color.NRGBA) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(colors))
	for i, c := range colors {
		paths[i] = filepath.Join(dir, string(rune('a'+i))+".png")
		require.NoError(t, imageio.Save(paths[i], solid(c)))
	}
	return paths
}

func TestReplayPlaysFramesThenEnds(t *testing.T) {
	paths := writeFrames(t, color.NRGBA{R: 255, A: 255}, color.NRGBA{B: 200, A: 255})

	cam, err := Replay{Paths: paths}.Open(context.Background())
	require.NoError(t, err)
	defer cam.Close()

	for range paths {
		img, err := cam.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
	}
	_, err = cam.Read(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplayLoops(t *testing.T) {
	paths := writeFrames(t, color.NRGBA{R: 255, A: 255})

	cam, err := Replay{Paths: paths, Loop: true}.Open(context.Background())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := cam.Read(context.Background())
		require.NoError(t, err)
	}
}

func TestReplayRequiresImages(t *testing.T) {
	_, err := Replay{}.Open(context.Background())
	assert.Error(t, err)
}

func TestReplayDrivesSession(t *testing.T) {
	paths := writeFrames(t,
		color.NRGBA{R: 224, G: 172, B: 105, A: 255},
		color.NRGBA{R: 255, A: 255},
	)

	var out bytes.Buffer
	display := NewLogDisplay(&out, nil)
	s := acquire.NewSession(acquire.Config{
		Device:   Replay{Paths: paths},
		Analyzer: pipeline.NewAnalyzer(nil),
		Display:  display,
		Reporter: NewReporter(io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil))),
	})

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, acquire.StateStopped, s.State())
	assert.Equal(t, 2, s.Frames())
	assert.Equal(t, "Undertone: COOL\nUndertone: WARM\n", out.String())
}

func TestGrabReturnsFirstNonEmptyFrame(t *testing.T) {
	calls := 0
	err := Grab(context.Background(), MaxEmptyGrabs, func() (bool, bool) {
		calls++
		return true, calls < 3
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestGrabGivesUpOnEmptyFrames(t *testing.T) {
	calls := 0
	err := Grab(context.Background(), 5, func() (bool, bool) {
		calls++
		return true, true
	})

	require.ErrorIs(t, err, ErrFrameCapture)
	assert.Equal(t, 5, calls)
	assert.Contains(t, err.Error(), "5 consecutive empty frames")
}

func TestGrabDeviceStopped(t *testing.T) {
	calls := 0
	err := Grab(context.Background(), MaxEmptyGrabs, func() (bool, bool) {
		calls++
		return false, true
	})

	require.ErrorIs(t, err, ErrFrameCapture)
	assert.Equal(t, 1, calls)
}

func TestGrabStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Grab(ctx, MaxEmptyGrabs, func() (bool, bool) {
		calls++
		if calls == 2 {
			cancel()
		}
		return true, true
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}
