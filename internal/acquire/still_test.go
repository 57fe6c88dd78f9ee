package acquire

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/undertone/internal/imageio"
	"github.com/MeKo-Tech/undertone/internal/pipeline"
	"github.com/MeKo-Tech/undertone/internal/undertone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnceClassifiesStillImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tan.png")
	require.NoError(t, imageio.Save(path, frameOf(tan)))

	frame, outcome, err := Once(context.Background(), StillImage{Path: path}, pipeline.NewAnalyzer(nil))
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.True(t, outcome.OK())
	assert.Equal(t, undertone.Cool, outcome.Label)
	assert.Equal(t, 144, outcome.Summary.MaskedCount)
}

func TestOnceMissingFile(t *testing.T) {
	dev := StillImage{Path: filepath.Join(t.TempDir(), "missing.jpg")}

	_, _, err := Once(context.Background(), dev, pipeline.NewAnalyzer(nil))
	require.Error(t, err)

	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	assert.Equal(t, 1, acqErr.Attempts)
	assert.Equal(t, dev.Path, acqErr.Source)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOnceReadsOneFrameAndReleases(t *testing.T) {
	cam := &fakeCamera{frames: []image.Image{frameOf(blue), frameOf(tan)}}
	dev := &fakeDevice{cam: cam}

	_, outcome, err := Once(context.Background(), dev, pipeline.NewAnalyzer(nil))
	require.NoError(t, err)

	assert.Equal(t, undertone.NoSkin, outcome.Label)
	assert.Equal(t, 1, dev.opens)
	assert.Equal(t, 1, cam.reads)
	assert.Equal(t, 1, cam.closed)
}

func TestOnceDoesNotRetry(t *testing.T) {
	dev := &fakeDevice{failures: -1, partial: true}

	_, _, err := Once(context.Background(), dev, pipeline.NewAnalyzer(nil))
	require.Error(t, err)
	assert.Equal(t, 1, dev.opens)
	require.Len(t, dev.partials, 1)
	assert.Equal(t, 1, dev.partials[0].closed)
}

func TestOnceEmptyStream(t *testing.T) {
	cam := &fakeCamera{}

	_, _, err := Once(context.Background(), &fakeDevice{cam: cam}, pipeline.NewAnalyzer(nil))
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to read frame")
	assert.Equal(t, 1, cam.closed)
}

func TestStillImageCustomLoader(t *testing.T) {
	var loaded string
	dev := StillImage{
		Path: "in-memory",
		Load: func(path string) (image.Image, error) {
			loaded = path
			return frameOf(tan), nil
		},
	}

	cam, err := dev.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "in-memory", loaded)

	_, err = cam.Read(context.Background())
	require.NoError(t, err)
	_, err = cam.Read(context.Background())
	assert.Error(t, err)
	require.NoError(t, cam.Close())
}

func TestStillImageHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := StillImage{Path: "unused", Load: func(string) (image.Image, error) {
		t.Fatal("loader must not run")
		return nil, nil
	}}.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
