// Package imageio reads still frames from disk and writes snapshots.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	_ "golang.org/x/image/webp" // Register WebP decoder
	_ "image/gif"               // Register GIF decoder
)

// DefaultSnapshotPath is where live snapshots are written.
const DefaultSnapshotPath = "undertone_snapshot.jpg"

// JPEGQuality is used for .jpg/.jpeg output.
const JPEGQuality = 95

// ErrUnsupportedFormat is returned by Save for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Load decodes the image at path. PNG, JPEG, GIF, BMP, TIFF and WebP are
// recognized by content.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return img, nil
}

// Save encodes img to path, choosing the format from the extension.
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	encode, ok := encoders[ext]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := encode(file, img); err != nil {
		file.Close() // nolint:errcheck
		return fmt.Errorf("failed to encode image %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close image file: %w", err)
	}
	return nil
}

type encodeFunc func(f *os.File, img image.Image) error

var encoders = map[string]encodeFunc{
	".jpg": func(f *os.File, img image.Image) error {
		return jpeg.Encode(f, img, &jpeg.Options{Quality: JPEGQuality})
	},
	".jpeg": func(f *os.File, img image.Image) error {
		return jpeg.Encode(f, img, &jpeg.Options{Quality: JPEGQuality})
	},
	".png": func(f *os.File, img image.Image) error {
		return png.Encode(f, img)
	},
	".bmp": func(f *os.File, img image.Image) error {
		return bmp.Encode(f, img)
	},
	".tif": func(f *os.File, img image.Image) error {
		return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	},
	".tiff": func(f *os.File, img image.Image) error {
		return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	},
}
