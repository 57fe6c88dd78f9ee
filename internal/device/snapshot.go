package device

import (
	"image"

	"github.com/MeKo-Tech/undertone/internal/acquire"
	"github.com/MeKo-Tech/undertone/internal/imageio"
)

var _ acquire.Snapshotter = SnapshotFile{}

// SnapshotFile saves raw frames to a fixed path, overwriting the previous
// snapshot. The encoder follows the file extension.
type SnapshotFile struct {
	Path string
}

// Save writes frame and returns the path written.
func (s SnapshotFile) Save(frame image.Image) (string, error) {
	path := s.Path
	if path == "" {
		path = imageio.DefaultSnapshotPath
	}
	if err := imageio.Save(path, frame); err != nil {
		return "", err
	}
	return path, nil
}
