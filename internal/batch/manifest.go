// Package batch classifies a configured list of still images and compares
// the results with expected labels.
package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/undertone/internal/undertone"
	"github.com/jszwec/csvutil"
)

// Entry is one image to classify. Expected is a label name or empty when
// the image is unlabeled.
type Entry struct {
	Path     string `csv:"path"`
	Expected string `csv:"expected,omitempty"`
}

// ExpectedLabel returns the parsed expected label. ok is false for
// unlabeled entries.
func (e Entry) ExpectedLabel() (label undertone.Label, ok bool, err error) {
	if strings.TrimSpace(e.Expected) == "" {
		return undertone.NoSkin, false, nil
	}
	label, err = undertone.ParseLabel(e.Expected)
	if err != nil {
		return undertone.NoSkin, false, err
	}
	return label, true, nil
}

// LoadManifest reads a CSV manifest with a "path,expected" header.
func LoadManifest(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var entries []Entry
	if err := csvutil.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Path) == "" {
			return nil, fmt.Errorf("manifest row %d: empty path", i+1)
		}
		if _, _, err := e.ExpectedLabel(); err != nil {
			return nil, fmt.Errorf("manifest row %d: %w", i+1, err)
		}
	}

	return entries, nil
}

// LoadManifestFile reads a manifest from disk. Relative image paths are
// resolved against the manifest's directory.
func LoadManifestFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	entries, err := LoadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range entries {
		if !filepath.IsAbs(entries[i].Path) {
			entries[i].Path = filepath.Join(dir, entries[i].Path)
		}
	}
	return entries, nil
}

// EntriesFromPaths builds entries for bare image paths. A file stem that
// names a label ("warm.jpg", "cool.png") becomes the expected label.
func EntriesFromPaths(paths []string) []Entry {
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		e := Entry{Path: p}
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if label, err := undertone.ParseLabel(stem); err == nil && label != undertone.Error {
			e.Expected = label.String()
		}
		entries = append(entries, e)
	}
	return entries
}
