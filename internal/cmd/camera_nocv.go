//go:build !cv

package cmd

import (
	"errors"

	"github.com/MeKo-Tech/undertone/internal/acquire"
)

const cameraSupported = false

func openCamera(int) acquire.Device {
	return nil
}

func newWindow(string) (windowUI, error) {
	return nil, errors.New("this build has no window support (rebuild with -tags cv)")
}
