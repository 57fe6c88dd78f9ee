//go:build cv

package cmd

import (
	"github.com/MeKo-Tech/undertone/internal/acquire"
	"github.com/MeKo-Tech/undertone/internal/device/cv"
)

const cameraSupported = true

func openCamera(id int) acquire.Device {
	return cv.Webcam{ID: id}
}

func newWindow(title string) (windowUI, error) {
	return cv.NewWindow(title), nil
}
