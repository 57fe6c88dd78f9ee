package cmd

import "github.com/MeKo-Tech/undertone/internal/acquire"

// windowUI is an on-screen window that also delivers keypresses.
type windowUI interface {
	acquire.Display
	acquire.Input
	Close() error
}
