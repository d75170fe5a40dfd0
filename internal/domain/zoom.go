package domain

import "errors"

// ZoomCommand is a relayed or locally issued presentation command.
type ZoomCommand string

const (
	ZoomIn          ZoomCommand = "zoomIn"
	ZoomOut         ZoomCommand = "zoomOut"
	ResetZoom       ZoomCommand = "resetZoom"
	FitToScreen     ZoomCommand = "fitToScreen"
	StretchToScreen ZoomCommand = "stretchToScreen"
)

var ErrUnknownZoomCommand = errors.New("unknown zoom command")

// ParseZoomCommand validates a raw command string off the wire.
func ParseZoomCommand(s string) (ZoomCommand, error) {
	switch c := ZoomCommand(s); c {
	case ZoomIn, ZoomOut, ResetZoom, FitToScreen, StretchToScreen:
		return c, nil
	}
	return "", ErrUnknownZoomCommand
}
