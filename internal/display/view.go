package display

import (
	"fmt"
	"time"
)

// Phase is the display's top-level presentation state.
type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhaseActive   Phase = "active"
	PhaseNotFound Phase = "notFound"
	PhaseRemoved  Phase = "removed"
)

// FitMode selects how the current image maps onto the screen box.
type FitMode string

const (
	// FitContain preserves aspect ratio inside the box.
	FitContain FitMode = "contain"
	// FitFill stretches to the box, aspect ratio not preserved.
	FitFill FitMode = "fill"
)

// View is the single "current presentation state" value object a renderer
// consumes. All document-global concerns of the source UI (notification
// banner, cursor style, fullscreen flag) live here explicitly.
type View struct {
	Phase Phase

	TVName      string
	Images      []string
	Index       int
	Count       int
	CurrentURL  string
	LastUpdated *time.Time

	ZoomLevel float64
	Fit       FitMode

	SlideshowRunning bool
	ControlsVisible  bool
	CursorVisible    bool
	Fullscreen       bool

	// Audio-only embed state.
	PlayerURL       string
	ShowPlayOverlay bool

	// Notice is the transient zoom/fit notification text; empty when none.
	Notice string

	// Error is the inline banner (load failure with last-good image kept).
	Error string
}

// Counter renders the "1/3" position indicator; empty when no images.
func (v View) Counter() string {
	if v.Count == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", v.Index+1, v.Count)
}
