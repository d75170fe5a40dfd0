package main

import (
	"fmt"
	"io"
	"time"

	"github.com/prakoso/tvcast/internal/display"
)

// renderer is the terminal-side rendering boundary: it consumes the
// presentation View and nothing else.
type renderer struct {
	out io.Writer
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

func (r *renderer) Render(v display.View) {
	switch v.Phase {
	case display.PhaseLoading:
		fmt.Fprintln(r.out, "Loading TV display...")
		return
	case display.PhaseNotFound:
		fmt.Fprintln(r.out, "TV not found: this display does not exist or has been deleted")
		return
	case display.PhaseRemoved:
		fmt.Fprintln(r.out, "This TV was removed")
		return
	}

	if v.Count == 0 {
		fmt.Fprintf(r.out, "[%s] no images uploaded\n", v.TVName)
	} else {
		fmt.Fprintf(r.out, "[%s] %s %s zoom=%.2f fit=%s\n", v.TVName, v.Counter(), v.CurrentURL, v.ZoomLevel, v.Fit)
	}
	if v.LastUpdated != nil {
		fmt.Fprintf(r.out, "  updated %s ago\n", time.Since(*v.LastUpdated).Round(time.Second))
	}
	if v.Notice != "" {
		fmt.Fprintf(r.out, "  * %s\n", v.Notice)
	}
	if v.Error != "" {
		fmt.Fprintf(r.out, "  ! %s\n", v.Error)
	}
	if v.ShowPlayOverlay {
		fmt.Fprintln(r.out, "  > tap to play audio")
	}
}
