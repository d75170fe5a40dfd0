// Package display drives one TV's presentation: slideshow position, zoom
// transforms, cursor/fullscreen ergonomics and the audio-only embed, fed
// by local timers, key input and relayed commands. One Display per TV;
// two displays never share state.
package display

import (
	"context"
	"errors"
	"fmt"
	"math"

	gosync "sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/domain"
	"github.com/prakoso/tvcast/internal/sync"
)

const (
	zoomStep = 0.25
	zoomMin  = 0.5
	zoomMax  = 3.0

	cursorHideDelay = 3 * time.Second
	noticeTTL       = 2 * time.Second
	autoplayGrace   = 3 * time.Second
)

// Options configure one Display instance.
type Options struct {
	TVID domain.TVID

	// Screen box the renderer draws into; fit-to-screen scales against it.
	ScreenWidth  int
	ScreenHeight int

	// DefaultInterval applies when the TV has no configured interval.
	DefaultInterval time.Duration

	Clock    Clock
	Measurer Measurer

	// OnChange receives the new View after every state-causing change.
	OnChange func(View)
}

// Display is the presentation state machine. Single logical consumer:
// every entry point (event, key, timer callback) serializes on mu, and
// each timer callback re-checks its generation so a handle that fired
// after teardown or replacement is a no-op.
type Display struct {
	rest *sync.Client
	opts Options

	clock    Clock
	measurer Measurer

	mu     gosync.Mutex
	closed bool

	phase  Phase
	tv     *domain.TV
	images []string
	index  int

	zoom float64
	fit  FitMode

	slideshowRunning bool
	controlsVisible  bool
	cursorVisible    bool
	fullscreen       bool

	playerURL   string
	playOverlay bool
	interacted  bool

	notice    string
	errBanner string

	slideTimer  Timer
	cursorTimer Timer
	noticeTimer Timer
	graceTimer  Timer

	slideGen  uint64
	cursorGen uint64
	noticeGen uint64
	graceGen  uint64
}

func New(rest *sync.Client, opts Options) *Display {
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	if opts.Measurer == nil {
		opts.Measurer = NewHTTPMeasurer()
	}
	if opts.DefaultInterval <= 0 {
		opts.DefaultInterval = domain.DefaultSlideshowInterval
	}
	return &Display{
		rest:             rest,
		opts:             opts,
		clock:            opts.Clock,
		measurer:         opts.Measurer,
		phase:            PhaseLoading,
		zoom:             1.0,
		fit:              FitContain,
		slideshowRunning: true,
		controlsVisible:  true,
		cursorVisible:    true,
	}
}

// Start loads the initial snapshot and arms the cursor-hide timer.
func (d *Display) Start(ctx context.Context) {
	d.mu.Lock()
	d.armCursorLocked()
	d.mu.Unlock()
	d.Load(ctx)
}

// Load fetches the one-TV snapshot: on mount, on manual refresh, or on
// command. NotFound is terminal; other failures keep the last-good state
// behind an inline error banner.
func (d *Display) Load(ctx context.Context) {
	d.mu.Lock()
	if d.closed || d.phase == PhaseRemoved || d.phase == PhaseNotFound {
		d.mu.Unlock()
		return
	}
	id := d.opts.TVID
	d.mu.Unlock()

	tv, err := d.rest.FetchTV(ctx, id)

	d.mu.Lock()
	switch {
	case d.closed:
	case err == nil:
		d.errBanner = ""
		d.phase = PhaseActive
		d.setTVLocked(*tv)
	case errors.Is(err, domain.ErrNotFound):
		d.phase = PhaseNotFound
		d.cancelAllLocked()
		log.Info().Str("module", "display").Int("tv_id", int(id)).Msg("tv not found")
	default:
		d.errBanner = "Failed to load TV data"
		log.Error().Err(err).Str("module", "display").Int("tv_id", int(id)).Msg("load failed")
	}
	d.mu.Unlock()
	d.emit()
}

// Apply reconciles one relay event. Events for other TV ids are ignored.
func (d *Display) Apply(ctx context.Context, ev core.Event) {
	switch e := ev.(type) {
	case core.ImageUpdated:
		d.applySnapshot(e.TVID, e.TV)
	case core.YoutubeLinkUpdated:
		d.applySnapshot(e.TVID, e.TV)
	case core.TVDeleted:
		d.mu.Lock()
		if !d.closed && e.TVID == d.opts.TVID {
			d.phase = PhaseRemoved
			d.cancelAllLocked()
			log.Info().Str("module", "display").Int("tv_id", int(e.TVID)).Msg("tv removed while viewing")
		}
		d.mu.Unlock()
		d.emit()
	case core.ZoomCommandEvent:
		// Relayed commands apply exactly as local ones; any message for
		// this room is trusted.
		d.ExecuteZoom(ctx, e.Command)
	case core.RoomJoined:
		log.Info().Str("module", "display").Int("tv_id", int(e.TVID)).Str("room", e.RoomName).Msg("joined tv room")
	default:
		// Collection-scoped traffic; nothing for a single display.
	}
}

func (d *Display) applySnapshot(id domain.TVID, tv domain.TV) {
	d.mu.Lock()
	if !d.closed && id == d.opts.TVID && d.phase != PhaseRemoved && d.phase != PhaseNotFound {
		d.phase = PhaseActive
		d.setTVLocked(tv)
	}
	d.mu.Unlock()
	d.emit()
}

// setTVLocked replaces the whole local record. The index resets to 0 only
// when the image count changed, so a no-op refresh causes no visible jump;
// it never exceeds the new bound.
func (d *Display) setTVLocked(tv domain.TV) {
	oldCount := len(d.images)
	d.tv = &tv
	d.images = tv.EffectiveImages()

	if len(d.images) != oldCount || d.index >= len(d.images) {
		d.index = 0
	}

	d.rearmSlideshowLocked()
	d.syncPlayerLocked()
}

// syncPlayerLocked reconciles the invisible embed with the current link.
func (d *Display) syncPlayerLocked() {
	link := ""
	if d.tv != nil {
		link = d.tv.YoutubeLink
	}
	videoID := domain.ExtractYoutubeVideoID(link)
	if videoID == "" {
		d.playerURL = ""
		d.playOverlay = false
		d.cancelGraceLocked()
		return
	}

	url := domain.EmbedURL(videoID)
	if url == d.playerURL {
		return
	}
	d.playerURL = url
	d.playOverlay = false

	// Autoplay may be blocked until the first interaction; give the player
	// a grace period before offering tap-to-play.
	if !d.interacted {
		d.armGraceLocked()
	}
}

// MarkInteracted records the tap on the play overlay: reload the player
// with autoplay and permanently suppress the overlay for this session.
func (d *Display) MarkInteracted() {
	d.mu.Lock()
	if !d.closed {
		d.interacted = true
		d.playOverlay = false
		d.cancelGraceLocked()
	}
	d.mu.Unlock()
	d.emit()
}

// ExecuteZoom applies one zoom command, local or relayed.
func (d *Display) ExecuteZoom(ctx context.Context, cmd domain.ZoomCommand) {
	switch cmd {
	case domain.ZoomIn:
		d.stepZoom(zoomStep)
	case domain.ZoomOut:
		d.stepZoom(-zoomStep)
	case domain.ResetZoom:
		d.mu.Lock()
		if !d.closed {
			d.zoom = 1.0
			d.fit = FitContain
			d.showNoticeLocked("Zoom: 100%")
		}
		d.mu.Unlock()
		d.emit()
	case domain.FitToScreen:
		d.fitToScreen(ctx)
	case domain.StretchToScreen:
		d.mu.Lock()
		if !d.closed {
			d.zoom = 1.0
			d.fit = FitFill
			d.showNoticeLocked("Stretch to Screen")
		}
		d.mu.Unlock()
		d.emit()
	default:
		log.Warn().Str("module", "display").Str("command", string(cmd)).Msg("unknown zoom command")
		return
	}
}

func (d *Display) stepZoom(delta float64) {
	d.mu.Lock()
	if !d.closed {
		d.zoom = math.Min(zoomMax, math.Max(zoomMin, d.zoom+delta))
		d.showNoticeLocked(zoomNotice(d.zoom))
	}
	d.mu.Unlock()
	d.emit()
}

// fitToScreen scales from the image's natural decoded size, not the
// displayed box, so the measurement goes through the Measurer boundary.
func (d *Display) fitToScreen(ctx context.Context) {
	d.mu.Lock()
	url := d.currentURLLocked()
	if d.closed || url == "" {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	dims, err := d.measurer.Measure(ctx, url)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if err != nil || dims.Width <= 0 || dims.Height <= 0 {
		d.errBanner = "Failed to measure image"
		log.Error().Err(err).Str("module", "display").Msg("fit to screen measurement failed")
	} else {
		scaleX := float64(d.opts.ScreenWidth) / float64(dims.Width)
		scaleY := float64(d.opts.ScreenHeight) / float64(dims.Height)
		d.zoom = math.Min(scaleX, scaleY)
		d.fit = FitContain
		d.showNoticeLocked("Fit to Screen")
	}
	d.mu.Unlock()
	d.emit()
}

// Next advances to the next image; manual navigation leaves the pending
// slideshow timer alone.
func (d *Display) Next() {
	d.navigate(1)
}

// Previous steps back one image.
func (d *Display) Previous() {
	d.navigate(-1)
}

func (d *Display) navigate(step int) {
	d.mu.Lock()
	if !d.closed && len(d.images) > 0 {
		n := len(d.images)
		d.index = ((d.index+step)%n + n) % n
	}
	d.mu.Unlock()
	d.emit()
}

// Pause stops the slideshow, cancelling the pending tick without advancing.
func (d *Display) Pause() {
	d.mu.Lock()
	if !d.closed {
		d.slideshowRunning = false
		d.cancelSlideshowLocked()
	}
	d.mu.Unlock()
	d.emit()
}

// Resume restarts the slideshow with a full interval; no drift catch-up.
func (d *Display) Resume() {
	d.mu.Lock()
	if !d.closed {
		d.slideshowRunning = true
		d.rearmSlideshowLocked()
	}
	d.mu.Unlock()
	d.emit()
}

// Activity reports pointer or touch input: show the cursor and restart
// the 3s hide timer.
func (d *Display) Activity() {
	d.mu.Lock()
	if !d.closed {
		d.cursorVisible = true
		d.armCursorLocked()
	}
	d.mu.Unlock()
	d.emit()
}

// ImageLoadFailed surfaces a render-side load failure for the current
// image. The slideshow timer keeps running; the next tick may move past
// the bad entry.
func (d *Display) ImageLoadFailed() {
	d.mu.Lock()
	if !d.closed {
		d.errBanner = "Failed to load image"
	}
	d.mu.Unlock()
	d.emit()
}

// HandleKey maps keyboard input onto transitions.
func (d *Display) HandleKey(ctx context.Context, key string) {
	switch key {
	case "r", "R", "F5":
		d.Load(ctx)
	case "f", "F":
		d.toggleFullscreen()
	case "Escape":
		d.exitFullscreen()
	case "+", "=":
		d.ExecuteZoom(ctx, domain.ZoomIn)
	case "-", "_":
		d.ExecuteZoom(ctx, domain.ZoomOut)
	case "0":
		d.ExecuteZoom(ctx, domain.ResetZoom)
	case "c", "C":
		d.toggleControls()
	case "ArrowRight":
		d.Next()
	case "ArrowLeft":
		d.Previous()
	}
}

func (d *Display) toggleFullscreen() {
	d.mu.Lock()
	if !d.closed {
		d.fullscreen = !d.fullscreen
	}
	d.mu.Unlock()
	d.emit()
}

func (d *Display) exitFullscreen() {
	d.mu.Lock()
	if !d.closed && d.fullscreen {
		d.fullscreen = false
	}
	d.mu.Unlock()
	d.emit()
}

func (d *Display) toggleControls() {
	d.mu.Lock()
	if !d.closed {
		d.controlsVisible = !d.controlsVisible
	}
	d.mu.Unlock()
	d.emit()
}

// View snapshots the current presentation state for a renderer.
func (d *Display) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

// Close cancels every outstanding timer. A timer that already fired but
// has not run yet finds closed set and does nothing. Safe to call twice.
func (d *Display) Close() {
	d.mu.Lock()
	d.closed = true
	d.cancelAllLocked()
	d.mu.Unlock()
}

// --- internals; callers hold d.mu ---

func (d *Display) viewLocked() View {
	v := View{
		Phase:            d.phase,
		Index:            d.index,
		Count:            len(d.images),
		CurrentURL:       d.currentURLLocked(),
		ZoomLevel:        d.zoom,
		Fit:              d.fit,
		SlideshowRunning: d.slideshowRunning,
		ControlsVisible:  d.controlsVisible,
		CursorVisible:    d.cursorVisible,
		Fullscreen:       d.fullscreen,
		PlayerURL:        d.playerURL,
		ShowPlayOverlay:  d.playOverlay,
		Notice:           d.notice,
		Error:            d.errBanner,
	}
	if d.tv != nil {
		v.TVName = d.tv.Name
		v.LastUpdated = d.tv.UpdatedAt
		v.Images = append([]string(nil), d.images...)
	}
	return v
}

func (d *Display) emit() {
	if d.opts.OnChange == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	v := d.viewLocked()
	d.mu.Unlock()
	d.opts.OnChange(v)
}

func (d *Display) currentURLLocked() string {
	if d.tv == nil || len(d.images) == 0 || d.index >= len(d.images) {
		return ""
	}
	return domain.ImageURL(d.rest.BaseURL(), d.images[d.index], d.tv.UpdatedAt)
}

func (d *Display) intervalLocked() time.Duration {
	if d.tv == nil {
		return d.opts.DefaultInterval
	}
	return d.tv.EffectiveInterval(d.opts.DefaultInterval)
}

// rearmSlideshowLocked replaces the recurring timer with a fresh full
// interval. Each advance re-arms again, so pauses never cause catch-up.
func (d *Display) rearmSlideshowLocked() {
	d.cancelSlideshowLocked()
	if !d.slideshowRunning || len(d.images) < 2 {
		return
	}
	d.slideGen++
	gen := d.slideGen
	d.slideTimer = d.clock.AfterFunc(d.intervalLocked(), func() {
		d.advance(gen)
	})
}

func (d *Display) advance(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.slideGen || !d.slideshowRunning || len(d.images) < 2 {
		d.mu.Unlock()
		return
	}
	d.index = (d.index + 1) % len(d.images)
	d.rearmSlideshowLocked()
	d.mu.Unlock()
	d.emit()
}

func (d *Display) cancelSlideshowLocked() {
	d.slideGen++
	if d.slideTimer != nil {
		d.slideTimer.Stop()
		d.slideTimer = nil
	}
}

func (d *Display) armCursorLocked() {
	d.cursorGen++
	gen := d.cursorGen
	if d.cursorTimer != nil {
		d.cursorTimer.Stop()
	}
	d.cursorTimer = d.clock.AfterFunc(cursorHideDelay, func() {
		d.mu.Lock()
		if d.closed || gen != d.cursorGen {
			d.mu.Unlock()
			return
		}
		d.cursorVisible = false
		d.mu.Unlock()
		d.emit()
	})
}

func (d *Display) showNoticeLocked(text string) {
	d.notice = text
	d.noticeGen++
	gen := d.noticeGen
	if d.noticeTimer != nil {
		// A new notice replaces the old immediately; no queueing.
		d.noticeTimer.Stop()
	}
	d.noticeTimer = d.clock.AfterFunc(noticeTTL, func() {
		d.mu.Lock()
		if d.closed || gen != d.noticeGen {
			d.mu.Unlock()
			return
		}
		d.notice = ""
		d.mu.Unlock()
		d.emit()
	})
}

func (d *Display) armGraceLocked() {
	d.cancelGraceLocked()
	d.graceGen++
	gen := d.graceGen
	d.graceTimer = d.clock.AfterFunc(autoplayGrace, func() {
		d.mu.Lock()
		if d.closed || gen != d.graceGen || d.interacted || d.playerURL == "" {
			d.mu.Unlock()
			return
		}
		d.playOverlay = true
		d.mu.Unlock()
		d.emit()
	})
}

func (d *Display) cancelGraceLocked() {
	d.graceGen++
	if d.graceTimer != nil {
		d.graceTimer.Stop()
		d.graceTimer = nil
	}
}

func (d *Display) cancelAllLocked() {
	d.cancelSlideshowLocked()
	d.cancelGraceLocked()
	d.cursorGen++
	if d.cursorTimer != nil {
		d.cursorTimer.Stop()
		d.cursorTimer = nil
	}
	d.noticeGen++
	if d.noticeTimer != nil {
		d.noticeTimer.Stop()
		d.noticeTimer = nil
	}
}

func zoomNotice(zoom float64) string {
	return fmt.Sprintf("Zoom: %d%%", int(math.Round(zoom*100)))
}
