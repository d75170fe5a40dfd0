// Package controller maintains the full TV collection for the dashboard
// view: REST snapshot baseline, live relay events on top, and optimistic
// merges for the operator's own mutations.
package controller

import (
	"context"
	"errors"
	"fmt"

	gosync "sync"

	"github.com/rs/zerolog/log"

	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/domain"
	"github.com/prakoso/tvcast/internal/sync"
)

// Controller reconciles local mutating actions with remote broadcasts,
// keyed by TV id. Every rule here is id-based; there is no version check,
// so the relay is trusted to deliver per-entity events in order.
type Controller struct {
	rest     *sync.Client
	notifier Notifier

	mu      gosync.Mutex
	order   []domain.TVID
	byID    map[domain.TVID]domain.TV
	pending map[domain.TVID]int
}

func New(rest *sync.Client, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Controller{
		rest:     rest,
		notifier: notifier,
		byID:     make(map[domain.TVID]domain.TV),
		pending:  make(map[domain.TVID]int),
	}
}

// Load fetches the authoritative collection snapshot and replaces local
// state with it.
func (c *Controller) Load(ctx context.Context) error {
	tvs, err := c.rest.FetchTVs(ctx)
	if err != nil {
		c.notifier.Notify(LevelError, "Failed to load TV list")
		return err
	}
	c.mu.Lock()
	c.replaceAll(tvs)
	c.mu.Unlock()
	return nil
}

// TVs returns the collection in stable order.
func (c *Controller) TVs() []domain.TV {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.TV, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Get looks one TV up by id.
func (c *Controller) Get(id domain.TVID) (domain.TV, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tv, ok := c.byID[id]
	return tv, ok
}

// Apply reconciles one relay event into local state. Duplicate or stale
// broadcasts are absorbed silently; only genuinely remote changes notify.
func (c *Controller) Apply(ev core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case core.TVListSnapshot:
		c.replaceAll(e.TVs)

	case core.TVAdded:
		if _, ok := c.byID[e.TV.ID]; ok {
			// Our own optimistic insert raced the broadcast.
			return
		}
		c.insert(e.TV)
		c.notifier.Notify(LevelInfo, fmt.Sprintf("TV %q was added by another user", e.TV.Name))

	case core.ImageUpdated:
		suppressed := c.consumePending(e.TVID)
		c.upsert(e.TV)
		if !suppressed {
			c.notifier.Notify(LevelInfo, fmt.Sprintf("Images for TV %q were updated by another user", e.TV.Name))
		}

	case core.YoutubeLinkUpdated:
		suppressed := c.consumePending(e.TVID)
		c.upsert(e.TV)
		if !suppressed {
			c.notifier.Notify(LevelInfo, fmt.Sprintf("YouTube link for TV %q was updated by another user", e.TV.Name))
		}

	case core.TVDeleted:
		if tv, ok := c.byID[e.TVID]; ok {
			c.remove(e.TVID)
			c.notifier.Notify(LevelInfo, fmt.Sprintf("TV %q was deleted by another user", tv.Name))
		}

	case core.RoomJoined, core.ZoomCommandEvent, core.ZoomCommandSent:
		// Display-scoped traffic; nothing for the collection view.

	default:
		log.Warn().Str("module", "controller").Str("type", ev.Type()).Msg("unhandled event")
	}
}

// CreateTV registers a new endpoint and merges the returned snapshot
// immediately, ahead of the broadcast echo.
func (c *Controller) CreateTV(ctx context.Context, name string) (*domain.TV, error) {
	tv, err := c.rest.CreateTV(ctx, name)
	if err != nil {
		c.fail(err, "Failed to add TV")
		return nil, err
	}
	c.mu.Lock()
	if _, ok := c.byID[tv.ID]; !ok {
		c.insert(*tv)
	}
	c.mu.Unlock()
	c.notifier.Notify(LevelInfo, fmt.Sprintf("TV %q added", tv.Name))
	return tv, nil
}

// UploadImages pushes a new image set. The pending mark suppresses the
// "updated by another user" toast when our own broadcast echo lands.
func (c *Controller) UploadImages(ctx context.Context, id domain.TVID, uploads []sync.Upload) (*domain.TV, error) {
	c.markPending(id)
	tv, err := c.rest.UploadImages(ctx, id, uploads)
	if err != nil {
		c.unmarkPending(id)
		c.fail(err, "Failed to upload images")
		return nil, err
	}
	c.mergeSnapshot(*tv)
	c.notifier.Notify(LevelInfo, fmt.Sprintf("%d image(s) uploaded to TV %q", len(uploads), tv.Name))
	return tv, nil
}

// SetYoutubeLink updates the audio source; an empty link clears it.
func (c *Controller) SetYoutubeLink(ctx context.Context, id domain.TVID, link string) (*domain.TV, error) {
	c.markPending(id)
	tv, err := c.rest.SetYoutubeLink(ctx, id, link)
	if err != nil {
		c.unmarkPending(id)
		c.fail(err, "Failed to update YouTube link")
		return nil, err
	}
	c.mergeSnapshot(*tv)
	c.notifier.Notify(LevelInfo, "YouTube link updated")
	return tv, nil
}

// ClearImages empties the TV's image set.
func (c *Controller) ClearImages(ctx context.Context, id domain.TVID) (*domain.TV, error) {
	c.markPending(id)
	tv, err := c.rest.ClearImages(ctx, id)
	if err != nil {
		c.unmarkPending(id)
		c.fail(err, "Failed to clear images")
		return nil, err
	}
	c.mergeSnapshot(*tv)
	c.notifier.Notify(LevelInfo, fmt.Sprintf("All images removed from TV %q", tv.Name))
	return tv, nil
}

// DeleteTV removes the endpoint and drops it locally right away; the
// broadcast echo then finds nothing to delete and stays silent.
func (c *Controller) DeleteTV(ctx context.Context, id domain.TVID) error {
	if err := c.rest.DeleteTV(ctx, id); err != nil {
		c.fail(err, "Failed to delete TV")
		return err
	}
	c.mu.Lock()
	name := c.byID[id].Name
	c.remove(id)
	c.mu.Unlock()
	c.notifier.Notify(LevelInfo, fmt.Sprintf("TV %q deleted", name))
	return nil
}

// SendZoomCommand relays a presentation command to the TV's displays.
func (c *Controller) SendZoomCommand(ctx context.Context, id domain.TVID, cmd domain.ZoomCommand) error {
	if err := c.rest.SendZoomCommand(ctx, id, cmd); err != nil {
		c.fail(err, "Failed to send zoom command")
		return err
	}
	return nil
}

// fail surfaces a mutating-action error: the collaborator's message when
// it sent one, else the generic per-action message.
func (c *Controller) fail(err error, generic string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		c.notifier.Notify(LevelError, ve.Message)
		return
	}
	c.notifier.Notify(LevelError, generic)
}

// Callers hold c.mu for the helpers below.

func (c *Controller) replaceAll(tvs []domain.TV) {
	c.order = c.order[:0]
	c.byID = make(map[domain.TVID]domain.TV, len(tvs))
	for _, tv := range tvs {
		c.insert(tv)
	}
}

func (c *Controller) insert(tv domain.TV) {
	if _, ok := c.byID[tv.ID]; !ok {
		c.order = append(c.order, tv.ID)
	}
	c.byID[tv.ID] = tv
}

func (c *Controller) upsert(tv domain.TV) {
	c.insert(tv)
}

func (c *Controller) remove(id domain.TVID) {
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Controller) mergeSnapshot(tv domain.TV) {
	c.mu.Lock()
	c.upsert(tv)
	c.mu.Unlock()
}

func (c *Controller) markPending(id domain.TVID) {
	c.mu.Lock()
	c.pending[id]++
	c.mu.Unlock()
}

func (c *Controller) unmarkPending(id domain.TVID) {
	c.mu.Lock()
	if c.pending[id] > 0 {
		c.pending[id]--
	}
	c.mu.Unlock()
}

// consumePending reports whether a broadcast echo for id matches one of
// our own in-flight mutations, consuming the mark. Caller holds c.mu.
func (c *Controller) consumePending(id domain.TVID) bool {
	if c.pending[id] > 0 {
		c.pending[id]--
		return true
	}
	return false
}
