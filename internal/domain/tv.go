// Package domain contains the entities and the pure helpers on them
package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	MaxTVNameLen = 100

	// DefaultSlideshowInterval applies when a TV carries no configured
	// interval of its own.
	DefaultSlideshowInterval = 5 * time.Second
)

var (
	ErrNameEmpty   = errors.New("tv name empty")
	ErrNameTooLong = errors.New("tv name too long")
)

type TVID int

// TV is one registered display endpoint. Image references are opaque
// paths served by the collaborator; their order is the slideshow order.
type TV struct {
	ID                TVID       `json:"id"`
	Name              string     `json:"name"`
	Image             string     `json:"image,omitempty"`
	Images            []string   `json:"images"`
	YoutubeLink       string     `json:"youtubeLink,omitempty"`
	SlideshowInterval int        `json:"slideshowInterval,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// NewTV is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewTV(id TVID, name string) (*TV, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxTVNameLen {
		return nil, ErrNameTooLong
	}
	return &TV{ID: id, Name: name, Images: []string{}, CreatedAt: time.Now()}, nil
}

// EffectiveImages resolves the presentation sequence: the ordered Images
// list when present, else the legacy single Image as a one-element
// sequence, else empty. An empty result is a valid "empty display".
func (t *TV) EffectiveImages() []string {
	if len(t.Images) > 0 {
		return t.Images
	}
	if t.Image != "" {
		return []string{t.Image}
	}
	return nil
}

// EffectiveInterval returns the configured slideshow interval, falling
// back to def when the TV has none.
func (t *TV) EffectiveInterval(def time.Duration) time.Duration {
	if t.SlideshowInterval > 0 {
		return time.Duration(t.SlideshowInterval) * time.Second
	}
	if def > 0 {
		return def
	}
	return DefaultSlideshowInterval
}

// Touch stamps UpdatedAt. Called by the store on any content mutation.
func (t *TV) Touch(now time.Time) {
	ts := now
	t.UpdatedAt = &ts
}

// DisplayPath is the dashboard-relative path a display for this TV lives at.
func (t *TV) DisplayPath() string {
	return fmt.Sprintf("/tv/%d", t.ID)
}

// ImageURL joins an image reference onto the collaborator base and appends
// the cache buster derived from updatedAt, so a re-upload under the same
// reference defeats intermediary caches.
func ImageURL(base, ref string, updatedAt *time.Time) string {
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
	if updatedAt == nil {
		return u
	}
	return u + "?v=" + url.QueryEscape(fmt.Sprintf("%d", updatedAt.UnixMilli()))
}
