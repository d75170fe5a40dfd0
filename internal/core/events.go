// Package core holds the event model and transport-facing contracts shared
// by the sync client, the controller and the relay hub. No transport
// resources live here.
package core

import "github.com/prakoso/tvcast/internal/domain"

// Wire type strings. These are the relay contract and must not change
// independently of connected displays.
const (
	TypeTVAdded            = "tvAdded"
	TypeImageUpdated       = "imageUpdated"
	TypeYoutubeLinkUpdated = "youtubeLinkUpdated"
	TypeTVDeleted          = "tvDeleted"
	TypeTVListUpdate       = "tvListUpdate"
	TypeZoomCommand        = "zoomCommand"
	TypeZoomCommandSent    = "zoomCommandSent"
	TypeJoinedTVRoom       = "joinedTvRoom"

	// Client -> relay announcements.
	TypeJoinTVDisplay  = "joinTvDisplay"
	TypeLeaveTVDisplay = "leaveTvDisplay"
)

// Event is one decoded relay message. Consumers switch on the concrete type.
type Event interface {
	Type() string
}

// TVAdded carries the full snapshot of a newly created TV.
type TVAdded struct {
	TV domain.TV
}

// ImageUpdated carries the full snapshot after an upload or clear-all.
type ImageUpdated struct {
	TVID domain.TVID
	TV   domain.TV
}

// YoutubeLinkUpdated carries the full snapshot after a link change.
type YoutubeLinkUpdated struct {
	TVID domain.TVID
	TV   domain.TV
}

// TVDeleted references the removed TV by id only.
type TVDeleted struct {
	TVID domain.TVID
}

// TVListSnapshot replaces the whole collection; authoritative catch-up.
type TVListSnapshot struct {
	TVs []domain.TV
}

// ZoomCommandEvent is a presentation command relayed into a TV room.
type ZoomCommandEvent struct {
	Command domain.ZoomCommand
}

// RoomJoined acknowledges a display's join announcement. Diagnostic only,
// nothing gates on it.
type RoomJoined struct {
	TVID     domain.TVID
	RoomName string
}

// ZoomCommandSent acknowledges a relayed command back to its sender with
// the number of displays it reached.
type ZoomCommandSent struct {
	TVID        domain.TVID
	Command     domain.ZoomCommand
	ClientCount int
}

func (TVAdded) Type() string            { return TypeTVAdded }
func (ImageUpdated) Type() string       { return TypeImageUpdated }
func (YoutubeLinkUpdated) Type() string { return TypeYoutubeLinkUpdated }
func (TVDeleted) Type() string          { return TypeTVDeleted }
func (TVListSnapshot) Type() string     { return TypeTVListUpdate }
func (ZoomCommandEvent) Type() string   { return TypeZoomCommand }
func (RoomJoined) Type() string         { return TypeJoinedTVRoom }
func (ZoomCommandSent) Type() string    { return TypeZoomCommandSent }
