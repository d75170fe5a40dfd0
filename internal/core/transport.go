package core

import "github.com/prakoso/tvcast/internal/domain"

// Frame is one raw relay message payload.
type Frame []byte

type SessionID string

// RelaySink abstracts a subscriber endpoint the hub fans out to.
// Owned by the adapter; the adapter must Close() it.
type RelaySink interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the hub.
type PublishResult struct {
	SentTo  int
	Dropped []SessionID
}

// Scope selects what a sync client loads and subscribes to: the whole
// collection (controller) or one TV (display).
type Scope struct {
	TVID domain.TVID
}

// CollectionScope subscribes to collection-wide broadcasts only.
func CollectionScope() Scope { return Scope{} }

// DisplayScope additionally joins the per-TV room for id.
func DisplayScope(id domain.TVID) Scope { return Scope{TVID: id} }

func (s Scope) IsDisplay() bool { return s.TVID != 0 }
