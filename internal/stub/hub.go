package stub

import (
	gosync "sync"

	"github.com/rs/zerolog/log"

	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/domain"
)

// Hub is a threadsafe in-memory fanout: every connection subscribes to
// collection-wide broadcasts, displays additionally join one per-TV room.
// It never closes adapter-owned connections.
type Hub struct {
	mu       gosync.RWMutex
	sessions map[core.SessionID]core.RelaySink
	rooms    map[domain.TVID]map[core.SessionID]struct{}
	roomOf   map[core.SessionID]domain.TVID
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[core.SessionID]core.RelaySink),
		rooms:    make(map[domain.TVID]map[core.SessionID]struct{}),
		roomOf:   make(map[core.SessionID]domain.TVID),
	}
}

func (h *Hub) Register(sid core.SessionID, sink core.RelaySink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[sid] = sink
	log.Info().Str("module", "stub.hub").Str("sid", string(sid)).Msg("session registered")
}

func (h *Hub) Unregister(sid core.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(sid)
	delete(h.sessions, sid)
	log.Info().Str("module", "stub.hub").Str("sid", string(sid)).Msg("session unregistered")
}

// Join moves the session into the TV's room; a session occupies at most
// one room at a time.
func (h *Hub) Join(sid core.SessionID, id domain.TVID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(sid)
	room, ok := h.rooms[id]
	if !ok {
		room = make(map[core.SessionID]struct{})
		h.rooms[id] = room
	}
	room[sid] = struct{}{}
	h.roomOf[sid] = id
	log.Info().Str("module", "stub.hub").Str("sid", string(sid)).Int("tv_id", int(id)).Msg("joined tv room")
}

func (h *Hub) Leave(sid core.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(sid)
}

func (h *Hub) leaveLocked(sid core.SessionID) {
	id, ok := h.roomOf[sid]
	if !ok {
		return
	}
	delete(h.roomOf, sid)
	if room, ok := h.rooms[id]; ok {
		delete(room, sid)
		if len(room) == 0 {
			delete(h.rooms, id)
		}
	}
	log.Info().Str("module", "stub.hub").Str("sid", string(sid)).Int("tv_id", int(id)).Msg("left tv room")
}

func (h *Hub) RoomSize(id domain.TVID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[id])
}

// BroadcastAll fans an event out to every connected session.
func (h *Hub) BroadcastAll(ev core.Event) core.PublishResult {
	frame, err := core.EncodeEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "stub.hub").Str("type", ev.Type()).Msg("encode broadcast")
		return core.PublishResult{}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := core.PublishResult{}
	for sid, sink := range h.sessions {
		if err := sink.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "stub.hub").Str("type", ev.Type()).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// BroadcastRoom fans an event out to the TV's room members only.
func (h *Hub) BroadcastRoom(id domain.TVID, ev core.Event) core.PublishResult {
	frame, err := core.EncodeEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "stub.hub").Str("type", ev.Type()).Msg("encode room broadcast")
		return core.PublishResult{}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := core.PublishResult{}
	for sid := range h.rooms[id] {
		sink, ok := h.sessions[sid]
		if !ok {
			continue
		}
		if err := sink.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "stub.hub").Str("type", ev.Type()).Int("tv_id", int(id)).Int("sent_to", res.SentTo).Msg("room broadcast result")
	return res
}
