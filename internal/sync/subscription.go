package sync

import (
	"context"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/domain"
)

// Subscription is one persistent relay channel. Events come out of Events()
// in arrival order; the channel closes when the relay connection ends.
// There is no retry or backoff here: if the relay drops, the consumer's
// last snapshot stays valid as baseline and simply stops updating.
type Subscription struct {
	scope core.Scope
	conn  *websocket.Conn

	events chan core.Event

	writeMu sync.Mutex
	once    sync.Once
}

// Subscribe dials the relay and, for a display scope, announces the join
// before any event can arrive.
func (c *Client) Subscribe(ctx context.Context, scope core.Scope) (*Subscription, error) {
	url := relayURL(c.base, c.relayPath)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, &domain.TransientError{Op: "subscribe " + url, Err: err}
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s := &Subscription{
		scope:  scope,
		conn:   conn,
		events: make(chan core.Event, 32),
	}

	if scope.IsDisplay() {
		frame, err := core.EncodeJoin(scope.TVID)
		if err == nil {
			err = s.write(frame)
		}
		if err != nil {
			s.Dispose()
			return nil, &domain.TransientError{Op: "join announcement", Err: err}
		}
		log.Info().Str("module", "sync").Int("tv_id", int(scope.TVID)).Msg("announced display join")
	}

	go s.readPump()
	return s, nil
}

// Events yields decoded relay events in delivery order. No reordering
// buffer: events about the same TV arrive as the relay sent them.
func (s *Subscription) Events() <-chan core.Event { return s.events }

func (s *Subscription) readPump() {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Str("module", "sync").Msg("readPump closing")
			return
		}
		ev, err := core.DecodeEvent(data)
		if err != nil {
			// Malformed relay payloads are dropped, never fatal.
			log.Warn().Err(err).Str("module", "sync").Msg("dropping bad relay payload")
			continue
		}
		s.events <- ev
	}
}

func (s *Subscription) write(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// Dispose announces the leave (display scope) and releases the channel.
// Safe to call multiple times.
func (s *Subscription) Dispose() {
	s.once.Do(func() {
		if s.scope.IsDisplay() {
			if frame, err := core.EncodeLeave(s.scope.TVID); err == nil {
				if err := s.write(frame); err != nil {
					log.Warn().Err(err).Str("module", "sync").Msg("leave announcement failed")
				}
			}
		}
		_ = s.conn.Close()
		log.Info().Str("module", "sync").Msg("subscription disposed")
	})
}

// relayURL turns the http(s) collaborator base into the ws(s) relay endpoint.
func relayURL(base, path string) string {
	url := base
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return url + path
}
