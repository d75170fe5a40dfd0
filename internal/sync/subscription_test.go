package sync_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gosync "sync"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/domain"
	"github.com/prakoso/tvcast/internal/sync"
)

// relayStub accepts one websocket client and records everything it sends.
type relayStub struct {
	upgrader websocket.Upgrader

	mu       gosync.Mutex
	conn     *websocket.Conn
	received [][]byte
	ready    chan struct{}
	inbound  chan []byte
}

func newRelayStub() *relayStub {
	return &relayStub{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		ready:    make(chan struct{}),
		inbound:  make(chan []byte, 16),
	}
}

func (s *relayStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		close(s.ready)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				close(s.inbound)
				return
			}
			s.mu.Lock()
			s.received = append(s.received, data)
			s.mu.Unlock()
			s.inbound <- data
		}
	})
	return mux
}

func (s *relayStub) push(t *testing.T, frame []byte) {
	t.Helper()
	select {
	case <-s.ready:
	case <-time.After(time.Second):
		t.Fatal("no websocket client connected")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NoError(t, s.conn.WriteMessage(websocket.TextMessage, frame))
}

func (s *relayStub) nextInbound(t *testing.T) []byte {
	t.Helper()
	select {
	case data, ok := <-s.inbound:
		require.True(t, ok, "relay connection closed before the expected frame")
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for client frame")
		return nil
	}
}

func newSubscription(t *testing.T, scope core.Scope) (*sync.Subscription, *relayStub) {
	t.Helper()
	stub := newRelayStub()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	c := sync.NewClient(srv.URL, "/ws")
	sub, err := c.Subscribe(context.Background(), scope)
	require.NoError(t, err)
	t.Cleanup(sub.Dispose)
	return sub, stub
}

func recvEvent(t *testing.T, sub *sync.Subscription) core.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "event channel closed early")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSubscribe_DisplayAnnouncesJoinFirst(t *testing.T) {
	_, stub := newSubscription(t, core.DisplayScope(7))

	a, err := core.DecodeAnnouncement(stub.nextInbound(t))
	require.NoError(t, err)
	assert.Equal(t, core.TypeJoinTVDisplay, a.Type)
	assert.Equal(t, domain.TVID(7), a.TVID)
}

func TestSubscribe_CollectionSendsNothing(t *testing.T) {
	sub, stub := newSubscription(t, core.CollectionScope())

	frame, err := core.EncodeEvent(core.TVDeleted{TVID: 3})
	require.NoError(t, err)
	stub.push(t, frame)

	ev := recvEvent(t, sub)
	assert.Equal(t, core.TVDeleted{TVID: 3}, ev)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Empty(t, stub.received, "collection scope never announces")
}

func TestEvents_ArriveInOrder(t *testing.T) {
	sub, stub := newSubscription(t, core.CollectionScope())

	for _, id := range []domain.TVID{1, 2, 3} {
		frame, err := core.EncodeEvent(core.TVDeleted{TVID: id})
		require.NoError(t, err)
		stub.push(t, frame)
	}

	for _, want := range []domain.TVID{1, 2, 3} {
		ev := recvEvent(t, sub)
		deleted, ok := ev.(core.TVDeleted)
		require.True(t, ok)
		assert.Equal(t, want, deleted.TVID)
	}
}

func TestEvents_BadPayloadDroppedStreamSurvives(t *testing.T) {
	sub, stub := newSubscription(t, core.CollectionScope())

	stub.push(t, []byte(`{"type":"mystery"}`))
	stub.push(t, []byte(`garbage`))

	frame, err := core.EncodeEvent(core.TVDeleted{TVID: 9})
	require.NoError(t, err)
	stub.push(t, frame)

	ev := recvEvent(t, sub)
	assert.Equal(t, core.TVDeleted{TVID: 9}, ev)
}

func TestDispose_DisplayAnnouncesLeaveAndClosesChannel(t *testing.T) {
	sub, stub := newSubscription(t, core.DisplayScope(7))

	a, err := core.DecodeAnnouncement(stub.nextInbound(t))
	require.NoError(t, err)
	require.Equal(t, core.TypeJoinTVDisplay, a.Type)

	sub.Dispose()
	sub.Dispose() // idempotent

	a, err = core.DecodeAnnouncement(stub.nextInbound(t))
	require.NoError(t, err)
	assert.Equal(t, core.TypeLeaveTVDisplay, a.Type)
	assert.Equal(t, domain.TVID(7), a.TVID)

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("event channel did not close after dispose")
	}
}

func TestEvents_ChannelClosesWhenRelayDrops(t *testing.T) {
	sub, stub := newSubscription(t, core.CollectionScope())

	select {
	case <-stub.ready:
	case <-time.After(time.Second):
		t.Fatal("no websocket client connected")
	}
	stub.mu.Lock()
	stub.conn.Close()
	stub.mu.Unlock()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("event channel did not close after relay drop")
	}
}
