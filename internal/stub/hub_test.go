package stub_test

import (
	"errors"
	"testing"

	gosync "sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/stub"
)

type fakeSink struct {
	mu     gosync.Mutex
	frames []core.Frame
	fail   bool
}

func (s *fakeSink) TrySend(frame core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("send buffer full")
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *fakeSink) Close() {}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func TestHub_BroadcastAllReachesEverySession(t *testing.T) {
	h := stub.NewHub()
	a, b := &fakeSink{}, &fakeSink{}
	h.Register("a", a)
	h.Register("b", b)

	res := h.BroadcastAll(core.TVDeleted{TVID: 1})
	assert.Equal(t, 2, res.SentTo)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}

func TestHub_BroadcastRoomOnlyReachesMembers(t *testing.T) {
	h := stub.NewHub()
	display, watcher := &fakeSink{}, &fakeSink{}
	h.Register("display", display)
	h.Register("watcher", watcher)
	h.Join("display", 7)

	res := h.BroadcastRoom(7, core.ZoomCommandEvent{Command: "zoomIn"})
	assert.Equal(t, 1, res.SentTo)
	assert.Equal(t, 1, display.count())
	assert.Zero(t, watcher.count())

	res = h.BroadcastRoom(8, core.ZoomCommandEvent{Command: "zoomIn"})
	assert.Zero(t, res.SentTo)
}

func TestHub_OneRoomPerSession(t *testing.T) {
	h := stub.NewHub()
	h.Register("s", &fakeSink{})

	h.Join("s", 1)
	h.Join("s", 2)

	assert.Zero(t, h.RoomSize(1))
	assert.Equal(t, 1, h.RoomSize(2))

	h.Leave("s")
	assert.Zero(t, h.RoomSize(2))
}

func TestHub_UnregisterLeavesRoom(t *testing.T) {
	h := stub.NewHub()
	h.Register("s", &fakeSink{})
	h.Join("s", 7)
	require.Equal(t, 1, h.RoomSize(7))

	h.Unregister("s")
	assert.Zero(t, h.RoomSize(7))

	res := h.BroadcastAll(core.TVDeleted{TVID: 7})
	assert.Zero(t, res.SentTo)
}

func TestHub_BackpressureDropsSlowSessionOnly(t *testing.T) {
	h := stub.NewHub()
	slow, fast := &fakeSink{fail: true}, &fakeSink{}
	h.Register("slow", slow)
	h.Register("fast", fast)

	res := h.BroadcastAll(core.TVDeleted{TVID: 1})
	assert.Equal(t, 1, res.SentTo)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, core.SessionID("slow"), res.Dropped[0])
	assert.Equal(t, 1, fast.count())
}
