package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gosync "sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakoso/tvcast/internal/controller"
	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/domain"
	"github.com/prakoso/tvcast/internal/sync"
)

type recordingNotifier struct {
	mu       gosync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(level controller.Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, string(level)+": "+message)
}

func (n *recordingNotifier) count(substr string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.messages {
		if strings.Contains(m, substr) {
			c++
		}
	}
	return c
}

func newController(t *testing.T, handler http.Handler) (*controller.Controller, *recordingNotifier) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	notifier := &recordingNotifier{}
	return controller.New(sync.NewClient(srv.URL, "/ws"), notifier), notifier
}

func TestApply_ImageUpdatedIsIdempotent(t *testing.T) {
	ctl, _ := newController(t, http.NotFoundHandler())

	tv := domain.TV{ID: 7, Name: "Lobby", Images: []string{"/uploads/a.png", "/uploads/b.png"}}
	ev := core.ImageUpdated{TVID: 7, TV: tv}

	ctl.Apply(ev)
	once := ctl.TVs()

	ctl.Apply(ev)
	twice := ctl.TVs()

	assert.Equal(t, once, twice)
	require.Len(t, twice, 1)
	assert.Equal(t, tv.Images, twice[0].Images)
}

func TestCreateThenBroadcast_NoDuplicate(t *testing.T) {
	mux := http.NewServeMux()
	created := domain.TV{ID: 3, Name: "Lobby", Images: []string{}}
	mux.HandleFunc("POST /api/tvs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	})
	ctl, notifier := newController(t, mux)

	_, err := ctl.CreateTV(context.Background(), "Lobby")
	require.NoError(t, err)

	// The broadcast echo of our own create finds the optimistic insert.
	ctl.Apply(core.TVAdded{TV: created})

	tvs := ctl.TVs()
	require.Len(t, tvs, 1)
	assert.Equal(t, domain.TVID(3), tvs[0].ID)
	assert.Zero(t, notifier.count("added by another user"))
}

func TestApply_TVAddedFromAnotherActor(t *testing.T) {
	ctl, notifier := newController(t, http.NotFoundHandler())

	ctl.Apply(core.TVAdded{TV: domain.TV{ID: 9, Name: "Canteen"}})

	require.Len(t, ctl.TVs(), 1)
	assert.Equal(t, 1, notifier.count("added by another user"))
}

func TestApply_SnapshotReplacesCollection(t *testing.T) {
	ctl, _ := newController(t, http.NotFoundHandler())

	ctl.Apply(core.TVAdded{TV: domain.TV{ID: 1, Name: "Old"}})
	ctl.Apply(core.TVListSnapshot{TVs: []domain.TV{
		{ID: 5, Name: "A"},
		{ID: 2, Name: "B"},
	}})

	tvs := ctl.TVs()
	require.Len(t, tvs, 2)
	// Snapshot order is authoritative.
	assert.Equal(t, domain.TVID(5), tvs[0].ID)
	assert.Equal(t, domain.TVID(2), tvs[1].ID)
}

func TestApply_DeleteNotifiesExactlyOnce(t *testing.T) {
	ctl, notifier := newController(t, http.NotFoundHandler())

	ctl.Apply(core.TVAdded{TV: domain.TV{ID: 7, Name: "Lobby"}})
	ctl.Apply(core.TVDeleted{TVID: 7})
	ctl.Apply(core.TVDeleted{TVID: 7}) // duplicate across reconnect

	assert.Empty(t, ctl.TVs())
	assert.Equal(t, 1, notifier.count("deleted by another user"))
}

func TestDeleteTV_OwnEchoStaysSilent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/tvs/7", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	ctl, notifier := newController(t, mux)

	ctl.Apply(core.TVAdded{TV: domain.TV{ID: 7, Name: "Lobby"}})
	require.NoError(t, ctl.DeleteTV(context.Background(), 7))

	// Broadcast echo of our own delete: already gone, no toast.
	ctl.Apply(core.TVDeleted{TVID: 7})

	assert.Empty(t, ctl.TVs())
	assert.Zero(t, notifier.count("deleted by another user"))
}

func TestUpload_SuppressesOwnEchoNotification(t *testing.T) {
	updated := domain.TV{ID: 7, Name: "Lobby", Images: []string{"/uploads/x.png"}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tvs/7/upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.NotEmpty(t, r.MultipartForm.File["image"])
		json.NewEncoder(w).Encode(updated)
	})
	ctl, notifier := newController(t, mux)
	ctl.Apply(core.TVAdded{TV: domain.TV{ID: 7, Name: "Lobby"}})

	_, err := ctl.UploadImages(context.Background(), 7, []sync.Upload{
		{Name: "x.png", Reader: strings.NewReader("fake-bytes")},
	})
	require.NoError(t, err)

	// Our own echo: data applied, toast suppressed.
	ctl.Apply(core.ImageUpdated{TVID: 7, TV: updated})
	assert.Zero(t, notifier.count("updated by another user"))

	// A later genuine remote update does notify.
	ctl.Apply(core.ImageUpdated{TVID: 7, TV: updated})
	assert.Equal(t, 1, notifier.count("updated by another user"))

	tv, ok := ctl.Get(7)
	require.True(t, ok)
	assert.Equal(t, updated.Images, tv.Images)
}

func TestCreateTV_FailureLeavesStateUntouched(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tvs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "TV name is required"})
	})
	ctl, notifier := newController(t, mux)

	_, err := ctl.CreateTV(context.Background(), "")
	require.Error(t, err)

	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, ctl.TVs())
	assert.Equal(t, 1, notifier.count("TV name is required"))
}

func TestUpload_FailureDoesNotLeakSuppression(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tvs/7/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctl, notifier := newController(t, mux)
	ctl.Apply(core.TVAdded{TV: domain.TV{ID: 7, Name: "Lobby"}})

	_, err := ctl.UploadImages(context.Background(), 7, []sync.Upload{
		{Name: "x.png", Reader: strings.NewReader("fake-bytes")},
	})
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))

	// The failed action must not swallow the next remote update's toast.
	ctl.Apply(core.ImageUpdated{TVID: 7, TV: domain.TV{ID: 7, Name: "Lobby", Images: []string{"/uploads/y.png"}}})
	assert.Equal(t, 1, notifier.count("updated by another user"))
}
