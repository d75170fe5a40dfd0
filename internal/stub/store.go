// Package stub is the development stand-in for the collaborator service:
// the REST surface, file storage for uploads, and the broadcast relay.
// Integration tests and local development run against it; production
// deployments point the clients at the real collaborator instead.
package stub

import (
	gosync "sync"
	"time"

	"github.com/prakoso/tvcast/internal/domain"
)

// Store keeps TV records in memory, ids assigned sequentially from 1.
type Store struct {
	mu     gosync.Mutex
	nextID domain.TVID
	order  []domain.TVID
	tvs    map[domain.TVID]*domain.TV
}

func NewStore() *Store {
	return &Store{
		nextID: 1,
		tvs:    make(map[domain.TVID]*domain.TV),
	}
}

func (s *Store) Create(name string) (domain.TV, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tv, err := domain.NewTV(s.nextID, name)
	if err != nil {
		return domain.TV{}, err
	}
	s.nextID++
	s.tvs[tv.ID] = tv
	s.order = append(s.order, tv.ID)
	return *tv, nil
}

func (s *Store) List() []domain.TV {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TV, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tvs[id])
	}
	return out
}

func (s *Store) Get(id domain.TVID) (domain.TV, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tv, ok := s.tvs[id]
	if !ok {
		return domain.TV{}, false
	}
	return *tv, true
}

// AddImages appends references in upload order; the legacy single-image
// field tracks the first reference for old displays.
func (s *Store) AddImages(id domain.TVID, refs []string) (domain.TV, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tv, ok := s.tvs[id]
	if !ok {
		return domain.TV{}, false
	}
	tv.Images = append(tv.Images, refs...)
	tv.Image = tv.Images[0]
	tv.Touch(time.Now())
	return *tv, true
}

func (s *Store) SetYoutubeLink(id domain.TVID, link string) (domain.TV, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tv, ok := s.tvs[id]
	if !ok {
		return domain.TV{}, false
	}
	tv.YoutubeLink = link
	tv.Touch(time.Now())
	return *tv, true
}

func (s *Store) ClearImages(id domain.TVID) (domain.TV, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tv, ok := s.tvs[id]
	if !ok {
		return domain.TV{}, false
	}
	tv.Images = []string{}
	tv.Image = ""
	tv.Touch(time.Now())
	return *tv, true
}

func (s *Store) Delete(id domain.TVID) (domain.TV, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tv, ok := s.tvs[id]
	if !ok {
		return domain.TV{}, false
	}
	delete(s.tvs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return *tv, true
}
