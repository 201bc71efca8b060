package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/KaramelBytes/pubsift-cli/internal/workbench"
)

// sessionStore keeps one workbench per session id. Entries expire after the
// idle ttl; every lookup renews it.
type sessionStore struct {
	cache *cache.Cache
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionStore{cache: cache.New(ttl, 10*time.Minute)}
}

func (s *sessionStore) save(wb *workbench.Workbench) string {
	id := uuid.NewString()
	s.cache.Set(id, wb, cache.DefaultExpiration)
	return id
}

func (s *sessionStore) get(id string) (*workbench.Workbench, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	x, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	wb := x.(*workbench.Workbench)
	s.cache.Set(id, wb, cache.DefaultExpiration)
	return wb, true
}

func (s *sessionStore) delete(id string) { s.cache.Delete(id) }

func (s *sessionStore) count() int { return s.cache.ItemCount() }
