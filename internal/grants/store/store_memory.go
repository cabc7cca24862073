package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"rolekeeper/internal/grants/models"
)

// InMemoryStore keeps grants in a map keyed by the unique triple. It backs
// unit tests and serves as the degraded-mode mirror when the durable store
// is unreachable.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[models.Key]models.Grant
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{grants: make(map[models.Key]models.Grant)}
}

func (s *InMemoryStore) Record(_ context.Context, grant *models.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grant.Key()] = *grant
	return nil
}

func (s *InMemoryStore) ListExpired(_ context.Context, now time.Time) ([]*models.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []*models.Grant
	for _, g := range s.grants {
		if !g.ExpiresAt.After(now) {
			copied := g
			expired = append(expired, &copied)
		}
	}
	return expired, nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID, scopeID int64) ([]*models.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Grant
	for _, g := range s.grants {
		if g.SubjectID == subjectID && g.ScopeID == scopeID {
			copied := g
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ExpiresAt.Before(result[j].ExpiresAt)
	})
	return result, nil
}

func (s *InMemoryStore) Delete(_ context.Context, key models.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.grants[key]; !exists {
		return false, nil
	}
	delete(s.grants, key)
	return true, nil
}

// Len reports the number of stored grants. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.grants)
}
