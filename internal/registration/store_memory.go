package registration

import (
	"context"
	"sync"
	"time"

	"podium/pkg/domain"
	"podium/pkg/platform/sentinel"
)

type pairKey struct {
	event     domain.EventID
	principal domain.PrincipalID
}

// InMemoryStore holds registrations under one mutex; the lock spans the
// capacity check and the insert, mirroring the transactional guarantee of the
// PostgreSQL store.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[pairKey]*Registration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[pairKey]*Registration)}
}

func (s *InMemoryStore) countActiveLocked(eventID domain.EventID) int {
	n := 0
	for key, reg := range s.rows {
		if key.event == eventID && reg.Status.Active() {
			n++
		}
	}
	return n
}

func (s *InMemoryStore) Insert(_ context.Context, reg *Registration, capacity *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{reg.EventID, reg.PrincipalID}
	if _, exists := s.rows[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if capacity != nil && s.countActiveLocked(reg.EventID) >= *capacity {
		return ErrEventFull
	}
	clone := *reg
	s.rows[key] = &clone
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, eventID domain.EventID, principalID domain.PrincipalID) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.rows[pairKey{eventID, principalID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *reg
	return &clone, nil
}

func (s *InMemoryStore) Revive(_ context.Context, eventID domain.EventID, principalID domain.PrincipalID, capacity *int, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.rows[pairKey{eventID, principalID}]
	if !ok || reg.Status != StatusCancelled {
		return 0, nil
	}
	if capacity != nil && s.countActiveLocked(eventID) >= *capacity {
		return 0, nil
	}
	reg.Status = StatusConfirmed
	reg.UpdatedAt = now
	return 1, nil
}

func (s *InMemoryStore) Cancel(_ context.Context, eventID domain.EventID, principalID domain.PrincipalID, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.rows[pairKey{eventID, principalID}]
	if !ok || reg.Status == StatusCancelled {
		return 0, nil
	}
	reg.Status = StatusCancelled
	reg.UpdatedAt = now
	return 1, nil
}

func (s *InMemoryStore) CountActive(_ context.Context, eventID domain.EventID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countActiveLocked(eventID), nil
}
