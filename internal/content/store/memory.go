package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"podium/internal/authz"
	"podium/internal/content/models"
	"podium/pkg/domain"
	"podium/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store. The mutex is held across the full
// check-and-mutate of every transition, giving the same indivisibility the
// PostgreSQL store gets from single conditional statements.
type InMemory struct {
	mu        sync.RWMutex
	resources map[domain.ResourceID]*models.Resource
}

func NewInMemory() *InMemory {
	return &InMemory{resources: make(map[domain.ResourceID]*models.Resource)}
}

func (s *InMemory) Create(_ context.Context, resource *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resource.ID.IsZero() {
		resource.ID = domain.NewResourceID()
	}
	if _, exists := s.resources[resource.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.resources[resource.ID] = resource.Clone()
	return nil
}

func (s *InMemory) Find(_ context.Context, id domain.ResourceID, scope authz.Scope) (*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok || !scope.Allows(r) {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemory) List(_ context.Context, scope authz.Scope, limit int) ([]*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		if scope.Allows(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mutateOwnedActive runs fn on the row iff it exists, is active, and is owned.
// Returns 1 when fn ran, 0 otherwise. The lock spans check and mutation.
func (s *InMemory) mutateOwnedActive(id domain.ResourceID, owner domain.PrincipalID, fn func(*models.Resource)) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok || r.IsDeleted() || r.OwnerID != owner {
		return 0
	}
	fn(r)
	return 1
}

func (s *InMemory) UpdateFields(_ context.Context, id domain.ResourceID, owner domain.PrincipalID, fields models.Fields, now time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok || r.IsDeleted() || r.OwnerID != owner {
		return time.Time{}, sentinel.ErrNotFound
	}
	fields.ApplyTo(r, now)
	return r.UpdatedAt, nil
}

func (s *InMemory) SoftDelete(_ context.Context, id domain.ResourceID, owner domain.PrincipalID, now time.Time) (int64, error) {
	return s.mutateOwnedActive(id, owner, func(r *models.Resource) {
		r.ApplySoftDelete(now)
	}), nil
}

func (s *InMemory) SetVisibility(_ context.Context, id domain.ResourceID, owner domain.PrincipalID, public bool, now time.Time) (int64, error) {
	return s.mutateOwnedActive(id, owner, func(r *models.Resource) {
		r.IsPublic = public
		r.Touch(now)
	}), nil
}

func (s *InMemory) Duplicate(_ context.Context, source domain.ResourceID, owner domain.PrincipalID, now time.Time) (domain.ResourceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.resources[source]
	if !ok || src.IsDeleted() || src.OwnerID != owner {
		return domain.ResourceID{}, sentinel.ErrNotFound
	}
	dup := src.DuplicateInto(domain.NewResourceID(), now)
	s.resources[dup.ID] = dup
	return dup.ID, nil
}
