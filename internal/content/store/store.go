// Package store persists content resources.
//
// Two implementations share one contract: an in-memory store for unit tests and
// single-node development, and a PostgreSQL store for production. Both apply
// visibility scopes before rows leave the boundary, and both implement the
// lifecycle transitions as indivisible read-check-write operations so ownership
// or deletion state can never change between the check and the effect.
package store

import (
	"context"
	"time"

	"podium/internal/authz"
	"podium/internal/content/models"
	"podium/pkg/domain"
)

// Store is the content persistence contract consumed by the service layer.
//
// The conditional mutations (SoftDelete, SetVisibility) return the number of
// rows affected. Zero rows is the uniform no-effect signal for "absent,
// deleted, or not yours" and is deliberately not distinguishable.
type Store interface {
	// Create inserts the resource and assigns its ID.
	Create(ctx context.Context, resource *models.Resource) error

	// Find returns the resource when the scope admits it, sentinel.ErrNotFound
	// otherwise. Invisible and nonexistent rows are indistinguishable.
	Find(ctx context.Context, id domain.ResourceID, scope authz.Scope) (*models.Resource, error)

	// List returns scope-visible resources, most recently updated first.
	List(ctx context.Context, scope authz.Scope, limit int) ([]*models.Resource, error)

	// UpdateFields applies a partial update iff the row is active and owned,
	// returning the version marker the row now carries. The stored marker can
	// run ahead of now when the clock regressed, so callers must report the
	// returned value, not their own clock. Returns sentinel.ErrNotFound when
	// the row is absent, deleted, or not owned.
	UpdateFields(ctx context.Context, id domain.ResourceID, owner domain.PrincipalID, fields models.Fields, now time.Time) (time.Time, error)

	// SoftDelete transitions active → deleted iff the row is active and owned.
	SoftDelete(ctx context.Context, id domain.ResourceID, owner domain.PrincipalID, now time.Time) (int64, error)

	// SetVisibility flips the public flag iff the row is active and owned.
	SetVisibility(ctx context.Context, id domain.ResourceID, owner domain.PrincipalID, public bool, now time.Time) (int64, error)

	// Duplicate atomically copies an active owned row into a new resource with
	// a fresh ID, draft status and an annotated title. Returns
	// sentinel.ErrNotFound when the source is absent, deleted, or not owned.
	Duplicate(ctx context.Context, source domain.ResourceID, owner domain.PrincipalID, now time.Time) (domain.ResourceID, error)
}
