package models

import (
	"strings"
	"time"

	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
)

// Kind enumerates the resource families the platform stores.
type Kind string

const (
	KindPresentation Kind = "presentation"
	KindEvent        Kind = "event"
	KindJobPosting   Kind = "job_posting"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPresentation, KindEvent, KindJobPosting:
		return true
	}
	return false
}

// Status is the editorial state of a resource. Duplication always resets it to draft.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// CopySuffix is appended to the title of a duplicated resource.
const CopySuffix = " (Copy)"

// Resource is the aggregate for owned, visibility-flagged, soft-deletable content.
//
// Invariants:
//   - OwnerID is set at creation and never changes
//   - DeletedAt is one-way: once set it is never cleared (no undelete path)
//   - UpdatedAt is monotonically increasing and serves as a staleness marker,
//     never as a lock
//   - a resource with DeletedAt set is invisible to every list/find path
//
// DeletedAt and OwnerID are mutated only through the store's atomic transition
// operations; no other code path writes them.
type Resource struct {
	ID        domain.ResourceID   `json:"id"`
	OwnerID   domain.PrincipalID  `json:"owner_id"`
	Kind      Kind                `json:"kind"`
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	Status    Status              `json:"status"`
	IsPublic  bool                `json:"is_public"`
	Capacity  *int                `json:"capacity,omitempty"`
	DeletedAt *time.Time          `json:"deleted_at,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// New constructs an active draft resource owned by the creating principal.
// The ID is assigned by the store at insert time.
func New(owner domain.PrincipalID, kind Kind, title, body string, now time.Time) (*Resource, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title cannot be empty")
	}
	if len(title) > 256 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title must be 256 characters or less")
	}
	if !kind.Valid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown resource kind %q", kind)
	}
	return &Resource{
		OwnerID:   owner,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsDeleted reports whether the resource has left the active state.
func (r *Resource) IsDeleted() bool { return r.DeletedAt != nil }

// ApplySoftDelete marks the resource deleted. Callers must have validated
// ownership and active state under the store's lock.
func (r *Resource) ApplySoftDelete(now time.Time) {
	r.DeletedAt = &now
	r.Touch(now)
}

// DuplicateInto produces the derived copy: fresh id, same owner, content fields
// copied, status reset to draft, title annotated. The receiver is unchanged.
func (r *Resource) DuplicateInto(newID domain.ResourceID, now time.Time) *Resource {
	dup := *r
	dup.ID = newID
	dup.Title = r.Title + CopySuffix
	dup.Status = StatusDraft
	dup.IsPublic = false
	dup.DeletedAt = nil
	dup.CreatedAt = now
	dup.UpdatedAt = now
	if r.Capacity != nil {
		c := *r.Capacity
		dup.Capacity = &c
	}
	return &dup
}

// Clone returns a deep copy so stores never hand out aliased pointers.
func (r *Resource) Clone() *Resource {
	clone := *r
	if r.DeletedAt != nil {
		t := *r.DeletedAt
		clone.DeletedAt = &t
	}
	if r.Capacity != nil {
		c := *r.Capacity
		clone.Capacity = &c
	}
	return &clone
}

// Touch advances the version marker. The marker must strictly increase on
// every write, even when the wall clock regresses or two writes land within
// one tick.
func (r *Resource) Touch(now time.Time) {
	if !now.After(r.UpdatedAt) {
		now = r.UpdatedAt.Add(time.Microsecond)
	}
	r.UpdatedAt = now
}