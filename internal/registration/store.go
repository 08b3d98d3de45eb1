package registration

import (
	"context"
	"errors"
	"time"

	"podium/pkg/domain"
)

// ErrEventFull reports that the authoritative registered-count reached the
// event's capacity at write time.
var ErrEventFull = errors.New("event at capacity")

// Store persists registrations.
//
// Insert and Revive take the capacity limit (nil = unlimited) and evaluate it
// against the registered-count inside the write itself, so concurrent bursts
// cannot over-admit past a client-cached count.
type Store interface {
	// Insert adds a confirmed row. Returns sentinel.ErrAlreadyUsed (wrapped)
	// when the (event, principal) pair already exists, ErrEventFull when the
	// capacity check fails.
	Insert(ctx context.Context, reg *Registration, capacity *int) error

	// Find returns the row for the pair, sentinel.ErrNotFound when absent.
	Find(ctx context.Context, eventID domain.EventID, principalID domain.PrincipalID) (*Registration, error)

	// Revive flips a cancelled row back to confirmed, re-checking capacity.
	// Returns the number of rows transitioned (0 when the row is not
	// cancelled, absent, or capacity is reached).
	Revive(ctx context.Context, eventID domain.EventID, principalID domain.PrincipalID, capacity *int, now time.Time) (int64, error)

	// Cancel marks the row cancelled. Zero rows means there was nothing to
	// cancel, which callers treat as a no-op.
	Cancel(ctx context.Context, eventID domain.EventID, principalID domain.PrincipalID, now time.Time) (int64, error)

	// CountActive returns the authoritative number of capacity-consuming rows.
	CountActive(ctx context.Context, eventID domain.EventID) (int, error)
}
