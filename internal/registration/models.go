// Package registration makes event sign-up idempotent under the
// (event, principal) uniqueness constraint. A duplicate insert caused by a
// retry or a concurrent double-click converges to a deterministic
// "already registered" outcome instead of an error.
package registration

import (
	"time"

	"podium/pkg/domain"
)

// Status is the lifecycle state of one registration row. Cancellation keeps the
// row (history preserved); re-registering revives it in place.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusAttended  Status = "attended"
)

// Active reports whether the status counts against event capacity.
func (s Status) Active() bool {
	return s == StatusConfirmed || s == StatusAttended
}

// Registration is one principal's sign-up for one event, composite-keyed by
// (EventID, PrincipalID). At most one row exists per pair regardless of status
// history.
type Registration struct {
	EventID     domain.EventID     `json:"event_id"`
	PrincipalID domain.PrincipalID `json:"principal_id"`
	Status      Status             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Outcome is the caller-visible result of Register. Both values are successes;
// the UI boundary decides how to present the distinction.
type Outcome string

const (
	OutcomeConfirmed         Outcome = "confirmed"
	OutcomeAlreadyRegistered Outcome = "already_registered"
)
