// Package command gives the lifecycle transitions a single typed entry point.
// Callers that are not HTTP handlers (batch jobs, future queue consumers) issue
// commands instead of reaching into individual services, so every mutation path
// funnels through the same guard logic.
package command

import (
	"context"
	"time"

	"podium/internal/content/models"
	"podium/internal/identity"
	"podium/internal/registration"
	"podium/pkg/domain"
)

// Command is a typed request for a state transition.
type Command interface {
	isCommand()
}

// SoftDelete retires a resource the principal owns.
type SoftDelete struct {
	Principal identity.Principal
	Resource  domain.ResourceID
}

// Duplicate derives a fresh draft copy of an owned resource.
type Duplicate struct {
	Principal identity.Principal
	Source    domain.ResourceID
}

// ScheduleSave buffers a partial edit for a debounced write.
type ScheduleSave struct {
	Principal identity.Principal
	Resource  domain.ResourceID
	Fields    models.Fields
}

// SaveNow flushes the pending buffer synchronously.
type SaveNow struct {
	Principal identity.Principal
	Resource  domain.ResourceID
	Fields    models.Fields
}

// Register signs the principal up for an event.
type Register struct {
	Principal identity.Principal
	Event     domain.EventID
}

// CancelRegistration withdraws the principal's registration.
type CancelRegistration struct {
	Principal identity.Principal
	Event     domain.EventID
}

func (SoftDelete) isCommand()         {}
func (Duplicate) isCommand()          {}
func (ScheduleSave) isCommand()       {}
func (SaveNow) isCommand()            {}
func (Register) isCommand()           {}
func (CancelRegistration) isCommand() {}

// Result reports what a dispatched command produced. Only the members relevant
// to the command are set.
type Result struct {
	// Deleted reports whether a SoftDelete actually transitioned a row.
	Deleted bool
	// NewResource is the id produced by a Duplicate.
	NewResource domain.ResourceID
	// SavedAt is the server timestamp assigned by a SaveNow.
	SavedAt time.Time
	// Outcome is the registration outcome of a Register.
	Outcome string
}

// ContentService is the lifecycle slice the dispatcher drives.
type ContentService interface {
	SoftDelete(ctx context.Context, p identity.Principal, id domain.ResourceID) (bool, error)
	Duplicate(ctx context.Context, p identity.Principal, source domain.ResourceID) (domain.ResourceID, error)
}

// RegistrationService is the registration slice the dispatcher drives.
type RegistrationService interface {
	Register(ctx context.Context, p identity.Principal, eventID domain.EventID) (registration.Outcome, error)
	Cancel(ctx context.Context, p identity.Principal, eventID domain.EventID) error
}

// Saver is the autosave slice the dispatcher drives.
type Saver interface {
	Schedule(p identity.Principal, id domain.ResourceID, fields models.Fields) error
	SaveNow(ctx context.Context, p identity.Principal, id domain.ResourceID, fields models.Fields) (time.Time, error)
}
