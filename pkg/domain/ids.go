// Package domain defines the typed identifiers shared across bounded contexts.
//
// Each ID is a distinct type over uuid.UUID so that a principal ID can never be
// passed where a resource ID is expected. Conversions are explicit.
package domain

import "github.com/google/uuid"

type (
	// PrincipalID identifies the identity on whose behalf an operation runs.
	PrincipalID uuid.UUID

	// ResourceID identifies an owned, soft-deletable stored entity.
	ResourceID uuid.UUID

	// EventID identifies a registration target. Events are resources; the
	// separate type keeps registration keys honest.
	EventID uuid.UUID
)

// NewPrincipalID generates a random principal ID.
func NewPrincipalID() PrincipalID { return PrincipalID(uuid.New()) }

// NewResourceID generates a random resource ID.
func NewResourceID() ResourceID { return ResourceID(uuid.New()) }

// NewEventID generates a random event ID.
func NewEventID() EventID { return EventID(uuid.New()) }

func (id PrincipalID) String() string { return uuid.UUID(id).String() }
func (id ResourceID) String() string  { return uuid.UUID(id).String() }
func (id EventID) String() string     { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID.
func (id PrincipalID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id ResourceID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }

// The ID types marshal as canonical UUID strings in JSON and text contexts.
// (Named types do not inherit uuid.UUID's marshalling methods.)

func (id PrincipalID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ResourceID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *PrincipalID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = PrincipalID(u)
	return nil
}

func (id *ResourceID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = ResourceID(u)
	return nil
}

func (id *EventID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = EventID(u)
	return nil
}

// ParsePrincipalID parses a principal ID from its string form.
func ParsePrincipalID(s string) (PrincipalID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PrincipalID{}, err
	}
	return PrincipalID(u), nil
}

// ParseResourceID parses a resource ID from its string form.
func ParseResourceID(s string) (ResourceID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ResourceID{}, err
	}
	return ResourceID(u), nil
}

// ParseEventID parses an event ID from its string form.
func ParseEventID(s string) (EventID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}
