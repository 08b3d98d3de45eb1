package audit

import "time"

// Action names a domain occurrence worth an audit trail entry.
type Action string

const (
	ActionResourceCreated    Action = "resource.created"
	ActionResourceSoftDelete Action = "resource.soft_deleted"
	ActionResourceDuplicated Action = "resource.duplicated"
	ActionVisibilityChanged  Action = "resource.visibility_changed"
	ActionAutosaveFlushed    Action = "resource.autosave_flushed"
	ActionRegistered         Action = "registration.confirmed"
	ActionAlreadyRegistered  Action = "registration.already_registered"
	ActionCancelled          Action = "registration.cancelled"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out to logs, Kafka, or memory.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      Action    `json:"action"`
	PrincipalID string    `json:"principal_id"`
	Subject     string    `json:"subject,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}
