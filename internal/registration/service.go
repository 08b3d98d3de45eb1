package registration

import (
	"context"
	"errors"
	"log/slog"

	"podium/internal/audit"
	"podium/internal/authz"
	"podium/internal/content/models"
	"podium/internal/identity"
	regmetrics "podium/internal/registration/metrics"
	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/sentinel"
	"podium/pkg/requestcontext"
)

// EventReader resolves the event resource a registration targets, under the
// caller's visibility scope. The content store's Find satisfies this.
type EventReader interface {
	Find(ctx context.Context, id domain.ResourceID, scope authz.Scope) (*models.Resource, error)
}

// AuditRecorder is the slice of the audit pipeline this service needs.
type AuditRecorder interface {
	Emit(ctx context.Context, event audit.Event)
}

type noopRecorder struct{}

func (noopRecorder) Emit(context.Context, audit.Event) {}

// Service resolves registration conflicts. Register is idempotent per
// (event, principal): the first call creates the row, every later call lands on
// the uniqueness constraint and converges to a deterministic outcome without
// ever producing a second row.
type Service struct {
	store   Store
	events  EventReader
	logger  *slog.Logger
	metrics *regmetrics.Metrics
	auditor AuditRecorder
}

// Option configures optional collaborators.
type Option func(*Service)

// WithMetrics installs the registration metrics collectors.
func WithMetrics(m *regmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditRecorder installs the audit emitter.
func WithAuditRecorder(a AuditRecorder) Option {
	return func(s *Service) {
		if a != nil {
			s.auditor = a
		}
	}
}

func NewService(st Store, events EventReader, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		events:  events,
		logger:  logger,
		auditor: noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register signs the caller up for an event. Safe to call any number of times:
// a repeat lands on the uniqueness constraint and reports OutcomeAlreadyRegistered,
// a cancelled registration is revived in place, and capacity is enforced against
// the authoritative count inside the write.
func (s *Service) Register(ctx context.Context, p identity.Principal, eventID domain.EventID) (Outcome, error) {
	if p.IsZero() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "registration requires a resolved principal")
	}
	event, err := s.resolveEvent(ctx, p, eventID)
	if err != nil {
		return "", err
	}

	now := requestcontext.Now(ctx)
	reg := &Registration{
		EventID:     eventID,
		PrincipalID: p.ID,
		Status:      StatusConfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.store.Insert(ctx, reg, event.Capacity)
	switch {
	case err == nil:
		return s.confirmed(ctx, p, eventID), nil
	case errors.Is(err, ErrEventFull):
		return s.resolveFull(ctx, p, eventID)
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return s.resolveExisting(ctx, p, event)
	default:
		return "", s.recoverStoreErr(err, "failed to register")
	}
}

// resolveFull handles the insert that was rejected on capacity. The write
// checks capacity before the uniqueness constraint, so a repeat call at a full
// event surfaces ErrEventFull even when the caller already holds a seat. An
// active existing row wins over the capacity rejection.
func (s *Service) resolveFull(ctx context.Context, p identity.Principal, eventID domain.EventID) (Outcome, error) {
	existing, err := s.store.Find(ctx, eventID, p.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return "", s.recoverStoreErr(err, "failed to resolve registration conflict")
	}
	if err == nil && existing.Status.Active() {
		if s.metrics != nil {
			s.metrics.AlreadyRegistered.Inc()
		}
		s.auditor.Emit(ctx, audit.Event{
			Action:      audit.ActionAlreadyRegistered,
			PrincipalID: p.ID.String(),
			Subject:     eventID.String(),
		})
		return OutcomeAlreadyRegistered, nil
	}
	if s.metrics != nil {
		s.metrics.CapacityRejections.Inc()
	}
	return "", dErrors.New(dErrors.CodeConflict, "event is at capacity")
}

// resolveExisting handles the insert that collided with an existing row. Only a
// cancelled row changes state; anything active is simply reported back.
func (s *Service) resolveExisting(ctx context.Context, p identity.Principal, event *models.Resource) (Outcome, error) {
	eventID := domain.EventID(event.ID)
	existing, err := s.store.Find(ctx, eventID, p.ID)
	if err != nil {
		// The row was there a moment ago. A concurrent hard cleanup is the only
		// way to get here and that is not an operation this system performs.
		return "", s.recoverStoreErr(err, "failed to resolve registration conflict")
	}
	if existing.Status != StatusCancelled {
		if s.metrics != nil {
			s.metrics.AlreadyRegistered.Inc()
		}
		s.auditor.Emit(ctx, audit.Event{
			Action:      audit.ActionAlreadyRegistered,
			PrincipalID: p.ID.String(),
			Subject:     eventID.String(),
		})
		return OutcomeAlreadyRegistered, nil
	}

	rows, err := s.store.Revive(ctx, eventID, p.ID, event.Capacity, requestcontext.Now(ctx))
	if err != nil {
		return "", s.recoverStoreErr(err, "failed to revive registration")
	}
	if rows > 0 {
		return s.confirmed(ctx, p, eventID), nil
	}
	// Revival moved nothing: either a concurrent call won the revive, or the
	// event filled up in between. Re-read to tell the two apart.
	existing, err = s.store.Find(ctx, eventID, p.ID)
	if err != nil {
		return "", s.recoverStoreErr(err, "failed to resolve registration conflict")
	}
	if existing.Status.Active() {
		if s.metrics != nil {
			s.metrics.AlreadyRegistered.Inc()
		}
		return OutcomeAlreadyRegistered, nil
	}
	if s.metrics != nil {
		s.metrics.CapacityRejections.Inc()
	}
	return "", dErrors.New(dErrors.CodeConflict, "event is at capacity")
}

func (s *Service) confirmed(ctx context.Context, p identity.Principal, eventID domain.EventID) Outcome {
	if s.metrics != nil {
		s.metrics.Confirmed.Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionRegistered,
		PrincipalID: p.ID.String(),
		Subject:     eventID.String(),
	})
	return OutcomeConfirmed
}

// Cancel withdraws the caller's registration. Cancelling something that does
// not exist or is already cancelled is a silent no-op.
func (s *Service) Cancel(ctx context.Context, p identity.Principal, eventID domain.EventID) error {
	if p.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "cancellation requires a resolved principal")
	}
	rows, err := s.store.Cancel(ctx, eventID, p.ID, requestcontext.Now(ctx))
	if err != nil {
		return s.recoverStoreErr(err, "failed to cancel registration")
	}
	if rows == 0 {
		return nil
	}
	if s.metrics != nil {
		s.metrics.Cancelled.Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionCancelled,
		PrincipalID: p.ID.String(),
		Subject:     eventID.String(),
	})
	return nil
}

// Status returns the caller's registration for the event, sentinel-free.
func (s *Service) Status(ctx context.Context, p identity.Principal, eventID domain.EventID) (*Registration, error) {
	if p.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "lookup requires a resolved principal")
	}
	reg, err := s.store.Find(ctx, eventID, p.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, s.recoverStoreErr(err, "failed to load registration")
	}
	return reg, nil
}

// resolveEvent loads the target through the caller's visibility scope, so a
// private or deleted event is indistinguishable from an absent one.
func (s *Service) resolveEvent(ctx context.Context, p identity.Principal, eventID domain.EventID) (*models.Resource, error) {
	event, err := s.events.Find(ctx, domain.ResourceID(eventID), authz.ScopeFor(p))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, s.recoverStoreErr(err, "failed to load event")
	}
	if event.Kind != models.KindEvent {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resource does not accept registrations")
	}
	return event, nil
}

func (s *Service) recoverStoreErr(err error, message string) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, message)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, message)
	}
}
