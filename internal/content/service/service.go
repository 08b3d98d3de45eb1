// Package service orchestrates resource lifecycle operations.
//
// The service is the lifecycle guard: every destructive or derivative
// transition re-validates ownership at transition time through the store's
// atomic conditional operations, not just at read time. Authorization decisions
// come from the pure policy in internal/authz; this layer recovers store
// sentinels into caller-meaningful coded errors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"podium/internal/audit"
	"podium/internal/authz"
	contentmetrics "podium/internal/content/metrics"
	"podium/internal/content/models"
	"podium/internal/content/store"
	"podium/internal/identity"
	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/sentinel"
	"podium/pkg/requestcontext"
)

// AuditRecorder is the slice of the audit pipeline this service needs.
type AuditRecorder interface {
	Emit(ctx context.Context, event audit.Event)
}

type noopRecorder struct{}

func (noopRecorder) Emit(context.Context, audit.Event) {}

// Service guards resource lifecycle transitions and reads.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *contentmetrics.Metrics
	auditor AuditRecorder
}

// Option configures optional collaborators.
type Option func(*Service)

// WithMetrics installs the content metrics collectors.
func WithMetrics(m *contentmetrics.Metrics) Option {
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

func New(st store.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		logger:  logger,
		auditor: noopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requirePrincipal(p identity.Principal) error {
	if p.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "operation requires a resolved principal")
	}
	return nil
}

// Create inserts a new draft resource owned by the caller.
func (s *Service) Create(ctx context.Context, p identity.Principal, kind models.Kind, title, body string) (*models.Resource, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	resource, err := models.New(p.ID, kind, title, body, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, resource); err != nil {
		return nil, s.recoverStoreErr(err, "failed to create resource")
	}
	if s.metrics != nil {
		s.metrics.ResourcesCreated.Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionResourceCreated,
		PrincipalID: p.ID.String(),
		Subject:     resource.ID.String(),
	})
	return resource, nil
}

// Get returns the resource when the caller may read it. A miss and a deny are
// the same outcome; nothing about private resources leaks through errors.
func (s *Service) Get(ctx context.Context, p identity.Principal, id domain.ResourceID) (*models.Resource, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	resource, err := s.store.Find(ctx, id, authz.ScopeFor(p))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
		}
		return nil, s.recoverStoreErr(err, "failed to load resource")
	}
	if resource.IsDeleted() {
		// The scope excludes deleted rows; seeing one here is a programming error.
		s.logger.ErrorContext(ctx, "deleted resource escaped visibility scope",
			"resource_id", resource.ID.String(),
		)
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "deleted resource returned by scoped read")
	}
	if !authz.Evaluate(p, resource, authz.IntentRead).Allowed() {
		s.logger.ErrorContext(ctx, "scoped read returned a row the policy denies",
			"resource_id", resource.ID.String(),
		)
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "scope and policy disagree")
	}
	return resource, nil
}

// List returns the caller's visible resources, most recently edited first.
func (s *Service) List(ctx context.Context, p identity.Principal, limit int) ([]*models.Resource, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	resources, err := s.store.List(ctx, authz.ScopeFor(p), limit)
	if err != nil {
		return nil, s.recoverStoreErr(err, "failed to list resources")
	}
	return resources, nil
}

// SoftDelete transitions active → deleted. Returns true iff a row actually
// transitioned; not-owner, already-deleted and absent all report false with no
// error, the uniform no-effect signal.
func (s *Service) SoftDelete(ctx context.Context, p identity.Principal, id domain.ResourceID) (bool, error) {
	if err := requirePrincipal(p); err != nil {
		return false, err
	}
	rows, err := s.store.SoftDelete(ctx, id, p.ID, requestcontext.Now(ctx))
	if err != nil {
		return false, s.recoverStoreErr(err, "failed to soft delete resource")
	}
	if rows == 0 {
		return false, nil
	}
	if s.metrics != nil {
		s.metrics.SoftDeletes.Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionResourceSoftDelete,
		PrincipalID: p.ID.String(),
		Subject:     id.String(),
	})
	return true, nil
}

// Duplicate copies an active owned resource into a fresh draft. Precondition
// failures (absent, deleted, not owned) collapse into one merged outcome so
// callers cannot probe for existence of resources they do not own.
func (s *Service) Duplicate(ctx context.Context, p identity.Principal, source domain.ResourceID) (domain.ResourceID, error) {
	if err := requirePrincipal(p); err != nil {
		return domain.ResourceID{}, err
	}
	newID, err := s.store.Duplicate(ctx, source, p.ID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.ResourceID{}, dErrors.New(dErrors.CodeNotFound, "resource not found or access denied")
		}
		return domain.ResourceID{}, s.recoverStoreErr(err, "failed to duplicate resource")
	}
	if s.metrics != nil {
		s.metrics.Duplicates.Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionResourceDuplicated,
		PrincipalID: p.ID.String(),
		Subject:     source.String(),
		Detail:      newID.String(),
	})
	return newID, nil
}

// SaveDraft applies a partial update iff the caller owns the active resource.
// Returns the version marker the store persisted, which can run ahead of the
// request clock when the marker had to advance monotonically.
func (s *Service) SaveDraft(ctx context.Context, p identity.Principal, id domain.ResourceID, fields models.Fields) (time.Time, error) {
	if err := requirePrincipal(p); err != nil {
		return time.Time{}, err
	}
	if fields.IsEmpty() {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "update carries no fields")
	}
	savedAt, err := s.store.UpdateFields(ctx, id, p.ID, fields, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return time.Time{}, dErrors.New(dErrors.CodeNotFound, "resource not found or access denied")
		}
		return time.Time{}, s.recoverStoreErr(err, "failed to save resource")
	}
	if s.metrics != nil {
		s.metrics.AutosaveFlushes.Inc()
	}
	return savedAt, nil
}

// SetVisibility flips the public flag on an owned active resource.
func (s *Service) SetVisibility(ctx context.Context, p identity.Principal, id domain.ResourceID, public bool) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	rows, err := s.store.SetVisibility(ctx, id, p.ID, public, requestcontext.Now(ctx))
	if err != nil {
		return s.recoverStoreErr(err, "failed to change resource visibility")
	}
	if rows == 0 {
		return dErrors.New(dErrors.CodeNotFound, "resource not found or access denied")
	}
	if s.metrics != nil {
		s.metrics.VisibilityChanges.Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionVisibilityChanged,
		PrincipalID: p.ID.String(),
		Subject:     id.String(),
	})
	return nil
}

// recoverStoreErr translates infrastructure sentinels into coded errors at the
// service boundary. Transient store failures stay retryable for the caller.
func (s *Service) recoverStoreErr(err error, message string) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, message)
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, message)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, message)
	}
}
