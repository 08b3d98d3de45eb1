package command

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"podium/internal/autosave"
	"podium/internal/content/models"
	"podium/internal/content/service"
	"podium/internal/content/store"
	"podium/internal/identity"
	"podium/internal/registration"
	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
)

type fixture struct {
	dispatcher *Dispatcher
	content    *service.Service
	principal  identity.Principal
	ctx        context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	resources := store.NewInMemory()
	contentSvc := service.New(resources, log)
	registrationSvc := registration.NewService(registration.NewInMemoryStore(), resources, log)
	coordinator := autosave.New(contentSvc.SaveDraft, log, autosave.WithWindow(10*time.Millisecond))
	t.Cleanup(coordinator.Close)

	p, err := identity.NewAuthenticated(domain.NewPrincipalID())
	require.NoError(t, err)
	return &fixture{
		dispatcher: NewDispatcher(contentSvc, registrationSvc, coordinator, log),
		content:    contentSvc,
		principal:  p,
		ctx:        context.Background(),
	}
}

func (f *fixture) createResource(t *testing.T, kind models.Kind, public bool) *models.Resource {
	t.Helper()
	r, err := f.content.Create(f.ctx, f.principal, kind, "thing", "body")
	require.NoError(t, err)
	if public {
		require.NoError(t, f.content.SetVisibility(f.ctx, f.principal, r.ID, true))
	}
	return r
}

func TestDispatchSoftDelete(t *testing.T) {
	f := newFixture(t)
	r := f.createResource(t, models.KindPresentation, false)

	res, err := f.dispatcher.Dispatch(f.ctx, SoftDelete{Principal: f.principal, Resource: r.ID})
	require.NoError(t, err)
	require.True(t, res.Deleted)

	res, err = f.dispatcher.Dispatch(f.ctx, SoftDelete{Principal: f.principal, Resource: r.ID})
	require.NoError(t, err)
	require.False(t, res.Deleted)
}

func TestDispatchDuplicate(t *testing.T) {
	f := newFixture(t)
	r := f.createResource(t, models.KindPresentation, false)

	res, err := f.dispatcher.Dispatch(f.ctx, Duplicate{Principal: f.principal, Source: r.ID})
	require.NoError(t, err)
	require.False(t, res.NewResource.IsZero())
	require.NotEqual(t, r.ID, res.NewResource)
}

func TestDispatchSaveNow(t *testing.T) {
	f := newFixture(t)
	r := f.createResource(t, models.KindPresentation, false)

	title := "thing v2"
	res, err := f.dispatcher.Dispatch(f.ctx, SaveNow{
		Principal: f.principal,
		Resource:  r.ID,
		Fields:    models.Fields{Title: &title},
	})
	require.NoError(t, err)
	require.False(t, res.SavedAt.IsZero())

	got, err := f.content.Get(f.ctx, f.principal, r.ID)
	require.NoError(t, err)
	require.Equal(t, "thing v2", got.Title)
}

func TestDispatchRegisterAndCancel(t *testing.T) {
	f := newFixture(t)
	event := f.createResource(t, models.KindEvent, true)
	eventID := domain.EventID(event.ID)

	res, err := f.dispatcher.Dispatch(f.ctx, Register{Principal: f.principal, Event: eventID})
	require.NoError(t, err)
	require.Equal(t, string(registration.OutcomeConfirmed), res.Outcome)

	res, err = f.dispatcher.Dispatch(f.ctx, Register{Principal: f.principal, Event: eventID})
	require.NoError(t, err)
	require.Equal(t, string(registration.OutcomeAlreadyRegistered), res.Outcome)

	_, err = f.dispatcher.Dispatch(f.ctx, CancelRegistration{Principal: f.principal, Event: eventID})
	require.NoError(t, err)
}

type bogusCommand struct{}

func (bogusCommand) isCommand() {}

func TestDispatchUnknownCommand(t *testing.T) {
	f := newFixture(t)
	_, err := f.dispatcher.Dispatch(f.ctx, bogusCommand{})
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
