package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"podium/internal/content/models"
	"podium/internal/content/store"
	"podium/internal/identity"
	"podium/internal/registration"
	"podium/pkg/domain"
	"podium/pkg/testutil"
)

type fixture struct {
	router   http.Handler
	host     identity.Principal
	attendee identity.Principal
	eventID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	resources := store.NewInMemory()
	svc := registration.NewService(registration.NewInMemoryStore(), resources, log)

	r := chi.NewRouter()
	New(svc).Mount(r)

	host, err := identity.NewAuthenticated(domain.NewPrincipalID())
	require.NoError(t, err)
	attendee, err := identity.NewAuthenticated(domain.NewPrincipalID())
	require.NoError(t, err)

	event, err := models.New(host.ID, models.KindEvent, "Launch party", "", time.Now())
	require.NoError(t, err)
	event.IsPublic = true
	require.NoError(t, resources.Create(context.Background(), event))

	return &fixture{router: r, host: host, attendee: attendee, eventID: event.ID.String()}
}

func TestRegisterTwiceStaysIdempotent(t *testing.T) {
	f := newFixture(t)
	path := "/events/" + f.eventID + "/registration"

	rr := testutil.DoRequest(f.router, testutil.AsPrincipal(testutil.NewRequest(t, http.MethodPut, path), f.attendee))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	testutil.AssertJSONContains(t, rr, "outcome", "confirmed")

	rr = testutil.DoRequest(f.router, testutil.AsPrincipal(testutil.NewRequest(t, http.MethodPut, path), f.attendee))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "outcome", "already_registered")
}

func TestStatusReflectsCancellation(t *testing.T) {
	f := newFixture(t)
	path := "/events/" + f.eventID + "/registration"

	rr := testutil.DoRequest(f.router, testutil.AsPrincipal(testutil.NewRequest(t, http.MethodPut, path), f.attendee))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = testutil.DoRequest(f.router, testutil.AsPrincipal(testutil.NewRequest(t, http.MethodDelete, path), f.attendee))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(f.router, testutil.AsPrincipal(testutil.NewRequest(t, http.MethodGet, path), f.attendee))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "cancelled")
}

func TestStatusForUnregisteredPrincipal(t *testing.T) {
	f := newFixture(t)
	path := "/events/" + f.eventID + "/registration"

	rr := testutil.DoRequest(f.router, testutil.AsPrincipal(testutil.NewRequest(t, http.MethodGet, path), f.attendee))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestRegisterUnknownEvent(t *testing.T) {
	f := newFixture(t)
	path := "/events/" + domain.NewEventID().String() + "/registration"

	rr := testutil.DoRequest(f.router, testutil.AsPrincipal(testutil.NewRequest(t, http.MethodPut, path), f.attendee))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestMalformedEventID(t *testing.T) {
	f := newFixture(t)
	rr := testutil.DoRequest(f.router, testutil.AsPrincipal(testutil.NewRequest(t, http.MethodPut, "/events/oops/registration"), f.attendee))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestMissingPrincipalRejected(t *testing.T) {
	f := newFixture(t)
	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodPut, "/events/"+f.eventID+"/registration"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}
