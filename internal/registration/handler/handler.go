// Package handler exposes event registration over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"podium/internal/identity"
	"podium/internal/registration"
	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/httputil"
)

type Handler struct {
	svc *registration.Service
}

func New(svc *registration.Service) *Handler {
	return &Handler{svc: svc}
}

// Mount registers the registration routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/events/{eventID}/registration", func(r chi.Router) {
		r.Put("/", h.register)
		r.Get("/", h.status)
		r.Delete("/", h.cancel)
	})
}

func principalFrom(r *http.Request) (identity.Principal, error) {
	p, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		return identity.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "no principal resolved for request")
	}
	return p, nil
}

func eventIDFrom(r *http.Request) (domain.EventID, error) {
	id, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		return domain.EventID{}, dErrors.New(dErrors.CodeBadRequest, "malformed event id")
	}
	return id, nil
}

// register is a PUT because it is idempotent: repeating it converges on the
// same single registration row.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	eventID, err := eventIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	outcome, err := h.svc.Register(r.Context(), p, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusCreated
	if outcome == registration.OutcomeAlreadyRegistered {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, map[string]string{"outcome": string(outcome)})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	eventID, err := eventIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reg, err := h.svc.Status(r.Context(), p, eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	eventID, err := eventIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Cancel(r.Context(), p, eventID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
