// Package handler exposes the resource lifecycle over HTTP. Handlers stay
// thin: decode, resolve the principal, delegate, encode.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"podium/internal/autosave"
	"podium/internal/content/models"
	"podium/internal/content/service"
	"podium/internal/identity"
	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/httputil"
)

type Handler struct {
	svc      *service.Service
	autosave *autosave.Coordinator
}

func New(svc *service.Service, coordinator *autosave.Coordinator) *Handler {
	return &Handler{svc: svc, autosave: coordinator}
}

// Mount registers the resource routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/resources", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Route("/{resourceID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Patch("/", h.scheduleSave)
			r.Delete("/", h.softDelete)
			r.Post("/save", h.saveNow)
			r.Post("/duplicate", h.duplicate)
			r.Put("/visibility", h.setVisibility)
		})
	})
}

func principalFrom(r *http.Request) (identity.Principal, error) {
	p, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		return identity.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "no principal resolved for request")
	}
	return p, nil
}

func resourceIDFrom(r *http.Request) (domain.ResourceID, error) {
	id, err := domain.ParseResourceID(chi.URLParam(r, "resourceID"))
	if err != nil {
		return domain.ResourceID{}, dErrors.New(dErrors.CodeBadRequest, "malformed resource id")
	}
	return id, nil
}

type createRequest struct {
	Kind  models.Kind `json:"kind"`
	Title string      `json:"title"`
	Body  string      `json:"body"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	resource, err := h.svc.Create(r.Context(), p, req.Kind, req.Title, req.Body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resource)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	resources, err := h.svc.List(r.Context(), p, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"resources": resources})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := resourceIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resource, err := h.svc.Get(r.Context(), p, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resource)
}

// scheduleSave buffers a partial edit for a debounced write. 202 means the edit
// is accepted and will be persisted after the quiet window.
func (h *Handler) scheduleSave(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := resourceIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var fields models.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	if err := h.autosave.Schedule(p, id, fields); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// saveNow flushes the pending buffer, merged with any fields in the body,
// synchronously. This is also the retry path after a failed background flush.
func (h *Handler) saveNow(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := resourceIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	fields := models.Fields{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
			return
		}
	}
	savedAt, err := h.autosave.SaveNow(r.Context(), p, id, fields)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"saved_at": savedAt.UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := resourceIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	deleted, err := h.svc.SoftDelete(r.Context(), p, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) duplicate(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := resourceIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	newID, err := h.svc.Duplicate(r.Context(), p, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": newID.String()})
}

type visibilityRequest struct {
	Public *bool `json:"public"`
}

func (h *Handler) setVisibility(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := resourceIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Public == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "body must carry a public flag"))
		return
	}
	if err := h.svc.SetVisibility(r.Context(), p, id, *req.Public); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"public": *req.Public})
}
