// Package handler exposes the typed command dispatch over HTTP, giving
// non-REST callers (batch tooling, admin scripts) one mutation endpoint.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"podium/internal/command"
	"podium/internal/content/models"
	"podium/internal/identity"
	"podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/httputil"
)

type Handler struct {
	dispatcher *command.Dispatcher
}

func New(dispatcher *command.Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// Mount registers the command route on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/commands", h.dispatch)
}

// envelope is the wire form of a command. Type selects the command; the id and
// fields members are read per type.
type envelope struct {
	Type       string         `json:"type"`
	ResourceID string         `json:"resource_id,omitempty"`
	EventID    string         `json:"event_id,omitempty"`
	Fields     *models.Fields `json:"fields,omitempty"`
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	p, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no principal resolved for request"))
		return
	}
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}

	cmd, err := env.toCommand(p)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.dispatcher.Dispatch(r.Context(), cmd)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeResult(w, cmd, result)
}

func (env envelope) toCommand(p identity.Principal) (command.Command, error) {
	switch env.Type {
	case "soft_delete":
		id, err := env.resourceID()
		if err != nil {
			return nil, err
		}
		return command.SoftDelete{Principal: p, Resource: id}, nil
	case "duplicate":
		id, err := env.resourceID()
		if err != nil {
			return nil, err
		}
		return command.Duplicate{Principal: p, Source: id}, nil
	case "schedule_save":
		id, err := env.resourceID()
		if err != nil {
			return nil, err
		}
		return command.ScheduleSave{Principal: p, Resource: id, Fields: env.fields()}, nil
	case "save_now":
		id, err := env.resourceID()
		if err != nil {
			return nil, err
		}
		return command.SaveNow{Principal: p, Resource: id, Fields: env.fields()}, nil
	case "register":
		id, err := env.eventID()
		if err != nil {
			return nil, err
		}
		return command.Register{Principal: p, Event: id}, nil
	case "cancel_registration":
		id, err := env.eventID()
		if err != nil {
			return nil, err
		}
		return command.CancelRegistration{Principal: p, Event: id}, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown command type %q", env.Type)
	}
}

func (env envelope) resourceID() (domain.ResourceID, error) {
	id, err := domain.ParseResourceID(env.ResourceID)
	if err != nil {
		return domain.ResourceID{}, dErrors.New(dErrors.CodeBadRequest, "malformed resource id")
	}
	return id, nil
}

func (env envelope) eventID() (domain.EventID, error) {
	id, err := domain.ParseEventID(env.EventID)
	if err != nil {
		return domain.EventID{}, dErrors.New(dErrors.CodeBadRequest, "malformed event id")
	}
	return id, nil
}

func (env envelope) fields() models.Fields {
	if env.Fields == nil {
		return models.Fields{}
	}
	return *env.Fields
}

func writeResult(w http.ResponseWriter, cmd command.Command, result command.Result) {
	switch cmd.(type) {
	case command.SoftDelete:
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": result.Deleted})
	case command.Duplicate:
		httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": result.NewResource.String()})
	case command.ScheduleSave:
		httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
	case command.SaveNow:
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"saved_at": result.SavedAt.UTC().Format(time.RFC3339Nano),
		})
	case command.Register:
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"outcome": result.Outcome})
	case command.CancelRegistration:
		w.WriteHeader(http.StatusNoContent)
	}
}
