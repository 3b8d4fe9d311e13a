package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/portal-scheduler/internal/application"
	"github.com/example/portal-scheduler/internal/persistence"
)

type eventTypeService interface {
	CreateEventType(ctx context.Context, principal application.Principal, input application.EventTypeInput) (persistence.EventType, error)
	GetEventType(ctx context.Context, principal application.Principal, id string) (persistence.EventType, error)
	ListEventTypes(ctx context.Context, principal application.Principal) ([]persistence.EventType, error)
	DeleteEventType(ctx context.Context, principal application.Principal, id string) error
}

type EventTypeHandler struct {
	service   eventTypeService
	responder responder
}

func NewEventTypeHandler(service eventTypeService, logger *slog.Logger) *EventTypeHandler {
	return &EventTypeHandler{service: service, responder: newResponder(logger)}
}

func (h *EventTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	eventType, err := h.service.CreateEventType(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventTypeDTO(eventType))
}

func (h *EventTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	types, err := h.service.ListEventTypes(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"event_types": toEventTypeDTOs(types)})
}

func (h *EventTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := EventTypeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTypeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	eventType, err := h.service.GetEventType(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventTypeDTO(eventType))
}

func (h *EventTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := EventTypeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTypeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteEventType(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
