package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/portal-scheduler/internal/application"
	"github.com/example/portal-scheduler/internal/persistence"
)

type eventService interface {
	Book(ctx context.Context, principal application.Principal, input application.BookEventInput) (persistence.Event, error)
	BookFromLink(ctx context.Context, input application.BookFromLinkInput) (persistence.Event, error)
	Reschedule(ctx context.Context, principal application.Principal, eventID string, newStart time.Time) (persistence.Event, error)
	Cancel(ctx context.Context, principal application.Principal, eventID string) (persistence.Event, error)
	UpdateEvent(ctx context.Context, principal application.Principal, eventID string, patch application.EventPatch) (persistence.Event, error)
	GetEvent(ctx context.Context, principal application.Principal, eventID string) (persistence.Event, error)
	ListEvents(ctx context.Context, principal application.Principal, query application.ListEventsQuery) ([]persistence.Event, error)
	AddAttendee(ctx context.Context, principal application.Principal, eventID string, input application.AttendeeInput) (persistence.Attendee, error)
	ListAttendees(ctx context.Context, principal application.Principal, eventID string) ([]persistence.Attendee, error)
	RemoveAttendee(ctx context.Context, principal application.Principal, eventID, attendeeID string) error
	RespondRSVP(ctx context.Context, attendeeID, token, status string) (persistence.Attendee, error)
	SendReminder(ctx context.Context, principal application.Principal, eventID string) error
	DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error
}

type EventHandler struct {
	service   eventService
	responder responder
}

func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, responder: newResponder(logger)}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.Book(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(event))
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	values := r.URL.Query()

	query := application.ListEventsQuery{}
	if raw := values.Get("starts_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		query.StartsAfter = &t
	}
	if raw := values.Get("ends_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		query.EndsBefore = &t
	}
	if raw := values.Get("status"); raw != "" {
		query.Statuses = strings.Split(raw, ",")
	}

	events, err := h.service.ListEvents(r.Context(), principal, query)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"events": toEventDTOs(events)})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.GetEvent(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event))
}

func (h *EventHandler) Patch(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req patchEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.UpdateEvent(r.Context(), principal, eventID, req.toPatch())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event))
}

func (h *EventHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.Reschedule(r.Context(), principal, eventID, req.Start)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event))
}

func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	event, err := h.service.Cancel(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EventHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.SendReminder(r.Context(), principal, eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *EventHandler) AddAttendee(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req attendeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	attendee, err := h.service.AddAttendee(r.Context(), principal, eventID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAttendeeDTO(attendee))
}

func (h *EventHandler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	attendees, err := h.service.ListAttendees(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"attendees": toAttendeeDTOs(attendees)})
}

func (h *EventHandler) RemoveAttendee(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}
	attendeeID, ok := AttendeeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(attendeeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAttendeeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.RemoveAttendee(r.Context(), principal, eventID, attendeeID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// BookFromLink handles the anonymous booking POST for a scheduling link.
func (h *EventHandler) BookFromLink(w http.ResponseWriter, r *http.Request) {
	slug, ok := SlugFromContext(r.Context())
	if !ok || strings.TrimSpace(slug) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSlug)
		return
	}

	var req bookFromLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.service.BookFromLink(r.Context(), application.BookFromLinkInput{
		Slug:     slug,
		Start:    req.Start,
		Attendee: req.Attendee.toInput(),
		Notes:    req.Notes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(event))
}

// RespondRSVP records an attendee response. Accepts both the JSON POST from
// clients and the GET with query parameters used by mail links.
func (h *EventHandler) RespondRSVP(w http.ResponseWriter, r *http.Request) {
	attendeeID, ok := AttendeeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(attendeeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAttendeeID)
		return
	}

	var req rsvpRequest
	if r.Method == http.MethodGet {
		values := r.URL.Query()
		req.Token = values.Get("token")
		req.Status = values.Get("status")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
	}

	attendee, err := h.service.RespondRSVP(r.Context(), attendeeID, req.Token, req.Status)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAttendeeDTO(attendee))
}
