package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/portal-scheduler/internal/application"
	"github.com/example/portal-scheduler/internal/persistence"
)

type availabilityService interface {
	SetWeeklyRules(ctx context.Context, principal application.Principal, inputs []application.WeeklyRuleInput) ([]persistence.WeeklyRule, error)
	ListWeeklyRules(ctx context.Context, principal application.Principal) ([]persistence.WeeklyRule, error)
	CreateOverride(ctx context.Context, principal application.Principal, input application.OverrideInput) (persistence.Override, error)
	ListOverrides(ctx context.Context, principal application.Principal, fromDate, toDate string) ([]persistence.Override, error)
	DeleteOverride(ctx context.Context, principal application.Principal, id string) error
	QuerySlots(ctx context.Context, query application.SlotQuery) ([]application.Slot, string, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, responder: newResponder(logger)}
}

func (h *AvailabilityHandler) SetRules(w http.ResponseWriter, r *http.Request) {
	var req setRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	rules, err := h.service.SetWeeklyRules(r.Context(), principal, req.toInputs())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"rules": toRuleDTOs(rules)})
}

func (h *AvailabilityHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	rules, err := h.service.ListWeeklyRules(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"rules": toRuleDTOs(rules)})
}

func (h *AvailabilityHandler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	override, err := h.service.CreateOverride(r.Context(), principal, application.OverrideInput{
		Date:         req.Date,
		Available:    req.Available,
		StartMinutes: req.StartMinutes,
		EndMinutes:   req.EndMinutes,
		Timezone:     req.Timezone,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toOverrideDTO(override))
}

func (h *AvailabilityHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	overrides, err := h.service.ListOverrides(r.Context(), principal, query.Get("from"), query.Get("to"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"overrides": toOverrideDTOs(overrides)})
}

func (h *AvailabilityHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := OverrideIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOverrideID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteOverride(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// OwnerSlots answers the authenticated owner's slot query.
func (h *AvailabilityHandler) OwnerSlots(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	query := slotQueryFromURL(r)
	query.OwnerID = principal.UserID

	slots, tzName, err := h.service.QuerySlots(r.Context(), query)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSlotsResponse(slots, tzName))
}

// PublicSlots answers the anonymous slot query for a scheduling link.
func (h *AvailabilityHandler) PublicSlots(w http.ResponseWriter, r *http.Request) {
	slug, ok := SlugFromContext(r.Context())
	if !ok || strings.TrimSpace(slug) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSlug)
		return
	}
	query := slotQueryFromURL(r)
	query.Slug = slug

	slots, tzName, err := h.service.QuerySlots(r.Context(), query)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSlotsResponse(slots, tzName))
}

func slotQueryFromURL(r *http.Request) application.SlotQuery {
	values := r.URL.Query()
	query := application.SlotQuery{
		EventTypeID: values.Get("event_type_id"),
		FromDate:    values.Get("from"),
		ToDate:      values.Get("to"),
		Timezone:    values.Get("timezone"),
	}
	if raw := values.Get("duration_minutes"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil {
			query.DurationMinutes = minutes
		}
	}
	return query
}
