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

type linkService interface {
	CreateLink(ctx context.Context, principal application.Principal, input application.LinkInput) (persistence.Link, error)
	GetLinkBySlug(ctx context.Context, slug string) (persistence.Link, error)
	ListLinks(ctx context.Context, principal application.Principal) ([]persistence.Link, error)
}

type LinkHandler struct {
	service   linkService
	responder responder
}

func NewLinkHandler(service linkService, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{service: service, responder: newResponder(logger)}
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	link, err := h.service.CreateLink(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toLinkDTO(link))
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	links, err := h.service.ListLinks(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"links": toLinkDTOs(links)})
}

// GetPublic resolves the anonymous view of a link by slug.
func (h *LinkHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	slug, ok := SlugFromContext(r.Context())
	if !ok || strings.TrimSpace(slug) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSlug)
		return
	}

	link, err := h.service.GetLinkBySlug(r.Context(), slug)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPublicLinkDTO(link))
}
