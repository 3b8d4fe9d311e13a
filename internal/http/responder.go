package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/portal-scheduler/internal/application"
)

var (
	errBadRequestBody    = errors.New("request body is not valid JSON")
	errInvalidEventID    = errors.New("an event id is required")
	errInvalidAttendeeID = errors.New("an attendee id is required")
	errInvalidOverrideID = errors.New("an override id is required")
	errInvalidSlug       = errors.New("a link slug is required")
	errInvalidTypeID     = errors.New("an event type id is required")
	errMissingAPIKey     = errors.New("an API key is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors onto HTTP statuses. Policy
// rejections carry a machine-readable reason code so booking clients can
// distinguish a closed link from a too-soon start.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "FORBIDDEN",
			Message:   "You are not allowed to perform this operation.",
		})
		return
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "The requested resource was not found."})
		return
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "A resource with the same identity already exists.",
		})
		return
	case errors.Is(err, application.ErrSlotUnavailable):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SLOT_UNAVAILABLE",
			Message:   "The requested time is no longer available.",
		})
		return
	case errors.Is(err, application.ErrInvalidToken):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "INVALID_TOKEN",
			Message:   "The response token is invalid for this invitation.",
		})
		return
	}

	var pErr *application.PolicyError
	if errors.As(err, &pErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "POLICY_" + strings.ToUpper(pErr.Reason),
			Message:   policyMessage(pErr.Reason),
		})
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "The request contains invalid fields.",
			Errors:  vErr.FieldErrors,
		})
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "An internal error occurred."})
}

func policyMessage(reason string) string {
	switch reason {
	case application.PolicyReasonLeadTime:
		return "The requested start does not meet the minimum notice for this link."
	case application.PolicyReasonHorizon:
		return "The requested start is beyond the booking horizon for this link."
	case application.PolicyReasonLinkExpired:
		return "This scheduling link has expired."
	case application.PolicyReasonLinkExhausted:
		return "This scheduling link has reached its booking limit."
	default:
		return "The booking violates a scheduling policy."
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
