package http

import (
	"context"
	"log/slog"

	"github.com/example/portal-scheduler/internal/application"
	"github.com/example/portal-scheduler/internal/logging"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	eventIDContextKey    contextKey = "event_id"
	attendeeIDContextKey contextKey = "attendee_id"
	overrideIDContextKey contextKey = "override_id"
	slugContextKey       contextKey = "slug"
	typeIDContextKey     contextKey = "event_type_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithEventID injects the event identifier resolved from the request path.
func ContextWithEventID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, eventIDContextKey, id)
}

// EventIDFromContext extracts an event identifier previously associated with the context.
func EventIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(eventIDContextKey).(string)
	return id, ok
}

// ContextWithAttendeeID injects the attendee identifier resolved from the request path.
func ContextWithAttendeeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, attendeeIDContextKey, id)
}

// AttendeeIDFromContext extracts an attendee identifier previously associated with the context.
func AttendeeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(attendeeIDContextKey).(string)
	return id, ok
}

// ContextWithOverrideID injects the override identifier resolved from the request path.
func ContextWithOverrideID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, overrideIDContextKey, id)
}

// OverrideIDFromContext extracts an override identifier previously associated with the context.
func OverrideIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(overrideIDContextKey).(string)
	return id, ok
}

// ContextWithSlug injects the link slug resolved from the request path.
func ContextWithSlug(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, slugContextKey, slug)
}

// SlugFromContext extracts a link slug previously associated with the context.
func SlugFromContext(ctx context.Context) (string, bool) {
	slug, ok := ctx.Value(slugContextKey).(string)
	return slug, ok
}

// ContextWithEventTypeID injects the event type identifier resolved from the request path.
func ContextWithEventTypeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, typeIDContextKey, id)
}

// EventTypeIDFromContext extracts an event type identifier previously associated with the context.
func EventTypeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(typeIDContextKey).(string)
	return id, ok
}

// LoggerFromContext returns the request-scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
