package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Availability *AvailabilityHandler
	Events       *EventHandler
	Links        *LinkHandler
	EventTypes   *EventTypeHandler

	// Authenticate wraps every non-public route. Public link and RSVP
	// endpoints bypass it so invitees never need credentials.
	Authenticate func(http.Handler) http.Handler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	registerPublicRoutes(mux, cfg)

	protected := http.NewServeMux()
	registerProtectedRoutes(protected, cfg)

	var protectedHandler http.Handler = protected
	if cfg.Authenticate != nil {
		protectedHandler = cfg.Authenticate(protected)
	}
	for _, prefix := range []string{
		"/availability/", "/slots", "/events", "/events/",
		"/links", "/event-types", "/event-types/",
	} {
		mux.Handle(prefix, protectedHandler)
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func registerPublicRoutes(mux *http.ServeMux, cfg RouterConfig) {
	if cfg.Links != nil || cfg.Availability != nil || cfg.Events != nil {
		mux.HandleFunc("/public/links/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/public/links/")
			slug, action, _ := strings.Cut(rest, "/")
			if slug == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithSlug(r.Context(), slug))

			switch action {
			case "":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				if cfg.Links == nil {
					http.NotFound(w, r)
					return
				}
				cfg.Links.GetPublic(w, r)
			case "slots":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				if cfg.Availability == nil {
					http.NotFound(w, r)
					return
				}
				cfg.Availability.PublicSlots(w, r)
			case "bookings":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				if cfg.Events == nil {
					http.NotFound(w, r)
					return
				}
				cfg.Events.BookFromLink(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Events != nil {
		mux.HandleFunc("/rsvp/", func(w http.ResponseWriter, r *http.Request) {
			attendeeID := strings.TrimPrefix(r.URL.Path, "/rsvp/")
			if attendeeID == "" || strings.Contains(attendeeID, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet && r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
				return
			}
			r = r.WithContext(ContextWithAttendeeID(r.Context(), attendeeID))
			cfg.Events.RespondRSVP(w, r)
		})
	}
}

func registerProtectedRoutes(mux *http.ServeMux, cfg RouterConfig) {
	if cfg.Availability != nil {
		mux.HandleFunc("/availability/rules", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Availability.ListRules(w, r)
			case http.MethodPut:
				cfg.Availability.SetRules(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		})
		mux.HandleFunc("/availability/overrides", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Availability.ListOverrides(w, r)
			case http.MethodPost:
				cfg.Availability.CreateOverride(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/availability/overrides/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/availability/overrides/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			r = r.WithContext(ContextWithOverrideID(r.Context(), id))
			cfg.Availability.DeleteOverride(w, r)
		})
		mux.HandleFunc("/slots", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Availability.OwnerSlots(w, r)
		})
	}

	if cfg.Events != nil {
		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Events.List(w, r)
			case http.MethodPost:
				cfg.Events.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
			routeEvent(cfg.Events, w, r)
		})
	}

	if cfg.Links != nil {
		mux.HandleFunc("/links", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Links.List(w, r)
			case http.MethodPost:
				cfg.Links.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
	}

	if cfg.EventTypes != nil {
		mux.HandleFunc("/event-types", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.EventTypes.List(w, r)
			case http.MethodPost:
				cfg.EventTypes.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/event-types/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/event-types/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithEventTypeID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.EventTypes.Get(w, r)
			case http.MethodDelete:
				cfg.EventTypes.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
	}
}

// routeEvent dispatches /events/{id} and its nested resources.
func routeEvent(h *EventHandler, w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/events/")
	eventID, tail, _ := strings.Cut(rest, "/")
	if eventID == "" {
		http.NotFound(w, r)
		return
	}
	r = r.WithContext(ContextWithEventID(r.Context(), eventID))

	switch {
	case tail == "":
		switch r.Method {
		case http.MethodGet:
			h.Get(w, r)
		case http.MethodPatch:
			h.Patch(w, r)
		case http.MethodDelete:
			h.Delete(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case tail == "reschedule":
		// Accepted as both POST and PATCH; clients treat a reschedule either
		// as an action or as a partial update of the interval.
		if r.Method != http.MethodPost && r.Method != http.MethodPatch {
			methodNotAllowed(w, http.MethodPost, http.MethodPatch)
			return
		}
		h.Reschedule(w, r)
	case tail == "cancel":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.Cancel(w, r)
	case tail == "reminders":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.SendReminder(w, r)
	case tail == "attendees":
		switch r.Method {
		case http.MethodGet:
			h.ListAttendees(w, r)
		case http.MethodPost:
			h.AddAttendee(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case strings.HasPrefix(tail, "attendees/"):
		attendeeID := strings.TrimPrefix(tail, "attendees/")
		if attendeeID == "" || strings.Contains(attendeeID, "/") {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		r = r.WithContext(ContextWithAttendeeID(r.Context(), attendeeID))
		h.RemoveAttendee(w, r)
	default:
		http.NotFound(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
