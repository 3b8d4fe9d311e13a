package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/portal-scheduler/internal/application"
	"github.com/example/portal-scheduler/internal/config"
	httptransport "github.com/example/portal-scheduler/internal/http"
	"github.com/example/portal-scheduler/internal/identity"
	"github.com/example/portal-scheduler/internal/logging"
	"github.com/example/portal-scheduler/internal/notify"
	"github.com/example/portal-scheduler/internal/persistence/sqlite"
	"github.com/example/portal-scheduler/internal/rsvp"
)

const mailFromAddress = "scheduler@portal.example.com"

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	app, err := buildApp(cfg, logger)
	if err != nil {
		logger.Error("failed to assemble application", "error", err)
		os.Exit(1)
	}
	defer app.shutdown(logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// app bundles the wired HTTP handler with the background machinery that has
// to be stopped on exit.
type app struct {
	handler    http.Handler
	dispatcher *notify.Dispatcher
	purger     *cron.Cron
	pool       *sqlite.ConnectionPool
}

func buildApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := pool.Migrate(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	keyring, err := identity.ParseKeyring(cfg.APIKeys)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse API keyring: %w", err)
	}

	tokens := rsvp.NewService([]byte(cfg.RSVPSecret))
	dispatcher := notify.NewDispatcher(logMailer{logger: logger}, tokens, cfg.BaseURL, mailFromAddress, cfg.MailQueueSize, logger)
	dispatcher.Start()

	idGenerator := uuid.NewString
	now := time.Now

	availabilityRepo := sqlite.NewAvailabilityRepository(pool)
	eventRepo := sqlite.NewEventRepository(pool)
	attendeeRepo := sqlite.NewAttendeeRepository(pool)
	linkRepo := sqlite.NewLinkRepository(pool)
	eventTypeRepo := sqlite.NewEventTypeRepository(pool)

	availabilityService := application.NewAvailabilityService(availabilityRepo, eventRepo, linkRepo, eventTypeRepo, idGenerator, now, logger)
	eventService := application.NewEventService(eventRepo, attendeeRepo, linkRepo, eventTypeRepo, availabilityRepo, tokens, dispatcher, idGenerator, now, logger)
	linkService := application.NewLinkService(linkRepo, eventTypeRepo, idGenerator, now, logger)
	eventTypeService := application.NewEventTypeService(eventTypeRepo, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Availability: httptransport.NewAvailabilityHandler(availabilityService, logger),
		Events:       httptransport.NewEventHandler(eventService, logger),
		Links:        httptransport.NewLinkHandler(linkService, logger),
		EventTypes:   httptransport.NewEventTypeHandler(eventTypeService, logger),
		Authenticate: httptransport.RequireIdentity(keyring, logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	purger := cron.New()
	if _, err := purger.AddFunc(cfg.LinkPurgeSpec, func() {
		purged, err := linkService.PurgeExpiredLinks(context.Background())
		if err != nil {
			logger.Error("link purge failed", "error", err)
			return
		}
		if purged > 0 {
			logger.Info("purged expired scheduling links", "count", purged)
		}
	}); err != nil {
		dispatcher.Stop()
		pool.Close()
		return nil, fmt.Errorf("schedule link purge: %w", err)
	}
	purger.Start()

	return &app{
		handler:    router,
		dispatcher: dispatcher,
		purger:     purger,
		pool:       pool,
	}, nil
}

func (a *app) shutdown(logger *slog.Logger) {
	if a == nil {
		return
	}
	if a.purger != nil {
		<-a.purger.Stop().Done()
	}
	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}
}

// logMailer records outbound mail instead of delivering it. A real SMTP
// sender can replace it without touching the dispatcher.
type logMailer struct {
	logger *slog.Logger
}

func (m logMailer) Send(msg notify.Message) error {
	m.logger.Info("outbound mail",
		"to", msg.To,
		"subject", msg.Subject,
		"ics_bytes", len(msg.ICS),
	)
	return nil
}
