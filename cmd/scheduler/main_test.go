package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/portal-scheduler/internal/config"
	"github.com/example/portal-scheduler/internal/identity"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	hash, err := identity.HashAPIKey("raw-key", identity.DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("hash api key: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(t.TempDir(), "scheduler.db"))
	return config.Config{
		HTTPPort:      8080,
		SQLiteDSN:     dsn,
		RSVPSecret:    "test-secret",
		APIKeys:       "owner-1=" + hash,
		BaseURL:       "http://localhost:8080",
		MailQueueSize: 8,
		LinkPurgeSpec: "@hourly",
	}
}

func TestBuildApp_WiresProtectedAndPublicRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := buildApp(testConfig(t), logger)
	if err != nil {
		t.Fatalf("buildApp failed: %v", err)
	}
	t.Cleanup(func() { app.shutdown(logger) })

	t.Run("protected route rejects missing credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		recorder := httptest.NewRecorder()
		app.handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("valid API key reaches the service layer", func(t *testing.T) {
		body := strings.NewReader(`{"rules":[{"weekday":1,"start_minutes":540,"end_minutes":1020,"timezone":"UTC"}]}`)
		req := httptest.NewRequest(http.MethodPut, "/availability/rules", body)
		req.Header.Set("Authorization", "Bearer owner-1.raw-key")
		recorder := httptest.NewRecorder()
		app.handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if !strings.Contains(recorder.Body.String(), `"weekday":1`) {
			t.Fatalf("expected persisted rule in response, got %s", recorder.Body.String())
		}
	})

	t.Run("public link lookup needs no credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/public/links/unknown-slug", nil)
		recorder := httptest.NewRecorder()
		app.handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for unknown slug, got %d", recorder.Code)
		}
	})
}

func TestBuildApp_RejectsMalformedKeyring(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)
	cfg.APIKeys = "owner-1=plaintext"

	if _, err := buildApp(cfg, logger); err == nil {
		t.Fatal("expected buildApp to fail on malformed keyring")
	}
}
