package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when optional variables are missing", func(t *testing.T) {
		unset := []string{
			"SCHEDULER_HTTP_PORT",
			"SCHEDULER_SQLITE_DSN",
			"SCHEDULER_BASE_URL",
			"SCHEDULER_MAIL_QUEUE_SIZE",
			"SCHEDULER_LINK_PURGE_SPEC",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		t.Setenv("SCHEDULER_RSVP_SECRET", "super-secret")
		t.Setenv("SCHEDULER_API_KEYS", "owner-1=$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:scheduler.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.MailQueueSize != 64 {
			t.Fatalf("expected default mail queue size 64, got %d", cfg.MailQueueSize)
		}
		if cfg.LinkPurgeSpec != "@hourly" {
			t.Fatalf("expected default purge spec @hourly, got %q", cfg.LinkPurgeSpec)
		}
		if cfg.RSVPSecret != "super-secret" {
			t.Fatalf("expected RSVP secret to be set, got %q", cfg.RSVPSecret)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		for _, key := range []string{
			"SCHEDULER_RSVP_SECRET",
			"SCHEDULER_API_KEYS",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: SCHEDULER_RSVP_SECRET, SCHEDULER_API_KEYS"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses numeric fields and overrides", func(t *testing.T) {
		t.Setenv("SCHEDULER_RSVP_SECRET", "secret-value")
		t.Setenv("SCHEDULER_API_KEYS", "owner-1=hash")
		t.Setenv("SCHEDULER_HTTP_PORT", "9090")
		t.Setenv("SCHEDULER_SQLITE_DSN", "file:/tmp/scheduler.db")
		t.Setenv("SCHEDULER_BASE_URL", "https://book.example.com/")
		t.Setenv("SCHEDULER_MAIL_QUEUE_SIZE", "128")
		t.Setenv("SCHEDULER_LINK_PURGE_SPEC", "0 * * * *")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/scheduler.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.BaseURL != "https://book.example.com" {
			t.Fatalf("expected trailing slash trimmed from base URL, got %q", cfg.BaseURL)
		}
		if cfg.MailQueueSize != 128 {
			t.Fatalf("expected mail queue size 128, got %d", cfg.MailQueueSize)
		}
		if cfg.LinkPurgeSpec != "0 * * * *" {
			t.Fatalf("expected purge spec override, got %q", cfg.LinkPurgeSpec)
		}
	})

	t.Run("accumulates invalid numeric values", func(t *testing.T) {
		t.Setenv("SCHEDULER_RSVP_SECRET", "secret-value")
		t.Setenv("SCHEDULER_API_KEYS", "owner-1=hash")
		t.Setenv("SCHEDULER_HTTP_PORT", "not-a-port")
		t.Setenv("SCHEDULER_MAIL_QUEUE_SIZE", "-3")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		if !strings.Contains(err.Error(), "SCHEDULER_HTTP_PORT") || !strings.Contains(err.Error(), "SCHEDULER_MAIL_QUEUE_SIZE") {
			t.Fatalf("expected both invalid variables reported, got %q", err.Error())
		}
	})
}
