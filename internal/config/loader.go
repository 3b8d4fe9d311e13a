package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	RSVPSecret    string
	APIKeys       string
	BaseURL       string
	MailQueueSize int
	LinkPurgeSpec string
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values. Missing and invalid entries are accumulated so operators
// see every problem in one pass.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:scheduler.db?_foreign_keys=on",
		BaseURL:       "http://localhost:8080",
		MailQueueSize: 64,
		LinkPurgeSpec: "@hourly",
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("SCHEDULER_RSVP_SECRET")); secret == "" {
		missing = append(missing, "SCHEDULER_RSVP_SECRET")
	} else {
		cfg.RSVPSecret = secret
	}

	if keys := strings.TrimSpace(os.Getenv("SCHEDULER_API_KEYS")); keys == "" {
		missing = append(missing, "SCHEDULER_API_KEYS")
	} else {
		cfg.APIKeys = keys
	}

	if baseURL := strings.TrimSpace(os.Getenv("SCHEDULER_BASE_URL")); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if sizeValue := strings.TrimSpace(os.Getenv("SCHEDULER_MAIL_QUEUE_SIZE")); sizeValue != "" {
		size, err := strconv.Atoi(sizeValue)
		if err != nil || size <= 0 {
			invalid = append(invalid, "SCHEDULER_MAIL_QUEUE_SIZE")
		} else {
			cfg.MailQueueSize = size
		}
	}

	if spec := strings.TrimSpace(os.Getenv("SCHEDULER_LINK_PURGE_SPEC")); spec != "" {
		cfg.LinkPurgeSpec = spec
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
