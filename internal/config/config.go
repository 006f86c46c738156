package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backends accepted by DATA_BACKEND.
var Backends = []string{"memory", "sqlite", "sheets", "remote"}

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend string
	DataDir     string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// InstanceID tags change events this process publishes.
	InstanceID   string

	// Google Sheets
	GoogleSpreadsheetID        string
	GoogleBrokersSheetName     string
	GoogleTotalValuesSheetName string
	GoogleServiceAccountJSON   string
	GoogleServiceAccountFile   string

	// Remote API
	RemoteAPIURL  string
	RemoteTimeout time.Duration

	// Snapshot cache
	SnapshotTTL time.Duration
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
		DataDir:     getEnv("DATA_DIR", "data"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/yield.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "yield"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "total_value_changes"),
		InstanceID:   getEnv("INSTANCE_ID", uuid.NewString()),

		GoogleSpreadsheetID:        getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleBrokersSheetName:     getEnv("GOOGLE_BROKERS_SHEET_NAME", "Brokers"),
		GoogleTotalValuesSheetName: getEnv("GOOGLE_TOTAL_VALUES_SHEET_NAME", "TotalValues"),
		GoogleServiceAccountJSON:   getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile:   getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		RemoteAPIURL:  getEnv("REMOTE_API_URL", ""),
		RemoteTimeout: getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),

		SnapshotTTL: getEnvDuration("SNAPSHOT_TTL", 30*time.Second),
	}
}

// HasAMQP reports whether change events are enabled.
func (c *Config) HasAMQP() bool {
	return c.AMQPURL != ""
}

// HasSheets reports whether Google Sheets credentials are configured.
func (c *Config) HasSheets() bool {
	return c.GoogleSpreadsheetID != "" && (c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "")
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	case "sheets":
		errs = append(errs, c.validateSheets()...)
	case "remote":
		if c.RemoteAPIURL == "" {
			errs = append(errs, "REMOTE_API_URL is required when using remote backend")
		} else if u, err := url.Parse(c.RemoteAPIURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid remote API URL '%s': %v", c.RemoteAPIURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid remote API URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
		if c.RemoteTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("invalid remote timeout %v: must be positive", c.RemoteTimeout))
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SnapshotTTL < 0 {
		errs = append(errs, fmt.Sprintf("invalid snapshot TTL %v: must not be negative", c.SnapshotTTL))
	} else if c.SnapshotTTL > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid snapshot TTL %v: must be at most 24 hours", c.SnapshotTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateSheets checks the settings the sheets mirror worker needs.
func (c *Config) ValidateSheets() error {
	if errs := c.validateSheets(); len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func (c *Config) validateSheets() []string {
	var errs []string
	if c.GoogleSpreadsheetID == "" {
		errs = append(errs, "Google Spreadsheet ID is required when using sheets backend")
	}
	if c.GoogleBrokersSheetName == "" {
		errs = append(errs, "Google brokers sheet name is required when using sheets backend")
	}
	if c.GoogleTotalValuesSheetName == "" {
		errs = append(errs, "Google total values sheet name is required when using sheets backend")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	return errs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
