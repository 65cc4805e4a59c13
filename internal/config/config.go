package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/nekogravitycat/court-reservation-backend/internal/reservation"
	"github.com/nekogravitycat/court-reservation-backend/internal/slot"
)

const PROD_STRING = "prod"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv      string   `env:"APP_ENV" envDefault:"dev"`
	ProdOrigins []string `env:"PROD_ORIGINS" envSeparator:","`
	HTTPAddr    string   `env:"HTTP_ADDR" envDefault:":8080"`

	StoreDriver  string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DBDSN        string        `env:"DB_DSN"`
	SQLitePath   string        `env:"SQLITE_PATH" envDefault:"reservations.db"`
	AutoMigrate  bool          `env:"AUTO_MIGRATE" envDefault:"false"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	OperatingHoursStart int      `env:"OPERATING_HOURS_START" envDefault:"4"`
	OperatingHoursEnd   int      `env:"OPERATING_HOURS_END" envDefault:"22"`
	OccupyingStatuses   []string `env:"OCCUPYING_STATUSES" envSeparator:"," envDefault:"Booking,CheckedIn,Coaching,Blocked,Completed,PendingPayment"`
	SelectionPolicy     string   `env:"SELECTION_POLICY" envDefault:"random"`

	CompletionSweepInterval time.Duration `env:"COMPLETION_SWEEP_INTERVAL" envDefault:"5m"`
	TimeZone                string        `env:"TIME_ZONE" envDefault:"UTC"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	location *time.Location
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && len(c.ProdOrigins) == 0 {
		return errors.New("PROD_ORIGINS is required when APP_ENV is prod")
	}

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required when STORE_DRIVER is postgres")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORE_DRIVER is sqlite")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q, use %s or %s", c.StoreDriver, DriverPostgres, DriverSQLite)
	}

	if _, err := c.Window(); err != nil {
		return fmt.Errorf("invalid OPERATING_HOURS_START/OPERATING_HOURS_END: %w", err)
	}

	if _, err := c.Occupying(); err != nil {
		return err
	}

	if _, err := reservation.NewSelector(c.SelectionPolicy); err != nil {
		return fmt.Errorf("invalid SELECTION_POLICY: %w", err)
	}

	if c.StoreTimeout < 0 {
		return fmt.Errorf("invalid STORE_TIMEOUT %s: must not be negative", c.StoreTimeout)
	}
	if c.CompletionSweepInterval < 0 {
		return fmt.Errorf("invalid COMPLETION_SWEEP_INTERVAL %s: must not be negative", c.CompletionSweepInterval)
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid TIME_ZONE: %w", err)
	}
	c.location = loc

	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == PROD_STRING
}

// Window returns the configured operating window.
func (c *Config) Window() (slot.Window, error) {
	return slot.NewWindow(c.OperatingHoursStart, c.OperatingHoursEnd)
}

// Occupying returns the statuses that consume capacity in availability queries.
func (c *Config) Occupying() (reservation.StatusSet, error) {
	statuses := make([]reservation.Status, 0, len(c.OccupyingStatuses))
	for _, raw := range c.OccupyingStatuses {
		s := reservation.Status(strings.TrimSpace(raw))
		if s == "" {
			continue
		}
		if !s.Valid() {
			return nil, fmt.Errorf("invalid OCCUPYING_STATUSES entry %q", raw)
		}
		statuses = append(statuses, s)
	}
	if len(statuses) == 0 {
		return nil, errors.New("OCCUPYING_STATUSES must list at least one status")
	}
	return reservation.NewStatusSet(statuses...), nil
}

// Location is the zone used to decide the current day and hour.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
