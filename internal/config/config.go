// Package config handles loading and parsing application configuration.
// It supports these sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//  3. Neither: every value comes from the environment or its default.
//
// Environment variables always override values from the YAML file.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Submission modes.
const (
	// ModeStore persists accepted registrations in SQLite.
	ModeStore = "store"
	// ModeLog only logs accepted registrations and acknowledges them.
	ModeLog = "log"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// StoragePath is the filesystem path to the SQLite .db file.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"storage/registrations.db"`

	HTTPServer `yaml:"http_server"`
	Submission Submission `yaml:"submission"`
	Session    Session    `yaml:"session"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082"`
}

// Submission selects what happens to a registration that passed validation.
type Submission struct {
	Mode string `yaml:"mode" env:"SUBMISSION_MODE" env-default:"store"`
}

// Session configures the per-visitor form sessions of the HTTP surface.
type Session struct {
	CookieName  string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"registration_session"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SESSION_IDLE_TIMEOUT" env-default:"30m"`
	// MaxSessions caps the live sessions; the least recently used one
	// is evicted to make room.
	MaxSessions int `yaml:"max_sessions" env:"SESSION_MAX_SESSIONS" env-default:"10000"`
}

// Validate rejects values the defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Submission.Mode {
	case ModeStore, ModeLog:
	default:
		return fmt.Errorf("config: unknown submission mode %q (want %q or %q)",
			c.Submission.Mode, ModeStore, ModeLog)
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("config: session idle timeout must be positive, got %s", c.Session.IdleTimeout)
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("config: session max sessions must be positive, got %d", c.Session.MaxSessions)
	}
	return nil
}

// Load reads the config at path, or only the environment when path is
// empty, and validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
// Functions prefixed with "Must" are allowed to fatal on failure: if this
// returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}

	return cfg
}
