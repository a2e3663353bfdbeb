// Package config parses server configuration from the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds server configuration.
type Config struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	Addr            string        `env:"COUP_ADDR"`
	OriginAllowlist []string      `env:"ORIGIN_ALLOWLIST" envSeparator:","`
	LogLevel        string        `env:"COUP_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"COUP_LOG_FORMAT" envDefault:"console"`
	GracePeriod     time.Duration `env:"COUP_GRACE_PERIOD" envDefault:"30s"`
	StealBlockers   []string      `env:"COUP_STEAL_BLOCKERS" envSeparator:","`
	RulesScript     string        `env:"COUP_RULES_SCRIPT"`
	ArchivePath     string        `env:"COUP_ARCHIVE_PATH"`
	OTelEndpoint    string        `env:"COUP_OTEL_ENDPOINT"`
	MessageRate     float64       `env:"COUP_MESSAGE_RATE" envDefault:"10"`
	MessageBurst    int           `env:"COUP_MESSAGE_BURST" envDefault:"20"`
}

// ParseConfig parses environment and flags into Config. Flags win over the environment.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address; overrides -port when set")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.DurationVar(&cfg.GracePeriod, "grace", cfg.GracePeriod, "how long a disconnected player is waited for")
	fs.StringVar(&cfg.RulesScript, "rules", cfg.RulesScript, "Lua rules script")
	fs.StringVar(&cfg.ArchivePath, "archive", cfg.ArchivePath, "SQLite file for finished games; empty disables the archive")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if len(cfg.OriginAllowlist) == 0 {
		cfg.OriginAllowlist = []string{
			fmt.Sprintf("http://localhost:%d", cfg.Port),
			fmt.Sprintf("http://127.0.0.1:%d", cfg.Port),
		}
	}
	return cfg, cfg.Validate()
}

// ListenAddr is the address the HTTP server binds.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Validate reports settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" && (c.Port <= 0 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.GracePeriod < 0 {
		errs = append(errs, fmt.Errorf("grace period must not be negative"))
	}
	if c.MessageRate <= 0 || c.MessageBurst < 1 {
		errs = append(errs, fmt.Errorf("message rate and burst must be positive"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q: want console or json", c.LogFormat))
	}
	return errors.Join(errs...)
}
