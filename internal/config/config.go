// Package config loads process configuration from the environment and
// command-line flags. Flags override environment values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server configures the HTTP server binary.
type Server struct {
	Addr           string        `env:"REDSETTINGS_ADDR" envDefault:":8080"`
	DBPath         string        `env:"REDSETTINGS_DB_PATH"`
	LogLevel       string        `env:"REDSETTINGS_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"REDSETTINGS_LOG_FORMAT" envDefault:"json"`
	FlushInterval  time.Duration `env:"REDSETTINGS_FLUSH_INTERVAL" envDefault:"5s"`
	RequestTimeout time.Duration `env:"REDSETTINGS_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownGrace  time.Duration `env:"REDSETTINGS_SHUTDOWN_GRACE" envDefault:"10s"`
	SessionLimit   int           `env:"REDSETTINGS_SESSION_LIMIT" envDefault:"1024"`
}

// CLI configures the one-shot command.
type CLI struct {
	Game      string `env:"REDSETTINGS_GAME" envDefault:"freefire"`
	Style     string `env:"REDSETTINGS_STYLE"`
	Seed      string `env:"REDSETTINGS_SEED"`
	Gyro      string `env:"REDSETTINGS_GYRO"`
	DBPath    string `env:"REDSETTINGS_DB_PATH"`
	JSON      bool   `env:"REDSETTINGS_JSON"`
	Share     bool   `env:"REDSETTINGS_SHARE"`
	Graphics  bool   `env:"REDSETTINGS_GRAPHICS"`
	LogLevel  string `env:"REDSETTINGS_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"REDSETTINGS_LOG_FORMAT" envDefault:"console"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseServer parses environment and flags into Server.
func ParseServer(fs *flag.FlagSet, args []string) (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (json, console)")
	fs.DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "jitter cache flush interval")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "per-request timeout")
	fs.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", cfg.ShutdownGrace, "graceful shutdown window")
	fs.IntVar(&cfg.SessionLimit, "session-limit", cfg.SessionLimit, "device sessions kept before the least recently used is evicted")
	if err := parseArgs(fs, args); err != nil {
		return Server{}, err
	}
	if cfg.DBPath == "" {
		path, err := DefaultDBPath()
		if err != nil {
			return Server{}, err
		}
		cfg.DBPath = path
	}
	if cfg.FlushInterval <= 0 {
		return Server{}, fmt.Errorf("config: flush interval must be positive, got %s", cfg.FlushInterval)
	}
	if cfg.SessionLimit <= 0 {
		return Server{}, fmt.Errorf("config: session limit must be positive, got %d", cfg.SessionLimit)
	}
	return cfg, nil
}

// ParseCLI parses environment and flags into CLI.
func ParseCLI(fs *flag.FlagSet, args []string) (CLI, error) {
	var cfg CLI
	if err := ParseEnv(&cfg); err != nil {
		return CLI{}, err
	}
	fs.StringVar(&cfg.Game, "game", cfg.Game, "game id (freefire, pubg, codm)")
	fs.StringVar(&cfg.Style, "style", cfg.Style, "play style; empty uses the game default")
	fs.StringVar(&cfg.Seed, "seed", cfg.Seed, "seed for a reproducible profile")
	fs.StringVar(&cfg.Gyro, "gyro", cfg.Gyro, "gyroscope mode (off, on, enhanced)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database for persistent jitter; empty keeps it in memory")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print the result as JSON")
	fs.BoolVar(&cfg.Share, "share", cfg.Share, "print shareable text")
	fs.BoolVar(&cfg.Graphics, "graphics", cfg.Graphics, "include graphics recommendations")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (json, console)")
	if err := parseArgs(fs, args); err != nil {
		return CLI{}, err
	}
	if cfg.Game == "" {
		return CLI{}, errors.New("config: game is required")
	}
	return cfg, nil
}

// DefaultDBPath is redsettings/redsettings.db under the user config dir.
func DefaultDBPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate config dir: %w", err)
	}
	return filepath.Join(dir, "redsettings", "redsettings.db"), nil
}

func parseArgs(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("parse flags: unexpected arguments %v", fs.Args())
	}
	return nil
}
