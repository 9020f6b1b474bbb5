// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WSHS_"

// Config holds the application configuration.
type Config struct {
	Address        string `env:"ADDRESS"         envDefault:":8080"`
	MetricsAddress string `env:"METRICS_ADDRESS" envDefault:":9090"`

	// Handshake
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT"  envDefault:"10s"`
	MaxHandshakeSize int           `env:"MAX_HANDSHAKE_SIZE" envDefault:"8192"`
	HandshakeRate    float64       `env:"HANDSHAKE_RATE"     envDefault:"0"`
	HandshakeBurst   int           `env:"HANDSHAKE_BURST"    envDefault:"100"`

	// Sessions
	MaxPayloadSize  uint64        `env:"MAX_PAYLOAD_SIZE" envDefault:"1048576"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"     envDefault:"300s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Observability
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load(envFiles ...string) (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load(envFiles...)
	return Parse(env.Options{Prefix: EnvPrefix})
}

// Parse parses the environment into a Config using opts.
func Parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the slog logger described by LogLevel and LogFormat.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", c.LogFormat)
	}
}
