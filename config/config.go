// Package config provides configuration management for Redstone servers.
package config

import (
	"fmt"
	"time"
)

// Config represents the server configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Logger    LoggerConfig    `yaml:"logger" env:"LOGGER"`
	JWT       JWTConfig       `yaml:"jwt" env:"JWT"`
	RateLimit RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `yaml:"address" env:"ADDRESS" default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT" default:"120s"`
	CORS         bool          `yaml:"cors" env:"CORS" default:"true"`
	RequestID    bool          `yaml:"request_id" env:"REQUEST_ID" default:"true"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level            string   `yaml:"level" env:"LEVEL" default:"info"`
	Encoding         string   `yaml:"encoding" env:"ENCODING" default:"json"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS" default:"stdout"`
	ErrorOutputPaths []string `yaml:"error_output_paths" env:"ERROR_OUTPUT_PATHS" default:"stderr"`
}

// JWTConfig holds JWT authentication configuration.
type JWTConfig struct {
	SecretKey string        `yaml:"secret_key" env:"SECRET_KEY"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" default:"1h"`
	Issuer    string        `yaml:"issuer" env:"ISSUER" default:"redstone-server"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED" default:"false"`
	Rate    int  `yaml:"rate" env:"RATE" default:"10"`
	Burst   int  `yaml:"burst" env:"BURST" default:"20"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
			CORS:         true,
			RequestID:    true,
		},
		Logger: LoggerConfig{
			Level:            "info",
			Encoding:         "json",
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		},
		JWT: JWTConfig{
			TokenTTL: time.Hour,
			Issuer:   "redstone-server",
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			Rate:    10,
			Burst:   20,
		},
	}
}

// Validate checks the configuration for inconsistencies that would prevent
// the server from starting.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.RateLimit.Enabled && c.RateLimit.Rate <= 0 {
		return fmt.Errorf("rate limit rate must be positive")
	}
	switch c.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logger level %q", c.Logger.Level)
	}
	return nil
}
