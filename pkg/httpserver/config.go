package httpserver

import "time"

// Config holds HTTP server configuration, covering the concerns a single
// embedded-store front end actually needs: no TLS, no GraphQL, no
// document-cache sizing.
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	EnableCORS     bool
	AllowedOrigins []string
	EnableLogging  bool

	// AdminSecret guards /admin/* routes with a bearer-token check. Empty
	// leaves the admin API reachable without authentication, useful for
	// local development.
	AdminSecret string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxRequestSize: 1 * 1024 * 1024,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		EnableLogging:  true,
	}
}
