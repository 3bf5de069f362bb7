package api

import (
	"os"
	"time"
)

// Config holds server configuration.
type Config struct {
	// ListenAddr is the host:port to listen on.
	ListenAddr string

	// DatabasePath is the server SQLite database file.
	DatabasePath string

	// APIKey guards the authenticated endpoints. Empty disables auth
	// (local development).
	APIKey string

	// MaxBodyBytes caps the request body size. Zero means 10 MiB.
	MaxBodyBytes int64

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFormat is json or text.
	LogFormat string

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// LoadConfig builds a Config from the environment.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:      os.Getenv("FIELDSYNC_SERVER_LISTEN"),
		DatabasePath:    os.Getenv("FIELDSYNC_SERVER_DB"),
		APIKey:          os.Getenv("FIELDSYNC_SERVER_API_KEY"),
		LogLevel:        os.Getenv("FIELDSYNC_SERVER_LOG_LEVEL"),
		LogFormat:       os.Getenv("FIELDSYNC_SERVER_LOG_FORMAT"),
		ShutdownTimeout: 10 * time.Second,
	}
	return cfg.withDefaults()
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "fieldsync-server.db"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 10 << 20
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}
