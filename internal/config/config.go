// Package config reads and writes the fieldsync client configuration
// under ~/.config/fieldsync/.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SyncConfig holds sync-related settings.
type SyncConfig struct {
	ServerURL     string `json:"server_url"`
	APIKey        string `json:"api_key,omitempty"`
	AutoSync      *bool  `json:"auto_sync,omitempty"`      // nil = default true
	ProbeInterval string `json:"probe_interval,omitempty"` // duration string, default "30s"
	BatchSize     *int   `json:"batch_size,omitempty"`
}

// Config is the global fieldsync config stored at
// ~/.config/fieldsync/config.json.
type Config struct {
	OrganizationID string     `json:"organization_id,omitempty"`
	Sync           SyncConfig `json:"sync"`
}

// Device is the per-install identity stored at
// ~/.config/fieldsync/device.json.
type Device struct {
	DeviceID  string `json:"device_id"`
	CreatedAt string `json:"created_at"`
}

const defaultServerURL = "http://localhost:8080"

// Dir returns ~/.config/fieldsync, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "fieldsync")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the global config from ~/.config/fieldsync/config.json.
// A missing file yields an empty config, not an error.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the global config to ~/.config/fieldsync/config.json.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// LoadDevice reads the device identity, generating and persisting one
// on first use.
func LoadDevice() (*Device, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "device.json")

	data, err := os.ReadFile(path)
	if err == nil {
		var dev Device
		if err := json.Unmarshal(data, &dev); err != nil {
			return nil, err
		}
		if dev.DeviceID != "" {
			return &dev, nil
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	id, err := GenerateDeviceID()
	if err != nil {
		return nil, err
	}
	dev := &Device{DeviceID: id, CreatedAt: time.Now().UTC().Format(time.RFC3339)}
	out, err := json.MarshalIndent(dev, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return nil, fmt.Errorf("persist device identity: %w", err)
	}
	return dev, nil
}

// GenerateDeviceID creates a new random device ID (16 bytes hex).
func GenerateDeviceID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ServerURL returns the sync server URL.
// Priority: FIELDSYNC_SERVER_URL env > config.json > default.
func ServerURL() string {
	if v := os.Getenv("FIELDSYNC_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil && cfg.Sync.ServerURL != "" {
		return cfg.Sync.ServerURL
	}
	return defaultServerURL
}

// APIKey returns the API key for the sync server.
// Priority: FIELDSYNC_API_KEY env > config.json.
func APIKey() string {
	if v := os.Getenv("FIELDSYNC_API_KEY"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil {
		return cfg.Sync.APIKey
	}
	return ""
}

// OrganizationID returns the organization stamp for stored records.
// Priority: FIELDSYNC_ORG env > config.json.
func OrganizationID() string {
	if v := os.Getenv("FIELDSYNC_ORG"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil {
		return cfg.OrganizationID
	}
	return ""
}

// AutoSyncEnabled returns whether the connectivity probe and automatic
// resync are enabled.
// Priority: FIELDSYNC_AUTO_SYNC env > config.json sync.auto_sync > true.
func AutoSyncEnabled() bool {
	if v := parseBoolEnv("FIELDSYNC_AUTO_SYNC"); v != nil {
		return *v
	}
	cfg, err := Load()
	if err == nil && cfg.Sync.AutoSync != nil {
		return *cfg.Sync.AutoSync
	}
	return true
}

// ProbeInterval returns the connectivity probe cadence.
// Priority: FIELDSYNC_PROBE_INTERVAL env > config.json > 30s.
func ProbeInterval() time.Duration {
	if v := os.Getenv("FIELDSYNC_PROBE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	cfg, err := Load()
	if err == nil && cfg.Sync.ProbeInterval != "" {
		if d, err := time.ParseDuration(cfg.Sync.ProbeInterval); err == nil {
			return d
		}
	}
	return 30 * time.Second
}

// BatchSize returns the max records per push request.
// Priority: config.json sync.batch_size > 200.
func BatchSize() int {
	cfg, err := Load()
	if err == nil && cfg.Sync.BatchSize != nil && *cfg.Sync.BatchSize > 0 {
		return *cfg.Sync.BatchSize
	}
	return 200
}

// parseBoolEnv returns nil if env not set, pointer to bool if set.
func parseBoolEnv(envKey string) *bool {
	v := strings.ToLower(os.Getenv(envKey))
	switch v {
	case "1", "true":
		b := true
		return &b
	case "0", "false":
		b := false
		return &b
	}
	return nil
}
