package config

import (
	"testing"
	"time"
)

// Tests point HOME at a temp dir so they never touch the real config.
func setTempHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", t.TempDir()) // windows
}

func TestLoadMissingConfigIsEmpty(t *testing.T) {
	setTempHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sync.ServerURL != "" || cfg.OrganizationID != "" {
		t.Errorf("missing config should load empty, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	setTempHome(t)

	auto := false
	batch := 50
	in := &Config{
		OrganizationID: "org-7",
		Sync: SyncConfig{
			ServerURL:     "https://sync.example.com",
			APIKey:        "key-123",
			AutoSync:      &auto,
			ProbeInterval: "10s",
			BatchSize:     &batch,
		},
	}
	if err := Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Sync.ServerURL != in.Sync.ServerURL || out.OrganizationID != in.OrganizationID {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if out.Sync.AutoSync == nil || *out.Sync.AutoSync {
		t.Error("auto_sync=false not preserved")
	}

	if got := ServerURL(); got != "https://sync.example.com" {
		t.Errorf("ServerURL = %q", got)
	}
	if AutoSyncEnabled() {
		t.Error("AutoSyncEnabled should honor config")
	}
	if got := ProbeInterval(); got != 10*time.Second {
		t.Errorf("ProbeInterval = %v, want 10s", got)
	}
	if got := BatchSize(); got != 50 {
		t.Errorf("BatchSize = %d, want 50", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	setTempHome(t)
	if err := Save(&Config{Sync: SyncConfig{ServerURL: "https://from-config"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("FIELDSYNC_SERVER_URL", "https://from-env")
	t.Setenv("FIELDSYNC_AUTO_SYNC", "false")
	t.Setenv("FIELDSYNC_API_KEY", "env-key")
	t.Setenv("FIELDSYNC_ORG", "env-org")
	t.Setenv("FIELDSYNC_PROBE_INTERVAL", "2s")

	if got := ServerURL(); got != "https://from-env" {
		t.Errorf("env override lost: ServerURL = %q", got)
	}
	if AutoSyncEnabled() {
		t.Error("FIELDSYNC_AUTO_SYNC=false ignored")
	}
	if got := APIKey(); got != "env-key" {
		t.Errorf("APIKey = %q", got)
	}
	if got := OrganizationID(); got != "env-org" {
		t.Errorf("OrganizationID = %q", got)
	}
	if got := ProbeInterval(); got != 2*time.Second {
		t.Errorf("ProbeInterval = %v", got)
	}
}

func TestDefaults(t *testing.T) {
	setTempHome(t)

	if got := ServerURL(); got != "http://localhost:8080" {
		t.Errorf("default ServerURL = %q", got)
	}
	if !AutoSyncEnabled() {
		t.Error("auto sync should default on")
	}
	if got := ProbeInterval(); got != 30*time.Second {
		t.Errorf("default ProbeInterval = %v", got)
	}
	if got := BatchSize(); got != 200 {
		t.Errorf("default BatchSize = %d", got)
	}
}

func TestLoadDeviceGeneratesOnce(t *testing.T) {
	setTempHome(t)

	first, err := LoadDevice()
	if err != nil {
		t.Fatalf("LoadDevice: %v", err)
	}
	if len(first.DeviceID) != 32 {
		t.Errorf("device ID %q, want 32 hex chars", first.DeviceID)
	}

	second, err := LoadDevice()
	if err != nil {
		t.Fatalf("LoadDevice (repeat): %v", err)
	}
	if second.DeviceID != first.DeviceID {
		t.Error("device ID changed between loads")
	}
}
