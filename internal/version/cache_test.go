package version

import (
	"os"
	"testing"
	"time"
)

func TestIsCacheValid(t *testing.T) {
	now := time.Now()
	fresh := &CacheEntry{
		LatestVersion:  "v1.1.0",
		CurrentVersion: "v1.0.0",
		CheckedAt:      now,
		HasUpdate:      true,
	}

	if IsCacheValid(nil, "v1.0.0") {
		t.Error("nil entry should be invalid")
	}
	if !IsCacheValid(fresh, "v1.0.0") {
		t.Error("fresh entry for same version should be valid")
	}
	if IsCacheValid(fresh, "v1.1.0") {
		t.Error("entry written by a different binary version should be invalid")
	}

	expired := *fresh
	expired.CheckedAt = now.Add(-cacheTTL - time.Minute)
	if IsCacheValid(&expired, "v1.0.0") {
		t.Error("expired entry should be invalid")
	}

	nearly := *fresh
	nearly.CheckedAt = now.Add(-cacheTTL + time.Minute)
	if !IsCacheValid(&nearly, "v1.0.0") {
		t.Error("entry just inside the TTL should be valid")
	}
}

func TestSaveAndLoadCache(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	entry := &CacheEntry{
		LatestVersion:  "v1.2.3",
		CurrentVersion: "v1.0.0",
		CheckedAt:      time.Now().Round(time.Second),
		HasUpdate:      true,
	}
	if err := SaveCache(entry); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}

	loaded, err := LoadCache()
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if loaded.LatestVersion != entry.LatestVersion ||
		loaded.CurrentVersion != entry.CurrentVersion ||
		loaded.HasUpdate != entry.HasUpdate ||
		!loaded.CheckedAt.Equal(entry.CheckedAt) {
		t.Errorf("round trip mismatch: saved %+v, loaded %+v", entry, loaded)
	}
}

func TestLoadCacheErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := LoadCache(); err == nil {
		t.Error("expected error for missing cache file")
	}

	path, err := cachePath()
	if err != nil {
		t.Fatalf("cachePath: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{invalid json}`), 0644); err != nil {
		t.Fatalf("write corrupted cache: %v", err)
	}
	if _, err := LoadCache(); err == nil {
		t.Error("expected error for corrupted cache file")
	}
}

func TestCheckAsyncUsesValidCache(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := SaveCache(&CacheEntry{
		LatestVersion:  "v1.5.0",
		CurrentVersion: "v1.0.0",
		CheckedAt:      time.Now(),
		HasUpdate:      true,
	}); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}

	msg := CheckAsync("v1.0.0")()
	update, ok := msg.(UpdateAvailableMsg)
	if !ok {
		t.Fatalf("expected UpdateAvailableMsg, got %T", msg)
	}
	if update.LatestVersion != "v1.5.0" {
		t.Errorf("LatestVersion = %q, want v1.5.0", update.LatestVersion)
	}
	if update.UpdateCommand == "" {
		t.Error("expected a non-empty update command")
	}
}

func TestCheckAsyncUpToDateCache(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := SaveCache(&CacheEntry{
		LatestVersion:  "v1.0.0",
		CurrentVersion: "v1.0.0",
		CheckedAt:      time.Now(),
		HasUpdate:      false,
	}); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}

	if msg := CheckAsync("v1.0.0")(); msg != nil {
		t.Errorf("expected nil msg for up-to-date cache, got %v", msg)
	}
}
