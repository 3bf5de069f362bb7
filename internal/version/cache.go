package version

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thorbis/fieldsync/internal/config"
)

// cacheTTL bounds how long a release check result is reused.
const cacheTTL = 6 * time.Hour

// CacheEntry is one persisted release check result.
type CacheEntry struct {
	LatestVersion  string    `json:"latest_version"`
	CurrentVersion string    `json:"current_version"`
	CheckedAt      time.Time `json:"checked_at"`
	HasUpdate      bool      `json:"has_update"`
}

func cachePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "update-check.json"), nil
}

// IsCacheValid reports whether entry can stand in for a fresh check of
// currentVersion. A cache written by a different binary version is
// stale regardless of age.
func IsCacheValid(entry *CacheEntry, currentVersion string) bool {
	if entry == nil {
		return false
	}
	if entry.CurrentVersion != currentVersion {
		return false
	}
	return time.Since(entry.CheckedAt) < cacheTTL
}

// LoadCache reads the persisted check result.
func LoadCache() (*CacheEntry, error) {
	path, err := cachePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parse update cache: %w", err)
	}
	return &entry, nil
}

// SaveCache persists a check result. config.Dir creates the directory
// if it is missing.
func SaveCache(entry *CacheEntry) error {
	path, err := cachePath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
