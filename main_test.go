package main

import "testing"

func TestDevelVersion(t *testing.T) {
	tests := []struct {
		rev   string
		dirty bool
		want  string
	}{
		{"a1b2c3d4e5f67890abcdef", false, "devel+a1b2c3d4e5f6"},
		{"a1b2c3d4e5f67890abcdef", true, "devel+a1b2c3d4e5f6+dirty"},
		{"abc123", false, "devel+abc123"},
	}
	for _, tt := range tests {
		if got := develVersion(tt.rev, tt.dirty); got != tt.want {
			t.Errorf("develVersion(%q, %v) = %q, want %q", tt.rev, tt.dirty, got, tt.want)
		}
	}
}

func TestBuildVersionPrefersStampedVersion(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v2.1.0"
	if got := buildVersion(); got != "v2.1.0" {
		t.Errorf("buildVersion() = %q, want stamped v2.1.0", got)
	}

	// Unstamped test binaries fall through to build info, which has
	// neither a module version nor VCS settings, so "dev" survives.
	Version = "dev"
	if got := buildVersion(); got == "" {
		t.Error("buildVersion() must never be empty")
	}
}
