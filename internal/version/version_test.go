package version

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseSemver(t *testing.T) {
	tests := []struct {
		input string
		want  [3]int
	}{
		{"v1.2.3", [3]int{1, 2, 3}},
		{"1.2.3", [3]int{1, 2, 3}},
		{"v0.1.0", [3]int{0, 1, 0}},
		{"v1.0.0-beta", [3]int{1, 0, 0}},
		{"v2.0.0-rc.1", [3]int{2, 0, 0}},
		{"v1.0.0+build123", [3]int{1, 0, 0}},
		{"v1.0.0-beta+build123", [3]int{1, 0, 0}},
		{"2.0", [3]int{2, 0, 0}},
		{"v5", [3]int{5, 0, 0}},
		{"", [3]int{0, 0, 0}},
		{"invalid", [3]int{0, 0, 0}},
		{"no.numbers.here", [3]int{0, 0, 0}},
		{"1000.0.0", [3]int{1000, 0, 0}},
	}
	for _, tt := range tests {
		if got := parseSemver(tt.input); got != tt.want {
			t.Errorf("parseSemver(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		latest  string
		current string
		want    bool
	}{
		{"v2.0.0", "v1.9.9", true},
		{"v0.10.0", "v0.9.0", true},
		{"v0.1.10", "v0.1.9", true},
		{"v1.2.3", "v1.2.3", false},
		{"v0.1.0", "v0.2.0", false},
		{"v1.0.0-beta", "v1.0.0", false},
		{"v1.0.0", "v1.0.0-beta", false},
		{"v2.0.0-rc.1", "v1.9.9", true},
		{"v1.0.0+build1", "v1.0.0+build2", false},
		{"1.0.0", "v0.9.9", true},
		{"v1.100.0", "v1.99.99", true},
	}
	for _, tt := range tests {
		if got := isNewer(tt.latest, tt.current); got != tt.want {
			t.Errorf("isNewer(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func TestIsDevelopmentVersion(t *testing.T) {
	for _, v := range []string{"", "unknown", "dev", "devel", "devel+abc123", "devel+abc+dirty"} {
		if !IsDevelopmentVersion(v) {
			t.Errorf("IsDevelopmentVersion(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"v0.1.0", "1.0.0-beta", "develop", "my-devel", "DEV"} {
		if IsDevelopmentVersion(v) {
			t.Errorf("IsDevelopmentVersion(%q) = true, want false", v)
		}
	}
}

func TestUpdateCommandRejectsMalformedVersions(t *testing.T) {
	if cmd := UpdateCommand("v1.2.3"); !strings.Contains(cmd, "github.com/thorbis/fieldsync@v1.2.3") {
		t.Errorf("unexpected update command: %q", cmd)
	}
	for _, v := range []string{"", "v1.2.3; rm -rf /", "v1.2.3--", "v1.2.3-", "$(whoami)"} {
		if cmd := UpdateCommand(v); cmd != "" {
			t.Errorf("UpdateCommand(%q) = %q, want empty", v, cmd)
		}
	}
}

func TestCheckAgainstReleaseServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Release{
			TagName:     "v9.9.9",
			PublishedAt: time.Now(),
			HTMLURL:     "https://example.com/releases/v9.9.9",
		})
	}))
	defer srv.Close()

	old := releaseURL
	releaseURL = srv.URL
	defer func() { releaseURL = old }()

	result := Check("v1.0.0")
	if result.Error != nil {
		t.Fatalf("Check: %v", result.Error)
	}
	if !result.HasUpdate {
		t.Error("expected update to be reported")
	}
	if result.LatestVersion != "v9.9.9" {
		t.Errorf("LatestVersion = %q, want v9.9.9", result.LatestVersion)
	}

	// Development builds skip the network entirely.
	dev := Check("devel+abc123")
	if dev.HasUpdate || dev.Error != nil {
		t.Errorf("dev build check should be a no-op, got %+v", dev)
	}
}

func TestCheckSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	old := releaseURL
	releaseURL = srv.URL
	defer func() { releaseURL = old }()

	if result := Check("v1.0.0"); result.Error == nil {
		t.Error("expected error from non-200 response")
	}
}
