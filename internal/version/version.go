// Package version checks GitHub releases for fieldsync updates and
// compares semantic versions. Results are cached on disk so the check
// costs at most one network round trip per TTL window.
package version

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	repoOwner = "thorbis"
	repoName  = "fieldsync"
)

// releaseURL is a package var so tests can point it at a local server.
var releaseURL = fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName)

// Release is the subset of the GitHub release response we read.
type Release struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

// CheckResult holds the outcome of one release check.
type CheckResult struct {
	CurrentVersion string
	LatestVersion  string
	UpdateURL      string
	HasUpdate      bool
	Error          error
}

// Check fetches the latest release and compares it to currentVersion.
// Development builds are never reported as out of date.
func Check(currentVersion string) CheckResult {
	result := CheckResult{CurrentVersion: currentVersion}

	if IsDevelopmentVersion(currentVersion) {
		return result
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(releaseURL)
	if err != nil {
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("github api: %s", resp.Status)
		return result
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		result.Error = err
		return result
	}

	result.LatestVersion = release.TagName
	result.UpdateURL = release.HTMLURL
	result.HasUpdate = isNewer(release.TagName, currentVersion)

	return result
}

// IsDevelopmentVersion returns true for non-release builds, including
// the "devel+<rev>" strings derived from VCS build info.
func IsDevelopmentVersion(v string) bool {
	if v == "" || v == "unknown" || v == "dev" || v == "devel" {
		return true
	}
	return strings.HasPrefix(v, "devel+")
}

// validVersionRegex matches release versions (v1.2.3, v1.2.3-beta.1).
// Anything else is rejected so the version never reaches a shell.
var validVersionRegex = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[a-zA-Z0-9]+([.-][a-zA-Z0-9]+)*)?$`)

// UpdateCommand returns the go install command for version, or "" when
// the version string is not a valid release tag.
func UpdateCommand(version string) string {
	if !validVersionRegex.MatchString(version) {
		return ""
	}
	return fmt.Sprintf(
		"go install -ldflags \"-X main.Version=%s\" github.com/thorbis/fieldsync@%s",
		version, version,
	)
}
