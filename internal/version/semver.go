package version

import (
	"strconv"
	"strings"
)

// parseSemver extracts the numeric core of a version string. Prerelease
// and build-metadata suffixes are dropped; missing parts default to 0;
// unparseable input yields [0,0,0].
func parseSemver(v string) [3]int {
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}

	var out [3]int
	parts := strings.Split(v, ".")
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return [3]int{}
		}
		out[i] = n
	}
	return out
}

// isNewer reports whether latest's core version is strictly greater
// than current's. Prerelease tags and build metadata are ignored.
func isNewer(latest, current string) bool {
	l, c := parseSemver(latest), parseSemver(current)
	for i := 0; i < 3; i++ {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}
