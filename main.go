package main

import (
	"runtime/debug"

	"github.com/thorbis/fieldsync/cmd"
)

// Version is stamped by release builds via
// -ldflags "-X main.Version=v1.2.3". Unstamped binaries derive a
// version from embedded build info instead.
var Version = "dev"

func main() {
	cmd.SetVersion(buildVersion())
	cmd.Execute()
}

func buildVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}

	// `go install module@vX.Y.Z` records the tag here.
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	if rev := settings["vcs.revision"]; rev != "" {
		return develVersion(rev, settings["vcs.modified"] == "true")
	}

	return Version
}

// develVersion formats a source build as devel+<short rev>[+dirty],
// which the update checker recognizes as a non-release build.
func develVersion(rev string, dirty bool) string {
	if len(rev) > 12 {
		rev = rev[:12]
	}
	v := "devel+" + rev
	if dirty {
		v += "+dirty"
	}
	return v
}
