// Package version exposes build metadata of the sonarbridge binary.
package version

import "runtime/debug"

// Build metadata, set with -ldflags "-X" at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const (
	develVersion  = "(devel)"
	vcsRevision   = "vcs.revision"
	vcsTime       = "vcs.time"
	shortHashSize = 12
)

// InitBinaryVersion fills unset metadata from the embedded build info.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != develVersion {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case vcsRevision:
			if Commit == "none" && setting.Value != "" {
				Commit = shorten(setting.Value)
			}
		case vcsTime:
			if Date == "unknown" && setting.Value != "" {
				Date = setting.Value
			}
		}
	}
}

func shorten(hash string) string {
	if len(hash) > shortHashSize {
		return hash[:shortHashSize]
	}

	return hash
}

// String returns the one-line version banner.
func String() string {
	return "sonarbridge " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
