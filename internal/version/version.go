// Package version holds build metadata for the chunkgate binary.
package version

import "runtime/debug"

// Overridden at build time:
// go build -ldflags "-X chunkgate/internal/version.Version=1.2.0 -X chunkgate/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Revision returns Commit, falling back to the VCS revision stamped by the
// Go toolchain when no ldflags were given.
func Revision() string {
	if Commit != "unknown" && Commit != "" {
		return Commit
	}
	info, ok := readBuildInfo()
	if !ok {
		return Commit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value
		}
	}
	return Commit
}

// Info returns "<version>" or "<version> (<short commit>)".
func Info() string {
	rev := Revision()
	if len(rev) > 7 && rev != "unknown" {
		return Version + " (" + rev[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "chunkgate version " + Version + "\n" +
		"Commit: " + Revision() + "\n" +
		"Built: " + BuildDate
}
