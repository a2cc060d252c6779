// Package version carries build metadata stamped in via ldflags.
package version

// Overridden at link time, the zero values identify a local build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
