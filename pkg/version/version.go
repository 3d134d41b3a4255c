// pkg/version/version.go
// Package version provides version metadata for the application.
package version

import (
	"fmt"
	"runtime"
)

// These variables are injected at build time using -ldflags.
var (
	// Version holds the current version of bgutils.
	Version = "dev"
	// Commit holds the git commit the binary was built from.
	Commit = "none"
	// BuildDate holds the build date of the binary.
	BuildDate = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns version information for the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a single-line version summary.
func String() string {
	return fmt.Sprintf("bgutils %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}
