// pkg/version/version_test.go
package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestString_ContainsBuildMetadata(t *testing.T) {
	// vars set at build-time, here using default "dev"
	s := String()

	if !strings.Contains(s, "bgutils") {
		t.Errorf("Expected version string to contain 'bgutils', got: %s", s)
	}
	if !strings.Contains(s, Version) {
		t.Errorf("Expected version string to contain version '%s'", Version)
	}
	if !strings.Contains(s, Commit) {
		t.Errorf("Expected version string to contain commit '%s'", Commit)
	}
	if !strings.Contains(s, BuildDate) {
		t.Errorf("Expected version string to contain build date '%s'", BuildDate)
	}
}

func TestGet_ReturnsCorrectStruct(t *testing.T) {
	v := Get()

	if v.Version != Version {
		t.Errorf("Expected version %s, got %s", Version, v.Version)
	}
	if v.Commit != Commit {
		t.Errorf("Expected commit %s, got %s", Commit, v.Commit)
	}
	if v.BuildDate != BuildDate {
		t.Errorf("Expected build date %s, got %s", BuildDate, v.BuildDate)
	}
	if v.GoVersion != runtime.Version() {
		t.Errorf("Expected go version %s, got %s", runtime.Version(), v.GoVersion)
	}
	if !strings.Contains(v.Platform, runtime.GOOS) {
		t.Errorf("Expected platform to contain %s, got %s", runtime.GOOS, v.Platform)
	}
}
