package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetInfo(t *testing.T) {
	origVersion := Version
	origCommit := Commit
	origDate := Date

	Version = "1.2.0"
	Commit = "abc123def456"
	Date = "2026-08-01T12:00:00Z"

	defer func() {
		Version = origVersion
		Commit = origCommit
		Date = origDate
	}()

	info := GetInfo()

	if info.Version != "1.2.0" {
		t.Errorf("GetInfo().Version = %v, want 1.2.0", info.Version)
	}
	if info.Commit != "abc123def456" {
		t.Errorf("GetInfo().Commit = %v, want abc123def456", info.Commit)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GetInfo().GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}

	expectedPlatform := runtime.GOOS + "/" + runtime.GOARCH
	if info.Platform != expectedPlatform {
		t.Errorf("GetInfo().Platform = %v, want %v", info.Platform, expectedPlatform)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "1.2.0",
		Commit:    "abc123def456",
		Date:      "2026-08-01T12:00:00Z",
		GoVersion: "go1.24.0",
		Platform:  "linux/amd64",
	}

	s := info.String()
	for _, want := range []string{"adminctl", "1.2.0", "abc123de", "linux/amd64"} {
		if !strings.Contains(s, want) {
			t.Errorf("Info.String() = %q, missing %q", s, want)
		}
	}
	if strings.Contains(s, "abc123def456") {
		t.Errorf("Info.String() should shorten the commit hash, got %q", s)
	}
}

func TestInfoShort(t *testing.T) {
	info := Info{Version: "1.2.0"}
	if info.Short() != "1.2.0" {
		t.Errorf("Info.Short() = %v, want 1.2.0", info.Short())
	}
}
