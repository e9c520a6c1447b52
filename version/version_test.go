package version

import (
	"runtime/debug"
	"testing"
)

func stub(t *testing.T, bi *debug.BuildInfo, ok bool) {
	t.Helper()
	origRead, origVersion, origCommit, origTime := readBuildInfo, Version, GitCommit, BuildTime
	t.Cleanup(func() {
		readBuildInfo, Version, GitCommit, BuildTime = origRead, origVersion, origCommit, origTime
	})
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, ok }
}

func TestGet_FromBuildInfo(t *testing.T) {
	stub(t, &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}, true)
	Version, GitCommit, BuildTime = "dev", "", ""

	info := Get()
	if info.GitCommit != "0123456" || info.BuildTime != "2026-01-01T00:00:00Z" || !info.Dirty || info.GoVersion != "go1.26.0" {
		t.Errorf("info = %+v", info)
	}
	if got := info.String(); got != "dev-0123456-dirty" {
		t.Errorf("String() = %q", got)
	}
}

func TestGet_StampedWins(t *testing.T) {
	stub(t, &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}}}, true)
	Version, GitCommit, BuildTime = "1.4.0", "abc1234", "2026-02-02T00:00:00Z"

	info := Get()
	if info.GitCommit != "abc1234" || info.BuildTime != "2026-02-02T00:00:00Z" {
		t.Errorf("info = %+v", info)
	}
	if got := info.String(); got != "1.4.0-abc1234" {
		t.Errorf("String() = %q", got)
	}
}

func TestGet_NoBuildInfo(t *testing.T) {
	stub(t, nil, false)
	Version, GitCommit, BuildTime = "dev", "", ""
	if got := Get().String(); got != "dev" {
		t.Errorf("String() = %q", got)
	}
}
