package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillFromBuildSettings(t *testing.T) {
	i := Info{Version: "1.2.3", BuildDate: "unknown", GitCommit: "unknown"}
	i.fill([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
	})

	assert.Equal(t, "0123456789ab", i.GitCommit)
	assert.Equal(t, "2026-01-02T03:04:05Z", i.BuildDate)
}

func TestFillKeepsLinkedValues(t *testing.T) {
	i := Info{BuildDate: "2025-12-01", GitCommit: "abc123"}
	i.fill([]debug.BuildSetting{{Key: "vcs.revision", Value: "ffff"}})

	assert.Equal(t, "abc123", i.GitCommit)
	assert.Equal(t, "2025-12-01", i.BuildDate)
}

func TestFullString(t *testing.T) {
	i := Info{Version: "1.2.3", BuildDate: "d", GitCommit: "c", GoVersion: "go1.24.1", Platform: "linux/amd64"}
	assert.Equal(t, "prisma-rls version 1.2.3\nBuild Date: d\nGit Commit: c\nPlatform: linux/amd64\nGo Version: go1.24.1", i.FullString())
	assert.Equal(t, "1.2.3 (c, linux/amd64 go1.24.1)", i.String())
}
