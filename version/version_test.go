package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoString(t *testing.T) {
	dev := Info{CommitHash: "0123456789abcdef", BuildTime: "today", Version: "dev"}
	assert.Equal(t, "vista dev (commit 0123456, built today)", dev.String())
	_, ok := dev.Semver()
	assert.False(t, ok)

	tagged := Info{CommitHash: "abc", BuildTime: "today", Version: "v0.3.1"}
	assert.Equal(t, "vista v0.3.1 (commit abc, built today)", tagged.String())
	v, ok := tagged.Semver()
	require.True(t, ok)
	assert.Equal(t, uint64(3), v.Minor())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
