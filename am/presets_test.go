package am

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/vista/errors"
)

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), PresetsFileName)
	writeFile(t, path, `
[presets.tight]
repulsion = 120.0
link_distance = 30.0

[presets.agents]
radial_target = "agent:active"
radial_strength = 0.6
shimmer = true

[presets.agents.link_distances]
coordinates = 90.0
`)

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"agents", "tight"}, presets.Names())

	tight, ok := presets.Get("tight")
	require.True(t, ok)
	require.NotNil(t, tight.Repulsion)
	assert.Equal(t, 120.0, *tight.Repulsion)
	assert.Nil(t, tight.CollisionRadius)

	agents, _ := presets.Get("agents")
	require.NotNil(t, agents.RadialTarget)
	assert.Equal(t, "agent:active", *agents.RadialTarget)
	assert.Equal(t, 90.0, agents.LinkDistances["coordinates"])

	_, ok = presets.Get("loose")
	assert.False(t, ok)
}

func TestLoadPresetsRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"invalid value": "[presets.broken]\nlink_distance = -5.0\n",
		"empty preset":  "[presets.nothing]\n",
		"not toml":      "[presets.x\nrepulsion = ",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			writeFile(t, path, content)
			_, err := LoadPresets(path)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidConfig(err), "got %v", err)
		})
	}
}

func TestFindPresets(t *testing.T) {
	home, project := isolate(t)
	assert.Empty(t, FindPresets())

	userPresets := filepath.Join(home, UserDirName, PresetsFileName)
	writeFile(t, userPresets, "[presets.a]\nrepulsion = 1.0\n")
	assert.Equal(t, userPresets, FindPresets())

	writeFile(t, filepath.Join(project, ConfigFileName), "")
	projectPresets := filepath.Join(project, PresetsFileName)
	writeFile(t, projectPresets, "[presets.b]\nrepulsion = 2.0\n")
	got, err := filepath.EvalSymlinks(FindPresets())
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(projectPresets)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
