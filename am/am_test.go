package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/view"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// isolate points HOME and the working directory at empty temp dirs
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home, project = t.TempDir(), t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(project))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	Reset()
	t.Cleanup(Reset)
	return home, project
}

func TestLoad_Defaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, projection.DefaultConfig(), cfg.View)
	assert.Equal(t, physics.DefaultParams(), cfg.Physics)
	require.NotNil(t, cfg.Server.Port)
	assert.Equal(t, DefaultServerPort, *cfg.Server.Port)
	assert.Equal(t, DriverFile, cfg.Dataset.Driver)
	assert.Equal(t, 300, cfg.Settle.DebounceMS)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	writeFile(t, path, `
[view]
mode = "poincare"
disk_radius = 320.0

[physics]
repulsion = 120.0

[physics.link_distances]
wrote = 25.0

[dataset]
path = "memories.db"
driver = "sqlite3"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, projection.ModeHyperbolic, cfg.View.Mode)
	assert.Equal(t, 320.0, cfg.View.DiskRadius)
	assert.Equal(t, projection.DefaultSphereRadius, cfg.View.SphereRadius, "defaults fill the rest")
	assert.Equal(t, 120.0, cfg.Physics.Repulsion)
	assert.Equal(t, 25.0, cfg.Physics.DistanceFor("wrote"))
	assert.Equal(t, DriverSQLite, cfg.Dataset.Driver)
	assert.NoError(t, cfg.Validate())

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_MergesProjectConfigAndEnv(t *testing.T) {
	home, project := isolate(t)
	writeFile(t, filepath.Join(home, UserDirName, ConfigFileName), `
[view]
mode = "2.5d"
max_depth = 900.0
`)
	writeFile(t, filepath.Join(project, ConfigFileName), `
[view]
mode = "poincare"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, projection.ModeHyperbolic, cfg.View.Mode, "project overrides user")
	assert.Equal(t, 900.0, cfg.View.MaxDepth, "user layer survives the merge")
	assert.Equal(t, SourceProject, ConfigSources["view.mode"].Source)
	assert.Equal(t, SourceUser, ConfigSources["view.max_depth"].Source)
	assert.NotEmpty(t, ProjectConfigPath())

	cached, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, cached)

	Reset()
	t.Setenv("VISTA_VIEW_MODE", "3d")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, projection.ModeSpherical, cfg.View.Mode, "env overrides files")
}

func TestGetConfigIntrospection(t *testing.T) {
	_, project := isolate(t)
	writeFile(t, filepath.Join(project, ConfigFileName), `
[server]
port = 9100
`)
	t.Setenv("VISTA_DATASET_PATH", "env.json")

	got := GetConfigIntrospection()
	bySetting := make(map[string]SettingInfo)
	for _, s := range got.Settings {
		bySetting[s.Key] = s
	}

	assert.Equal(t, SourceProject, bySetting["server.port"].Source)
	assert.Equal(t, SourceEnvironment, bySetting["dataset.path"].Source)
	assert.Equal(t, "VISTA_DATASET_PATH", bySetting["dataset.path"].SourcePath)
	assert.Equal(t, SourceDefault, bySetting["view.sphere_radius"].Source)
}

func TestValidate(t *testing.T) {
	port := func(p int) *int { return &p }

	tests := []struct {
		name   string
		mutate func(c *Config)
		check  func(error) bool
	}{
		{"defaults", func(c *Config) {}, nil},
		{"external mode", func(c *Config) { c.View.Mode = projection.ModeTDA }, nil},
		{"unknown mode", func(c *Config) { c.View.Mode = "4d" }, errors.IsUnknownMode},
		{"view range", func(c *Config) { c.View.LayerCount = 0 }, errors.IsInvalidConfig},
		{"physics range", func(c *Config) { c.Physics.AlphaDecay = 1 }, errors.IsInvalidConfig},
		{"zero port", func(c *Config) { c.Server.Port = port(0) }, errors.IsInvalidConfig},
		{"port too large", func(c *Config) { c.Server.Port = port(70000) }, errors.IsInvalidConfig},
		{"negative debounce", func(c *Config) { c.Settle.DebounceMS = -1 }, errors.IsInvalidConfig},
		{"threshold at one", func(c *Config) { c.Settle.Threshold = 1 }, errors.IsInvalidConfig},
		{"unknown driver", func(c *Config) { c.Dataset.Driver = "postgres" }, errors.IsInvalidConfig},
		{"negative fps", func(c *Config) { c.Server.PositionsFPS = -1 }, errors.IsInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.check == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestDerivedSettings(t *testing.T) {
	cfg := defaultConfig(t)
	assert.Equal(t, "127.0.0.1:8777", cfg.ServerAddress())
	assert.Equal(t, time.Second/60, cfg.TickInterval())

	opts := cfg.ViewOptions()
	assert.Equal(t, view.DefaultDebounce, opts.Debounce)
	assert.Equal(t, view.DefaultSettleThreshold, opts.SettleThreshold)
	assert.Equal(t, int64(1), opts.Seed)

	cfg.Settle.DebounceMS = 50
	cfg.Server.TickHz = 0
	cfg.Server.AllowedOrigins = nil
	assert.Equal(t, 50*time.Millisecond, cfg.ViewOptions().Debounce)
	assert.Equal(t, time.Second/DefaultTickHz, cfg.TickInterval())
	assert.Contains(t, cfg.GetServerAllowedOrigins(), "http://localhost")
}
