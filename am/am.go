// Package am ("as configured") loads vista's TOML configuration through
// viper, validates it, watches it for edits and persists UI changes.
package am

import (
	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/projection"
)

// Config represents the complete vista configuration
type Config struct {
	View    projection.Config `mapstructure:"view" toml:"view"`
	Physics physics.Params    `mapstructure:"physics" toml:"physics"`
	Settle  SettleConfig      `mapstructure:"settle" toml:"settle"`
	Server  ServerConfig      `mapstructure:"server" toml:"server"`
	Dataset DatasetConfig     `mapstructure:"dataset" toml:"dataset"`
	Log     LogConfig         `mapstructure:"log" toml:"log"`
}

// SettleConfig tunes deferred re-projection of static views
type SettleConfig struct {
	DebounceMS  int     `mapstructure:"debounce_ms" toml:"debounce_ms"`   // Delay before a re-projection may fire
	Threshold   float64 `mapstructure:"threshold" toml:"threshold"`       // Alpha below which the layout is settled
	ReheatAlpha float64 `mapstructure:"reheat_alpha" toml:"reheat_alpha"` // Alpha after a parameter edit
}

// ServerConfig configures the websocket rendering server
type ServerConfig struct {
	Host           string   `mapstructure:"host" toml:"host"`
	Port           *int     `mapstructure:"port" toml:"port"` // nil = DefaultServerPort, 0 is invalid
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`
	MaxClients     int      `mapstructure:"max_clients" toml:"max_clients"`
	TickHz         int      `mapstructure:"tick_hz" toml:"tick_hz"`             // Simulation ticks per second
	PositionsFPS   float64  `mapstructure:"positions_fps" toml:"positions_fps"` // Cap on positions frames per client
	PersistEdits   bool     `mapstructure:"persist_edits" toml:"persist_edits"` // Write UI edits to am_from_ui.toml
}

// DatasetConfig selects the graph to load
type DatasetConfig struct {
	Path    string `mapstructure:"path" toml:"path"`
	Driver  string `mapstructure:"driver" toml:"driver"`   // "file" (JSON/YAML) or "sqlite3"
	Seed    int64  `mapstructure:"seed" toml:"seed"`       // Seeds layout jiggle and fallback placement
	Presets string `mapstructure:"presets" toml:"presets"` // Physics preset file; empty = search for am.presets.toml
}

// LogConfig configures the zap logger
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity"`
}

// Dataset drivers
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite3"
)

// Server defaults
const (
	DefaultServerHost   = "127.0.0.1"
	DefaultServerPort   = 8777
	DefaultMaxClients   = 32
	DefaultTickHz       = 60
	DefaultPositionsFPS = 30.0
)

// File names
const (
	ConfigFileName  = "am.toml"
	UIConfigName    = "am_from_ui.toml"
	PresetsFileName = "am.presets.toml"
	UserDirName     = ".vista"
	EnvPrefix       = "VISTA"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
