package am

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/view"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// View defaults
	vc := projection.DefaultConfig()
	v.SetDefault("view.mode", string(vc.Mode))
	v.SetDefault("view.max_depth", vc.MaxDepth)
	v.SetDefault("view.continuous", vc.Continuous)
	v.SetDefault("view.layer_count", vc.LayerCount)
	v.SetDefault("view.opacity_falloff", vc.OpacityFalloff)
	v.SetDefault("view.size_falloff", vc.SizeFalloff)
	v.SetDefault("view.sphere_radius", vc.SphereRadius)
	v.SetDefault("view.push_to_surface", vc.PushToSurface)
	v.SetDefault("view.push_strength", vc.PushStrength)
	v.SetDefault("view.radial_target", vc.RadialTarget)
	v.SetDefault("view.disk_radius", vc.DiskRadius)
	v.SetDefault("view.geodesic_segments", vc.GeodesicSegments)

	// Physics defaults
	p := physics.DefaultParams()
	v.SetDefault("physics.repulsion", p.Repulsion)
	v.SetDefault("physics.link_distance", p.LinkDistance)
	v.SetDefault("physics.link_strength", p.LinkStrength)
	v.SetDefault("physics.center_strength", p.CenterStrength)
	v.SetDefault("physics.radial_target", p.RadialTarget)
	v.SetDefault("physics.radial_strength", p.RadialStrength)
	v.SetDefault("physics.radial_radius", p.RadialRadius)
	v.SetDefault("physics.collision_radius", p.CollisionRadius)
	v.SetDefault("physics.alpha_decay", p.AlphaDecay)
	v.SetDefault("physics.velocity_decay", p.VelocityDecay)
	v.SetDefault("physics.alpha_min", p.AlphaMin)

	// Deferred re-projection
	v.SetDefault("settle.debounce_ms", int(view.DefaultDebounce/time.Millisecond))
	v.SetDefault("settle.threshold", view.DefaultSettleThreshold)
	v.SetDefault("settle.reheat_alpha", view.DefaultReheatAlpha)

	// Server defaults
	v.SetDefault("server.host", DefaultServerHost)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.max_clients", DefaultMaxClients)
	v.SetDefault("server.tick_hz", DefaultTickHz)
	v.SetDefault("server.positions_fps", DefaultPositionsFPS)
	v.SetDefault("server.persist_edits", false)

	// Dataset defaults
	v.SetDefault("dataset.path", "graph.json")
	v.SetDefault("dataset.driver", DriverFile)
	v.SetDefault("dataset.seed", 1)

	// Log defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}

// BindEnvVars binds the settings most often overridden per run
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("dataset.path", EnvPrefix+"_DATASET_PATH")
	v.BindEnv("dataset.driver", EnvPrefix+"_DATASET_DRIVER")
	v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT")
	v.BindEnv("view.mode", EnvPrefix+"_VIEW_MODE")
}

// ServerAddress returns host:port for the websocket server
func (c *Config) ServerAddress() string {
	host := c.Server.Host
	if host == "" {
		host = DefaultServerHost
	}
	port := DefaultServerPort
	if c.Server.Port != nil {
		port = *c.Server.Port
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// GetServerAllowedOrigins returns the allowed websocket origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
		}
	}
	return c.Server.AllowedOrigins
}

// ViewOptions converts the settle section into view machine options
func (c *Config) ViewOptions() view.Options {
	opts := view.DefaultOptions()
	if c.Settle.DebounceMS > 0 {
		opts.Debounce = time.Duration(c.Settle.DebounceMS) * time.Millisecond
	}
	if c.Settle.Threshold > 0 {
		opts.SettleThreshold = c.Settle.Threshold
	}
	if c.Settle.ReheatAlpha > 0 {
		opts.ReheatAlpha = c.Settle.ReheatAlpha
	}
	opts.Seed = c.Dataset.Seed
	return opts
}

// TickInterval returns the simulation tick period
func (c *Config) TickInterval() time.Duration {
	hz := c.Server.TickHz
	if hz <= 0 {
		hz = DefaultTickHz
	}
	return time.Second / time.Duration(hz)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{View: {Mode: %s}, Dataset: {Path: %s, Driver: %s}, Server: %s}",
		c.View.Mode, c.Dataset.Path, c.Dataset.Driver, c.ServerAddress())
}
