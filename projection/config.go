// Package projection derives display-space coordinates from simulation
// space: temporal Z layering (2.5D), spherical polar mapping (3D) and
// Poincaré disk embedding with geodesic edges.
package projection

import (
	"github.com/teranos/vista/errors"
)

// Config is the process-wide view configuration read by every projector
type Config struct {
	Mode Mode `mapstructure:"mode" toml:"mode" json:"mode"`

	// 2.5D temporal layering
	MaxDepth       float64 `mapstructure:"max_depth" toml:"max_depth" json:"max_depth"`
	Continuous     bool    `mapstructure:"continuous" toml:"continuous" json:"continuous"`
	LayerCount     int     `mapstructure:"layer_count" toml:"layer_count" json:"layer_count"`
	OpacityFalloff float64 `mapstructure:"opacity_falloff" toml:"opacity_falloff" json:"opacity_falloff"`
	SizeFalloff    float64 `mapstructure:"size_falloff" toml:"size_falloff" json:"size_falloff"`

	// 3D sphere
	SphereRadius  float64 `mapstructure:"sphere_radius" toml:"sphere_radius" json:"sphere_radius"`
	PushToSurface bool    `mapstructure:"push_to_surface" toml:"push_to_surface" json:"push_to_surface"`
	PushStrength  float64 `mapstructure:"push_strength" toml:"push_strength" json:"push_strength"`
	RadialTarget  string  `mapstructure:"radial_target" toml:"radial_target" json:"radial_target"`

	// Poincaré disk
	DiskRadius       float64 `mapstructure:"disk_radius" toml:"disk_radius" json:"disk_radius"`
	GeodesicSegments int     `mapstructure:"geodesic_segments" toml:"geodesic_segments" json:"geodesic_segments"`
}

// Defaults
const (
	DefaultMaxDepth         = 600.0
	DefaultLayerCount       = 5
	DefaultOpacityFalloff   = 0.7
	DefaultSizeFalloff      = 0.5
	DefaultSphereRadius     = 800.0
	DefaultPushStrength     = 0.5
	DefaultDiskRadius       = 500.0
	DefaultGeodesicSegments = 24
)

// DefaultConfig returns the configuration used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Mode:             ModeFlat,
		MaxDepth:         DefaultMaxDepth,
		Continuous:       true,
		LayerCount:       DefaultLayerCount,
		OpacityFalloff:   DefaultOpacityFalloff,
		SizeFalloff:      DefaultSizeFalloff,
		SphereRadius:     DefaultSphereRadius,
		PushStrength:     DefaultPushStrength,
		DiskRadius:       DefaultDiskRadius,
		GeodesicSegments: DefaultGeodesicSegments,
	}
}

// Validate checks value ranges. Mode is not checked here because external
// modes are registered at runtime.
func (c Config) Validate() error {
	if c.MaxDepth <= 0 {
		return errors.NewInvalidConfigError("view.max_depth must be positive, got %v", c.MaxDepth)
	}
	if c.LayerCount < 1 {
		return errors.NewInvalidConfigError("view.layer_count must be at least 1, got %d", c.LayerCount)
	}
	if c.OpacityFalloff < 0 {
		return errors.NewInvalidConfigError("view.opacity_falloff must not be negative, got %v", c.OpacityFalloff)
	}
	if c.SizeFalloff < 0 {
		return errors.NewInvalidConfigError("view.size_falloff must not be negative, got %v", c.SizeFalloff)
	}
	if c.SphereRadius <= 0 {
		return errors.NewInvalidConfigError("view.sphere_radius must be positive, got %v", c.SphereRadius)
	}
	if c.PushStrength < 0 || c.PushStrength > 1 {
		return errors.NewInvalidConfigError("view.push_strength must be in [0,1], got %v", c.PushStrength)
	}
	if c.DiskRadius <= 0 {
		return errors.NewInvalidConfigError("view.disk_radius must be positive, got %v", c.DiskRadius)
	}
	if c.GeodesicSegments < 1 {
		return errors.NewInvalidConfigError("view.geodesic_segments must be at least 1, got %d", c.GeodesicSegments)
	}
	return nil
}
