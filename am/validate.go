package am

import (
	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/radial"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := validateMode(c.View.Mode); err != nil {
		return err
	}
	if err := c.View.Validate(); err != nil {
		return err
	}
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	warnRadialTarget("view.radial_target", c.View.RadialTarget)
	warnRadialTarget("physics.radial_target", c.Physics.RadialTarget)

	// Settle: 0 = use default, negative = invalid
	if c.Settle.DebounceMS < 0 {
		return errors.NewInvalidConfigError("settle.debounce_ms must be >= 0, got %d", c.Settle.DebounceMS)
	}
	if c.Settle.Threshold < 0 || c.Settle.Threshold >= 1 {
		return errors.NewInvalidConfigError("settle.threshold must be in [0,1), got %v", c.Settle.Threshold)
	}
	if c.Settle.ReheatAlpha < 0 || c.Settle.ReheatAlpha > 1 {
		return errors.NewInvalidConfigError("settle.reheat_alpha must be in [0,1], got %v", c.Settle.ReheatAlpha)
	}

	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.WithHintf(
			errors.NewInvalidConfigError("server.port cannot be 0"),
			"omit server.port for the default port %d", DefaultServerPort,
		)
	}
	if c.Server.Port != nil && (*c.Server.Port < 0 || *c.Server.Port > 65535) {
		return errors.NewInvalidConfigError("server.port must be in 1..65535, got %d", *c.Server.Port)
	}
	if c.Server.MaxClients < 0 {
		return errors.NewInvalidConfigError("server.max_clients must be >= 0, got %d", c.Server.MaxClients)
	}
	if c.Server.TickHz < 0 {
		return errors.NewInvalidConfigError("server.tick_hz must be >= 0, got %d", c.Server.TickHz)
	}
	if c.Server.PositionsFPS < 0 {
		return errors.NewInvalidConfigError("server.positions_fps must be >= 0, got %v", c.Server.PositionsFPS)
	}

	switch c.Dataset.Driver {
	case "", DriverFile, DriverSQLite:
	default:
		return errors.WithHintf(
			errors.NewInvalidConfigError("unknown dataset.driver %q", c.Dataset.Driver),
			"use %q or %q", DriverFile, DriverSQLite,
		)
	}

	if c.Log.Verbosity < 0 {
		return errors.NewInvalidConfigError("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}
	return nil
}

// validateMode accepts builtin and known external modes. Empty means 2d.
func validateMode(mode projection.Mode) error {
	if mode == "" {
		return nil
	}
	if _, ok := projection.BuiltinModes[mode]; ok {
		return nil
	}
	for _, m := range projection.ExternalModes {
		if m == mode {
			return nil
		}
	}
	return errors.WithHint(
		errors.Wrapf(errors.ErrUnknownMode, "view.mode %q", mode),
		"use 2d, 2.5d, 3d or poincare",
	)
}

// warnRadialTarget logs keys the matcher will never match. They are not
// errors: the radial force and surface push simply stay off.
func warnRadialTarget(key, target string) {
	if target == "" {
		return
	}
	if _, ok := radial.ParseTarget(target); !ok {
		logger.Warnw("Radial target matches no node",
			logger.FieldParam, key,
			"target", target,
		)
	}
}
