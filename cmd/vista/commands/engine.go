package commands

import (
	"context"

	"github.com/teranos/vista/am"
	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/radial"
	"github.com/teranos/vista/render"
	"github.com/teranos/vista/view"
	"go.uber.org/zap"
)

// ConfigFile is set by the root --config flag. Empty means the normal
// system/user/project/env merge.
var ConfigFile string

// loadConfig loads and validates the configuration
func loadConfig() (*am.Config, error) {
	var (
		cfg *am.Config
		err error
	)
	if ConfigFile != "" {
		cfg, err = am.LoadFromFile(ConfigFile)
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// datasetOverrides are the --dataset / --driver flags shared by serve and project
type datasetOverrides struct {
	path   string
	driver string
}

func (o datasetOverrides) apply(cfg *am.Config) error {
	if o.path != "" {
		cfg.Dataset.Path = o.path
	}
	if o.driver != "" {
		cfg.Dataset.Driver = o.driver
	}
	if cfg.Dataset.Path == "" {
		return errors.WithHint(
			errors.NewInvalidConfigError("no dataset configured"),
			"set dataset.path in am.toml or pass --dataset",
		)
	}
	return nil
}

// loadDataset reads the configured graph
func loadDataset(ctx context.Context, ds am.DatasetConfig, log *zap.SugaredLogger) (*graph.Graph, error) {
	log = logger.AddDatasetSymbol(log)

	switch ds.Driver {
	case am.DriverSQLite:
		db, err := graph.OpenSQLite(ds.Path, log)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return graph.LoadSQLite(ctx, db, log)
	case am.DriverFile, "":
		return graph.LoadFile(ds.Path)
	default:
		return nil, errors.NewInvalidConfigError("unknown dataset driver %q", ds.Driver)
	}
}

// loadPresets reads the physics preset file, if there is one
func loadPresets(cfg *am.Config, log *zap.SugaredLogger) am.Presets {
	path := cfg.Dataset.Presets
	if path == "" {
		path = am.FindPresets()
	}
	if path == "" {
		return nil
	}

	presets, err := am.LoadPresets(path)
	if err != nil {
		log.Warnw("Ignoring physics presets", logger.FieldPath, path, logger.FieldError, err)
		return nil
	}
	log.Debugw("Loaded physics presets", logger.FieldPath, path, "count", len(presets))
	return presets
}

// engine is a simulation wired to a view machine
type engine struct {
	graph   *graph.Graph
	sim     *physics.ForceSimulation
	machine *view.Machine
}

// buildEngine creates the simulation and machine for g. The machine starts
// in cfg.View.Mode.
func buildEngine(g *graph.Graph, cfg *am.Config, renderer render.Renderer, post view.PostFunc, log *zap.SugaredLogger) (*engine, error) {
	matcher := radial.NewMatcher()
	sim := physics.NewForceSimulation(g, cfg.Physics, matcher, cfg.Dataset.Seed, log.Named("physics"))

	m, err := view.NewMachine(g, sim, renderer, matcher, cfg.View, cfg.ViewOptions(), post, log)
	if err != nil {
		return nil, err
	}
	return &engine{graph: g, sim: sim, machine: m}, nil
}
