package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/vista/am"
	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/server"
	"github.com/teranos/vista/sym"
	"github.com/teranos/vista/view"
	"go.uber.org/zap"
)

// ServeCmd runs the simulation and streams frames to websocket renderers
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: sym.Renderer + " Serve view frames over websocket",
	Long: sym.Renderer + ` serve - Run the force simulation and stream view frames

Loads the configured dataset, runs the physics loop at server.tick_hz and
publishes every projection to connected renderers over /ws. Clients switch
view modes, edit physics and filter node types over the same socket.

Edits to the project am.toml and to the dataset file are picked up while
serving.

Examples:
  vista serve                              # Serve dataset.path from am.toml
  vista serve --dataset memories.db --driver sqlite3
  vista serve --port 9000 --mode poincare`,
	RunE: runServe,
}

var (
	serveDataset datasetOverrides
	servePort    int
	serveMode    string
)

func init() {
	ServeCmd.Flags().StringVar(&serveDataset.path, "dataset", "", "Dataset path (overrides dataset.path)")
	ServeCmd.Flags().StringVar(&serveDataset.driver, "driver", "", "Dataset driver: file or sqlite3")
	ServeCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Server port (overrides server.port)")
	ServeCmd.Flags().StringVar(&serveMode, "mode", "", "Initial view mode (overrides view.mode)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.ComponentLogger("serve")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := serveDataset.apply(cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = &servePort
	}
	if serveMode != "" {
		cfg.View.Mode = projection.Mode(serveMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := loadDataset(ctx, cfg.Dataset, log)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		AllowedOrigins: cfg.GetServerAllowedOrigins(),
		MaxClients:     cfg.Server.MaxClients,
		PositionsFPS:   cfg.Server.PositionsFPS,
		PersistEdits:   cfg.Server.PersistEdits,
		Presets:        loadPresets(cfg, log),
	}, logger.ComponentLogger("server"))

	loop := view.NewLoop(0, logger.ComponentLogger("loop"))
	eng, err := buildEngine(g, cfg, srv, loop.Post, logger.ComponentLogger("view"))
	if err != nil {
		return err
	}
	srv.Attach(eng.machine, loop)

	go loop.Run(ctx)
	defer loop.Stop()
	go runTicks(ctx, loop, eng, cfg.TickInterval())

	if watcher := watchProjectConfig(ctx, loop, eng, log); watcher != nil {
		defer watcher.Stop()
	}
	if watcher := watchDataset(ctx, cfg.Dataset, loop, eng, log); watcher != nil {
		defer watcher.Stop()
	}

	printStartupBanner(cfg, eng)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(cfg.ServerAddress())
	}()

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	// Restore default signal handling so a second Ctrl+C still works
	stop()
	pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

	shutdownDone := make(chan error, 1)
	go func() {
		shutdownDone <- srv.Stop()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-shutdownDone:
		if err != nil {
			return errors.Wrap(err, "shutdown failed")
		}
		pterm.Success.Println("Server stopped")
		return nil
	case <-sigChan:
		pterm.Warning.Println("\nForce shutdown - exiting immediately")
		os.Exit(1)
		return nil
	}
}

// runTicks drives the simulation from the loop until ctx is done
func runTicks(ctx context.Context, loop *view.Loop, eng *engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := loop.Post(eng.machine.Tick); err != nil {
				return
			}
		}
	}
}

// watchProjectConfig applies project am.toml edits to the running machine.
// Returns nil when no project config was found.
func watchProjectConfig(ctx context.Context, loop *view.Loop, eng *engine, log *zap.SugaredLogger) *am.ConfigWatcher {
	path := ConfigFile
	if path == "" {
		path = am.ProjectConfigPath()
	}
	if path == "" {
		return nil
	}

	watcher, err := am.NewConfigWatcher(path, logger.ComponentLogger("am"))
	if err != nil {
		log.Warnw("Config hot reload disabled", logger.FieldPath, path, logger.FieldError, err)
		return nil
	}

	watcher.OnReload(func(next *am.Config) error {
		var applyErr error
		err := loop.Do(ctx, func() {
			if err := eng.machine.SetConfig(next.View); err != nil {
				applyErr = err
				return
			}
			applyErr = eng.machine.SetParams(physics.Diff(eng.sim.Params(), next.Physics))
		})
		if err != nil {
			return err
		}
		return applyErr
	})
	watcher.Start()
	am.SetGlobalWatcher(watcher)

	log.Infow("Watching config", logger.FieldPath, path)
	return watcher
}

// watchDataset refreshes the running machine whenever the dataset file is
// rewritten. Returns nil when the watch could not be set up.
func watchDataset(ctx context.Context, ds am.DatasetConfig, loop *view.Loop, eng *engine, log *zap.SugaredLogger) *graph.Watcher {
	load := func() (*graph.Graph, error) {
		return loadDataset(ctx, ds, log)
	}

	watcher, err := graph.NewWatcher(ds.Path, load, logger.ComponentLogger("dataset"))
	if err != nil {
		log.Warnw("Dataset hot reload disabled", logger.FieldPath, ds.Path, logger.FieldError, err)
		return nil
	}

	watcher.OnReload(func(g *graph.Graph) error {
		var refreshErr error
		err := loop.Do(ctx, func() {
			eng.graph = g
			refreshErr = eng.machine.RefreshDataset(g)
		})
		if err != nil {
			return err
		}
		return refreshErr
	})
	watcher.Start()

	log.Infow("Watching dataset", logger.FieldPath, ds.Path)
	return watcher
}
