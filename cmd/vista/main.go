package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teranos/vista/cmd/vista/commands"
	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/logger"
)

var rootCmd = &cobra.Command{
	Use:   "vista",
	Short: "vista - multi-representation projection engine for memory graphs",
	Long: `vista - Multi-representation projection engine for memory graphs.

vista lays a memory graph out with a force simulation and projects it into
several view modes: flat 2D, 2.5D temporal layers, a 3D sphere and the
Poincaré disk. Connected renderers receive every frame over a websocket.

Available commands:
  serve   - Run the simulation and stream view frames over websocket
  project - Project a dataset once and print the result
  am      - Manage vista configuration ("I am")
  version - Show version information

Examples:
  vista serve                          # Serve the configured dataset
  vista project --mode poincare        # Print Poincaré disk coordinates
  vista am show                        # Show current configuration`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&commands.ConfigFile, "config", "", "Read configuration from this file only")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ProjectCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
