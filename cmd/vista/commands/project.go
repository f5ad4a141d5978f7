package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/vista/am"
	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/render"
	"github.com/teranos/vista/sym"
	"github.com/teranos/vista/view"
	"gopkg.in/yaml.v3"
)

// DefaultProjectTicks bounds the layout run before projecting
const DefaultProjectTicks = 500

// ProjectCmd lays a dataset out once and prints the projected coordinates
var ProjectCmd = &cobra.Command{
	Use:   "project",
	Short: sym.Reproj + " Project a dataset once and print the coordinates",
	Long: sym.Reproj + ` project - Run the layout to rest and print one projection

The simulation runs until it settles or --ticks is reached, then the
requested view mode projects the resting layout.

Examples:
  vista project                                # Flat layout, as a table
  vista project --mode 3d --format json        # Sphere coordinates as JSON
  vista project --mode poincare --format yaml --dataset graph.yaml`,
	RunE: runProject,
}

var (
	projectDataset datasetOverrides
	projectMode    string
	projectTicks   int
	projectFormat  string
	projectLimit   int
)

func init() {
	ProjectCmd.Flags().StringVar(&projectDataset.path, "dataset", "", "Dataset path (overrides dataset.path)")
	ProjectCmd.Flags().StringVar(&projectDataset.driver, "driver", "", "Dataset driver: file or sqlite3")
	ProjectCmd.Flags().StringVarP(&projectMode, "mode", "m", "", "View mode: 2d, 2.5d, 3d, poincare (default view.mode)")
	ProjectCmd.Flags().IntVar(&projectTicks, "ticks", DefaultProjectTicks, "Maximum simulation ticks before projecting")
	ProjectCmd.Flags().StringVarP(&projectFormat, "format", "f", "table", "Output format: table, json, yaml")
	ProjectCmd.Flags().IntVar(&projectLimit, "limit", 20, "Rows shown in table output (0 = all)")
}

// ProjectedNode is one node of a projection result
type ProjectedNode struct {
	ID      string  `json:"id" yaml:"id"`
	Type    string  `json:"type" yaml:"type"`
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Z       float64 `json:"z" yaml:"z"`
	Visible bool    `json:"visible" yaml:"visible"`
}

// Projection is the output of the project command
type Projection struct {
	Mode          projection.Mode `json:"mode" yaml:"mode"`
	DatasetID     string          `json:"dataset_id" yaml:"dataset_id"`
	Ticks         int             `json:"ticks" yaml:"ticks"`
	Alpha         float64         `json:"alpha" yaml:"alpha"`
	Settled       bool            `json:"settled" yaml:"settled"`
	Layers        []string        `json:"layers" yaml:"layers"`
	Nodes         []ProjectedNode `json:"nodes" yaml:"nodes"`
	GeodesicEdges int             `json:"geodesic_edges,omitempty" yaml:"geodesic_edges,omitempty"`
	DiskRadius    float64         `json:"disk_radius,omitempty" yaml:"disk_radius,omitempty"`
}

func runProject(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := projectDataset.apply(cfg); err != nil {
		return err
	}

	mode := cfg.View.Mode
	if projectMode != "" {
		mode = projection.Mode(projectMode)
	}

	log := logger.ComponentLogger("project")
	g, err := loadDataset(cmd.Context(), cfg.Dataset, log)
	if err != nil {
		return err
	}

	result, err := project(cmd.Context(), g, cfg, mode, projectTicks)
	if err != nil {
		return err
	}
	return writeProjection(cmd.OutOrStdout(), result, projectFormat, projectLimit)
}

// project runs the layout for at most maxTicks, switches to mode and
// returns what the renderer received. The machine runs on its own loop so
// deferred re-projection timers stay on one goroutine.
func project(ctx context.Context, g *graph.Graph, cfg *am.Config, mode projection.Mode, maxTicks int) (*Projection, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := view.NewLoop(0, logger.ComponentLogger("loop"))
	go loop.Run(runCtx)
	defer loop.Stop()

	flat := *cfg
	flat.View.Mode = projection.ModeFlat
	threshold := cfg.ViewOptions().SettleThreshold

	rec := render.NewRecorder()
	var (
		result *Projection
		runErr error
	)
	err := loop.Do(ctx, func() {
		eng, err := buildEngine(g, &flat, rec, loop.Post, logger.ComponentLogger("view"))
		if err != nil {
			runErr = err
			return
		}

		ticks := 0
		for ticks < maxTicks && eng.sim.Alpha() >= threshold {
			eng.machine.Tick()
			ticks++
		}
		if err := eng.machine.SetMode(mode); err != nil {
			runErr = err
			return
		}
		result = collectProjection(g, rec, eng, ticks, threshold)
	})
	if err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}

func collectProjection(g *graph.Graph, rec *render.Recorder, eng *engine, ticks int, threshold float64) *Projection {
	alpha := eng.sim.Alpha()
	p := &Projection{
		Mode:          eng.machine.Mode(),
		DatasetID:     g.Meta.DatasetID,
		Ticks:         ticks,
		Alpha:         alpha,
		Settled:       alpha < threshold,
		Nodes:         make([]ProjectedNode, 0, len(g.Nodes)),
		GeodesicEdges: len(rec.Edges),
		DiskRadius:    rec.DiskRadius,
	}

	for _, layer := range render.AllLayers {
		if rec.IsVisible(layer) {
			p.Layers = append(p.Layers, string(layer))
		}
	}
	sort.Strings(p.Layers)

	for i, node := range g.Nodes {
		pn := ProjectedNode{ID: node.ID, Type: node.Type, Visible: node.Visible}
		if i < len(rec.Positions) {
			pn.X, pn.Y, pn.Z = rec.Positions[i].X, rec.Positions[i].Y, rec.Positions[i].Z
		}
		p.Nodes = append(p.Nodes, pn)
	}
	return p
}

// writeProjection renders p as a table, JSON or YAML
func writeProjection(w io.Writer, p *Projection, format string, limit int) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal projection to JSON")
		}
		fmt.Fprintln(w, string(data))
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return errors.Wrap(err, "failed to marshal projection to YAML")
		}
		return enc.Close()
	case "table":
		return writeProjectionTable(w, p, limit)
	default:
		return errors.Newf("unsupported format: %s (supported: table, json, yaml)", format)
	}
}

func writeProjectionTable(w io.Writer, p *Projection, limit int) error {
	settled := "settled"
	if !p.Settled {
		settled = fmt.Sprintf("not settled, alpha %.3f", p.Alpha)
	}
	fmt.Fprintf(w, "%s %s  %d nodes after %d ticks (%s)\n",
		sym.ForMode(string(p.Mode)), p.Mode, len(p.Nodes), p.Ticks, settled)
	if p.GeodesicEdges > 0 {
		fmt.Fprintf(w, "%d geodesic edges, disk radius %.1f\n", p.GeodesicEdges, p.DiskRadius)
	}

	rows := p.Nodes
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	data := pterm.TableData{{"ID", "Type", "X", "Y", "Z"}}
	for _, n := range rows {
		data = append(data, []string{
			n.ID, n.Type,
			fmt.Sprintf("%.2f", n.X),
			fmt.Sprintf("%.2f", n.Y),
			fmt.Sprintf("%.2f", n.Z),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return err
	}
	if len(rows) < len(p.Nodes) {
		fmt.Fprintf(w, "... %d more (use --limit 0 or --format json)\n", len(p.Nodes)-len(rows))
	}
	return nil
}
