package projection

import (
	"math"

	"go.uber.org/zap"

	"github.com/teranos/vista/geodesic"
	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/space"
)

// Embedder maps a node subset into the unit disk. positions and the
// returned points are aligned with nodes; links reference indices into
// nodes. Implementations may return points outside the disk; they are
// clamped.
type Embedder interface {
	Embed(nodes []graph.Node, positions space.SimulationFrame, links []graph.Link) []geodesic.Point
}

// RadialEmbedder is the default Embedder. It keeps each node's angle
// around the subset centroid and compresses distance with tanh, so the
// periphery crowds toward the boundary the way hyperbolic space does.
type RadialEmbedder struct {
	Compression float64 // tanh gain on normalized distance; 0 means 1.5
}

// Embed implements Embedder
func (e RadialEmbedder) Embed(nodes []graph.Node, positions space.SimulationFrame, _ []graph.Link) []geodesic.Point {
	gain := e.Compression
	if gain == 0 {
		gain = 1.5
	}

	bounds, ok := space.ComputeSpatialBounds(positions)
	points := make([]geodesic.Point, len(positions))
	if !ok {
		return points
	}

	for i, p := range positions {
		if !p.Finite() {
			continue
		}
		dx, dy := p.X-bounds.CenterX, p.Y-bounds.CenterY
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			continue
		}
		norm := math.Tanh(gain*dist/bounds.MaxRadius) * geodesic.MaxNorm
		points[i] = geodesic.Point{X: dx / dist * norm, Y: dy / dist * norm}
	}
	return points
}

// GeodesicEdge is one enabled edge and its arc in unit-disk coordinates
type GeodesicEdge struct {
	Source int              `json:"source"`
	Target int              `json:"target"`
	Arc    []geodesic.Point `json:"arc"`
}

// HyperbolicResult is everything the Poincaré view hands the renderer
type HyperbolicResult struct {
	Display space.DisplayFrame // disk points scaled by DiskRadius, z = 0
	Disk    []geodesic.Point   // unit-disk point per node, origin when filtered out
	Edges   []GeodesicEdge
	Enabled int
	Invalid int // embedder points replaced by the origin
}

// Hyperbolic places the enabled nodes in the Poincaré disk through an
// Embedder and draws enabled edges as geodesic arcs
type Hyperbolic struct {
	cfg      Config
	embedder Embedder
	logger   *zap.SugaredLogger
}

// NewHyperbolic creates a Poincaré projector. A nil embedder uses RadialEmbedder.
func NewHyperbolic(cfg Config, embedder Embedder, logger *zap.SugaredLogger) *Hyperbolic {
	if embedder == nil {
		embedder = RadialEmbedder{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hyperbolic{cfg: cfg, embedder: embedder, logger: logger}
}

// Project embeds the nodes flagged in enabled. Filtered-out nodes collapse
// to the origin. An edge is drawn when both endpoints are enabled and it
// is not hidden.
func (h *Hyperbolic) Project(g *graph.Graph, frame space.SimulationFrame, enabled []bool) HyperbolicResult {
	n := len(frame)
	result := HyperbolicResult{
		Display: make(space.DisplayFrame, n),
		Disk:    make([]geodesic.Point, n),
	}
	if g == nil {
		return result
	}

	isEnabled := func(i int) bool {
		return i >= 0 && i < n && i < len(g.Nodes) && (i >= len(enabled) || enabled[i])
	}

	// Restrict to the enabled subset, remembering original indices
	var (
		subsetNodes []graph.Node
		subsetPos   space.SimulationFrame
		original    []int
		local       = make(map[int]int)
	)
	for i := 0; i < n && i < len(g.Nodes); i++ {
		if !isEnabled(i) {
			continue
		}
		local[i] = len(original)
		original = append(original, i)
		subsetNodes = append(subsetNodes, g.Nodes[i])
		subsetPos = append(subsetPos, frame[i])
	}
	result.Enabled = len(original)

	var subsetLinks []graph.Link
	for _, link := range g.Links {
		if link.Hidden || !isEnabled(link.Source) || !isEnabled(link.Target) {
			continue
		}
		l := link
		l.Source, l.Target = local[link.Source], local[link.Target]
		subsetLinks = append(subsetLinks, l)
	}

	if len(original) > 0 {
		points := h.embedder.Embed(subsetNodes, subsetPos, subsetLinks)
		for j, i := range original {
			if j >= len(points) || !finite(points[j].X) || !finite(points[j].Y) {
				result.Invalid++
				continue
			}
			result.Disk[i] = geodesic.Clamp(points[j])
		}
	}

	for i, p := range result.Disk {
		result.Display[i] = space.Point3{X: p.X * h.cfg.DiskRadius, Y: p.Y * h.cfg.DiskRadius}
	}

	for _, link := range subsetLinks {
		source, target := original[link.Source], original[link.Target]
		result.Edges = append(result.Edges, GeodesicEdge{
			Source: source,
			Target: target,
			Arc:    geodesic.ComputeArc(result.Disk[source], result.Disk[target], h.cfg.GeodesicSegments),
		})
	}

	if result.Invalid > 0 {
		h.logger.Warnw("Embedder returned unusable points, placed at origin",
			"fallback_count", result.Invalid,
			"enabled_count", result.Enabled,
		)
	}
	return result
}
