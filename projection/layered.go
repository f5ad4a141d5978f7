package projection

import (
	"math"

	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/space"
)

// minSize is the smallest node scale SizeForZ returns
const minSize = 0.1

// Layered maps node recency to depth for the 2.5D view. Newest nodes sit at
// z = 0 and the oldest at -MaxDepth, either continuously or snapped onto
// LayerCount planes.
type Layered struct {
	cfg         Config
	temporal    space.TemporalBounds
	hasTemporal bool
}

// NewLayered creates a layering projector. Without temporal bounds every
// node counts as oldest.
func NewLayered(cfg Config, temporal space.TemporalBounds, ok bool) *Layered {
	return &Layered{cfg: cfg, temporal: temporal, hasTemporal: ok}
}

// Recency returns the node's normalized recency t in [0,1]
func (l *Layered) Recency(node *graph.Node) float64 {
	if !l.hasTemporal {
		return 0
	}
	return l.temporal.Normalize(node.Timestamp)
}

// ProjectZ returns the node's depth
func (l *Layered) ProjectZ(node *graph.Node) float64 {
	return l.DepthFor(l.Recency(node))
}

// ProjectAllZ returns depths by node index
func (l *Layered) ProjectAllZ(nodes []graph.Node) []float64 {
	z := make([]float64, len(nodes))
	for i := range nodes {
		z[i] = l.ProjectZ(&nodes[i])
	}
	return z
}

// DepthFor maps recency to depth in the configured style
func (l *Layered) DepthFor(t float64) float64 {
	if l.cfg.Continuous {
		return -(1 - t) * l.cfg.MaxDepth
	}
	return l.planeDepth(l.LayerOf(t))
}

// LayerOf quantizes recency into a layer index, 0 being oldest
func (l *Layered) LayerOf(t float64) int {
	n := l.cfg.LayerCount
	if n <= 1 {
		return 0
	}
	layer := int(math.Floor(t * float64(n)))
	if layer > n-1 {
		layer = n - 1
	}
	if layer < 0 {
		layer = 0
	}
	return layer
}

// LayerDepths returns the fixed depth of every discrete plane, oldest first
func (l *Layered) LayerDepths() []float64 {
	n := l.cfg.LayerCount
	if n < 1 {
		n = 1
	}
	depths := make([]float64, n)
	for i := range depths {
		depths[i] = l.planeDepth(i)
	}
	return depths
}

func (l *Layered) planeDepth(layer int) float64 {
	n := l.cfg.LayerCount
	if n <= 1 {
		return 0
	}
	return -(1 - float64(layer)/float64(n-1)) * l.cfg.MaxDepth
}

// OpacityForZ fades nodes linearly with depth
func (l *Layered) OpacityForZ(z float64) float64 {
	return math.Max(0, 1-l.cfg.OpacityFalloff*l.depthFraction(z))
}

// SizeForZ shrinks nodes linearly with depth, never below minSize
func (l *Layered) SizeForZ(z float64) float64 {
	return math.Max(minSize, 1-l.cfg.SizeFalloff*l.depthFraction(z))
}

// DepthEffects returns per-node opacity and size for a set of depths
func (l *Layered) DepthEffects(z []float64) []DepthEffect {
	effects := make([]DepthEffect, len(z))
	for i, v := range z {
		effects[i] = DepthEffect{Z: v, Opacity: l.OpacityForZ(v), Size: l.SizeForZ(v)}
	}
	return effects
}

func (l *Layered) depthFraction(z float64) float64 {
	maxDepth := l.cfg.MaxDepth
	if maxDepth == 0 {
		maxDepth = 1
	}
	return math.Abs(z) / maxDepth
}

// DepthEffect is the renderer styling derived from a node's depth
type DepthEffect struct {
	Z       float64 `json:"z"`
	Opacity float64 `json:"opacity"`
	Size    float64 `json:"size"`
}
