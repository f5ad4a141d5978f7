package projection

import (
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/radial"
	"github.com/teranos/vista/space"
)

// Sphere geometry
const (
	ThetaMin       = 0.02 * math.Pi // pole margin
	ThetaMax       = 0.98 * math.Pi
	CoreRadiusFrac = 0.2 // oldest nodes sit at 0.2R
	PushRadiusFrac = 1.3 // fully pushed nodes sit at 1.3R

	// GoldenAngle is π(3-√5), the fallback step when the node count is unknown
	GoldenAngle = 2.399963229728653
)

// Spherical maps simulation space onto a sphere. Angle around the
// centroid becomes longitude, distance from it becomes latitude (centre
// near one pole, periphery near the other) and recency becomes radius.
// Nodes matching the radial target can be pushed beyond the surface.
type Spherical struct {
	cfg     Config
	matcher *radial.Matcher
	target  radial.Target
	push    bool

	temporal    space.TemporalBounds
	hasTemporal bool
	spatial     space.SpatialBounds
	hasSpatial  bool

	rng    *rand.Rand
	logger *zap.SugaredLogger
}

// NewSpherical creates a spherical projector. seed drives the fallback
// radius for nodes with unusable positions so runs are reproducible.
func NewSpherical(cfg Config, matcher *radial.Matcher, seed int64, logger *zap.SugaredLogger) *Spherical {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if matcher == nil {
		matcher = radial.NewMatcher()
	}
	s := &Spherical{
		cfg:     cfg,
		matcher: matcher,
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger,
	}
	s.target, s.push = radial.ParseTarget(cfg.RadialTarget)
	if cfg.RadialTarget != "" && !s.push {
		logger.Warnw("Unknown radial target, surface push disabled", "radial_target", cfg.RadialTarget)
	}
	return s
}

// SetTemporalBounds sets the bounds recency is measured against
func (s *Spherical) SetTemporalBounds(b space.TemporalBounds, ok bool) {
	s.temporal, s.hasTemporal = b, ok
}

// SetSpatialBounds sets the centroid and radius used for the polar split.
// Without spatial bounds Project is a no-op.
func (s *Spherical) SetSpatialBounds(b space.SpatialBounds, ok bool) {
	s.spatial, s.hasSpatial = b, ok
}

// Project places one node. pushToSurface and pushStrength override the
// configured push; the push only applies when the node matches the radial
// target. Non-finite positions are moved onto a fallback circle first.
func (s *Spherical) Project(node *graph.Node, simX, simY, centroidX, centroidY float64, pushToSurface bool, pushStrength float64) space.Point3 {
	if !s.hasSpatial {
		return space.Point3{X: simX, Y: simY}
	}
	if !finite(centroidX) || !finite(centroidY) {
		centroidX, centroidY = 0, 0
	}
	if !finite(simX) || !finite(simY) {
		index := 0
		if node != nil {
			index = node.Index
		}
		// The frame size is unknown here, so consecutive indices step by the golden angle
		simX, simY = s.fallback(float64(index)*GoldenAngle, centroidX, centroidY)
	}
	return s.place(node, simX, simY, centroidX, centroidY, pushToSurface, pushStrength)
}

// ProjectFrame projects every node using the current spatial bounds and
// the configured push. It returns the display frame and how many nodes
// needed the fallback circle.
func (s *Spherical) ProjectFrame(nodes []graph.Node, frame space.SimulationFrame) (space.DisplayFrame, int) {
	if !s.hasSpatial {
		return space.Flat(frame), 0
	}

	cx, cy := s.spatial.CenterX, s.spatial.CenterY
	display := make(space.DisplayFrame, len(frame))
	fallbacks := 0

	for i, p := range frame {
		var node *graph.Node
		if i < len(nodes) {
			node = &nodes[i]
		}
		x, y := p.X, p.Y
		if !p.Finite() {
			x, y = s.fallback(2*math.Pi*float64(i)/float64(len(frame)), cx, cy)
			fallbacks++
		}
		display[i] = s.place(node, x, y, cx, cy, s.cfg.PushToSurface, s.cfg.PushStrength)
	}

	if fallbacks > 0 {
		s.logger.Warnw("Non-finite positions placed on fallback circle",
			"fallback_count", fallbacks,
			"node_count", len(frame),
		)
	}
	return display, fallbacks
}

// Polar returns latitude, longitude and radius for a position. It is
// the polar core of place, exposed for diagnostics.
func (s *Spherical) Polar(node *graph.Node, simX, simY, centroidX, centroidY float64, pushToSurface bool, pushStrength float64) (theta, phi, r float64) {
	dx, dy := simX-centroidX, simY-centroidY

	maxRadius := s.spatial.MaxRadius
	if maxRadius == 0 {
		maxRadius = 1
	}
	d := clamp01(math.Hypot(dx, dy) / maxRadius)

	phi = math.Atan2(dy, dx)
	theta = ThetaMin + d*(ThetaMax-ThetaMin)

	R := s.cfg.SphereRadius
	core := CoreRadiusFrac * R
	r = core + (R-core)*s.recency(node)

	if pushToSurface && s.push && node != nil && s.matcher.MatchesTarget(node, s.target) {
		r += (PushRadiusFrac*R - r) * clamp01(pushStrength)
	}
	return theta, phi, r
}

func (s *Spherical) place(node *graph.Node, simX, simY, cx, cy float64, push bool, strength float64) space.Point3 {
	theta, phi, r := s.Polar(node, simX, simY, cx, cy, push, strength)
	sinTheta := math.Sin(theta)
	return space.Point3{
		X: r * sinTheta * math.Cos(phi),
		Y: r * math.Cos(theta),
		Z: r * sinTheta * math.Sin(phi),
	}
}

// fallback places an unusable node at angle around the centroid, at a
// random radius in [0.2, 1] of MaxRadius
func (s *Spherical) fallback(angle, cx, cy float64) (float64, float64) {
	maxRadius := s.spatial.MaxRadius
	if maxRadius == 0 {
		maxRadius = 1
	}
	radius := (CoreRadiusFrac + (1-CoreRadiusFrac)*s.rng.Float64()) * maxRadius
	return cx + radius*math.Cos(angle), cy + radius*math.Sin(angle)
}

func (s *Spherical) recency(node *graph.Node) float64 {
	if node == nil || !s.hasTemporal {
		return 0
	}
	return s.temporal.Normalize(node.Timestamp)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
