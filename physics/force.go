package physics

import (
	"math"
	"math/rand"

	"github.com/quartercastle/vector"
	"go.uber.org/zap"

	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/radial"
	"github.com/teranos/vista/space"
)

const (
	initialRadius = 10.0
	initialAngle  = math.Pi * (3 - 2.2360679774997896) // golden angle, √5 inlined
	jiggleScale   = 1e-6
	minDistance2  = 1.0
)

// ForceSimulation is a d3-style velocity Verlet layout: many-body
// repulsion, per-class link springs, centering, a radial force for nodes
// matching the radial target, and collision. Alpha decays toward zero
// each tick; the view machine treats alpha below its threshold as settled.
type ForceSimulation struct {
	params    Params
	matcher   *radial.Matcher
	target    radial.Target
	hasTarget bool

	g   *graph.Graph
	pos []vector.Vector
	vel []vector.Vector
	acc []vector.Vector

	alpha   float64
	running bool
	ticks   uint64

	random func() float64
	logger *zap.SugaredLogger
}

// NewForceSimulation creates a running simulation at alpha 1 with nodes
// placed on a phyllotaxis spiral. matcher is shared with the spherical
// projector so both agree on radial target membership.
func NewForceSimulation(g *graph.Graph, params Params, matcher *radial.Matcher, seed int64, log *zap.SugaredLogger) *ForceSimulation {
	if matcher == nil {
		matcher = radial.NewMatcher()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	rng := rand.New(rand.NewSource(seed))
	fs := &ForceSimulation{
		matcher: matcher,
		alpha:   1,
		running: true,
		random:  rng.Float64,
		logger:  logger.AddPhysicsSymbol(log),
	}
	fs.SetParams(params)
	fs.SetGraph(g)
	return fs
}

// SetGraph replaces the dataset. Nodes whose ID existed before keep their
// position and velocity; new nodes start on the spiral.
func (fs *ForceSimulation) SetGraph(g *graph.Graph) {
	prev := make(map[string]int)
	if fs.g != nil {
		for i, node := range fs.g.Nodes {
			prev[node.ID] = i
		}
	}

	n := 0
	if g != nil {
		n = len(g.Nodes)
	}
	pos := make([]vector.Vector, n)
	vel := make([]vector.Vector, n)
	kept := 0
	for i := 0; i < n; i++ {
		if j, ok := prev[g.Nodes[i].ID]; ok && j < len(fs.pos) {
			pos[i] = vector.Vector{fs.pos[j][0], fs.pos[j][1]}
			vel[i] = vector.Vector{fs.vel[j][0], fs.vel[j][1]}
			kept++
			continue
		}
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		pos[i] = vector.Vector{r * math.Cos(a), r * math.Sin(a)}
		vel[i] = vector.Vector{0, 0}
	}

	fs.g = g
	fs.pos, fs.vel = pos, vel
	fs.acc = make([]vector.Vector, n)
	fs.logger.Debugw("Simulation graph set", "node_count", n, "kept", kept)
}

// Tick advances the layout by one step
func (fs *ForceSimulation) Tick() {
	if !fs.running {
		return
	}
	fs.alpha += (0 - fs.alpha) * fs.params.AlphaDecay
	if fs.alpha < fs.params.AlphaMin {
		return
	}
	fs.ticks++

	for i := range fs.acc {
		fs.acc[i] = vector.Vector{0, 0}
	}

	fs.applyCharge()
	fs.applyLinks()
	fs.applyCenter()
	fs.applyRadial()
	fs.applyCollision()

	decay := 1 - fs.params.VelocityDecay
	for i := range fs.pos {
		if !finiteVec(fs.pos[i]) {
			continue
		}
		vector.In(fs.vel[i]).Add(fs.acc[i])
		vector.In(fs.vel[i]).Scale(decay)
		vector.In(fs.pos[i]).Add(fs.vel[i])
	}
}

func (fs *ForceSimulation) applyCharge() {
	strength := fs.params.Repulsion * fs.alpha
	if strength == 0 {
		return
	}
	for i := 0; i < len(fs.pos); i++ {
		if !finiteVec(fs.pos[i]) {
			continue
		}
		for j := i + 1; j < len(fs.pos); j++ {
			if !finiteVec(fs.pos[j]) {
				continue
			}
			delta := fs.separation(i, j)
			d2 := math.Max(delta.Magnitude()*delta.Magnitude(), minDistance2)
			force := delta.Scale(strength / d2)
			vector.In(fs.acc[i]).Add(force)
			vector.In(fs.acc[j]).Sub(force)
		}
	}
}

func (fs *ForceSimulation) applyLinks() {
	if fs.g == nil || fs.params.LinkStrength == 0 {
		return
	}
	for _, link := range fs.g.Links {
		s, t := link.Source, link.Target
		if s == t || s >= len(fs.pos) || t >= len(fs.pos) {
			continue
		}
		if !finiteVec(fs.pos[s]) || !finiteVec(fs.pos[t]) {
			continue
		}
		delta := fs.separation(t, s)
		l := delta.Magnitude()
		k := (l - fs.params.DistanceFor(link.Type)) / l * fs.alpha * fs.params.LinkStrength / 2
		force := delta.Scale(k)
		vector.In(fs.acc[t]).Sub(force)
		vector.In(fs.acc[s]).Add(force)
	}
}

func (fs *ForceSimulation) applyCenter() {
	k := fs.params.CenterStrength * fs.alpha
	if k == 0 {
		return
	}
	for i, p := range fs.pos {
		if finiteVec(p) {
			vector.In(fs.acc[i]).Sub(p.Scale(k))
		}
	}
}

func (fs *ForceSimulation) applyRadial() {
	if !fs.hasTarget || fs.params.RadialStrength == 0 || fs.g == nil {
		return
	}
	k := fs.params.RadialStrength * fs.alpha
	for i, p := range fs.pos {
		if i >= len(fs.g.Nodes) || !finiteVec(p) {
			continue
		}
		if !fs.matcher.MatchesTarget(&fs.g.Nodes[i], fs.target) {
			continue
		}
		dist := p.Magnitude()
		if dist == 0 {
			continue
		}
		vector.In(fs.acc[i]).Add(p.Scale((fs.params.RadialRadius - dist) / dist * k))
	}
}

func (fs *ForceSimulation) applyCollision() {
	r := fs.params.CollisionRadius
	if r == 0 {
		return
	}
	minSep := 2 * r
	for i := 0; i < len(fs.pos); i++ {
		if !finiteVec(fs.pos[i]) {
			continue
		}
		for j := i + 1; j < len(fs.pos); j++ {
			if !finiteVec(fs.pos[j]) {
				continue
			}
			delta := fs.separation(i, j)
			dist := delta.Magnitude()
			if dist >= minSep {
				continue
			}
			push := delta.Scale((minSep - dist) / dist / 4)
			vector.In(fs.acc[i]).Add(push)
			vector.In(fs.acc[j]).Sub(push)
		}
	}
}

// separation returns pos[i] - pos[j], jiggled when the nodes coincide
func (fs *ForceSimulation) separation(i, j int) vector.Vector {
	delta := fs.pos[i].Sub(fs.pos[j])
	if delta.Magnitude() == 0 {
		delta = vector.Vector{(fs.random() - 0.5) * jiggleScale, (fs.random() - 0.5) * jiggleScale}
	}
	return delta
}

// Positions returns the current simulation frame
func (fs *ForceSimulation) Positions() space.SimulationFrame {
	frame := make(space.SimulationFrame, len(fs.pos))
	for i, p := range fs.pos {
		frame[i] = space.Position{X: p[0], Y: p[1]}
	}
	return frame
}

// SetPositions overwrites positions by index. Velocities are kept.
func (fs *ForceSimulation) SetPositions(frame space.SimulationFrame) {
	for i := 0; i < len(frame) && i < len(fs.pos); i++ {
		fs.pos[i] = vector.Vector{frame[i].X, frame[i].Y}
	}
}

func (fs *ForceSimulation) Alpha() float64 {
	return fs.alpha
}

// Reheat raises alpha so the layout moves again
func (fs *ForceSimulation) Reheat(alpha float64) {
	fs.alpha = alpha
	fs.logger.Debugw("Simulation reheated", "alpha", alpha)
}

func (fs *ForceSimulation) Stop() {
	fs.running = false
}

func (fs *ForceSimulation) Resume() {
	fs.running = true
}

func (fs *ForceSimulation) Running() bool {
	return fs.running
}

// Ticks returns how many force steps have been applied
func (fs *ForceSimulation) Ticks() uint64 {
	return fs.ticks
}

func (fs *ForceSimulation) Params() Params {
	return fs.params.Clone()
}

// SetParams replaces every parameter. An unknown radial target disables
// the radial force.
func (fs *ForceSimulation) SetParams(p Params) {
	fs.params = p.Clone()
	fs.target, fs.hasTarget = radial.ParseTarget(p.RadialTarget)
	if p.RadialTarget != "" && !fs.hasTarget {
		fs.logger.Warnw("Unknown radial target, radial force disabled", "radial_target", p.RadialTarget)
	}
}

func finiteVec(v vector.Vector) bool {
	return len(v) >= 2 &&
		!math.IsNaN(v[0]) && !math.IsInf(v[0], 0) &&
		!math.IsNaN(v[1]) && !math.IsInf(v[1], 0)
}

var _ Simulation = (*ForceSimulation)(nil)
