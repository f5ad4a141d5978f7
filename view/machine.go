package view

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/graph"
	grapherror "github.com/teranos/vista/graph/error"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/radial"
	"github.com/teranos/vista/render"
	"github.com/teranos/vista/space"
)

// Machine defaults
const (
	DefaultDebounce        = 300 * time.Millisecond
	DefaultSettleThreshold = 0.02
	DefaultReheatAlpha     = 0.3
)

// Options tune the machine's timing and reproducibility
type Options struct {
	Debounce        time.Duration // delay before a deferred re-projection may fire
	SettleThreshold float64       // alpha below which the layout counts as settled
	ReheatAlpha     float64       // alpha set after a parameter edit
	Seed            int64         // seeds the spherical fallback placement
	Scheduler       Scheduler     // nil means RealScheduler
	Embedder        projection.Embedder
}

// DefaultOptions returns the options used by the serve command
func DefaultOptions() Options {
	return Options{
		Debounce:        DefaultDebounce,
		SettleThreshold: DefaultSettleThreshold,
		ReheatAlpha:     DefaultReheatAlpha,
	}
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.SettleThreshold <= 0 {
		o.SettleThreshold = DefaultSettleThreshold
	}
	if o.ReheatAlpha <= 0 {
		o.ReheatAlpha = DefaultReheatAlpha
	}
	if o.Scheduler == nil {
		o.Scheduler = RealScheduler
	}
	return o
}

// Machine switches between projections of one physics simulation without
// disturbing it. Simulation space is only ever read through snapshots
// (space.Manager) and restored after each projection.
//
// Machine is not safe for concurrent use: drive it from a Loop.
type Machine struct {
	graph    *graph.Graph
	sim      physics.Simulation
	renderer render.Renderer
	matcher  *radial.Matcher
	space    *space.Manager

	cfg   projection.Config
	opts  Options
	modes map[projection.Mode]*modeEntry
	mode  projection.Mode

	layered    *projection.Layered
	spherical  *projection.Spherical
	hyperbolic *projection.Hyperbolic

	task *reprojectTask
	// stopOnSettle pauses physics after the pending job fires
	stopOnSettle bool

	logger *zap.SugaredLogger
}

// NewMachine creates a machine in the flat mode and presents the current
// simulation frame. post is how timer callbacks reach the event loop,
// normally Loop.Post.
func NewMachine(
	g *graph.Graph,
	sim physics.Simulation,
	renderer render.Renderer,
	matcher *radial.Matcher,
	cfg projection.Config,
	opts Options,
	post PostFunc,
	log *zap.SugaredLogger,
) (*Machine, error) {
	if g == nil {
		return nil, errors.NewInvalidDatasetError("nil graph")
	}
	if sim == nil {
		return nil, errors.AssertionFailedf("view machine needs a simulation")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if renderer == nil {
		renderer = render.Nop{}
	}
	if matcher == nil {
		matcher = radial.NewMatcher()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if post == nil {
		post = func(fn func()) error {
			fn()
			return nil
		}
	}

	m := &Machine{
		graph:    g,
		sim:      sim,
		renderer: renderer,
		matcher:  matcher,
		space:    space.NewManager(sim, log.Named("space")),
		cfg:      cfg,
		opts:     opts.withDefaults(),
		modes:    builtinEntries(),
		mode:     projection.ModeFlat,
		logger:   log,
	}
	m.task = newReprojectTask(m.opts.Debounce, m.opts.Scheduler, post, m.checkSettled,
		logger.AddReprojectSymbol(log))

	m.refreshTemporalBounds()
	m.space.Record(sim.Positions())
	m.rebuildProjectors()

	target := cfg.Mode
	m.cfg.Mode = projection.ModeFlat
	m.space.SetBaseline(string(projection.ModeFlat), m.space.Snapshot())
	m.applyLayers(m.modes[projection.ModeFlat])
	if err := m.project(m.modes[projection.ModeFlat]); err != nil {
		return nil, err
	}
	m.renderer.SetViewMode(projection.ModeFlat)

	if target != "" && target != projection.ModeFlat {
		if err := m.SetMode(target); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterExternal binds a physics-only mode to its projector. A static
// mode is frozen between settles like the Poincaré view.
func (m *Machine) RegisterExternal(mode projection.Mode, static bool, p ExternalProjector) error {
	if _, builtin := projection.BuiltinModes[mode]; builtin {
		return errors.WithHintf(
			errors.Newf("cannot replace builtin mode %q", mode),
			"external modes are %v", projection.ExternalModes,
		)
	}
	if p == nil {
		return errors.AssertionFailedf("nil projector for mode %q", mode)
	}
	m.modes[mode] = externalEntry(mode, static, p)
	logger.AddModeSymbol(m.logger, string(mode)).Debugw("Registered external mode", logger.FieldStatic, static)
	return nil
}

// SetMode switches the active projection. Switching to the active mode is
// a no-op; an unregistered mode returns ErrUnknownMode and changes nothing.
func (m *Machine) SetMode(mode projection.Mode) error {
	if mode == m.mode {
		return nil
	}
	entry, ok := m.modes[mode]
	if !ok {
		return m.unknownMode(mode)
	}

	prev := m.modes[m.mode]
	log := logger.AddModeSymbol(m.logger, string(mode))

	// 1. Leave the previous mode
	m.task.Cancel()
	m.stopOnSettle = false
	if prev.external != nil {
		prev.external.Deactivate()
	}
	m.applyLayers(entry)
	m.mode = mode
	m.cfg.Mode = mode

	// 2. First entry memoizes the reference positions
	_, seen := m.space.Baseline(string(mode))
	if !seen {
		m.space.SetBaseline(string(mode), m.space.Snapshot())
	}

	// 3. Project inside the snapshot/restore scope
	projErr := m.project(entry)

	// 4. Physics runs in continuous modes; static modes pause once settled
	if entry.static {
		m.pauseOrDefer()
	} else {
		m.sim.Resume()
	}

	// 5. Tell the renderer
	m.renderer.SetViewMode(mode)

	log.Infow("View mode changed",
		logger.FieldFromMode, prev.mode,
		logger.FieldToMode, mode,
		logger.FieldStatic, entry.static,
		logger.FieldFirstTime, !seen,
		logger.FieldAlpha, m.sim.Alpha(),
	)
	return projErr
}

// pauseOrDefer stops physics in a static mode. A layout still moving is
// left running and re-projected once it settles.
func (m *Machine) pauseOrDefer() {
	if m.sim.Alpha() < m.opts.SettleThreshold {
		m.sim.Stop()
		return
	}
	m.stopOnSettle = true
	m.task.Schedule()
}

// SetParams applies a partial physics edit and reheats the layout. In a
// static mode the visible projection is refreshed once the layout settles.
func (m *Machine) SetParams(update physics.Update) error {
	if update.IsEmpty() {
		return nil
	}

	current := m.sim.Params()
	next := update.Apply(current)
	if err := next.Validate(); err != nil {
		return errors.Wrap(err, "rejected physics update")
	}

	radialChanged := update.ChangesRadialStrength(current)
	m.sim.SetParams(next)
	m.sim.Reheat(maxFloat(m.sim.Alpha(), m.opts.ReheatAlpha))

	if radialChanged {
		m.space.RefreshSpatialBounds()
		if m.cfg.RadialTarget == "" {
			m.rebuildSpherical()
		}
	}

	log := logger.AddPhysicsSymbol(m.logger)
	log.Debugw("Physics parameters updated",
		logger.FieldMode, m.mode,
		"radial_changed", radialChanged,
		logger.FieldAlpha, m.sim.Alpha(),
	)

	if m.active().static {
		m.sim.Resume()
		m.stopOnSettle = true
		m.ScheduleReproject()
	}
	return nil
}

// ScheduleReproject replaces any pending deferred re-projection with a new
// one. It fires on the first settle after the debounce delay.
func (m *Machine) ScheduleReproject() {
	m.task.Schedule()
	logger.AddReprojectSymbol(m.logger).Debugw("Re-projection scheduled",
		logger.FieldMode, m.mode,
		logger.FieldDebounce, m.opts.Debounce,
	)
}

// OnSimulationSettled fires the pending re-projection if its debounce has
// elapsed. It reports whether a re-projection ran.
func (m *Machine) OnSimulationSettled() bool {
	return m.task.Settled(m.reprojectSettled)
}

func (m *Machine) reprojectSettled() {
	entry := m.active()
	log := logger.AddReprojectSymbol(m.logger)

	// The settled layout becomes the new reference for this mode
	m.space.SetBaseline(string(entry.mode), m.space.Snapshot())
	if err := m.project(entry); err != nil {
		log.Errorw("Deferred re-projection failed", logger.FieldMode, entry.mode, logger.FieldError, err)
	} else {
		log.Infow("Deferred re-projection applied",
			logger.FieldMode, entry.mode,
			logger.FieldAlpha, m.sim.Alpha(),
		)
	}

	if m.stopOnSettle && entry.static {
		m.sim.Stop()
	}
	m.stopOnSettle = false
}

// checkSettled fires the pending job when alpha is below the threshold
func (m *Machine) checkSettled() {
	if m.sim.Alpha() < m.opts.SettleThreshold {
		m.OnSimulationSettled()
	}
}

// Tick advances physics one step, if running, and refreshes the view
func (m *Machine) Tick() {
	if m.sim.Running() {
		m.sim.Tick()
	}
	m.OnTick()
}

// OnTick records the simulation frame written by the last tick, refreshes
// continuous projections and checks for settle. Static projections stay
// frozen until a deferred re-projection fires.
func (m *Machine) OnTick() {
	m.space.Record(m.sim.Positions())

	entry := m.active()
	if !entry.static {
		if err := m.project(entry); err != nil {
			m.logger.Warnw("Tick projection failed", logger.FieldMode, entry.mode, logger.FieldError, err)
		}
	}
	m.checkSettled()
}

// RefreshDataset swaps in a new graph. Temporal bounds are recomputed,
// every baseline is forgotten and the active mode re-projected.
func (m *Machine) RefreshDataset(g *graph.Graph) error {
	if g == nil {
		return errors.NewInvalidDatasetError("nil graph")
	}

	m.task.Cancel()
	m.graph = g
	m.sim.SetGraph(g)
	m.refreshTemporalBounds()
	m.space.ClearBaselines()
	m.space.Record(m.sim.Positions())
	m.rebuildProjectors()

	entry := m.active()
	m.space.SetBaseline(string(entry.mode), m.space.Snapshot())
	err := m.project(entry)

	m.sim.Reheat(maxFloat(m.sim.Alpha(), m.opts.ReheatAlpha))
	m.sim.Resume()
	if entry.static {
		m.stopOnSettle = true
		m.ScheduleReproject()
	}

	logger.AddDatasetSymbol(m.logger).Infow("Dataset refreshed",
		logger.FieldDatasetID, g.Meta.DatasetID,
		logger.FieldNodeCount, len(g.Nodes),
		logger.FieldEdgeCount, len(g.Links),
		logger.FieldMode, entry.mode,
	)
	return err
}

// SetConfig replaces the view configuration and re-projects the active
// mode. A different cfg.Mode switches mode; an empty one keeps it. An
// unregistered cfg.Mode rejects the whole edit.
func (m *Machine) SetConfig(cfg projection.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	target := cfg.Mode
	if _, ok := m.modes[target]; target != "" && !ok {
		return m.unknownMode(target)
	}

	cfg.Mode = m.mode
	m.cfg = cfg
	m.rebuildProjectors()

	if target != "" && target != m.mode {
		return m.SetMode(target)
	}

	logger.AddModeSymbol(m.logger, string(m.mode)).Debugw("View config replaced")
	return m.project(m.active())
}

// SetNodeTypeVisible filters a node type in or out. The Poincaré view is
// re-projected because its embedding depends on the enabled subset.
func (m *Machine) SetNodeTypeVisible(nodeType string, visible bool) int {
	changed := graph.SetTypeVisibility(m.graph, nodeType, visible)
	if changed == 0 {
		return 0
	}
	m.logger.Debugw("Node type filter changed", "type", nodeType, "visible", visible, "changed", changed)
	if m.active().kind == projection.KindHyperbolic {
		if err := m.project(m.active()); err != nil {
			m.logger.Warnw("Filter re-projection failed", logger.FieldError, err)
		}
	}
	return changed
}

// SetActiveAgents sets which agents match the agent:active radial target
func (m *Machine) SetActiveAgents(ids []string) {
	m.matcher.SetActiveAgents(ids)
}

// project runs entry's projector inside the snapshot/restore scope and
// presents the result. Static modes project their baseline rather than the
// live frame.
func (m *Machine) project(entry *modeEntry) error {
	var src space.SimulationFrame
	if entry.static {
		src, _ = m.space.Baseline(string(entry.mode))
	}

	var out projected
	err := m.space.WithDisplayProjection(
		func(snapshot space.SimulationFrame) (space.DisplayFrame, error) {
			from := snapshot
			if src != nil {
				from = src.Clone()
			}
			var err error
			out, err = entry.project(m, from)
			return out.display, err
		},
		func(space.DisplayFrame) {
			m.present(out)
		},
	)
	if err != nil {
		if ge, ok := grapherror.As(err); ok {
			m.logger.Errorw("Projection failed", ge.ToLogFields()...)
		}
		return errors.Wrapf(err, "project %s", entry.mode)
	}
	return nil
}

func (m *Machine) applyLayers(entry *modeEntry) {
	for _, layer := range render.AllLayers {
		m.renderer.SetVisible(layer, entry.owns(layer))
	}
}

func (m *Machine) refreshTemporalBounds() {
	b, ok := space.ComputeTemporalBounds(m.graph.Nodes)
	m.space.SetTemporalBounds(b, ok)
	m.matcher.SetTemporalBounds(b, ok)
}

func (m *Machine) rebuildProjectors() {
	b, ok := m.space.TemporalBounds()
	m.layered = projection.NewLayered(m.cfg, b, ok)
	m.hyperbolic = projection.NewHyperbolic(m.cfg, m.opts.Embedder, m.logger.Named("poincare"))
	m.rebuildSpherical()
}

// rebuildSpherical follows the physics radial target unless the view
// config names its own
func (m *Machine) rebuildSpherical() {
	cfg := m.cfg
	if cfg.RadialTarget == "" {
		cfg.RadialTarget = m.sim.Params().RadialTarget
	}
	m.spherical = projection.NewSpherical(cfg, m.matcher, m.opts.Seed, m.logger.Named("sphere"))
	m.spherical.SetTemporalBounds(m.space.TemporalBounds())
}

func (m *Machine) unknownMode(mode projection.Mode) error {
	return errors.WithHintf(
		errors.Wrapf(errors.ErrUnknownMode, "%q", mode),
		"available modes: %s", strings.Join(m.modeNames(), ", "),
	)
}

func (m *Machine) active() *modeEntry {
	return m.modes[m.mode]
}

func (m *Machine) modeNames() []string {
	names := make([]string, 0, len(m.modes))
	for mode := range m.modes {
		names = append(names, string(mode))
	}
	sort.Strings(names)
	return names
}

// Mode returns the active mode
func (m *Machine) Mode() projection.Mode {
	return m.mode
}

// Static reports whether the active mode is frozen between settles
func (m *Machine) Static() bool {
	return m.active().static
}

// Config returns the active view configuration
func (m *Machine) Config() projection.Config {
	return m.cfg
}

// Graph returns the current dataset
func (m *Machine) Graph() *graph.Graph {
	return m.graph
}

// Space exposes the simulation-space manager
func (m *Machine) Space() *space.Manager {
	return m.space
}

// Simulation returns the physics collaborator
func (m *Machine) Simulation() physics.Simulation {
	return m.sim
}

// Modes lists the registered modes, sorted
func (m *Machine) Modes() []projection.Mode {
	names := m.modeNames()
	modes := make([]projection.Mode, len(names))
	for i, n := range names {
		modes[i] = projection.Mode(n)
	}
	return modes
}

// ReprojectPending reports whether a deferred re-projection is waiting
func (m *Machine) ReprojectPending() bool {
	return m.task.Pending()
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
