package space

import (
	"go.uber.org/zap"

	"github.com/teranos/vista/errors"
	grapherror "github.com/teranos/vista/graph/error"
)

// PositionSink receives restored simulation positions. The physics
// simulation implements it.
type PositionSink interface {
	SetPositions(frame SimulationFrame)
}

// ProjectFunc derives a display frame from a simulation snapshot
type ProjectFunc func(snapshot SimulationFrame) (DisplayFrame, error)

// PresentFunc hands a display frame to the renderer
type PresentFunc func(display DisplayFrame)

// Manager is the single owner of simulation space. It records the live
// frame each tick, holds temporal and spatial bounds, keeps per-mode
// baselines, and runs projections inside a snapshot/restore scope.
//
// Manager is not safe for concurrent use; callers serialize through the
// view event loop.
type Manager struct {
	frame SimulationFrame
	sink  PositionSink

	temporal    TemporalBounds
	hasTemporal bool
	spatial     SpatialBounds
	hasSpatial  bool

	baselines map[string]SimulationFrame
	logger    *zap.SugaredLogger
}

// NewManager creates a manager. sink may be nil when nothing outside the
// manager holds positions.
func NewManager(sink PositionSink, logger *zap.SugaredLogger) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{
		sink:      sink,
		baselines: make(map[string]SimulationFrame),
		logger:    logger,
	}
}

// Record stores the simulation positions written by the latest tick
func (m *Manager) Record(frame SimulationFrame) {
	m.frame = frame.Clone()
}

// Len returns the number of recorded positions
func (m *Manager) Len() int {
	return len(m.frame)
}

// Snapshot returns a copy of current simulation space
func (m *Manager) Snapshot() SimulationFrame {
	return m.frame.Clone()
}

// Restore makes snapshot the current simulation space and pushes it to the sink
func (m *Manager) Restore(snapshot SimulationFrame) {
	m.frame = snapshot.Clone()
	if m.sink != nil {
		m.sink.SetPositions(snapshot.Clone())
	}
}

// WithDisplayProjection snapshots simulation space, lets project derive a
// display frame from the snapshot, hands it to present, and restores the
// snapshot afterwards whatever happened. A panic in project or present is
// recovered and returned as an internal/panic error.
func (m *Manager) WithDisplayProjection(project ProjectFunc, present PresentFunc) (err error) {
	snapshot := m.Snapshot()

	defer func() {
		if r := recover(); r != nil {
			ge := grapherror.FromPanic(r, "Projection failed, layout restored").
				WithContext("node_count", len(snapshot))
			m.logger.Errorw("Recovered projection panic", ge.ToLogFields()...)
			err = ge
		}
		m.Restore(snapshot)
	}()

	display, err := project(snapshot.Clone())
	if err != nil {
		return errors.Wrap(err, "projection failed")
	}
	if present != nil {
		present(display)
	}
	return nil
}

// SetTemporalBounds replaces the temporal bounds used for recency
func (m *Manager) SetTemporalBounds(b TemporalBounds, ok bool) {
	m.temporal, m.hasTemporal = b, ok
}

// TemporalBounds returns the current temporal bounds, if computed
func (m *Manager) TemporalBounds() (TemporalBounds, bool) {
	return m.temporal, m.hasTemporal
}

// RefreshSpatialBounds recomputes spatial bounds from the recorded frame
func (m *Manager) RefreshSpatialBounds() bool {
	m.spatial, m.hasSpatial = ComputeSpatialBounds(m.frame)
	return m.hasSpatial
}

// SpatialBounds returns the last computed spatial bounds, if any
func (m *Manager) SpatialBounds() (SpatialBounds, bool) {
	return m.spatial, m.hasSpatial
}

// Baseline returns the first-entry snapshot taken for mode
func (m *Manager) Baseline(mode string) (SimulationFrame, bool) {
	frame, ok := m.baselines[mode]
	return frame, ok
}

// SetBaseline memoizes the reference positions for a mode
func (m *Manager) SetBaseline(mode string, frame SimulationFrame) {
	m.baselines[mode] = frame.Clone()
}

// ClearBaselines forgets every mode's baseline, e.g. after a dataset refresh
func (m *Manager) ClearBaselines() {
	m.baselines = make(map[string]SimulationFrame)
}
