package view

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/radial"
	"github.com/teranos/vista/render"
)

const testSeed = 7

// manualTimer and manualScheduler fire debounce timers on demand
type manualTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	live := !t.stopped && !t.fired
	t.stopped = true
	return live
}

type manualScheduler struct {
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) Timer {
	t := &manualTimer{f: f}
	s.timers = append(s.timers, t)
	return t
}

// FireAll runs every live timer and returns how many fired
func (s *manualScheduler) FireAll() int {
	fired := 0
	n := len(s.timers)
	for i := 0; i < n; i++ {
		t := s.timers[i]
		if t.stopped || t.fired {
			continue
		}
		t.fired = true
		t.f()
		fired++
	}
	return fired
}

func (s *manualScheduler) Live() int {
	live := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			live++
		}
	}
	return live
}

// chainGraph builds n hourly-spaced nodes linked in a chain. Every third
// node is a neural pattern, the rest are memories.
func chainGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	g := &graph.Graph{}
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		nodeType := graph.NodeTypeMemory
		if i%3 == 0 {
			nodeType = graph.NodeTypePattern
		}
		g.Nodes = append(g.Nodes, graph.Node{
			ID:        fmt.Sprintf("n%d", i),
			Type:      nodeType,
			Timestamp: &ts,
			Visible:   true,
		})
	}
	for i := 1; i < n; i++ {
		g.Links = append(g.Links, graph.Link{Source: i - 1, Target: i, Type: "related"})
	}
	require.NoError(t, graph.Finalize(g))
	return g
}

type fixture struct {
	machine   *Machine
	sim       *physics.ForceSimulation
	recorder  *render.Recorder
	scheduler *manualScheduler
}

func newFixture(t *testing.T, g *graph.Graph) *fixture {
	t.Helper()
	matcher := radial.NewMatcher()
	sim := physics.NewForceSimulation(g, physics.DefaultParams(), matcher, testSeed, nil)
	rec := render.NewRecorder()
	sched := &manualScheduler{}

	opts := DefaultOptions()
	opts.Scheduler = sched
	opts.Seed = testSeed

	m, err := NewMachine(g, sim, rec, matcher, projection.DefaultConfig(), opts, nil, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return &fixture{machine: m, sim: sim, recorder: rec, scheduler: sched}
}

// settle ticks until alpha drops below the machine's threshold
func (f *fixture) settle(t *testing.T) {
	t.Helper()
	for i := 0; i < 2000 && f.sim.Alpha() >= DefaultSettleThreshold; i++ {
		f.machine.Tick()
	}
	require.Less(t, f.sim.Alpha(), DefaultSettleThreshold)
}

func ptr[T any](v T) *T {
	return &v
}
