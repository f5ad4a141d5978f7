package view

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/graph"
	grapherror "github.com/teranos/vista/graph/error"
	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/radial"
	"github.com/teranos/vista/render"
	"github.com/teranos/vista/space"
)

func TestNewMachineStartsFlat(t *testing.T) {
	f := newFixture(t, chainGraph(t, 9))

	assert.Equal(t, projection.ModeFlat, f.machine.Mode())
	assert.Equal(t, projection.ModeFlat, f.recorder.Mode)
	assert.Equal(t, space.Flat(f.sim.Positions()), f.recorder.Positions)
	assert.True(t, f.recorder.IsVisible(render.LayerLinks))
	assert.False(t, f.recorder.IsVisible(render.LayerGeodesics))

	_, ok := f.machine.Space().Baseline(string(projection.ModeFlat))
	assert.True(t, ok)
}

func TestNewMachineRejectsBadInput(t *testing.T) {
	g := chainGraph(t, 3)
	sim := physics.NewForceSimulation(g, physics.DefaultParams(), nil, testSeed, nil)

	_, err := NewMachine(nil, sim, nil, nil, projection.DefaultConfig(), DefaultOptions(), nil, nil)
	assert.True(t, errors.IsInvalidDataset(err))

	cfg := projection.DefaultConfig()
	cfg.SphereRadius = 0
	_, err = NewMachine(g, sim, nil, nil, cfg, DefaultOptions(), nil, nil)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestNewMachineEntersConfiguredMode(t *testing.T) {
	g := chainGraph(t, 6)
	sim := physics.NewForceSimulation(g, physics.DefaultParams(), nil, testSeed, nil)
	rec := render.NewRecorder()
	cfg := projection.DefaultConfig()
	cfg.Mode = projection.ModeLayered

	m, err := NewMachine(g, sim, rec, nil, cfg, Options{Scheduler: &manualScheduler{}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, projection.ModeLayered, m.Mode())
	assert.Equal(t, projection.ModeLayered, rec.Mode)
}

// Switching out of 2D and back leaves simulation space exactly where an
// undisturbed simulation, ticked the same number of times, would be.
func TestRoundTripLeavesSimulationUntouched(t *testing.T) {
	for _, mode := range []projection.Mode{
		projection.ModeLayered,
		projection.ModeSpherical,
		projection.ModeHyperbolic,
	} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, chainGraph(t, 12))
			reference := physics.NewForceSimulation(chainGraph(t, 12), physics.DefaultParams(), radial.NewMatcher(), testSeed, nil)

			step := func(n int) {
				for i := 0; i < n; i++ {
					if f.sim.Running() {
						reference.Tick()
					}
					f.machine.Tick()
				}
			}

			step(20)
			require.NoError(t, f.machine.SetMode(mode))
			step(30)
			require.NoError(t, f.machine.SetMode(projection.ModeFlat))
			step(5)

			assert.True(t, reference.Positions().Equal(f.sim.Positions()),
				"simulation space diverged after visiting %s", mode)
			assert.Equal(t, space.Flat(f.sim.Positions()), f.recorder.Positions)
		})
	}
}

func TestSetModeSameModeIsNoop(t *testing.T) {
	f := newFixture(t, chainGraph(t, 6))
	require.NoError(t, f.machine.SetMode(projection.ModeSpherical))
	calls := len(f.recorder.Calls)

	require.NoError(t, f.machine.SetMode(projection.ModeSpherical))
	assert.Len(t, f.recorder.Calls, calls)
}

func TestSetModeUnknown(t *testing.T) {
	f := newFixture(t, chainGraph(t, 6))

	err := f.machine.SetMode(projection.ModeTDA)
	require.Error(t, err)
	assert.True(t, errors.IsUnknownMode(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
	assert.Equal(t, projection.ModeFlat, f.machine.Mode())

	err = f.machine.SetMode("cubist")
	assert.True(t, errors.IsUnknownMode(err))
}

func TestSetModeTogglesLayers(t *testing.T) {
	tests := []struct {
		mode    projection.Mode
		visible []render.Layer
		hidden  []render.Layer
	}{
		{
			mode:    projection.ModeLayered,
			visible: []render.Layer{render.LayerNodes, render.LayerLinks, render.LayerDepthPlanes},
			hidden:  []render.Layer{render.LayerSphereShell, render.LayerGeodesics},
		},
		{
			mode:    projection.ModeSpherical,
			visible: []render.Layer{render.LayerNodes, render.LayerSphereShell},
			hidden:  []render.Layer{render.LayerDepthPlanes, render.LayerDiskBoundary},
		},
		{
			mode:    projection.ModeHyperbolic,
			visible: []render.Layer{render.LayerNodes, render.LayerDiskBoundary, render.LayerGeodesics},
			hidden:  []render.Layer{render.LayerLinks, render.LayerSphereShell, render.LayerExternal},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			f := newFixture(t, chainGraph(t, 6))
			require.NoError(t, f.machine.SetMode(tt.mode))
			for _, l := range tt.visible {
				assert.True(t, f.recorder.IsVisible(l), "layer %s", l)
			}
			for _, l := range tt.hidden {
				assert.False(t, f.recorder.IsVisible(l), "layer %s", l)
			}
		})
	}
}

func TestLayeredModeDepths(t *testing.T) {
	g := chainGraph(t, 7)
	f := newFixture(t, g)
	require.NoError(t, f.machine.SetMode(projection.ModeLayered))

	require.Len(t, f.recorder.Z, 7)
	assert.InDelta(t, -projection.DefaultMaxDepth, f.recorder.Z[0], 1e-9) // oldest
	assert.InDelta(t, 0, f.recorder.Z[6], 1e-9)                           // newest
	assert.InDelta(t, -projection.DefaultMaxDepth/2, f.recorder.Z[3], 1e-9)
	require.Len(t, f.recorder.Effects, 7)
	assert.Greater(t, f.recorder.Effects[6].Opacity, f.recorder.Effects[0].Opacity)

	// Display X/Y stay in simulation space
	sim := f.sim.Positions()
	for i, p := range f.recorder.Positions {
		assert.Equal(t, sim[i].X, p.X)
		assert.Equal(t, sim[i].Y, p.Y)
		assert.Equal(t, f.recorder.Z[i], p.Z)
	}
}

func TestSphericalModeStaysInsideShell(t *testing.T) {
	f := newFixture(t, chainGraph(t, 15))
	f.settle(t)
	require.NoError(t, f.machine.SetMode(projection.ModeSpherical))
	f.machine.Tick()

	_, ok := f.machine.Space().SpatialBounds()
	require.True(t, ok)
	require.Len(t, f.recorder.Positions, 15)
	require.Len(t, f.recorder.Z, 15)

	R := projection.DefaultSphereRadius
	for i, p := range f.recorder.Positions {
		r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
		assert.False(t, math.IsNaN(r), "node %d", i)
		assert.GreaterOrEqual(t, r, projection.CoreRadiusFrac*R-1e-6, "node %d", i)
		assert.LessOrEqual(t, r, R+1e-6, "node %d", i)
		assert.Equal(t, p.Z, f.recorder.Z[i])
	}
}

func TestStaticModePausesSettledPhysics(t *testing.T) {
	f := newFixture(t, chainGraph(t, 9))
	f.settle(t)

	require.NoError(t, f.machine.SetMode(projection.ModeHyperbolic))
	assert.False(t, f.sim.Running())
	assert.False(t, f.machine.ReprojectPending())
	assert.Equal(t, 1, f.recorder.Count("SetGeodesicEdges"))

	require.NoError(t, f.machine.SetMode(projection.ModeFlat))
	assert.True(t, f.sim.Running())
}

func TestStaticModeDefersWhileLayoutMoves(t *testing.T) {
	f := newFixture(t, chainGraph(t, 9))
	f.machine.Tick()

	require.NoError(t, f.machine.SetMode(projection.ModeHyperbolic))
	assert.True(t, f.sim.Running())
	assert.True(t, f.machine.ReprojectPending())

	// Frozen until the settle fires
	frozen := f.recorder.Count("UpdateNodePositions")
	f.machine.Tick()
	assert.Equal(t, frozen, f.recorder.Count("UpdateNodePositions"))

	require.Equal(t, 1, f.scheduler.FireAll())
	f.settle(t)
	assert.False(t, f.machine.ReprojectPending())
	assert.False(t, f.sim.Running())
	assert.Equal(t, 2, f.recorder.Count("SetGeodesicEdges"))

	baseline, ok := f.machine.Space().Baseline(string(projection.ModeHyperbolic))
	require.True(t, ok)
	assert.True(t, baseline.Equal(f.sim.Positions()))
}

// N rapid edits in a static mode re-project exactly once, from the layout
// produced by the last edit.
func TestParamBurstCoalescesIntoOneReprojection(t *testing.T) {
	f := newFixture(t, chainGraph(t, 12))
	f.settle(t)
	require.NoError(t, f.machine.SetMode(projection.ModeHyperbolic))
	before := f.recorder.Count("SetGeodesicEdges")

	for i := 1; i <= 5; i++ {
		require.NoError(t, f.machine.SetParams(physics.Update{Repulsion: ptr(300 + float64(i)*10)}))
	}
	assert.True(t, f.sim.Running())
	assert.Equal(t, 1, f.scheduler.Live())
	assert.Equal(t, 1, f.scheduler.FireAll())

	for i := 0; i < 2000 && f.machine.ReprojectPending(); i++ {
		f.machine.Tick()
	}
	assert.False(t, f.machine.ReprojectPending())
	assert.Equal(t, before+1, f.recorder.Count("SetGeodesicEdges"))
	assert.Equal(t, 350.0, f.sim.Params().Repulsion)
	assert.False(t, f.sim.Running())

	for i := 0; i < 10; i++ {
		f.machine.Tick()
	}
	assert.Equal(t, before+1, f.recorder.Count("SetGeodesicEdges"))
}

func TestSettleBeforeDebounceWaitsForTimer(t *testing.T) {
	f := newFixture(t, chainGraph(t, 9))
	f.settle(t)
	require.NoError(t, f.machine.SetMode(projection.ModeHyperbolic))
	before := f.recorder.Count("SetGeodesicEdges")

	require.NoError(t, f.machine.SetParams(physics.Update{LinkDistance: ptr(80.0)}))
	f.settle(t)
	assert.False(t, f.machine.OnSimulationSettled())
	assert.True(t, f.machine.ReprojectPending())
	assert.Equal(t, before, f.recorder.Count("SetGeodesicEdges"))

	// Timer elapsing on an already settled layout fires right away
	require.Equal(t, 1, f.scheduler.FireAll())
	assert.False(t, f.machine.ReprojectPending())
	assert.Equal(t, before+1, f.recorder.Count("SetGeodesicEdges"))
}

func TestSetParamsInContinuousModeDoesNotSchedule(t *testing.T) {
	f := newFixture(t, chainGraph(t, 6))
	f.settle(t)

	require.NoError(t, f.machine.SetParams(physics.Update{CollisionRadius: ptr(12.0)}))
	assert.False(t, f.machine.ReprojectPending())
	assert.InDelta(t, DefaultReheatAlpha, f.sim.Alpha(), 1e-12)
	assert.Equal(t, 12.0, f.sim.Params().CollisionRadius)
}

func TestSetParamsRejectsInvalid(t *testing.T) {
	f := newFixture(t, chainGraph(t, 6))
	before := f.sim.Params()

	err := f.machine.SetParams(physics.Update{LinkDistance: ptr(-1.0)})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
	assert.Equal(t, before, f.sim.Params())

	assert.NoError(t, f.machine.SetParams(physics.Update{}))
}

func TestLeavingModeCancelsPendingReprojection(t *testing.T) {
	f := newFixture(t, chainGraph(t, 6))
	f.settle(t)
	require.NoError(t, f.machine.SetMode(projection.ModeHyperbolic))
	require.NoError(t, f.machine.SetParams(physics.Update{Repulsion: ptr(400.0)}))
	require.True(t, f.machine.ReprojectPending())

	require.NoError(t, f.machine.SetMode(projection.ModeFlat))
	assert.False(t, f.machine.ReprojectPending())
	assert.Zero(t, f.scheduler.FireAll())
}

func TestBaselineMemoizedOnFirstEntry(t *testing.T) {
	f := newFixture(t, chainGraph(t, 9))
	f.settle(t)
	require.NoError(t, f.machine.SetMode(projection.ModeHyperbolic))
	first, ok := f.machine.Space().Baseline(string(projection.ModeHyperbolic))
	require.True(t, ok)

	require.NoError(t, f.machine.SetMode(projection.ModeFlat))
	for i := 0; i < 5; i++ {
		f.machine.Tick()
	}
	require.NoError(t, f.machine.SetMode(projection.ModeHyperbolic))

	again, ok := f.machine.Space().Baseline(string(projection.ModeHyperbolic))
	require.True(t, ok)
	assert.True(t, first.Equal(again))
}

func TestRefreshDatasetClearsBaselines(t *testing.T) {
	f := newFixture(t, chainGraph(t, 6))
	require.NoError(t, f.machine.SetMode(projection.ModeLayered))
	require.NoError(t, f.machine.SetMode(projection.ModeFlat))

	next := chainGraph(t, 10)
	require.NoError(t, f.machine.RefreshDataset(next))

	_, ok := f.machine.Space().Baseline(string(projection.ModeLayered))
	assert.False(t, ok)
	_, ok = f.machine.Space().Baseline(string(projection.ModeFlat))
	assert.True(t, ok)
	assert.Same(t, next, f.machine.Graph())
	assert.Len(t, f.recorder.Positions, 10)
	assert.Equal(t, 10, f.machine.Space().Len())

	assert.True(t, errors.IsInvalidDataset(f.machine.RefreshDataset(nil)))
}

func TestSetConfig(t *testing.T) {
	f := newFixture(t, chainGraph(t, 6))

	cfg := f.machine.Config()
	cfg.Mode = projection.ModeLayered
	cfg.MaxDepth = 300
	require.NoError(t, f.machine.SetConfig(cfg))
	assert.Equal(t, projection.ModeLayered, f.machine.Mode())
	assert.InDelta(t, -300, f.recorder.Z[0], 1e-9)

	// Empty mode keeps the active one
	cfg.Mode = ""
	cfg.MaxDepth = 100
	require.NoError(t, f.machine.SetConfig(cfg))
	assert.Equal(t, projection.ModeLayered, f.machine.Mode())
	assert.InDelta(t, -100, f.recorder.Z[0], 1e-9)

	cfg.LayerCount = 0
	assert.True(t, errors.IsInvalidConfig(f.machine.SetConfig(cfg)))
	assert.Equal(t, 100.0, f.machine.Config().MaxDepth)
}

func TestSetConfigUnknownModeLeavesConfig(t *testing.T) {
	f := newFixture(t, chainGraph(t, 6))

	cfg := f.machine.Config()
	cfg.Mode = projection.ModeLayered
	require.NoError(t, f.machine.SetConfig(cfg))
	before := f.machine.Config()
	z0 := f.recorder.Z[0]

	cfg.Mode = projection.ModeTDA
	cfg.MaxDepth = 123
	err := f.machine.SetConfig(cfg)
	assert.True(t, errors.IsUnknownMode(err))

	assert.Equal(t, before, f.machine.Config())
	assert.Equal(t, projection.ModeLayered, f.machine.Mode())

	// The layered projector still uses the old depth
	f.machine.Tick()
	assert.InDelta(t, z0, f.recorder.Z[0], 1e-9)
}

func TestSetNodeTypeVisibleReprojectsDisk(t *testing.T) {
	f := newFixture(t, chainGraph(t, 9))
	f.settle(t)
	require.NoError(t, f.machine.SetMode(projection.ModeHyperbolic))
	before := f.recorder.Count("SetGeodesicEdges")

	changed := f.machine.SetNodeTypeVisible(graph.NodeTypePattern, false)
	assert.Equal(t, 3, changed)
	assert.Equal(t, before+1, f.recorder.Count("SetGeodesicEdges"))

	for _, i := range []int{0, 3, 6} {
		assert.Equal(t, space.Point3{}, f.recorder.Positions[i], "filtered node %d", i)
	}
	for _, e := range f.recorder.Edges {
		assert.NotContains(t, []int{0, 3, 6}, e.Source)
		assert.NotContains(t, []int{0, 3, 6}, e.Target)
	}

	assert.Zero(t, f.machine.SetNodeTypeVisible(graph.NodeTypePattern, false))
}

type countingProjector struct {
	projected   int
	deactivated int
}

func (p *countingProjector) Project(_ *graph.Graph, snapshot space.SimulationFrame) (space.DisplayFrame, error) {
	p.projected++
	out := space.Flat(snapshot)
	for i := range out {
		out[i].Z = 1
	}
	return out, nil
}

func (p *countingProjector) Deactivate() {
	p.deactivated++
}

func TestExternalModes(t *testing.T) {
	f := newFixture(t, chainGraph(t, 6))
	p := &countingProjector{}
	require.NoError(t, f.machine.RegisterExternal(projection.ModeSpacetime, false, p))
	assert.Contains(t, f.machine.Modes(), projection.ModeSpacetime)

	require.NoError(t, f.machine.SetMode(projection.ModeSpacetime))
	assert.True(t, f.recorder.IsVisible(render.LayerExternal))
	assert.Equal(t, 1, p.projected)

	f.machine.Tick()
	assert.Equal(t, 2, p.projected)
	assert.Equal(t, 1.0, f.recorder.Positions[0].Z)

	require.NoError(t, f.machine.SetMode(projection.ModeFlat))
	assert.Equal(t, 1, p.deactivated)
	assert.False(t, f.recorder.IsVisible(render.LayerExternal))

	err := f.machine.RegisterExternal(projection.ModeFlat, false, p)
	assert.Error(t, err)
}

func TestProjectorPanicRestoresSimulation(t *testing.T) {
	f := newFixture(t, chainGraph(t, 6))
	f.machine.Tick()
	before := f.sim.Positions()

	require.NoError(t, f.machine.RegisterExternal(projection.ModeTDA, false,
		ExternalFunc(func(_ *graph.Graph, snapshot space.SimulationFrame) (space.DisplayFrame, error) {
			snapshot[0] = space.Position{X: math.NaN(), Y: math.NaN()}
			panic("persistence diagram overflow")
		})))

	err := f.machine.SetMode(projection.ModeTDA)
	require.Error(t, err)
	ge, ok := grapherror.As(err)
	require.True(t, ok)
	assert.True(t, ge.IsCategory(grapherror.CategoryInternal))
	assert.True(t, ge.IsSubcategory(grapherror.SubcategoryInternalPanic))

	assert.True(t, before.Equal(f.sim.Positions()))
	assert.True(t, before.Equal(f.machine.Space().Snapshot()))
}
