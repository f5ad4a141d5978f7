package view

import (
	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/render"
	"github.com/teranos/vista/space"
)

// ExternalProjector computes a physics-only projection the engine does not
// own (spacetime, tda, pulse). Project receives a snapshot of simulation
// space and must not keep it. Deactivate is called when the machine leaves
// the mode.
type ExternalProjector interface {
	Project(g *graph.Graph, snapshot space.SimulationFrame) (space.DisplayFrame, error)
	Deactivate()
}

// ExternalFunc adapts a plain function to ExternalProjector
type ExternalFunc func(g *graph.Graph, snapshot space.SimulationFrame) (space.DisplayFrame, error)

func (f ExternalFunc) Project(g *graph.Graph, snapshot space.SimulationFrame) (space.DisplayFrame, error) {
	return f(g, snapshot)
}

func (ExternalFunc) Deactivate() {}

// projected is one projector's output, ready to present
type projected struct {
	display space.DisplayFrame
	z       []float64
	effects []projection.DepthEffect
	hyper   *projection.HyperbolicResult
}

type projectFunc func(m *Machine, src space.SimulationFrame) (projected, error)

// modeEntry is one row of the dispatch table
type modeEntry struct {
	mode     projection.Mode
	kind     projection.Kind
	static   bool // frozen between settles; physics paused once settled
	layers   []render.Layer
	project  projectFunc
	external ExternalProjector
}

func (e *modeEntry) owns(layer render.Layer) bool {
	for _, l := range e.layers {
		if l == layer {
			return true
		}
	}
	return false
}

func builtinEntries() map[projection.Mode]*modeEntry {
	return map[projection.Mode]*modeEntry{
		projection.ModeFlat: {
			mode:    projection.ModeFlat,
			kind:    projection.KindFlat,
			layers:  []render.Layer{render.LayerNodes, render.LayerLinks},
			project: (*Machine).projectFlat,
		},
		projection.ModeLayered: {
			mode:    projection.ModeLayered,
			kind:    projection.KindLayered,
			layers:  []render.Layer{render.LayerNodes, render.LayerLinks, render.LayerDepthPlanes},
			project: (*Machine).projectLayered,
		},
		projection.ModeSpherical: {
			mode:    projection.ModeSpherical,
			kind:    projection.KindSpherical,
			layers:  []render.Layer{render.LayerNodes, render.LayerLinks, render.LayerSphereShell},
			project: (*Machine).projectSpherical,
		},
		projection.ModeHyperbolic: {
			mode:    projection.ModeHyperbolic,
			kind:    projection.KindHyperbolic,
			static:  true,
			layers:  []render.Layer{render.LayerNodes, render.LayerDiskBoundary, render.LayerGeodesics},
			project: (*Machine).projectHyperbolic,
		},
	}
}

func externalEntry(mode projection.Mode, static bool, p ExternalProjector) *modeEntry {
	return &modeEntry{
		mode:     mode,
		kind:     projection.KindExternal,
		static:   static,
		layers:   []render.Layer{render.LayerNodes, render.LayerExternal},
		external: p,
		project: func(m *Machine, src space.SimulationFrame) (projected, error) {
			display, err := p.Project(m.graph, src)
			return projected{display: display}, err
		},
	}
}

func (m *Machine) projectFlat(src space.SimulationFrame) (projected, error) {
	return projected{display: space.Flat(src)}, nil
}

func (m *Machine) projectLayered(src space.SimulationFrame) (projected, error) {
	z := m.layered.ProjectAllZ(m.graph.Nodes)
	return projected{
		display: space.WithZ(src, z),
		z:       z,
		effects: m.layered.DepthEffects(z),
	}, nil
}

func (m *Machine) projectSpherical(src space.SimulationFrame) (projected, error) {
	// src is the live snapshot, so the manager's bounds describe it
	m.space.RefreshSpatialBounds()
	m.spherical.SetSpatialBounds(m.space.SpatialBounds())
	display, _ := m.spherical.ProjectFrame(m.graph.Nodes, src)
	z := make([]float64, len(display))
	for i, p := range display {
		z[i] = p.Z
	}
	return projected{display: display, z: z}, nil
}

func (m *Machine) projectHyperbolic(src space.SimulationFrame) (projected, error) {
	result := m.hyperbolic.Project(m.graph, src, graph.EnabledMask(m.graph))
	return projected{display: result.Display, hyper: &result}, nil
}

// present hands a projection to the renderer
func (m *Machine) present(p projected) {
	m.renderer.UpdateNodePositions(p.display)
	if p.z != nil {
		m.renderer.UpdateNodeZPositions(p.z)
	}
	if p.effects != nil {
		m.renderer.ApplyDepthEffects(p.effects)
	}
	if p.hyper != nil {
		m.renderer.SetGeodesicEdges(p.hyper.Edges, p.hyper.Disk, m.cfg.DiskRadius)
	}
}
