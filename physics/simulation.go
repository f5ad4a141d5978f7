// Package physics defines the force simulation the projection engine
// drives, and ships a reference implementation.
//
// The simulation always works in 2D simulation space. The view layer reads
// positions after each tick, projects them for display, and restores them
// through SetPositions before the next tick.
package physics

import (
	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/space"
)

// Simulation is the physics collaborator of the view machine
type Simulation interface {
	// Tick advances one step. It does nothing while stopped.
	Tick()

	Positions() space.SimulationFrame
	SetPositions(frame space.SimulationFrame)

	// Alpha is the energy metric used for settle detection
	Alpha() float64
	Reheat(alpha float64)

	Stop()
	Resume()
	Running() bool

	Params() Params
	SetParams(p Params)

	// SetGraph replaces the dataset, keeping positions of nodes whose IDs survive
	SetGraph(g *graph.Graph)
}
