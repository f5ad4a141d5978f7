// Package space keeps simulation space and display space apart.
//
// The physics simulation reads and writes a SimulationFrame every tick.
// Projectors read a snapshot of it and return a DisplayFrame for the
// renderer; only Manager copies between the two.
package space

import "math"

// Position is a node's 2D simulation-space coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are usable
func (p Position) Finite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Point3 is a display-space coordinate handed to the renderer
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SimulationFrame holds simulation-space positions by node index
type SimulationFrame []Position

// Clone returns an independent copy of the frame
func (f SimulationFrame) Clone() SimulationFrame {
	if f == nil {
		return nil
	}
	out := make(SimulationFrame, len(f))
	copy(out, f)
	return out
}

// Equal reports whether two frames hold identical positions
func (f SimulationFrame) Equal(other SimulationFrame) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

// DisplayFrame holds display-space positions by node index
type DisplayFrame []Point3

// Flat lifts a simulation frame into display space at z = 0
func Flat(f SimulationFrame) DisplayFrame {
	out := make(DisplayFrame, len(f))
	for i, p := range f {
		out[i] = Point3{X: p.X, Y: p.Y}
	}
	return out
}

// WithZ lifts a simulation frame into display space using per-node depths.
// Missing depths default to 0.
func WithZ(f SimulationFrame, z []float64) DisplayFrame {
	out := Flat(f)
	for i := range out {
		if i < len(z) {
			out[i].Z = z[i]
		}
	}
	return out
}

// Finite reports whether every coordinate in the frame is usable
func (d DisplayFrame) Finite() bool {
	for _, p := range d {
		if !isFinite(p.X) || !isFinite(p.Y) || !isFinite(p.Z) {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
