package render

import (
	"sync"

	"github.com/teranos/vista/geodesic"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/space"
)

// Call is one recorded renderer invocation
type Call struct {
	Method string
	Mode   projection.Mode
	Layer  Layer
	Bool   bool
}

// Recorder keeps the latest output of every renderer call. It backs the
// project command and tests.
type Recorder struct {
	mu sync.Mutex

	Mode       projection.Mode
	Positions  space.DisplayFrame
	Z          []float64
	Edges      []projection.GeodesicEdge
	Disk       []geodesic.Point
	DiskRadius float64
	Effects    []projection.DepthEffect
	Visible    map[Layer]bool
	Calls      []Call
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{Visible: make(map[Layer]bool)}
}

func (r *Recorder) SetViewMode(mode projection.Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Mode = mode
	r.Calls = append(r.Calls, Call{Method: "SetViewMode", Mode: mode})
}

func (r *Recorder) UpdateNodePositions(frame space.DisplayFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Positions = append(space.DisplayFrame(nil), frame...)
	r.Calls = append(r.Calls, Call{Method: "UpdateNodePositions"})
}

func (r *Recorder) UpdateNodeZPositions(z []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Z = append([]float64(nil), z...)
	r.Calls = append(r.Calls, Call{Method: "UpdateNodeZPositions"})
}

func (r *Recorder) SetGeodesicEdges(edges []projection.GeodesicEdge, disk []geodesic.Point, diskRadius float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Edges = edges
	r.Disk = append([]geodesic.Point(nil), disk...)
	r.DiskRadius = diskRadius
	r.Calls = append(r.Calls, Call{Method: "SetGeodesicEdges"})
}

func (r *Recorder) ApplyDepthEffects(effects []projection.DepthEffect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Effects = append([]projection.DepthEffect(nil), effects...)
	r.Calls = append(r.Calls, Call{Method: "ApplyDepthEffects"})
}

func (r *Recorder) SetVisible(layer Layer, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Visible[layer] = visible
	r.Calls = append(r.Calls, Call{Method: "SetVisible", Layer: layer, Bool: visible})
}

// Count returns how many times method was called
func (r *Recorder) Count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// IsVisible reports the last visibility set for layer
func (r *Recorder) IsVisible(layer Layer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Visible[layer]
}

// Reset forgets recorded calls but keeps the latest state
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = nil
}

var _ Renderer = (*Recorder)(nil)
