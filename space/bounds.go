package space

import (
	"math"
	"time"

	"github.com/teranos/vista/graph"
)

// TemporalBounds spans node timestamps in unix milliseconds
type TemporalBounds struct {
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
	Range int64 `json:"range"`
}

// ComputeTemporalBounds scans node timestamps. ok is false when no node
// carries a timestamp.
func ComputeTemporalBounds(nodes []graph.Node) (b TemporalBounds, ok bool) {
	for _, node := range nodes {
		if node.Timestamp == nil {
			continue
		}
		ms := node.Timestamp.UnixMilli()
		if !ok {
			b.Min, b.Max = ms, ms
			ok = true
			continue
		}
		if ms < b.Min {
			b.Min = ms
		}
		if ms > b.Max {
			b.Max = ms
		}
	}
	b.Range = b.Max - b.Min
	return b, ok
}

// Normalize maps a timestamp to recency t in [0,1], 1 being newest.
// A missing timestamp is oldest.
func (b TemporalBounds) Normalize(ts *time.Time) float64 {
	if ts == nil {
		return 0
	}
	span := b.Range
	if span == 0 {
		span = 1
	}
	t := float64(ts.UnixMilli()-b.Min) / float64(span)
	return math.Max(0, math.Min(1, t))
}

// SpatialBounds describes the extent of finite simulation positions
type SpatialBounds struct {
	MinX      float64 `json:"min_x"`
	MaxX      float64 `json:"max_x"`
	MinY      float64 `json:"min_y"`
	MaxY      float64 `json:"max_y"`
	CenterX   float64 `json:"center_x"`
	CenterY   float64 `json:"center_y"`
	MaxRadius float64 `json:"max_radius"`
}

// ComputeSpatialBounds derives bounds from the finite positions of a frame.
// The center is the centroid; MaxRadius falls back to 1 when every node
// sits on the centroid. ok is false when no position is finite.
func ComputeSpatialBounds(frame SimulationFrame) (b SpatialBounds, ok bool) {
	var sumX, sumY float64
	count := 0

	for _, p := range frame {
		if !p.Finite() {
			continue
		}
		if count == 0 {
			b.MinX, b.MaxX, b.MinY, b.MaxY = p.X, p.X, p.Y, p.Y
		}
		b.MinX = math.Min(b.MinX, p.X)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxY = math.Max(b.MaxY, p.Y)
		sumX += p.X
		sumY += p.Y
		count++
	}
	if count == 0 {
		return SpatialBounds{MaxRadius: 1}, false
	}

	b.CenterX = sumX / float64(count)
	b.CenterY = sumY / float64(count)

	for _, p := range frame {
		if !p.Finite() {
			continue
		}
		if d := math.Hypot(p.X-b.CenterX, p.Y-b.CenterY); d > b.MaxRadius {
			b.MaxRadius = d
		}
	}
	if b.MaxRadius == 0 {
		b.MaxRadius = 1
	}
	return b, true
}
