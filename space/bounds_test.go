package space

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/vista/graph"
)

func ts(ms int64) *time.Time {
	t := time.UnixMilli(ms)
	return &t
}

func TestComputeTemporalBounds(t *testing.T) {
	nodes := []graph.Node{
		{ID: "a", Timestamp: ts(5000)},
		{ID: "b"},
		{ID: "c", Timestamp: ts(1000)},
	}

	b, ok := ComputeTemporalBounds(nodes)
	require.True(t, ok)
	assert.Equal(t, TemporalBounds{Min: 1000, Max: 5000, Range: 4000}, b)

	_, ok = ComputeTemporalBounds([]graph.Node{{ID: "x"}})
	assert.False(t, ok)
}

func TestTemporalNormalize(t *testing.T) {
	b := TemporalBounds{Min: 1000, Max: 5000, Range: 4000}

	assert.Equal(t, 0.0, b.Normalize(nil), "missing timestamp is oldest")
	assert.Equal(t, 0.0, b.Normalize(ts(1000)))
	assert.Equal(t, 0.5, b.Normalize(ts(3000)))
	assert.Equal(t, 1.0, b.Normalize(ts(5000)))
	assert.Equal(t, 1.0, b.Normalize(ts(9000)), "clamped")

	single := TemporalBounds{Min: 1000, Max: 1000}
	assert.Equal(t, 0.0, single.Normalize(ts(1000)))
}

func TestComputeSpatialBounds(t *testing.T) {
	frame := SimulationFrame{{X: -10, Y: 0}, {X: 10, Y: 0}, {X: math.NaN(), Y: 3}, {X: 0, Y: 30}}

	b, ok := ComputeSpatialBounds(frame)
	require.True(t, ok)
	assert.Equal(t, -10.0, b.MinX)
	assert.Equal(t, 10.0, b.MaxX)
	assert.Equal(t, 30.0, b.MaxY)
	assert.InDelta(t, 0, b.CenterX, 1e-12)
	assert.InDelta(t, 10, b.CenterY, 1e-12)
	assert.InDelta(t, 20, b.MaxRadius, 1e-12)
}

func TestComputeSpatialBoundsDegenerate(t *testing.T) {
	b, ok := ComputeSpatialBounds(SimulationFrame{{X: 4, Y: 4}, {X: 4, Y: 4}})
	require.True(t, ok)
	assert.Equal(t, 1.0, b.MaxRadius, "coincident nodes fall back to radius 1")

	b, ok = ComputeSpatialBounds(SimulationFrame{{X: math.Inf(1), Y: 0}})
	assert.False(t, ok)
	assert.Equal(t, 1.0, b.MaxRadius)

	_, ok = ComputeSpatialBounds(nil)
	assert.False(t, ok)
}
