package radial

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/space"
)

func f(v float64) *float64 { return &v }

func at(ms int64) *time.Time {
	t := time.UnixMilli(ms)
	return &t
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		key  string
		want Target
		ok   bool
	}{
		{"memory", Target{KindType, "memory"}, true},
		{"  neural_pattern ", Target{KindType, "neural_pattern"}, true},
		{"memtype:episodic", Target{KindMemoryType, "episodic"}, true},
		{"domain:code", Target{KindDomain, "code"}, true},
		{"category:routing", Target{KindCategory, "routing"}, true},
		{"agent:coder", Target{KindAgent, "coder"}, true},
		{"agent:active", Target{KindActiveAgents, "active"}, true},
		{"quality:high", Target{KindQuality, "high"}, true},
		{"connectivity:isolated", Target{KindConnectivity, "isolated"}, true},
		{"embedding:no", Target{KindEmbedding, "no"}, true},
		{"temporal:middle", Target{KindTemporal, "middle"}, true},
		{"", Target{}, false},
		{"   ", Target{}, false},
		{"domain:", Target{}, false},
		{"color:red", Target{}, false},
		{"quality:superb", Target{}, false},
		{"connectivity:", Target{}, false},
		{"embedding:maybe", Target{}, false},
		{"temporal:future", Target{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := ParseTarget(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetString(t *testing.T) {
	for _, key := range []string{"memory", "domain:code", "agent:active", "quality:low", "temporal:recent"} {
		target, ok := ParseTarget(key)
		require.True(t, ok)
		assert.Equal(t, key, target.String())
	}
}

func TestMatches(t *testing.T) {
	m := NewMatcher()
	m.SetActiveAgents([]string{"coder"})
	m.SetTemporalBounds(space.TemporalBounds{Min: 0, Max: 3000, Range: 3000}, true)

	node := &graph.Node{
		Type:         graph.NodeTypeMemory,
		MemoryType:   "episodic",
		Domain:       "code",
		Category:     "routing",
		AgentID:      "coder",
		Quality:      f(0.75),
		Connectivity: 12,
		HasEmbedding: true,
		Timestamp:    at(2500),
	}

	tests := []struct {
		key  string
		want bool
	}{
		{"memory", true},
		{"agent", false},
		{"memtype:episodic", true},
		{"memtype:semantic", false},
		{"domain:code", true},
		{"category:routing", true},
		{"agent:coder", true},
		{"agent:reviewer", false},
		{"agent:active", true},
		{"quality:high", true},
		{"quality:medium", false},
		{"connectivity:hub", true},
		{"connectivity:connected", false},
		{"embedding:yes", true},
		{"embedding:no", false},
		{"temporal:recent", true},
		{"temporal:old", false},
		{"bogus:key", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Matches(node, tt.key))
		})
	}
}

func TestQualityFallsBackToConfidence(t *testing.T) {
	m := NewMatcher()

	assert.True(t, m.Matches(&graph.Node{Confidence: f(0.5)}, "quality:medium"))
	assert.True(t, m.Matches(&graph.Node{Quality: f(0.1), Confidence: f(0.9)}, "quality:low"))

	unscored := &graph.Node{}
	for _, key := range []string{"quality:high", "quality:medium", "quality:low"} {
		assert.False(t, m.Matches(unscored, key), key)
	}
}

func TestBuckets(t *testing.T) {
	assert.Equal(t, QualityHigh, QualityBucket(0.7))
	assert.Equal(t, QualityMedium, QualityBucket(0.4))
	assert.Equal(t, QualityMedium, QualityBucket(0.69))
	assert.Equal(t, QualityLow, QualityBucket(0.39))

	assert.Equal(t, ConnectivityHub, ConnectivityBucket(10))
	assert.Equal(t, ConnectivityConnected, ConnectivityBucket(9))
	assert.Equal(t, ConnectivityConnected, ConnectivityBucket(1))
	assert.Equal(t, ConnectivityIsolated, ConnectivityBucket(0))

	assert.Equal(t, TemporalRecent, TemporalBucket(1))
	assert.Equal(t, TemporalMiddle, TemporalBucket(0.5))
	assert.Equal(t, TemporalOld, TemporalBucket(0.2))
}

func TestTemporalKeys(t *testing.T) {
	m := NewMatcher()
	node := &graph.Node{Timestamp: at(150)}

	assert.False(t, m.Matches(node, "temporal:old"), "no bounds, no match")

	m.SetTemporalBounds(space.TemporalBounds{Min: 0, Max: 300, Range: 300}, true)
	assert.True(t, m.Matches(node, "temporal:middle"))
	assert.True(t, m.Matches(&graph.Node{}, "temporal:old"), "missing timestamp is old")
}

func TestActiveAgents(t *testing.T) {
	m := NewMatcher()
	node := &graph.Node{AgentID: "coder"}
	assert.False(t, m.Matches(node, "agent:active"))

	m.SetActiveAgents([]string{"coder", "tester"})
	assert.True(t, m.Matches(node, "agent:active"))
	assert.False(t, m.Matches(&graph.Node{}, "agent:active"))

	m.SetActiveAgents(nil)
	assert.False(t, m.Matches(node, "agent:active"))
}

func TestMatchesIsTotal(t *testing.T) {
	m := NewMatcher()
	m.SetTemporalBounds(space.TemporalBounds{}, true)

	keys := []string{
		"memory", "memtype:x", "domain:x", "category:x", "agent:x", "agent:active",
		"quality:high", "quality:medium", "quality:low",
		"connectivity:hub", "connectivity:connected", "connectivity:isolated",
		"embedding:yes", "embedding:no",
		"temporal:recent", "temporal:middle", "temporal:old",
		"", ":", "::", "quality:", "unknown:thing", "agent:",
	}
	nodes := []*graph.Node{
		nil,
		{},
		{Quality: f(math.NaN()), Connectivity: -3, Timestamp: at(-1)},
		{Confidence: f(math.Inf(1)), Timestamp: at(math.MaxInt32)},
	}

	for _, key := range keys {
		for _, node := range nodes {
			assert.NotPanics(t, func() { m.Matches(node, key) }, "key %q", key)
		}
	}
}

func TestFilter(t *testing.T) {
	m := NewMatcher()
	nodes := []graph.Node{
		{Type: "memory", Connectivity: 0},
		{Type: "agent", Connectivity: 3},
		{Type: "memory", Connectivity: 11},
	}

	assert.Equal(t, []int{0, 2}, m.Filter(nodes, "memory"))
	assert.Equal(t, []int{2}, m.Filter(nodes, "connectivity:hub"))
	assert.Nil(t, m.Filter(nodes, "nope:x"))
}
