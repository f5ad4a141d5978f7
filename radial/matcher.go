package radial

import (
	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/space"
)

// Matcher decides radial target membership. It holds the dynamic inputs a
// key may depend on: the active agent set and the dataset's temporal bounds.
// Matches itself never mutates anything.
type Matcher struct {
	active      map[string]struct{}
	temporal    space.TemporalBounds
	hasTemporal bool
}

// NewMatcher creates a matcher with no active agents and no temporal bounds
func NewMatcher() *Matcher {
	return &Matcher{active: make(map[string]struct{})}
}

// SetActiveAgents replaces the agent:active membership set
func (m *Matcher) SetActiveAgents(ids []string) {
	m.active = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m.active[id] = struct{}{}
	}
}

// SetTemporalBounds sets the bounds temporal:* keys normalize against.
// Without bounds, temporal keys never match.
func (m *Matcher) SetTemporalBounds(b space.TemporalBounds, ok bool) {
	m.temporal, m.hasTemporal = b, ok
}

// Matches reports whether node belongs to the class named by key.
// Unknown or malformed keys match nothing.
func (m *Matcher) Matches(node *graph.Node, key string) bool {
	if node == nil {
		return false
	}
	target, ok := ParseTarget(key)
	if !ok {
		return false
	}
	return m.MatchesTarget(node, target)
}

// MatchesTarget is Matches for an already parsed key
func (m *Matcher) MatchesTarget(node *graph.Node, target Target) bool {
	if node == nil {
		return false
	}

	switch target.Kind {
	case KindType:
		return node.Type == target.Value
	case KindMemoryType:
		return node.MemoryType == target.Value
	case KindDomain:
		return node.Domain == target.Value
	case KindCategory:
		return node.Category == target.Value
	case KindAgent:
		return node.AgentID == target.Value
	case KindActiveAgents:
		if node.AgentID == "" {
			return false
		}
		_, ok := m.active[node.AgentID]
		return ok
	case KindQuality:
		score, ok := qualityScore(node)
		return ok && QualityBucket(score) == target.Value
	case KindConnectivity:
		return ConnectivityBucket(node.Connectivity) == target.Value
	case KindEmbedding:
		return (target.Value == EmbeddingYes) == node.HasEmbedding
	case KindTemporal:
		if !m.hasTemporal {
			return false
		}
		return TemporalBucket(m.temporal.Normalize(node.Timestamp)) == target.Value
	default:
		return false
	}
}

// Filter returns the indices of nodes matching key
func (m *Matcher) Filter(nodes []graph.Node, key string) []int {
	target, ok := ParseTarget(key)
	if !ok {
		return nil
	}
	var out []int
	for i := range nodes {
		if m.MatchesTarget(&nodes[i], target) {
			out = append(out, i)
		}
	}
	return out
}

// qualityScore prefers Quality and falls back to Confidence
func qualityScore(node *graph.Node) (float64, bool) {
	if node.Quality != nil {
		return *node.Quality, true
	}
	if node.Confidence != nil {
		return *node.Confidence, true
	}
	return 0, false
}

// QualityBucket classifies a score: >= 0.7 high, >= 0.4 medium, else low
func QualityBucket(score float64) string {
	switch {
	case score >= HighQualityMin:
		return QualityHigh
	case score >= MediumQualityMin:
		return QualityMedium
	default:
		return QualityLow
	}
}

// ConnectivityBucket classifies a degree: >= 10 hub, >= 1 connected, else isolated
func ConnectivityBucket(degree int) string {
	switch {
	case degree >= HubDegreeMin:
		return ConnectivityHub
	case degree >= 1:
		return ConnectivityConnected
	default:
		return ConnectivityIsolated
	}
}

// TemporalBucket classifies normalized recency into thirds
func TemporalBucket(t float64) string {
	switch {
	case t >= RecentMin:
		return TemporalRecent
	case t >= MiddleMin:
		return TemporalMiddle
	default:
		return TemporalOld
	}
}
