// Package radial resolves radial target keys against nodes.
//
// A radial target names a class of nodes the layout pulls toward (2D
// clustering force) or pushes outward (3D surface push). Both consumers
// share one Matcher so clustering semantics never diverge.
//
// Key grammar:
//
//	memory                         bare node type
//	memtype:<x> domain:<x> category:<x>
//	agent:<id>  agent:active
//	quality:high|medium|low
//	connectivity:hub|connected|isolated
//	embedding:yes|no
//	temporal:recent|middle|old
package radial

import "strings"

// Kind identifies which node attribute a target key tests
type Kind int

const (
	KindType Kind = iota
	KindMemoryType
	KindDomain
	KindCategory
	KindAgent
	KindActiveAgents
	KindQuality
	KindConnectivity
	KindEmbedding
	KindTemporal
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindMemoryType:
		return "memtype"
	case KindDomain:
		return "domain"
	case KindCategory:
		return "category"
	case KindAgent, KindActiveAgents:
		return "agent"
	case KindQuality:
		return "quality"
	case KindConnectivity:
		return "connectivity"
	case KindEmbedding:
		return "embedding"
	case KindTemporal:
		return "temporal"
	default:
		return "unknown"
	}
}

// Bucket values
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"

	ConnectivityHub       = "hub"
	ConnectivityConnected = "connected"
	ConnectivityIsolated  = "isolated"

	EmbeddingYes = "yes"
	EmbeddingNo  = "no"

	TemporalRecent = "recent"
	TemporalMiddle = "middle"
	TemporalOld    = "old"

	// ActiveAgents is the agent value selecting the dynamic active set
	ActiveAgents = "active"
)

// Thresholds
const (
	HighQualityMin   = 0.7
	MediumQualityMin = 0.4
	HubDegreeMin     = 10
	RecentMin        = 2.0 / 3.0
	MiddleMin        = 1.0 / 3.0
)

// Target is a parsed radial target key
type Target struct {
	Kind  Kind
	Value string
}

var prefixes = map[string]Kind{
	"memtype":      KindMemoryType,
	"domain":       KindDomain,
	"category":     KindCategory,
	"agent":        KindAgent,
	"quality":      KindQuality,
	"connectivity": KindConnectivity,
	"embedding":    KindEmbedding,
	"temporal":     KindTemporal,
}

var buckets = map[Kind][]string{
	KindQuality:      {QualityHigh, QualityMedium, QualityLow},
	KindConnectivity: {ConnectivityHub, ConnectivityConnected, ConnectivityIsolated},
	KindEmbedding:    {EmbeddingYes, EmbeddingNo},
	KindTemporal:     {TemporalRecent, TemporalMiddle, TemporalOld},
}

// ParseTarget parses a key. ok is false for empty keys, unknown prefixes,
// empty values and unknown buckets.
func ParseTarget(key string) (Target, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Target{}, false
	}

	prefix, value, hasPrefix := strings.Cut(key, ":")
	if !hasPrefix {
		return Target{Kind: KindType, Value: key}, true
	}

	kind, known := prefixes[prefix]
	if !known || value == "" {
		return Target{}, false
	}
	if kind == KindAgent && value == ActiveAgents {
		kind = KindActiveAgents
	}

	if allowed, bucketed := buckets[kind]; bucketed {
		for _, b := range allowed {
			if b == value {
				return Target{Kind: kind, Value: value}, true
			}
		}
		return Target{}, false
	}

	return Target{Kind: kind, Value: value}, true
}

// String renders the target back into key form
func (t Target) String() string {
	switch t.Kind {
	case KindType:
		return t.Value
	case KindActiveAgents:
		return "agent:" + ActiveAgents
	default:
		return t.Kind.String() + ":" + t.Value
	}
}
