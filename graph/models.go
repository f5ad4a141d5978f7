package graph

import (
	"time"
)

// Graph is the node/edge dataset handed to the projection engine.
// Node.Index equals the node's position in Nodes; simulation and display
// frames are aligned to it.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Links []Link `json:"links" yaml:"links"`
	Meta  Meta   `json:"meta" yaml:"meta"`
}

// Node represents one memory, pattern, trajectory or agent in the graph
type Node struct {
	Index        int                    `json:"index" yaml:"index"`
	ID           string                 `json:"id" yaml:"id"`
	Type         string                 `json:"type" yaml:"type"` // "memory", "neural_pattern", "trajectory", "agent", ...
	Label        string                 `json:"label,omitempty" yaml:"label,omitempty"`
	Timestamp    *time.Time             `json:"timestamp,omitempty" yaml:"timestamp,omitempty"` // nil = oldest
	MemoryType   string                 `json:"memory_type,omitempty" yaml:"memory_type,omitempty"`
	Domain       string                 `json:"domain,omitempty" yaml:"domain,omitempty"`
	Category     string                 `json:"category,omitempty" yaml:"category,omitempty"`
	AgentID      string                 `json:"agent_id,omitempty" yaml:"agent_id,omitempty"`
	Quality      *float64               `json:"quality,omitempty" yaml:"quality,omitempty"`
	Confidence   *float64               `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Connectivity int                    `json:"connectivity" yaml:"connectivity"` // Degree, filled by ComputeConnectivity
	HasEmbedding bool                   `json:"has_embedding,omitempty" yaml:"has_embedding,omitempty"`
	Visible      bool                   `json:"visible" yaml:"visible"` // Filter-enabled
	Metadata     map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Link represents an edge between two nodes, by index
type Link struct {
	Source int     `json:"source" yaml:"source"`
	Target int     `json:"target" yaml:"target"`
	Type   string  `json:"type" yaml:"type"`   // Edge class, keys per-class link distance
	Weight float64 `json:"value" yaml:"value"` // D3 uses "value"
	Hidden bool    `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// Meta contains metadata about the graph
type Meta struct {
	DatasetID         string                 `json:"dataset_id" yaml:"dataset_id"`
	SchemaVersion     string                 `json:"schema_version" yaml:"schema_version"`
	GeneratedAt       time.Time              `json:"generated_at" yaml:"generated_at"`
	Source            string                 `json:"source" yaml:"source"`
	Stats             Stats                  `json:"stats" yaml:"stats"`
	NodeTypes         []NodeTypeInfo         `json:"node_types" yaml:"node_types"`
	RelationshipTypes []RelationshipTypeInfo `json:"relationship_types" yaml:"relationship_types"`
}

// NodeTypeInfo describes a node type present in the graph
type NodeTypeInfo struct {
	Type  string `json:"type" yaml:"type"`
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count,omitempty" yaml:"count,omitempty"`
}

// RelationshipTypeInfo describes an edge class present in the graph
type RelationshipTypeInfo struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count,omitempty" yaml:"count,omitempty"`
}

// Stats provides graph statistics
type Stats struct {
	TotalNodes    int `json:"total_nodes" yaml:"total_nodes"`
	TotalEdges    int `json:"total_edges" yaml:"total_edges"`
	WithTimestamp int `json:"with_timestamp" yaml:"with_timestamp"`
	Visible       int `json:"visible" yaml:"visible"`
}

// Known node types
const (
	NodeTypeMemory     = "memory"
	NodeTypePattern    = "neural_pattern"
	NodeTypeTrajectory = "trajectory"
	NodeTypeAgent      = "agent"
	NodeTypeState      = "state"
	NodeTypeAction     = "action"
	NodeTypeFile       = "file"
)
