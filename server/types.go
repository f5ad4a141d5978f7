package server

import (
	"encoding/json"
	"time"

	"github.com/teranos/vista/geodesic"
	"github.com/teranos/vista/graph"
	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/render"
	"github.com/teranos/vista/space"
)

const (
	// DefaultMaxClients is used when Options.MaxClients is zero
	DefaultMaxClients = 32
	// MaxClientMessageQueueSize is the size of per-client frame queues
	MaxClientMessageQueueSize = 256
	// OutboundQueueSize buffers frames between the renderer and the hub
	OutboundQueueSize = 1024
	// ShutdownTimeout is how long Stop waits for goroutines and open requests
	ShutdownTimeout = 10 * time.Second
)

// ServerState represents the server lifecycle state
type ServerState int32

const (
	ServerStateRunning  ServerState = iota // Normal operation
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)

// Outbound frame types
const (
	FrameVersion         = "version"
	FrameState           = "state"
	FrameViewMode        = "view_mode"
	FramePositions       = "positions"
	FrameZPositions      = "z_positions"
	FrameGeodesicEdges   = "geodesic_edges"
	FrameDepthEffects    = "depth_effects"
	FrameLayerVisibility = "layer_visibility"
	FrameAck             = "ack"
	FrameError           = "error"
	FramePong            = "pong"
)

// Inbound message types
const (
	MsgSetMode         = "set_mode"
	MsgSetParams       = "set_params"
	MsgSetFilter       = "set_filter"
	MsgSetConfig       = "set_config"
	MsgSetActiveAgents = "set_active_agents"
	MsgGetState        = "get_state"
	MsgPing            = "ping"
)

// Frame is the envelope of every message sent to a client
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ClientMessage represents a client message. Which fields are read
// depends on Type.
type ClientMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"` // Echoed in the ack
	Mode      projection.Mode `json:"mode,omitempty"`       // set_mode
	Params    *physics.Update `json:"params,omitempty"`     // set_params
	Preset    string          `json:"preset,omitempty"`     // set_params: named preset, applied before Params
	NodeType  string          `json:"node_type,omitempty"`  // set_filter
	Visible   bool            `json:"visible"`              // set_filter
	Config    json.RawMessage `json:"config,omitempty"`     // set_config: partial [view] section
	Agents    []string        `json:"agents,omitempty"`     // set_active_agents
}

// StateSnapshot describes the running engine to a newly connected client
type StateSnapshot struct {
	Mode      projection.Mode      `json:"mode"`
	Static    bool                 `json:"static"`
	Modes     []projection.Mode    `json:"modes"`
	Config    projection.Config    `json:"config"`
	Params    physics.Params       `json:"params"`
	Presets   []string             `json:"presets"`
	DatasetID string               `json:"dataset_id"`
	Stats     graph.Stats          `json:"stats"`
	NodeTypes []graph.NodeTypeInfo `json:"node_types"`
	Pending   bool                 `json:"reproject_pending"`
}

type viewModeData struct {
	Mode projection.Mode `json:"mode"`
}

type positionsData struct {
	Nodes space.DisplayFrame `json:"nodes"`
}

type geodesicData struct {
	Edges      []projection.GeodesicEdge `json:"edges"`
	Disk       []geodesic.Point          `json:"disk"`
	DiskRadius float64                   `json:"disk_radius"`
}

type layerData struct {
	Layer   render.Layer `json:"layer"`
	Visible bool         `json:"visible"`
}

type ackData struct {
	RequestID string `json:"request_id,omitempty"`
	Type      string `json:"type"`
	Changed   int    `json:"changed,omitempty"` // set_filter: nodes toggled
}

type versionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}
