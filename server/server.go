// Package server streams the view machine's output to browser renderers
// over websockets and routes their edits back into the event loop.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/vista/am"
	"github.com/teranos/vista/geodesic"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/projection"
	"github.com/teranos/vista/render"
	"github.com/teranos/vista/space"
	"github.com/teranos/vista/sym"
	"github.com/teranos/vista/view"
)

// Options configure the websocket server
type Options struct {
	AllowedOrigins []string   // Origin prefixes accepted on upgrade; empty = localhost only
	MaxClients     int        // 0 = DefaultMaxClients
	PositionsFPS   float64    // Cap on positions frames; 0 = every frame
	PersistEdits   bool       // Write client edits to ~/.vista/am_from_ui.toml
	Presets        am.Presets // Named physics edits for set_params
}

// Server is a render.Renderer that fans frames out to websocket clients.
// Renderer calls come from the view loop; client edits are posted back
// into it, so the machine is only ever touched from one goroutine.
type Server struct {
	opts    Options
	machine *view.Machine
	loop    *view.Loop

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	outbound   chan outbound
	mu         sync.RWMutex

	// Latest frame per key, replayed to clients that connect later
	lastFrames     map[string][]byte
	mode           projection.Mode
	positionsDirty bool
	positionLimit  *rate.Limiter

	logger     *zap.SugaredLogger
	httpServer *http.Server

	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	broadcastDrops atomic.Int64
	state          atomic.Int32
}

// outbound is an encoded frame for every client, or for one
type outbound struct {
	data   []byte
	client *Client
}

// New creates a server. Attach an engine before accepting connections.
func New(opts Options, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = logger.ComponentLogger("server")
	}
	if opts.MaxClients <= 0 {
		opts.MaxClients = DefaultMaxClients
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:       opts,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan outbound, OutboundQueueSize),
		lastFrames: make(map[string][]byte),
		logger:     log.With(logger.FieldSymbol, sym.Renderer),
		ctx:        ctx,
		cancel:     cancel,
	}
	if opts.PositionsFPS > 0 {
		s.positionLimit = rate.NewLimiter(rate.Limit(opts.PositionsFPS), 1)
	}
	return s
}

// Attach binds the machine and the loop that owns it
func (s *Server) Attach(machine *view.Machine, loop *view.Loop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine = machine
	s.loop = loop
}

// SetViewMode implements render.Renderer
func (s *Server) SetViewMode(mode projection.Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	s.publish(FrameViewMode, Frame{Type: FrameViewMode, Data: viewModeData{Mode: mode}})
}

// UpdateNodePositions implements render.Renderer. Frames over the
// PositionsFPS budget are held back; the hub flushes the latest one.
func (s *Server) UpdateNodePositions(frame space.DisplayFrame) {
	data, ok := s.encode(Frame{Type: FramePositions, Data: positionsData{Nodes: frame}})
	if !ok {
		return
	}

	s.mu.Lock()
	s.lastFrames[FramePositions] = data
	allow := s.positionLimit == nil || s.positionLimit.Allow()
	s.positionsDirty = !allow
	s.mu.Unlock()

	if allow {
		s.enqueue(outbound{data: data})
	}
}

// UpdateNodeZPositions implements render.Renderer
func (s *Server) UpdateNodeZPositions(z []float64) {
	s.publish(FrameZPositions, Frame{Type: FrameZPositions, Data: z})
}

// SetGeodesicEdges implements render.Renderer
func (s *Server) SetGeodesicEdges(edges []projection.GeodesicEdge, disk []geodesic.Point, diskRadius float64) {
	s.publish(FrameGeodesicEdges, Frame{Type: FrameGeodesicEdges, Data: geodesicData{
		Edges:      edges,
		Disk:       disk,
		DiskRadius: diskRadius,
	}})
}

// ApplyDepthEffects implements render.Renderer
func (s *Server) ApplyDepthEffects(effects []projection.DepthEffect) {
	s.publish(FrameDepthEffects, Frame{Type: FrameDepthEffects, Data: effects})
}

// SetVisible implements render.Renderer. Hiding a layer forgets the
// payload cached for it so reconnecting clients don't draw stale geometry.
func (s *Server) SetVisible(layer render.Layer, visible bool) {
	if !visible {
		s.mu.Lock()
		for _, key := range layerPayloads[layer] {
			delete(s.lastFrames, key)
		}
		s.mu.Unlock()
	}
	s.publish(FrameLayerVisibility+":"+string(layer), Frame{
		Type: FrameLayerVisibility,
		Data: layerData{Layer: layer, Visible: visible},
	})
}

// layerPayloads lists the frames drawn by a layer
var layerPayloads = map[render.Layer][]string{
	render.LayerDepthPlanes: {FrameZPositions, FrameDepthEffects},
	render.LayerGeodesics:   {FrameGeodesicEdges},
}

// replayOrder is the order cached frames are sent to a new client
var replayOrder = []string{FrameViewMode}

func init() {
	for _, layer := range render.AllLayers {
		replayOrder = append(replayOrder, FrameLayerVisibility+":"+string(layer))
	}
	replayOrder = append(replayOrder, FramePositions, FrameZPositions, FrameDepthEffects, FrameGeodesicEdges)
}

// publish caches f under key and queues it for every client
func (s *Server) publish(key string, f Frame) {
	data, ok := s.encode(f)
	if !ok {
		return
	}
	s.mu.Lock()
	s.lastFrames[key] = data
	s.mu.Unlock()
	s.enqueue(outbound{data: data})
}

func (s *Server) encode(f Frame) ([]byte, bool) {
	data, err := json.Marshal(f)
	if err != nil {
		s.logger.Warnw("Failed to encode frame", "frame", f.Type, logger.FieldError, err)
		return nil, false
	}
	return data, true
}

// enqueue hands a frame to the hub without blocking the caller
func (s *Server) enqueue(out outbound) {
	select {
	case s.outbound <- out:
	default:
		drops := s.broadcastDrops.Add(1)
		s.logger.Warnw("Outbound queue full, dropping frame", "total_drops", drops)
	}
}

// Run starts the hub event loop. It owns every client's send channel.
func (s *Server) Run() {
	var flush <-chan time.Time
	if s.positionLimit != nil {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / s.opts.PositionsFPS))
		defer ticker.Stop()
		flush = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Server hub stopping due to context cancellation")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		case out := <-s.outbound:
			s.deliver(out)
		case <-flush:
			s.flushPositions()
		}
	}
}

// handleClientRegister handles a new client connection and replays the
// cached frames so the client can draw the current view immediately
func (s *Server) handleClientRegister(client *Client) {
	s.mu.Lock()
	if len(s.clients) >= s.opts.MaxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			logger.FieldClientID, client.id,
			"max_clients", s.opts.MaxClients,
		)
		client.close()
		return
	}

	s.clients[client] = true
	total := len(s.clients)
	replay := make([][]byte, 0, len(client.initial)+len(replayOrder))
	replay = append(replay, client.initial...)
	for _, key := range replayOrder {
		if data, ok := s.lastFrames[key]; ok {
			replay = append(replay, data)
		}
	}
	s.mu.Unlock()

	for _, data := range replay {
		if !s.trySend(client, data) {
			return
		}
	}

	s.logger.Infow("Client connected",
		logger.FieldClientID, client.id,
		"total_clients", total,
	)
}

// handleClientUnregister handles a client disconnection
func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	_, ok := s.clients[client]
	delete(s.clients, client)
	total := len(s.clients)
	s.mu.Unlock()

	if !ok {
		return
	}
	client.close()
	s.logger.Infow("Client disconnected",
		logger.FieldClientID, client.id,
		"total_clients", total,
	)
}

// deliver sends an encoded frame from the hub goroutine
func (s *Server) deliver(out outbound) {
	if out.client != nil {
		s.mu.RLock()
		_, ok := s.clients[out.client]
		s.mu.RUnlock()
		if ok {
			s.trySend(out.client, out.data)
		}
		return
	}

	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		s.trySend(client, out.data)
	}
}

// trySend queues data on a client, removing it if its queue is full
func (s *Server) trySend(client *Client, data []byte) bool {
	select {
	case client.send <- data:
		return true
	default:
		s.broadcastDrops.Add(1)
		s.removeSlowClient(client)
		return false
	}
}

// removeSlowClient drops a client that can't keep up. Only called from the hub.
func (s *Server) removeSlowClient(client *Client) {
	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()

	client.close()
	if client.conn != nil {
		client.conn.Close()
	}
	s.logger.Warnw("Client send channel full, removing client",
		logger.FieldClientID, client.id,
		"total_drops", s.broadcastDrops.Load(),
	)
}

// flushPositions sends the positions frame held back by the rate limit
func (s *Server) flushPositions() {
	s.mu.Lock()
	if !s.positionsDirty {
		s.mu.Unlock()
		return
	}
	s.positionsDirty = false
	data := s.lastFrames[FramePositions]
	s.mu.Unlock()

	s.deliver(outbound{data: data})
}

// ClientCount returns the number of registered clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Mode returns the last view mode handed to the renderer
func (s *Server) Mode() projection.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// exec runs fn on the view loop and waits for it
func (s *Server) exec(fn func(m *view.Machine) error) error {
	s.mu.RLock()
	machine, loop := s.machine, s.loop
	s.mu.RUnlock()

	if machine == nil || loop == nil {
		return ErrServiceUnavailable
	}

	var err error
	if doErr := loop.Do(s.ctx, func() { err = fn(machine) }); doErr != nil {
		return doErr
	}
	return err
}

// Snapshot reads the engine state on the view loop
func (s *Server) Snapshot() (StateSnapshot, error) {
	var st StateSnapshot
	err := s.exec(func(m *view.Machine) error {
		g := m.Graph()
		st = StateSnapshot{
			Mode:      m.Mode(),
			Static:    m.Static(),
			Modes:     m.Modes(),
			Config:    m.Config(),
			Params:    m.Simulation().Params(),
			Presets:   s.opts.Presets.Names(),
			DatasetID: g.Meta.DatasetID,
			Stats:     g.Meta.Stats,
			NodeTypes: g.Meta.NodeTypes,
			Pending:   m.ReprojectPending(),
		}
		return nil
	})
	return st, err
}

var _ render.Renderer = (*Server)(nil)
