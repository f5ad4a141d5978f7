package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teranos/vista/am"
	grapherror "github.com/teranos/vista/graph/error"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/view"
)

// WebSocket timeouts, per the gorilla chat example
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// Client represents a WebSocket client connection
type Client struct {
	server    *Server
	conn      *websocket.Conn
	send      chan []byte
	id        string
	initial   [][]byte // Sent ahead of the cached frames on register
	closeOnce sync.Once
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.replyError(grapherror.New(grapherror.CategoryTransport, err, "Malformed message").
				WithSubcategory(grapherror.SubcategoryTransportMessage))
			continue
		}

		c.routeMessage(&msg)
	}
}

// handleReadError logs unexpected WebSocket read errors.
// Expected closure codes (going away, abnormal, no status) are silently ignored.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
		websocket.CloseNormalClosure,
	) {
		ge := grapherror.New(grapherror.CategoryTransport, err, "WebSocket connection closed unexpectedly").
			WithSubcategory(grapherror.SubcategoryTransportRead).
			WithContext(logger.FieldClientID, c.id)
		c.server.logger.Warnw("WebSocket read error", ge.ToLogFields()...)
	}
}

// writePump writes queued frames to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.server.ctx.Done():
			return
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				ge := grapherror.New(grapherror.CategoryTransport, err, "Failed to send frame to client").
					WithSubcategory(grapherror.SubcategoryTransportWrite)
				c.server.logger.Warnw("Frame write error",
					append(ge.ToLogFields(), logger.FieldClientID, c.id)...,
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// routeMessage dispatches incoming messages to their handlers
func (c *Client) routeMessage(msg *ClientMessage) {
	switch msg.Type {
	case MsgPing:
		c.reply(Frame{Type: FramePong})
	case MsgSetMode:
		c.handleSetMode(msg)
	case MsgSetParams:
		c.handleSetParams(msg)
	case MsgSetFilter:
		c.handleSetFilter(msg)
	case MsgSetConfig:
		c.handleSetConfig(msg)
	case MsgSetActiveAgents:
		c.handleSetActiveAgents(msg)
	case MsgGetState:
		c.handleGetState()
	default:
		c.replyError(classify(NewInvalidRequestError("unknown message type %q", msg.Type)))
	}
}

func (c *Client) handleSetMode(msg *ClientMessage) {
	if msg.Mode == "" {
		c.replyError(classify(NewInvalidRequestError("set_mode needs a mode")))
		return
	}
	if err := c.server.exec(func(m *view.Machine) error {
		return m.SetMode(msg.Mode)
	}); err != nil {
		c.replyError(classify(err))
		return
	}

	if c.server.opts.PersistEdits {
		if err := am.SaveViewMode(msg.Mode); err != nil {
			c.server.logger.Warnw("Failed to persist view mode", logger.FieldMode, msg.Mode, logger.FieldError, err)
		}
	}
	c.ack(msg, 0)
}

// handleSetParams applies a named preset, then any explicit parameters
func (c *Client) handleSetParams(msg *ClientMessage) {
	var edits []physics.Update
	if msg.Preset != "" {
		preset, ok := c.server.opts.Presets.Get(msg.Preset)
		if !ok {
			c.replyError(classify(NewInvalidRequestError("unknown preset %q", msg.Preset)))
			return
		}
		edits = append(edits, preset)
	}
	if msg.Params != nil {
		edits = append(edits, *msg.Params)
	}
	if len(edits) == 0 {
		c.replyError(classify(NewInvalidRequestError("set_params needs params or a preset")))
		return
	}

	var applied physics.Params
	if err := c.server.exec(func(m *view.Machine) error {
		// One combined edit, so a bad explicit value also rejects the preset
		current := m.Simulation().Params()
		merged := current
		for _, u := range edits {
			merged = u.Apply(merged)
		}
		if err := m.SetParams(physics.Diff(current, merged)); err != nil {
			return err
		}
		applied = m.Simulation().Params()
		return nil
	}); err != nil {
		c.replyError(classify(err))
		return
	}

	if c.server.opts.PersistEdits {
		if err := am.SavePhysics(applied); err != nil {
			c.server.logger.Warnw("Failed to persist physics", logger.FieldError, err)
		}
	}
	c.ack(msg, 0)
}

func (c *Client) handleSetFilter(msg *ClientMessage) {
	if msg.NodeType == "" {
		c.replyError(classify(NewInvalidRequestError("set_filter needs a node_type")))
		return
	}
	changed := 0
	if err := c.server.exec(func(m *view.Machine) error {
		changed = m.SetNodeTypeVisible(msg.NodeType, msg.Visible)
		return nil
	}); err != nil {
		c.replyError(classify(err))
		return
	}
	c.ack(msg, changed)
}

// handleSetConfig overlays a partial view section on the running config
func (c *Client) handleSetConfig(msg *ClientMessage) {
	if len(msg.Config) == 0 {
		c.replyError(classify(NewInvalidRequestError("set_config needs a config")))
		return
	}
	var section map[string]interface{}
	if err := json.Unmarshal(msg.Config, &section); err != nil {
		c.replyError(classify(NewInvalidRequestError("config: %v", err)))
		return
	}

	if err := c.server.exec(func(m *view.Machine) error {
		cfg := m.Config()
		if err := json.Unmarshal(msg.Config, &cfg); err != nil {
			return NewInvalidRequestError("config: %v", err)
		}
		return m.SetConfig(cfg)
	}); err != nil {
		c.replyError(classify(err))
		return
	}

	if c.server.opts.PersistEdits {
		if err := am.UpdateSection(am.GetUIConfigPath(), "view", section); err != nil {
			c.server.logger.Warnw("Failed to persist view config", logger.FieldError, err)
		}
	}
	c.ack(msg, 0)
}

func (c *Client) handleSetActiveAgents(msg *ClientMessage) {
	if err := c.server.exec(func(m *view.Machine) error {
		m.SetActiveAgents(msg.Agents)
		return nil
	}); err != nil {
		c.replyError(classify(err))
		return
	}
	c.ack(msg, 0)
}

func (c *Client) handleGetState() {
	st, err := c.server.Snapshot()
	if err != nil {
		c.replyError(classify(err))
		return
	}
	c.reply(Frame{Type: FrameState, Data: st})
}

func (c *Client) ack(msg *ClientMessage, changed int) {
	c.reply(Frame{Type: FrameAck, Data: ackData{
		RequestID: msg.RequestID,
		Type:      msg.Type,
		Changed:   changed,
	}})
}

func (c *Client) replyError(ge *grapherror.GraphError) {
	c.server.logger.Debugw("Client request failed", append(ge.ToLogFields(), logger.FieldClientID, c.id)...)
	c.reply(Frame{Type: FrameError, Data: ge.ToFrame()})
}

// reply queues a frame for this client only
func (c *Client) reply(f Frame) {
	if data, ok := c.server.encode(f); ok {
		c.server.enqueue(outbound{data: data, client: c})
	}
}

// close closes the send channel once. Only the hub calls it.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
