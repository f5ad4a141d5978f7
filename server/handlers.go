package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	grapherror "github.com/teranos/vista/graph/error"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/version"
)

// defaultOrigins are accepted when no allowed origins are configured
var defaultOrigins = []string{
	"http://localhost",
	"https://localhost",
	"http://127.0.0.1",
	"https://127.0.0.1",
}

// Handler returns the HTTP routes: /ws, /health and /api/state
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWebSocket)
	mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	mux.HandleFunc("/api/state", s.corsMiddleware(s.HandleState))
	return mux
}

// HandleWebSocket upgrades the connection and starts the client pumps
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.getState() != ServerStateRunning {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	if s.ClientCount() >= s.opts.MaxClients {
		writeError(w, http.StatusServiceUnavailable, "too many clients")
		return
	}

	// Version and state go ahead of the cached frames
	initial := make([][]byte, 0, 2)
	info := version.Get()
	if data, ok := s.encode(Frame{Type: FrameVersion, Data: versionData{
		Version:   info.Version,
		Commit:    info.Short(),
		BuildTime: info.BuildTime,
	}}); ok {
		initial = append(initial, data)
	}
	if st, err := s.Snapshot(); err == nil {
		if data, ok := s.encode(Frame{Type: FrameState, Data: st}); ok {
			initial = append(initial, data)
		}
	} else {
		s.logger.Warnw("No engine state for new client", logger.FieldError, err)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 8192,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ge := grapherror.New(grapherror.CategoryTransport, err, "Failed to upgrade WebSocket connection").
			WithSubcategory(grapherror.SubcategoryTransportUpgrade)
		s.logger.Errorw("WebSocket upgrade failed", ge.ToLogFields()...)
		return
	}

	client := &Client{
		server:  s,
		conn:    conn,
		send:    make(chan []byte, MaxClientMessageQueueSize),
		id:      uuid.NewString(),
		initial: initial,
	}

	select {
	case s.register <- client:
	case <-s.ctx.Done():
		conn.Close()
		return
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
}

// HandleHealth serves health check endpoint with version info
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	info := version.Get()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          stateString(s.getState()),
		"version":         info.Version,
		"commit":          info.CommitHash,
		"clients":         s.ClientCount(),
		"mode":            s.Mode(),
		"broadcast_drops": s.broadcastDrops.Load(),
	})
}

// HandleState serves the engine state snapshot
func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	st, err := s.Snapshot()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// corsMiddleware adds CORS headers for allowed origins
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// checkOrigin validates the Origin header against the allowed origins.
// Scheme and host must match exactly; an allowed origin without a port
// accepts any port. Requests without an Origin (non-browser clients) are
// accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	allowed := s.opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = defaultOrigins
	}
	for _, a := range allowed {
		if originMatches(u, a) {
			return true
		}
	}
	return false
}

func originMatches(origin *url.URL, allowed string) bool {
	a, err := url.Parse(allowed)
	if err != nil || a.Host == "" {
		return false
	}
	if !strings.EqualFold(origin.Scheme, a.Scheme) || !strings.EqualFold(origin.Hostname(), a.Hostname()) {
		return false
	}
	return a.Port() == "" || a.Port() == origin.Port()
}
