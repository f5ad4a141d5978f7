package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/logger"
)

// getState returns the current server state
func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

// setState atomically updates the server state
func (s *Server) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", stateString(newState))
}

// stateString returns human-readable state name
func stateString(state ServerState) string {
	switch state {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Start runs the hub and serves HTTP on addr until Stop
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	return s.Serve(listener)
}

// Serve runs the hub and serves HTTP on an existing listener until Stop
func (s *Server) Serve(listener net.Listener) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Infow("Server ready",
		"url", "http://"+listener.Addr().String(),
		logger.FieldAddress, listener.Addr().String(),
	)

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Stop gracefully shuts down the server and cleans up resources
func (s *Server) Stop() error {
	if s.getState() != ServerStateRunning {
		return nil
	}
	s.logger.Infow("Initiating server shutdown")
	s.setState(ServerStateDraining)

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	s.mu.RLock()
	srv := s.httpServer
	s.mu.RUnlock()
	var shutdownErr error
	if srv != nil {
		shutdownErr = srv.Shutdown(ctx)
	}

	// Close client connections to unblock readPump before cancelling
	s.mu.Lock()
	toClose := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		toClose = append(toClose, client)
	}
	s.mu.Unlock()
	for _, client := range toClose {
		client.conn.Close()
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Debugw("All server goroutines stopped")
	case <-ctx.Done():
		s.logger.Warnw("Goroutine shutdown timed out, forcing exit", "timeout", ShutdownTimeout)
	}

	s.setState(ServerStateStopped)
	s.logger.Infow("Server shutdown complete", "broadcast_drops", s.broadcastDrops.Load())
	return shutdownErr
}
