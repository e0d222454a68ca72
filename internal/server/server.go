package server

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	maxHeaderBytes    = 1 << 20
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server owns the HTTP listener lifecycle.
type Server struct {
	httpServer *http.Server
}

// Run starts listening on the given port. Accepts "8080" or ":8080".
// Blocks until the listener closes.
func (s *Server) Run(port string, handler http.Handler) error {
	addr := port
	if addr != "" && !strings.HasPrefix(addr, ":") {
		addr = ":" + addr
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
