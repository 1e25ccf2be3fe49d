package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const closeTimeout = 5 * time.Second

// Server exposes the pipeline's Prometheus metrics over HTTP for the
// duration of a run. It serves /metrics for scraping and /healthz so a
// scheduler can probe a long-running pass.
type Server struct {
	addr     string
	gatherer prometheus.Gatherer
	ln       net.Listener
	srv      *http.Server
	done     chan error
}

// NewServer returns a server for the given listen address, backed by the
// default Prometheus registry.
func NewServer(addr string) *Server {
	return &Server{addr: addr, gatherer: prometheus.DefaultGatherer}
}

// NewServerWithRegistry returns a server backed by a specific Gatherer,
// so tests can scrape an isolated registry.
func NewServerWithRegistry(addr string, g prometheus.Gatherer) *Server {
	return &Server{addr: addr, gatherer: g}
}

// Start binds the listener and begins serving in the background. The
// address is bound synchronously, so Addr is valid once Start returns.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       time.Minute,
	}
	s.done = make(chan error, 1)
	go func() {
		s.done <- s.srv.Serve(ln)
	}()
	return nil
}

// Addr returns the bound address after Start, or the configured address
// before it. With addr ":0" this is how tests discover the port.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Close drains in-flight scrapes and stops the server. Safe to call on a
// server that was never started.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	if serveErr := <-s.done; err == nil && !errors.Is(serveErr, http.ErrServerClosed) {
		err = serveErr
	}
	return err
}
