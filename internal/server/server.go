package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/muurk/printscout/internal/logging"
	"github.com/muurk/printscout/internal/metrics"
	"github.com/muurk/printscout/internal/registry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds a graceful shutdown
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Server publishes plugin counts over HTTP and WebSocket
type Server struct {
	config   *Config
	registry *registry.Registry
	metrics  *metrics.Metrics
	hub      *hub

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
	wg       sync.WaitGroup
}

// New creates a server for reg. m may be nil, in which case /metrics is
// not served.
func New(config *Config, reg *registry.Registry, m *metrics.Metrics) (*Server, error) {
	if config == nil {
		return nil, errors.New("server: config must not be nil")
	}
	if reg == nil {
		return nil, errors.New("server: registry must not be nil")
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		config:   config,
		registry: reg,
		metrics:  m,
		hub:      newHub(reg),
	}
	reg.Subscribe(s.hub.publish)
	return s, nil
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/plugins", s.handlePlugins)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.hub.serveWS)
	if s.metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}
	return mux
}

// Listen binds the configured address. It is called by Start when needed.
func (s *Server) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr(), nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return listener.Addr(), nil
}

// Start serves until ctx is cancelled, a shutdown signal arrives, or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr, err := s.Listen()
	if err != nil {
		return err
	}

	logging.Info("Server listening for connections",
		zap.String("addr", addr.String()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	s.mu.Lock()
	httpSrv, listener := s.httpSrv, s.listener
	s.mu.Unlock()

	errChan := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		errChan <- httpSrv.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
	case <-ctx.Done():
		logging.Info("Context cancelled, stopping server...")
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	httpSrv := s.httpSrv
	s.mu.Unlock()

	s.hub.closeAll()

	var err error
	if httpSrv != nil {
		err = httpSrv.Shutdown(ctx)
	}

	// Wait for all goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		s.hub.wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of connected WebSocket clients
func (s *Server) GetActiveConnections() int {
	return s.hub.len()
}
