// ============================================================================
// kaleido - Front-end for a minimal expression language
// ============================================================================
//
// Package:     server
// Description: HTTP server exposing the parser over a WebSocket endpoint
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	klog "github.com/msto63/kaleido/foundation/core/log"
	"github.com/msto63/kaleido/foundation/kaleido"

	"github.com/msto63/kaleido/internal/history/store"
	"github.com/msto63/kaleido/pkg/core/config"
	"github.com/msto63/kaleido/pkg/core/health"
	"github.com/msto63/kaleido/pkg/core/version"
)

// Server is the kaleido parse service
type Server struct {
	httpServer *http.Server
	ws         *WebSocketHandler
	health     *health.Registry
	logger     *klog.Logger
	config     Config
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	AllowedOrigins []string
	Version        string
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           9310,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
		Version:        version.Server,
	}
}

// ConfigFrom converts the [server] section of the application config
func ConfigFrom(sc config.ServerConfig) Config {
	cfg := DefaultConfig()
	if sc.Host != "" {
		cfg.Host = sc.Host
	}
	if sc.Port != 0 {
		cfg.Port = sc.Port
	}
	if sc.ReadTimeout.Duration > 0 {
		cfg.ReadTimeout = sc.ReadTimeout.Duration
	}
	if sc.WriteTimeout.Duration > 0 {
		cfg.WriteTimeout = sc.WriteTimeout.Duration
	}
	if sc.MaxMessageSize > 0 {
		cfg.MaxMessageSize = sc.MaxMessageSize
	}
	cfg.AllowedOrigins = sc.AllowedOrigins
	return cfg
}

// New creates a new parse server
func New(cfg Config, logger *klog.Logger) *Server {
	if logger == nil {
		logger = klog.GetDefault()
	}
	if cfg.Version == "" {
		cfg.Version = version.Server
	}
	logger = logger.WithField("component", "kaleido-server")

	s := &Server{
		ws:     NewWebSocketHandler(cfg, logger),
		health: health.NewRegistry("kaleido", cfg.Version),
		logger: logger,
		config: cfg,
	}
	s.health.RegisterFunc("parser", parserCheck(klog.Discard()))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed HTTP handler of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", s.health)
	mux.Handle("/ws", s.ws)
	return loggingMiddleware(s.logger, mux)
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// WithHistory records every parsed construct of the WebSocket endpoint in
// hist and adds a history check to /health
func (s *Server) WithHistory(hist store.Store) *Server {
	s.ws.history = hist
	s.health.RegisterFunc("history", func(ctx context.Context) health.CheckResult {
		stats, err := hist.Stats(ctx)
		if err != nil {
			return health.CheckResult{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: "history store reachable",
			Details: map[string]interface{}{"entries": stats.TotalEntries},
		}
	})
	return s
}

// checkSource exercises every construct kind of the grammar
const checkSource = "def scale(a b) a+b*2; extern sin(x); scale(1, 2) < 3"

// parserCheck parses checkSource with a fresh engine
func parserCheck(logger *klog.Logger) func(ctx context.Context) health.CheckResult {
	return func(ctx context.Context) health.CheckResult {
		results, errs := kaleido.NewEngine(kaleido.Options{Logger: logger}).ParseString(checkSource)
		if len(errs) > 0 || len(results) != 3 {
			return health.CheckResult{
				Status:  health.StatusUnhealthy,
				Message: fmt.Sprintf("check source parsed to %d constructs with %d errors", len(results), len(errs)),
			}
		}
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: "check source parsed",
			Details: map[string]interface{}{"constructs": len(results)},
		}
	}
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *klog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		logger.Debug("HTTP request", klog.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapper.statusCode,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
		})
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for the WebSocket upgrade
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting kaleido parse service", klog.Fields{
		"host": s.config.Host,
		"port": s.config.Port,
	})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping kaleido parse service")
	return s.httpServer.Shutdown(ctx)
}
