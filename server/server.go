// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

// Package server is the thin HTTP layer over the metrics engine. It owns
// no metric logic; every handler renders what the engine reports.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Adityab4566/DB-Insight/collector"
	"github.com/Adityab4566/DB-Insight/config"
)

const (
	apiVersion = "1.0"
	appVersion = "1.0.0"
)

// Server exposes the snapshot and the connectivity probe as JSON
// endpoints for the dashboard.
type Server struct {
	engine *collector.Engine
	logger *zap.Logger

	// cfgInfo is captured at construction; the password never makes it
	// into the response type, so /api/config cannot leak it.
	cfgInfo configResponse
}

// New creates the HTTP layer over the given engine.
func New(engine *collector.Engine, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("engine cannot be nil")
	}
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Server{
		engine: engine,
		logger: logger,
		cfgInfo: configResponse{
			DatabaseHost:        cfg.DBHost,
			DatabasePort:        cfg.DBPort,
			DatabaseName:        cfg.DBName,
			DatabaseUser:        cfg.DBUser,
			ConnectionThreshold: cfg.ConnectionThreshold,
			SlowQueryThreshold:  cfg.SlowQueryThreshold,
		},
	}, nil
}

// Handler returns the route table for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/config", s.handleConfig)
	return s.logRequests(mux)
}

// metricsResponse wraps the snapshot with the API metadata the dashboard
// polls for.
type metricsResponse struct {
	collector.Snapshot
	APIVersion string `json:"api_version"`
	ServerTime string `json:"server_time"`
}

type healthResponse struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
	Timestamp         string `json:"timestamp"`
	Version           string `json:"version"`
}

type indexResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// configResponse is the non-sensitive configuration shown to the
// dashboard. The database password is deliberately absent.
type configResponse struct {
	DatabaseHost        string `json:"database_host"`
	DatabasePort        int    `json:"database_port"`
	DatabaseName        string `json:"database_name"`
	DatabaseUser        string `json:"database_user"`
	ConnectionThreshold int64  `json:"connection_threshold"`
	SlowQueryThreshold  int64  `json:"slow_query_threshold"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "only GET is supported")
		return
	}

	snap := s.engine.CollectSnapshot(r.Context())
	s.writeJSON(w, http.StatusOK, metricsResponse{
		Snapshot:   snap,
		APIVersion: apiVersion,
		ServerTime: time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "only GET is supported")
		return
	}

	connected := s.engine.TestConnection(r.Context())
	status := collector.StatusUp
	code := http.StatusOK
	if !connected {
		status = collector.StatusDown
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, healthResponse{
		Status:            status,
		DatabaseConnected: connected,
		Timestamp:         time.Now().Format(time.RFC3339),
		Version:           appVersion,
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "only GET is supported")
		return
	}
	s.writeJSON(w, http.StatusOK, s.cfgInfo)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "the requested resource was not found")
		return
	}
	s.writeJSON(w, http.StatusOK, indexResponse{
		Service:   "DB-Insight",
		Version:   appVersion,
		Endpoints: []string{"/api/metrics", "/api/health", "/api/config"},
	})
}

// writeError renders the JSON error envelope every non-2xx response uses.
func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, errorResponse{
		Error:      http.StatusText(code),
		Message:    message,
		StatusCode: code,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// logRequests wraps the mux with structured access logging.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
