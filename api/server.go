// Copyright 2023-2026 The whatsabi Authors
// This file is part of the whatsabi library.
//
// The whatsabi library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The whatsabi library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the whatsabi library. If not, see <http://www.gnu.org/licenses/>.

// Package api exposes the analysis engine as a small HTTP JSON service.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/kila6/whatsabi/abi"
	"github.com/kila6/whatsabi/conf"
	"github.com/kila6/whatsabi/disasm"
	"github.com/kila6/whatsabi/log"
)

// maxBodySize caps request bodies. Runtime bytecode tops out at 24KB
// (EIP-170), so 1MB of hex leaves generous headroom.
const maxBodySize = 1 << 20

// Server serves ABI reconstruction over HTTP.
type Server struct {
	cfg        conf.APIConfig
	httpServer *http.Server
	handler    http.Handler

	registry *prometheus.Registry
	analyses *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewServer builds a server for the given configuration.
func NewServer(cfg conf.APIConfig) *Server {
	s := &Server{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whatsabi",
			Name:      "analyses_total",
			Help:      "Number of bytecode analyses served, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "whatsabi",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time spent per analysis.",
		}),
	}
	s.registry.MustRegister(s.analyses, s.duration)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/abi", s.handleABI)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	var handler http.Handler = mux
	if len(cfg.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		}).Handler(handler)
	}
	s.handler = handler
	return s
}

// Handler returns the root handler, for mounting and testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listen address and serves until Shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Info("API server listening", "addr", s.cfg.ListenAddr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type abiRequest struct {
	Bytecode string `json:"bytecode"`
}

type abiResponse struct {
	ABI []abi.Record `json:"abi"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleABI reconstructs an ABI from the bytecode in the request body.
// The body is either a JSON object {"bytecode": "0x..."} or the raw hex
// string itself.
func (s *Server) handleABI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	requestID := uuid.NewString()
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.analyses.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable body"})
		return
	}

	bytecode := strings.TrimSpace(string(body))
	if strings.HasPrefix(bytecode, "{") {
		var req abiRequest
		if err := json.Unmarshal(body, &req); err != nil {
			s.analyses.WithLabelValues("error").Inc()
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request"})
			return
		}
		bytecode = req.Bytecode
	}

	p, err := disasm.Disassemble(bytecode)
	if err != nil {
		s.analyses.WithLabelValues("rejected").Inc()
		log.Debug("Rejected analysis request", "id", requestID, "err", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	records := abi.FromProgram(p)

	s.analyses.WithLabelValues("ok").Inc()
	s.duration.Observe(time.Since(start).Seconds())
	log.Debug("Served analysis request",
		"id", requestID,
		"bytes", len(bytecode)/2,
		"functions", len(p.Jumps),
		"events", len(p.EventCandidates),
		"elapsed", time.Since(start),
	)
	writeJSON(w, http.StatusOK, abiResponse{ABI: records})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("Failed to encode response", "err", err)
	}
}
