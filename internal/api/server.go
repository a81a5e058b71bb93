// Package api provides the HTTP API for the scene studio.
// GET endpoints are public. Preset writes and deletes require a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talgya/codeart/internal/scene"
	"github.com/talgya/codeart/internal/studio"
)

const maxBodyBytes = 1 << 20

// Server serves the studio session over HTTP.
type Server struct {
	Store       *studio.Store
	Port        int
	AdminKey    string // Bearer token for preset writes. Empty = those endpoints disabled.
	MaxCells    int    // rows*cols bound. Zero = no bound.
	SceneRate   int    // scene requests per IP per minute. Zero = unlimited.
	CORSOrigins []string

	httpServer *http.Server
}

// Handler builds the routed handler, including CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	scenes := http.HandlerFunc(s.handleScene)
	blocks := http.HandlerFunc(s.handleBlocks)
	if s.SceneRate > 0 {
		limiter := NewRateLimiter(s.SceneRate, time.Minute)
		scenes = RateLimitMiddleware(limiter, scenes)
		blocks = RateLimitMiddleware(limiter, blocks)
	}

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/scene", scenes)
	mux.HandleFunc("/api/v1/blocks", blocks)
	mux.HandleFunc("/api/v1/params", s.handleParams)
	mux.HandleFunc("/api/v1/seed", s.handleSeed)
	mux.HandleFunc("/api/v1/editor", s.handleEditor)
	mux.HandleFunc("/api/v1/presets", s.adminOnly(s.handlePresets))
	mux.HandleFunc("/api/v1/preset/", s.handlePresetRoutes)

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "",
		"max_cells", s.MaxCells, "scene_rate", s.SceneRate)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(extra []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range extra {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on mutating requests.
// GET and HEAD pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no CODEART_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	presets, err := s.Store.Presets()
	if err != nil {
		writeError(w, err)
		return
	}
	p := s.Store.Params()
	writeJSON(w, map[string]any{
		"name":      "CodeArt",
		"seed":      p.Seed,
		"rows":      p.Grid.Rows,
		"cols":      p.Grid.Cols,
		"algorithm": p.Blocks.HeightAlgorithm,
		"mode":      s.Store.Mode(),
		"presets":   len(presets),
		"max_cells": s.MaxCells,
	})
}

// handleScene generates from the session params (GET) or from a posted
// parameter set (POST). Top-level fields missing from the body keep the
// session's values; the scene probabilities always come from the body and
// default when absent, in whole or per field.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	p := s.Store.Params()
	if r.Method == http.MethodPost {
		p.Scene = nil
		if err := decodeBody(w, r, &p); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	if err := s.checkLimits(p); err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	elements := s.Store.Generate(p)
	slog.Debug("scene generated", "seed", p.Seed, "blocks", len(elements.Blocks),
		"lines", len(elements.GridLines), "dots", len(elements.Dots), "elapsed", time.Since(start))
	writeJSON(w, elements)
}

// handleBlocks serves the blocks-only output of the legacy generator.
func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	p := s.Store.Params()
	if err := s.checkLimits(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, scene.GenerateBlocks(p))
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPatch, http.MethodPost) {
		return
	}

	if r.Method != http.MethodGet {
		var patch studio.Patch
		if err := decodeBody(w, r, &patch); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		candidate, err := s.Store.ApplyPatch(patch, s.checkLimits)
		if err != nil {
			writeError(w, err)
			return
		}
		slog.Info("params updated", "seed", candidate.Seed, "algorithm", candidate.Blocks.HeightAlgorithm)
	}

	writeJSON(w, s.Store.Params())
}

// handleSeed sets the seed from {"seed": n}, or randomizes it when the body
// is empty or has no seed.
func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Seed *int64 `json:"seed"`
	}
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
		s.Store.SetSeed(seed)
	} else {
		seed = s.Store.RandomizeSeed()
	}
	slog.Info("seed changed", "seed", seed)
	writeJSON(w, map[string]int64{"seed": seed})
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPatch, http.MethodPost) {
		return
	}

	if r.Method != http.MethodGet {
		var req struct {
			Mode *studio.Mode `json:"mode"`
			Code *string      `json:"code"`
		}
		if err := decodeBody(w, r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Mode != nil {
			if err := s.Store.SetMode(*req.Mode); err != nil {
				writeError(w, err)
				return
			}
		}
		if req.Code != nil {
			s.Store.SetCode(*req.Code)
		}
	}

	writeJSON(w, map[string]any{"mode": s.Store.Mode(), "code": s.Store.Code()})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodPost {
		var req struct {
			Name string `json:"name"`
		}
		if err := decodeBody(w, r, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		p, err := s.Store.SavePreset(req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSONStatus(w, http.StatusCreated, p)
		return
	}

	presets, err := s.Store.Presets()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, presets)
}

// handlePresetRoutes dispatches POST /api/v1/preset/:id/load and
// DELETE /api/v1/preset/:id.
func (s *Server) handlePresetRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/preset/")
	id, action, _ := strings.Cut(path, "/")
	if id == "" {
		http.Error(w, "preset id required", http.StatusBadRequest)
		return
	}

	switch action {
	case "load":
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		p, err := s.Store.LoadPreset(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, p)

	case "":
		s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
			if !allowMethods(w, r, http.MethodDelete) {
				return
			}
			if err := s.Store.DeletePreset(id); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})(w, r)

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) checkLimits(p scene.ArtParams) error {
	if s.MaxCells <= 0 {
		return nil
	}
	return scene.CheckLimits(p, s.MaxCells)
}

// allowMethods writes 405 and returns false unless r uses one of methods.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// writeError maps well-known errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scene.ErrGridTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, studio.ErrPresetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, studio.ErrBuiltInPreset):
		status = http.StatusForbidden
	case errors.Is(err, studio.ErrEmptyName), errors.Is(err, studio.ErrInvalidMode):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
