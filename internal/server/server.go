// Package server exposes the registry over HTTP and MCP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/referralgraph/referralgraph/internal/registry"
)

// Server routes tool and domain requests to the registry.
type Server struct {
	registry *registry.Registry
}

// New creates a Server over reg.
func New(reg *registry.Registry) *Server {
	return &Server{registry: reg}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/tools", s.handleListTools)
	r.Get("/openai-tools", s.handleOpenAITools)
	r.Post("/tools/{name}", s.handleCallTool)
	r.Get("/domains", s.handleListDomains)
	r.Get("/domains/{name}", s.handleDomainInfo)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": s.registry.Version(),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	defs, err := s.registry.Definitions()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": defs, "count": len(defs)})
}

func (s *Server) handleOpenAITools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.registry.OpenAITools()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools, "count": len(tools)})
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	fn, err := s.registry.Tool(name)
	if err != nil {
		writeError(w, err)
		return
	}

	args := map[string]any{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body: " + err.Error()})
			return
		}
	}

	result, err := fn(r.Context(), args)
	if err != nil {
		slog.Error("tool failed", "tool", name, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "tool": name})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tool": name, "result": result})
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	names := s.registry.DomainNames()
	domains := make([]registry.DomainConfig, 0, len(names))
	for _, name := range names {
		cfg, err := s.registry.DomainInfo(name)
		if err != nil {
			writeError(w, err)
			return
		}
		domains = append(domains, cfg)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version": s.registry.Version(),
		"domains": domains,
	})
}

func (s *Server) handleDomainInfo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cfg, err := s.registry.DomainInfo(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// writeError maps registry error types to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var toolNotFound *registry.ToolNotFoundError
	var domainNotFound *registry.DomainNotFoundError
	var depErr *registry.DependencyError
	var cfgErr *registry.ConfigError
	switch {
	case errors.As(err, &toolNotFound), errors.As(err, &domainNotFound):
		status = http.StatusNotFound
	case errors.As(err, &depErr), errors.As(err, &cfgErr):
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}
