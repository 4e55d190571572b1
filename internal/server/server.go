// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package server exposes the journal over HTTP for the local web UI:
// reflection CRUD, AI generation with rate limiting, search, insights, and
// export/import.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/trailmind/trailmind/internal/ai"
	"github.com/trailmind/trailmind/internal/aicache"
	"github.com/trailmind/trailmind/internal/journal"
	"github.com/trailmind/trailmind/internal/lexicon"
	"github.com/trailmind/trailmind/internal/ratelimit"
)

// Generator produces AI analyses. *ai.Client satisfies it; tests substitute
// a fake.
type Generator interface {
	Generate(ctx context.Context, guide ai.GuideID, inputText string, meta ai.Meta) (*ai.Result, error)
	Model() string
}

// Server handles HTTP requests for the journal API
type Server struct {
	journal   *journal.Manager
	generator Generator
	limiter   *ratelimit.Limiter
	cache     *aicache.Cache // nil disables caching
	lex       *lexicon.Lexicon
	clock     clockwork.Clock
	logger    *log.Logger

	// hasAPIKey gates the generation endpoint before any rate limiting.
	hasAPIKey bool
}

// Option configures a Server.
type Option func(*Server)

// WithGenerator sets the AI generator and marks the credential as present.
func WithGenerator(g Generator) Option {
	return func(s *Server) {
		s.generator = g
		s.hasAPIKey = true
	}
}

// WithCache enables the analysis cache.
func WithCache(c *aicache.Cache) Option {
	return func(s *Server) { s.cache = c }
}

// WithLimiter overrides the rate limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithClock injects the server clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates an API server over the journal manager.
func New(m *journal.Manager, opts ...Option) *Server {
	s := &Server{
		journal: m,
		limiter: ratelimit.New(),
		lex:     lexicon.Default(),
		clock:   clockwork.NewRealClock(),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the request mux with CORS applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// AI generation. Registered without a method pattern so the wrong-method
	// rejection goes through the JSON error envelope too.
	mux.HandleFunc("/api/generate", s.handleGenerate)

	// Reflections
	mux.HandleFunc("GET /api/reflections", s.handleListLogs)
	mux.HandleFunc("POST /api/reflections", s.handleCreateReflection)
	mux.HandleFunc("PATCH /api/reflections/{id}", s.handleUpdateReflection)
	mux.HandleFunc("GET /api/logs/{date}", s.handleLogByDate)

	// Search and insights
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/insights/weekly", s.handleWeeklyInsights)
	mux.HandleFunc("GET /api/insights/patterns", s.handlePatternInsights)

	// Export and import
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	// Health check
	mux.HandleFunc("GET /health", s.handleHealth)

	return withCORS(mux)
}

// Run starts the HTTP server on addr.
func (s *Server) Run(addr string) error {
	s.logger.Printf("Starting HTTP server on %s", addr)
	return http.ListenAndServe(addr, s.Routes())
}

// withCORS adds CORS headers for the local web frontend
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

// clientIP returns the first hop of X-Forwarded-For, or the socket address.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		return strings.TrimSpace(strings.Split(xf, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError renders the error envelope the web client expects.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "message": message})
}
