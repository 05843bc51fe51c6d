// Package web exposes the HTTP surface: public intake and navigator
// endpoints, staff case management, exports, and the live stats stream.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/caseflow-ai/caseflow/internal/ai"
	"github.com/caseflow-ai/caseflow/internal/intake"
)

const maxBodyBytes = 1 << 20

// ServerConfig holds dependencies for the web server.
type ServerConfig struct {
	Intake        *intake.Service
	AIRouter      *ai.Router
	Sessions      SessionStore
	AdminHash     []byte        // bcrypt hash; empty disables staff login
	SessionTTL    time.Duration // default 8h
	StatsInterval time.Duration // live stream push interval, default 5s
	Ready         func(r *http.Request) error
}

// Server is the HTTP handler for the whole application.
type Server struct {
	mux           *http.ServeMux
	intake        *intake.Service
	aiRouter      *ai.Router
	sessions      SessionStore
	adminHash     []byte
	sessionTTL    time.Duration
	statsInterval time.Duration
	ready         func(r *http.Request) error
}

// NewServer creates the server and registers all routes.
func NewServer(cfg ServerConfig) *Server {
	svc := cfg.Intake
	if svc == nil {
		svc = intake.NewService(intake.ServiceConfig{})
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}
	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	interval := cfg.StatsInterval
	if interval == 0 {
		interval = 5 * time.Second
	}

	s := &Server{
		mux:           http.NewServeMux(),
		intake:        svc,
		aiRouter:      cfg.AIRouter,
		sessions:      sessions,
		adminHash:     cfg.AdminHash,
		sessionTTL:    ttl,
		statsInterval: interval,
		ready:         cfg.Ready,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)

	// Public surface.
	s.mux.HandleFunc("POST /api/intake", s.handleIntake)
	s.mux.HandleFunc("POST /api/ai/route", s.handleRoute)

	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/logout", s.handleLogout)

	// Staff surface.
	s.mux.Handle("GET /api/ai/stats", s.requireSession(s.handleStats))
	s.mux.Handle("GET /api/clients", s.requireSession(s.handleListClients))
	s.mux.Handle("GET /api/clients/{id}", s.requireSession(s.handleGetClient))
	s.mux.Handle("POST /api/clients/{id}/assign", s.requireSession(s.handleAssign))
	s.mux.Handle("POST /api/clients/{id}/close", s.requireSession(s.handleCloseCase))
	s.mux.Handle("GET /api/caseworkers", s.requireSession(s.handleListCaseworkers))
	s.mux.Handle("POST /api/caseworkers", s.requireSession(s.handleCreateCaseworker))
	s.mux.Handle("GET /api/analytics", s.requireSession(s.handleAnalytics))
	s.mux.Handle("GET /api/export/csv", s.requireSession(s.handleExportCSV))
	s.mux.Handle("GET /api/export/xlsx", s.requireSession(s.handleExportXLSX))
	s.mux.Handle("GET /api/stats/live", s.requireSession(s.handleStatsLive))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r); err != nil {
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
