// Package httpapi is the REST surface: accounts, confessions, reactions,
// health, and the debug stats endpoint. Route layout follows
// gorilla/mux conventions; auth is a bearer-token middleware.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"failly/auth"
	"failly/observability"
	"failly/runtime"
	"failly/services"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type Server struct {
	log        *slog.Logger
	auth       services.IAuthService
	posts      services.IPostService
	tokens     auth.TokenManager
	engine     *runtime.Engine
	monitoring *observability.MonitoringManager
	validate   *validator.Validate
}

func NewServer(log *slog.Logger, authService services.IAuthService,
	postService services.IPostService, tokens auth.TokenManager,
	engine *runtime.Engine, monitoring *observability.MonitoringManager) *Server {
	return &Server{
		log:        log,
		auth:       authService,
		posts:      postService,
		tokens:     tokens,
		engine:     engine,
		monitoring: monitoring,
		validate:   validator.New(),
	}
}

// Router registers every HTTP route.
func (s *Server) Router(wsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/debug/stats", s.handleStats).Methods(http.MethodGet)

	r.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	r.Handle("/posts", s.requireUser(s.handleCreatePost)).Methods(http.MethodPost)
	r.HandleFunc("/posts", s.handleListPosts).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}/reactions", s.handleReact).Methods(http.MethodPost)

	r.Handle("/ws", wsHandler)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleStats refreshes the monitoring snapshot on demand so the viewer
// always sees current queue sizes, not the last reporter tick.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	waiting, rooms := s.engine.Stats()
	s.monitoring.Refresh(waiting, rooms)
	writeJSON(w, http.StatusOK, s.monitoring.GetLatest())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
