// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/arenascope/podium/internal/domain/model"
)

// Default request limits, overridable via server options.
const (
	defaultLimit = 10
	maxLimit     = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// UpdateScore applies a last-write-wins score replacement for one
	// player in one game.
	UpdateScore(ctx context.Context, update model.ScoreUpdate) error

	// GetLeaderboard reads up to limit entries, best first.
	GetLeaderboard(ctx context.Context, gameID string, limit int) ([]model.LeaderboardEntry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoreHandler       *ScoreHandler
	leaderboardHandler *LeaderboardHandler
	verifier           Verifier

	defaultLimit int
	maxLimit     int
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithLimits overrides the default and maximum leaderboard page size.
func WithLimits(def, max int) ServerOption {
	return func(s *Server) {
		if def > 0 {
			s.defaultLimit = def
		}
		if max > 0 {
			s.maxLimit = max
		}
	}
}

// WithVerifier enables bearer-token auth on the business routes. A nil
// verifier leaves them open, which is the local-development default.
func WithVerifier(v Verifier) ServerOption {
	return func(s *Server) {
		s.verifier = v
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		defaultLimit:  defaultLimit,
		maxLimit:      maxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.scoreHandler = NewScoreHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.defaultLimit, s.maxLimit)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/leaderboard/", AuthMiddleware(s.verifier,
		MetricsMiddleware(s.handleLeaderboard, "leaderboard")))
}

// handleLeaderboard dispatches /v1/leaderboard/{gameId} and
// /v1/leaderboard/{gameId}/update-score from the shared path prefix.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard_route"

	rest := strings.TrimPrefix(r.URL.Path, "/v1/leaderboard/")
	if gameID, ok := strings.CutSuffix(rest, "/update-score"); ok {
		if gameID == "" || strings.Contains(gameID, "/") {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		s.scoreHandler.HandleUpdateScore(w, r, gameID)
		return
	}

	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	s.leaderboardHandler.HandleGetLeaderboard(w, r, rest)
}

// leaderboardResponse mirrors the read shape for GET /v1/leaderboard.
type leaderboardResponse struct {
	GameID      string                   `json:"gameId"`
	Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
}

type ackResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
