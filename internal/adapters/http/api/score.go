// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/arenascope/podium/internal/app"
	"github.com/arenascope/podium/internal/domain/model"
)

// eventTypeScoreUpdate is the only event type the ingest route accepts.
const eventTypeScoreUpdate = "scoreUpdate"

// ScoreDependencies defines the interface for score ingestion.
type ScoreDependencies interface {
	UpdateScore(ctx context.Context, update model.ScoreUpdate) error
}

// ScoreHandler handles score update requests.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// scoreUpdateRequest mirrors the ingest schema for POST
// /v1/leaderboard/{gameId}/update-score.
type scoreUpdateRequest struct {
	EventType string `json:"eventType"`
	UserID    string `json:"userId"`
	Score     *int64 `json:"score"`
	Timestamp string `json:"timestamp"`
}

func (e scoreUpdateRequest) validate() (time.Time, error) {
	switch {
	case e.EventType != eventTypeScoreUpdate:
		return time.Time{}, errors.New("eventType must be scoreUpdate")
	case strings.TrimSpace(e.UserID) == "":
		return time.Time{}, errors.New("missing userId")
	case e.Score == nil:
		return time.Time{}, errors.New("missing score")
	case *e.Score < 0:
		return time.Time{}, errors.New("score must be >= 0")
	case strings.TrimSpace(e.Timestamp) == "":
		return time.Time{}, errors.New("missing timestamp")
	}
	ts, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return time.Time{}, errors.New("invalid timestamp; must be RFC3339")
	}
	if ts.After(time.Now()) {
		return time.Time{}, errors.New("timestamp must not be in the future")
	}
	return ts, nil
}

// HandleUpdateScore handles POST /v1/leaderboard/{gameId}/update-score.
func (h *ScoreHandler) HandleUpdateScore(w http.ResponseWriter, r *http.Request, gameID string) {
	const op = "api.update_score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req scoreUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	ts, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	update := model.ScoreUpdate{
		EventType: req.EventType,
		GameID:    gameID,
		PlayerID:  req.UserID,
		Score:     *req.Score,
		TS:        ts,
	}
	if err := h.deps.UpdateScore(r.Context(), update); err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, ackResponse{Message: "Score updated successfully"})
}
