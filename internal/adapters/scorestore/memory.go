package scorestore

import (
	"context"
	"sync"

	"github.com/arenascope/podium/internal/domain/model"
)

// MemoryStore implements Store in process memory. It backs local
// development runs and tests; the contract is identical to the Postgres
// implementation, including ordering and LWW replacement.
type MemoryStore struct {
	mu     sync.RWMutex
	scores map[string]map[string]int64 // gameID -> playerID -> score

	// failWrites and failReads force errors; test hooks for the
	// durable-failure and every-tier-down paths.
	failWrites bool
	failReads  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores: make(map[string]map[string]int64),
	}
}

// FailWrites toggles forced write failures.
func (s *MemoryStore) FailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}

// FailReads toggles forced read failures.
func (s *MemoryStore) FailReads(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = fail
}

// Upsert implements Store.Upsert.
func (s *MemoryStore) Upsert(ctx context.Context, gameID, playerID string, score int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return ErrUnavailable
	}

	game, ok := s.scores[gameID]
	if !ok {
		game = make(map[string]int64)
		s.scores[gameID] = game
	}
	game[playerID] = score
	return nil
}

// TopN implements Store.TopN.
func (s *MemoryStore) TopN(ctx context.Context, gameID string, limit int) ([]model.LeaderboardEntry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failReads {
		return nil, ErrUnavailable
	}

	game := s.scores[gameID]
	out := make([]model.LeaderboardEntry, 0, len(game))
	for playerID, score := range game {
		out = append(out, model.LeaderboardEntry{GameID: gameID, PlayerID: playerID, Score: score})
	}
	model.SortEntries(out)
	return model.Truncate(out, limit), nil
}

// All implements Store.All.
func (s *MemoryStore) All(ctx context.Context, gameID string) ([]model.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failReads {
		return nil, ErrUnavailable
	}

	game := s.scores[gameID]
	out := make([]model.LeaderboardEntry, 0, len(game))
	for playerID, score := range game {
		out = append(out, model.LeaderboardEntry{GameID: gameID, PlayerID: playerID, Score: score})
	}
	model.SortEntries(out)
	return out, nil
}

// UpsertBatch implements Store.UpsertBatch. All entries land or none do.
func (s *MemoryStore) UpsertBatch(ctx context.Context, gameID string, entries []model.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return ErrUnavailable
	}

	game, ok := s.scores[gameID]
	if !ok {
		game = make(map[string]int64, len(entries))
		s.scores[gameID] = game
	}
	for _, e := range entries {
		game[e.PlayerID] = e.Score
	}
	return nil
}

// Count returns the number of rows stored for gameID.
func (s *MemoryStore) Count(ctx context.Context, gameID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scores[gameID]), nil
}
