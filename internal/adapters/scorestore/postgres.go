package scorestore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenascope/podium/internal/domain/model"
	"github.com/arenascope/podium/pkg/metrics"
)

const defaultStoreTimeout = 2 * time.Second

// schemaDDL matches the original deployment's leaderboards table: one row
// per (game_id, player_id) with insert/update timestamps.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS leaderboards (
    game_id    text        NOT NULL,
    player_id  text        NOT NULL,
    score      bigint      NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now(),
    updated_at timestamptz NOT NULL DEFAULT now(),
    PRIMARY KEY (game_id, player_id)
)`

const upsertSQL = `
INSERT INTO leaderboards (game_id, player_id, score)
VALUES ($1, $2, $3)
ON CONFLICT (game_id, player_id)
DO UPDATE SET score = EXCLUDED.score, updated_at = now()`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects a pool for the given DSN.
func NewPostgresStore(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s := &PostgresStore{
		pool:    pool,
		timeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PostgresOption applies a configuration option to the PostgresStore.
type PostgresOption func(*PostgresStore)

// WithTimeout bounds each store call on the request path.
func WithTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// EnsureSchema creates the leaderboards table when it does not exist.
// Gated by the run_schema_sync config flag, as concurrent container
// starts racing on DDL is the operational hazard here.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("%w: schema sync: %w", ErrUnavailable, err)
	}
	return nil
}

// Upsert implements Store.Upsert with LWW replace semantics.
func (s *PostgresStore) Upsert(ctx context.Context, gameID, playerID string, score int64) error {
	start := time.Now()
	defer func() {
		metrics.RecordDurableWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, upsertSQL, gameID, playerID, score); err != nil {
		metrics.RecordDurableWriteError()
		return fmt.Errorf("%w: upsert %s/%s: %w", ErrUnavailable, gameID, playerID, err)
	}
	return nil
}

// TopN implements Store.TopN with deterministic tie ordering.
func (s *PostgresStore) TopN(ctx context.Context, gameID string, limit int) ([]model.LeaderboardEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDurableQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT player_id, score
		FROM leaderboards
		WHERE game_id = $1
		ORDER BY score DESC, player_id ASC
		LIMIT $2
	`, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: top-n %s: %w", ErrUnavailable, gameID, err)
	}
	defer rows.Close()

	out := make([]model.LeaderboardEntry, 0, limit)
	for rows.Next() {
		e := model.LeaderboardEntry{GameID: gameID}
		if err := rows.Scan(&e.PlayerID, &e.Score); err != nil {
			return nil, fmt.Errorf("%w: top-n %s: %w", ErrUnavailable, gameID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: top-n %s: %w", ErrUnavailable, gameID, err)
	}
	return out, nil
}

// All implements Store.All: the complete ranking for one game, ordered
// the same way TopN orders it.
func (s *PostgresStore) All(ctx context.Context, gameID string) ([]model.LeaderboardEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDurableQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.pool.Query(ctx, `
		SELECT player_id, score
		FROM leaderboards
		WHERE game_id = $1
		ORDER BY score DESC, player_id ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: all %s: %w", ErrUnavailable, gameID, err)
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		e := model.LeaderboardEntry{GameID: gameID}
		if err := rows.Scan(&e.PlayerID, &e.Score); err != nil {
			return nil, fmt.Errorf("%w: all %s: %w", ErrUnavailable, gameID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: all %s: %w", ErrUnavailable, gameID, err)
	}
	return out, nil
}

// UpsertBatch implements Store.UpsertBatch: one transaction per game so a
// partial flush never settles.
func (s *PostgresStore) UpsertBatch(ctx context.Context, gameID string, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: batch %s: %w", ErrUnavailable, gameID, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(upsertSQL, gameID, e.PlayerID, e.Score)
	}

	br := tx.SendBatch(ctx, batch)
	for range entries {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("%w: batch %s: %w", ErrUnavailable, gameID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("%w: batch %s: %w", ErrUnavailable, gameID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: batch %s: %w", ErrUnavailable, gameID, err)
	}
	return nil
}

// Count returns the number of rows stored for gameID.
func (s *PostgresStore) Count(ctx context.Context, gameID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leaderboards WHERE game_id = $1`, gameID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", ErrUnavailable, gameID, err)
	}
	return n, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
