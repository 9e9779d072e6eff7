package rankcache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/arenascope/podium/internal/domain/model"
)

const (
	leaderboardKeyPrefix = "leaderboard:"

	defaultDialTimeout = 1 * time.Second
	defaultOpTimeout   = 250 * time.Millisecond
	defaultMaxIdle     = 16
	defaultIdleTimeout = 240 * time.Second

	scanBatchHint = 100
)

// NewPool builds a redigo connection pool with bounded dial and I/O
// timeouts so a slow Redis degrades instead of stalling request
// goroutines. The pool is shared with the popularity classifier.
func NewPool(addr string, opTimeout time.Duration) *redis.Pool {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &redis.Pool{
		MaxIdle:     defaultMaxIdle,
		IdleTimeout: defaultIdleTimeout,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr,
				redis.DialConnectTimeout(defaultDialTimeout),
				redis.DialReadTimeout(opTimeout),
				redis.DialWriteTimeout(opTimeout),
			)
		},
	}
}

// RedisCache implements Cache on a redigo pool.
type RedisCache struct {
	pool *redis.Pool
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps an existing pool.
func NewRedisCache(pool *redis.Pool) *RedisCache {
	return &RedisCache{pool: pool}
}

func leaderboardKey(gameID string) string {
	return leaderboardKeyPrefix + gameID
}

func (c *RedisCache) conn(ctx context.Context) (redis.Conn, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return conn, nil
}

// WriteScore implements Cache.WriteScore via ZADD.
func (c *RedisCache) WriteScore(ctx context.Context, gameID, playerID string, score int64) error {
	conn, err := c.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Do("ZADD", leaderboardKey(gameID), score, playerID); err != nil {
		return fmt.Errorf("%w: zadd %s: %w", ErrUnavailable, gameID, err)
	}
	return nil
}

// ReadTop implements Cache.ReadTop via ZREVRANGE WITHSCORES.
func (c *RedisCache) ReadTop(ctx context.Context, gameID string, limit int) ([]model.LeaderboardEntry, error) {
	conn, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	raw, err := redis.Strings(conn.Do("ZREVRANGE", leaderboardKey(gameID), 0, limit-1, "WITHSCORES"))
	if err != nil {
		return nil, fmt.Errorf("%w: zrevrange %s: %w", ErrUnavailable, gameID, err)
	}
	entries, err := decodeEntries(gameID, raw)
	if err != nil {
		return nil, err
	}

	// ZREVRANGE breaks score ties by member descending, so a limit that
	// lands inside a tie cuts off the wrong players. Widen to every
	// member at the boundary score before the deterministic sort decides
	// who survives the cut.
	if len(entries) == limit {
		boundary := entries[len(entries)-1].Score
		tied, err := redis.Strings(conn.Do("ZRANGEBYSCORE", leaderboardKey(gameID), boundary, boundary))
		if err != nil {
			return nil, fmt.Errorf("%w: zrangebyscore %s: %w", ErrUnavailable, gameID, err)
		}
		kept := entries[:0]
		for _, e := range entries {
			if e.Score > boundary {
				kept = append(kept, e)
			}
		}
		entries = kept
		for _, playerID := range tied {
			entries = append(entries, model.LeaderboardEntry{GameID: gameID, PlayerID: playerID, Score: boundary})
		}
	}

	model.SortEntries(entries)
	return model.Truncate(entries, limit), nil
}

// ReadAll implements Cache.ReadAll.
func (c *RedisCache) ReadAll(ctx context.Context, gameID string) ([]model.LeaderboardEntry, error) {
	conn, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	raw, err := redis.Strings(conn.Do("ZREVRANGE", leaderboardKey(gameID), 0, -1, "WITHSCORES"))
	if err != nil {
		return nil, fmt.Errorf("%w: zrevrange %s: %w", ErrUnavailable, gameID, err)
	}
	entries, err := decodeEntries(gameID, raw)
	if err != nil {
		return nil, err
	}

	// ZREVRANGE breaks score ties by member descending; the service
	// contract is player ID ascending, so re-sort after decoding.
	model.SortEntries(entries)
	return entries, nil
}

func decodeEntries(gameID string, raw []string) ([]model.LeaderboardEntry, error) {
	out := make([]model.LeaderboardEntry, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		score, err := strconv.ParseInt(raw[i+1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s: bad score %q", ErrUnavailable, gameID, raw[i+1])
		}
		out = append(out, model.LeaderboardEntry{GameID: gameID, PlayerID: raw[i], Score: score})
	}
	return out, nil
}

// Exists implements Cache.Exists.
func (c *RedisCache) Exists(ctx context.Context, gameID string) (bool, error) {
	conn, err := c.conn(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	n, err := redis.Int(conn.Do("EXISTS", leaderboardKey(gameID)))
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %w", ErrUnavailable, gameID, err)
	}
	return n == 1, nil
}

// BulkLoad implements Cache.BulkLoad with a single variadic ZADD, which
// Redis applies atomically: concurrent readers see either no ranking or
// the complete seed, never a partial one.
func (c *RedisCache) BulkLoad(ctx context.Context, gameID string, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	conn, err := c.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	args := make([]interface{}, 0, 1+2*len(entries))
	args = append(args, leaderboardKey(gameID))
	for _, e := range entries {
		args = append(args, e.Score, e.PlayerID)
	}

	if _, err := conn.Do("ZADD", args...); err != nil {
		return fmt.Errorf("%w: bulk load %s: %w", ErrUnavailable, gameID, err)
	}
	return nil
}

// Games implements Cache.Games with a cursor SCAN over leaderboard:*.
func (c *RedisCache) Games(ctx context.Context) ([]string, error) {
	conn, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var games []string
	cursor := 0
	for {
		reply, err := redis.Values(conn.Do("SCAN", cursor, "MATCH", leaderboardKeyPrefix+"*", "COUNT", scanBatchHint))
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrUnavailable, err)
		}

		var keys []string
		if _, err := redis.Scan(reply, &cursor, &keys); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrUnavailable, err)
		}
		for _, key := range keys {
			games = append(games, strings.TrimPrefix(key, leaderboardKeyPrefix))
		}

		if cursor == 0 {
			return games, nil
		}
	}
}
