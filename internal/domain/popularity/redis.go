package popularity

import (
	"context"
	"fmt"

	"github.com/gomodule/redigo/redis"
)

const activeUsersKeyFormat = "game:%s:activeUsers"

// RedisClassifier keeps one Redis set of active players per game, shared
// across all process instances.
type RedisClassifier struct {
	pool      *redis.Pool
	threshold int
}

var _ Classifier = (*RedisClassifier)(nil)

// NewRedisClassifier wraps a redigo pool with the configured threshold.
func NewRedisClassifier(pool *redis.Pool, threshold int) *RedisClassifier {
	return &RedisClassifier{pool: pool, threshold: threshold}
}

func activeUsersKey(gameID string) string {
	return fmt.Sprintf(activeUsersKeyFormat, gameID)
}

// Record implements Classifier.Record via SADD.
func (c *RedisClassifier) Record(ctx context.Context, gameID, playerID string) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("record activity %s: %w", gameID, err)
	}
	defer conn.Close()

	if _, err := conn.Do("SADD", activeUsersKey(gameID), playerID); err != nil {
		return fmt.Errorf("record activity %s: %w", gameID, err)
	}
	return nil
}

// IsPopular implements Classifier.IsPopular via SCARD. Errors read as
// not popular so the write path never blocks on the signal.
func (c *RedisClassifier) IsPopular(ctx context.Context, gameID string) bool {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return false
	}
	defer conn.Close()

	count, err := redis.Int(conn.Do("SCARD", activeUsersKey(gameID)))
	if err != nil {
		return false
	}
	return count > c.threshold
}
