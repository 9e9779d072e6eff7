package popularity

import (
	"context"
	"sync"
)

// MemoryClassifier implements Classifier in process memory. Used in
// tests and single-instance development runs; the popularity decision is
// then local to the process, which is acceptable only when there is one
// process.
type MemoryClassifier struct {
	mu        sync.RWMutex
	active    map[string]map[string]struct{}
	threshold int

	// fail forces Record errors and IsPopular=false; test hook for the
	// fail-closed path.
	fail bool
}

var _ Classifier = (*MemoryClassifier)(nil)

// NewMemoryClassifier creates a classifier with the given threshold.
func NewMemoryClassifier(threshold int) *MemoryClassifier {
	return &MemoryClassifier{
		active:    make(map[string]map[string]struct{}),
		threshold: threshold,
	}
}

// Fail toggles forced classifier failures.
func (c *MemoryClassifier) Fail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

// Record implements Classifier.Record.
func (c *MemoryClassifier) Record(ctx context.Context, gameID, playerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail {
		return context.DeadlineExceeded
	}

	players, ok := c.active[gameID]
	if !ok {
		players = make(map[string]struct{})
		c.active[gameID] = players
	}
	players[playerID] = struct{}{}
	return nil
}

// IsPopular implements Classifier.IsPopular.
func (c *MemoryClassifier) IsPopular(ctx context.Context, gameID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.fail {
		return false
	}
	return len(c.active[gameID]) > c.threshold
}
