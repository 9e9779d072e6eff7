// Package reconciler periodically flushes the shared rank cache back to
// the durable store.
//
// The cache tiers absorb most write traffic for popular games; the
// reconciler is the repair loop that bounds how far the store can drift
// behind them. Each run enumerates the cached games and rewrites every
// game's full ranking in one transaction. A failed game is logged and
// counted, never retried within the run, and never aborts the run.
package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/arenascope/podium/internal/adapters/rankcache"
	"github.com/arenascope/podium/internal/adapters/scorestore"
	"github.com/arenascope/podium/pkg/logger"
	"github.com/arenascope/podium/pkg/metrics"
)

// Default reconciler configuration constants.
const (
	defaultInterval     = 60 * time.Minute
	defaultWorkers      = 4
	defaultFlushTimeout = 30 * time.Second
)

// Reconciler drives the periodic cache-to-store flush.
type Reconciler struct {
	cache rankcache.Cache
	store scorestore.Store

	interval     time.Duration
	workers      int
	flushTimeout time.Duration

	// Shutdown control
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithInterval sets the time between reconciliation runs.
func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithWorkers sets how many games are flushed concurrently.
func WithWorkers(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithFlushTimeout bounds the cache read plus store write for one game.
func WithFlushTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.flushTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the reconciler.
func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// New constructs a Reconciler over the given cache and store.
func New(cache rankcache.Cache, store scorestore.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		cache:        cache,
		store:        store,
		interval:     defaultInterval,
		workers:      defaultWorkers,
		flushTimeout: defaultFlushTimeout,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logger.Get().Named("reconciler"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start launches the ticker loop. The first run happens one interval
// after Start, not immediately; a fresh process has nothing to flush.
func (r *Reconciler) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// Stop signals the loop to exit and waits for any in-flight run to
// finish.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	<-r.done
}

// RunOnce performs a single full reconciliation pass. Exposed so
// shutdown can flush once more before the process exits.
func (r *Reconciler) RunOnce(ctx context.Context) {
	start := time.Now()
	metrics.RecordReconcileRun()

	games, err := r.cache.Games(ctx)
	if err != nil {
		metrics.RecordReconcileError()
		r.logger.Error(ctx, "reconcile aborted, cannot enumerate cached games", logger.Error(err))
		return
	}
	if len(games) == 0 {
		return
	}

	gameCh := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for gameID := range gameCh {
				r.flushGame(ctx, gameID)
			}
		}()
	}

	for _, gameID := range games {
		select {
		case <-ctx.Done():
			// Let workers drain what is already queued.
		case gameCh <- gameID:
			continue
		}
		break
	}
	close(gameCh)
	wg.Wait()

	elapsed := time.Since(start)
	metrics.RecordReconcileDuration(float64(elapsed.Milliseconds()))
	r.logger.Info(ctx, "reconcile run complete",
		logger.Int("games", len(games)),
		logger.Duration("elapsed", elapsed),
	)
}

// flushGame copies one game's full ranking from the cache into the
// store. The batch write is transactional, so a mid-flush failure leaves
// the store on its previous consistent snapshot.
func (r *Reconciler) flushGame(ctx context.Context, gameID string) {
	fctx, cancel := context.WithTimeout(ctx, r.flushTimeout)
	defer cancel()

	entries, err := r.cache.ReadAll(fctx, gameID)
	if err != nil {
		metrics.RecordReconcileError()
		r.logger.Warn(ctx, "reconcile read failed",
			logger.String("gameID", gameID),
			logger.Error(err),
		)
		return
	}
	if len(entries) == 0 {
		return
	}

	if err := r.store.UpsertBatch(fctx, gameID, entries); err != nil {
		metrics.RecordReconcileError()
		r.logger.Warn(ctx, "reconcile flush failed",
			logger.String("gameID", gameID),
			logger.Error(err),
		)
		return
	}

	metrics.RecordReconcileGame()
	metrics.RecordReconcileEntries(len(entries))
}
