package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/rechargehub/rechargehub/internal/gateway"
	"github.com/rechargehub/rechargehub/internal/metrics"
	"github.com/rechargehub/rechargehub/internal/recharge"
	"github.com/rechargehub/rechargehub/internal/txn"
)

const (
	sweepLockKey = "rechargehub:reconcile:lock"
	sweepLockTTL = 5 * time.Minute
	sweepTimeout = 4 * time.Minute
)

// Resolver is the slice of the orchestrator the sweeper needs.
type Resolver interface {
	Reconcile(ctx context.Context, transactionID string) (recharge.Outcome, error)
}

// Options tune the sweep. Zero values fall back to conservative defaults.
type Options struct {
	// Schedule is a cron spec, e.g. "@every 2m".
	Schedule string
	// MinAge keeps freshly parked transactions out of the sweep so an
	// in-flight gateway call is not raced immediately.
	MinAge time.Duration
	// MaxAge bounds automatic retries; older transactions are logged for
	// manual follow-up and skipped.
	MaxAge time.Duration
	// Batch caps how many transactions one sweep touches.
	Batch int
}

func (o Options) withDefaults() Options {
	if o.Schedule == "" {
		o.Schedule = "@every 2m"
	}
	if o.MinAge <= 0 {
		o.MinAge = time.Minute
	}
	if o.MaxAge <= 0 {
		o.MaxAge = 48 * time.Hour
	}
	if o.Batch <= 0 {
		o.Batch = 50
	}
	return o
}

// Sweeper periodically re-queries the gateway for transactions parked in
// PENDING and applies their deferred outcome. A Redis lock keeps multiple
// instances from sweeping at the same time; per-transaction idempotency is
// still guaranteed by the orchestrator regardless.
type Sweeper struct {
	resolver Resolver
	txns     txn.Store
	cache    *redis.Client
	metrics  *metrics.Metrics
	logger   *slog.Logger
	opts     Options
	cron     *cron.Cron
}

// New builds a sweeper. cache and m may be nil.
func New(resolver Resolver, txns txn.Store, cache *redis.Client, m *metrics.Metrics, logger *slog.Logger, opts Options) *Sweeper {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	return &Sweeper{
		resolver: resolver,
		txns:     txns,
		cache:    cache,
		metrics:  m,
		logger:   logger,
		opts:     opts.withDefaults(),
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger))),
	}
}

// Start schedules the sweep and starts the cron loop.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.opts.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("reconciliation sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("reconciliation sweep scheduled", "schedule", s.opts.Schedule)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep runs one reconciliation pass. Exported so an operator endpoint or a
// test can trigger it outside the schedule.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if !s.acquireLock(ctx) {
		s.logger.Debug("reconciliation lock held elsewhere, skipping sweep")
		return nil
	}
	defer s.releaseLock()

	if s.metrics != nil {
		s.metrics.ReconcileRuns.Inc()
	}

	cutoff := time.Now().UTC().Add(-s.opts.MinAge)
	pending, err := s.txns.ListPending(ctx, cutoff, s.opts.Batch)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	tooOld := time.Now().UTC().Add(-s.opts.MaxAge)
	resolved := 0
	for _, t := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.CreatedAt.Before(tooOld) {
			s.logger.Error("pending transaction exceeded retry window, needs manual resolution",
				"transaction_id", t.ID, "created_at", t.CreatedAt)
			continue
		}

		outcome, err := s.resolver.Reconcile(ctx, t.ID)
		if err != nil {
			s.logger.Warn("reconcile failed, will retry next sweep",
				"transaction_id", t.ID, "error", err)
			continue
		}
		if outcome.Status != gateway.StatusPending {
			resolved++
		}
	}

	s.logger.Info("reconciliation sweep finished",
		"examined", len(pending), "resolved", resolved)
	return nil
}

func (s *Sweeper) acquireLock(ctx context.Context) bool {
	if s.cache == nil {
		return true
	}
	ok, err := s.cache.SetNX(ctx, sweepLockKey, time.Now().UTC().Format(time.RFC3339), sweepLockTTL).Result()
	if err != nil {
		s.logger.Warn("reconciliation lock unavailable", "error", err)
		return false
	}
	return ok
}

func (s *Sweeper) releaseLock() {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.cache.Del(ctx, sweepLockKey)
}
