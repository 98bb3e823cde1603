package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/onurmutlu/flirtmarket/internal/metrics"
	"github.com/onurmutlu/flirtmarket/pkg/ledgerstore"
)

const runTimeout = 2 * time.Minute

// DriftStore finds users whose balance disagrees with their transaction log.
type DriftStore interface {
	FindDrift(ctx context.Context) ([]ledgerstore.Drift, error)
}

// Reconciler checks that every balance equals the sum of its transaction rows.
// It only reports mismatches; balances are never rewritten from here.
type Reconciler struct {
	store  DriftStore
	logger *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a new Reconciler
func New(store DriftStore, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// ReconcileAll runs one pass and returns the users found out of balance.
func (r *Reconciler) ReconcileAll(ctx context.Context) ([]ledgerstore.Drift, error) {
	start := time.Now()

	drift, err := r.store.FindDrift(ctx)
	if err != nil {
		metrics.ReconciliationRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to find balance drift: %w", err)
	}

	metrics.ReconciliationDrift.Set(float64(len(drift)))
	metrics.ReconciliationRuns.WithLabelValues("success").Inc()

	for _, d := range drift {
		r.logger.Warn("Balance does not match transaction log",
			zap.Int64("user_id", d.UserID),
			zap.Int64("balance", d.Balance),
			zap.Int64("ledger_sum", d.Ledger),
			zap.Int64("difference", d.Balance-d.Ledger))
	}

	r.logger.Info("Ledger reconciliation completed",
		zap.Int("users_with_drift", len(drift)),
		zap.Duration("duration", time.Since(start)))

	return drift, nil
}

// StartPeriodicReconciliation starts a background goroutine that reconciles periodically
func (r *Reconciler) StartPeriodicReconciliation(interval time.Duration) {
	if interval <= 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		r.logger.Info("Started periodic reconciliation", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
				if _, err := r.ReconcileAll(ctx); err != nil {
					r.logger.Error("Periodic reconciliation failed", zap.Error(err))
				}
				cancel()
			case <-r.stopCh:
				r.logger.Info("Stopping periodic reconciliation")
				return
			}
		}
	}()
}

// Stop stops the periodic reconciliation
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}
