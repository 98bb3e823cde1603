package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/onurmutlu/flirtmarket/internal/metrics"
	"github.com/onurmutlu/flirtmarket/pkg/cache"
	"github.com/onurmutlu/flirtmarket/pkg/events"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
)

const publishTimeout = 5 * time.Second

// Store is the persistence needed by the primitives. Implementations must use the
// transaction carried by ctx when there is one.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	// AddCoins increments the balance and returns the new value.
	// Returns ErrBalanceOverflow when the result would not fit in int64.
	AddCoins(ctx context.Context, userID, amount int64) (int64, error)
	// SubtractCoins decrements the balance only when it covers amount.
	// Returns *InsufficientFundsError otherwise, leaving the row untouched.
	SubtractCoins(ctx context.Context, userID, amount int64) (int64, error)
	InsertTransaction(ctx context.Context, tx *Transaction) (*Transaction, error)
	ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*Transaction, error)
}

// Ledger implements Credit and Debit. Each call is one atomic unit: the balance
// update and its transaction row commit together or not at all. When ctx already
// carries a transaction the call joins it, so callers can bundle several
// primitives with their own domain records.
type Ledger struct {
	store     Store
	tx        pgutil.Transactor
	cache     cache.Cache
	publisher events.Publisher
	logger    *zap.Logger
}

// New creates a Ledger.
func New(store Store, tx pgutil.Transactor, c cache.Cache, publisher events.Publisher, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:     store,
		tx:        tx,
		cache:     c,
		publisher: publisher,
		logger:    logger,
	}
}

// Credit adds entry.Amount coins to the user and records a positive transaction row.
func (l *Ledger) Credit(ctx context.Context, entry Entry) (*Result, error) {
	if entry.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !entry.Type.IsCredit() {
		return nil, fmt.Errorf("%w: %q cannot credit", ErrInvalidType, entry.Type)
	}
	return l.apply(ctx, "credit", entry, entry.Amount, l.store.AddCoins)
}

// Debit removes entry.Amount coins from the user and records a negative spend row.
// Fails with *InsufficientFundsError when the balance is lower than the amount.
func (l *Ledger) Debit(ctx context.Context, entry Entry) (*Result, error) {
	if entry.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	entry.Type = TypeSpend
	return l.apply(ctx, "debit", entry, -entry.Amount, l.store.SubtractCoins)
}

// ListTransactions returns the user's transactions, newest first.
func (l *Ledger) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*Transaction, error) {
	return l.store.ListTransactions(ctx, userID, limit, offset)
}

type balanceUpdate func(ctx context.Context, userID, amount int64) (int64, error)

func (l *Ledger) apply(ctx context.Context, op string, entry Entry, signed int64, update balanceUpdate) (*Result, error) {
	start := time.Now()

	var result *Result
	err := l.tx.RunInTx(ctx, func(ctx context.Context) error {
		balance, err := update(ctx, entry.UserID, entry.Amount)
		if err != nil {
			return err
		}

		row, err := l.store.InsertTransaction(ctx, &Transaction{
			UserID:        entry.UserID,
			Type:          entry.Type,
			Amount:        signed,
			Description:   entry.Description,
			RelatedUserID: entry.RelatedUserID,
			BalanceAfter:  balance,
		})
		if err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		result = &Result{Balance: balance, Transaction: row}
		pgutil.AfterCommit(ctx, func() { l.committed(ctx, op, row) })
		return nil
	})

	metrics.LedgerOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LedgerOperationsTotal.WithLabelValues(op, string(entry.Type), outcome(err)).Inc()
		return nil, err
	}
	return result, nil
}

// committed runs once the outermost transaction has been committed.
func (l *Ledger) committed(ctx context.Context, op string, row *Transaction) {
	metrics.LedgerOperationsTotal.WithLabelValues(op, string(row.Type), "success").Inc()
	metrics.LedgerCoinsTotal.WithLabelValues(op, string(row.Type)).Add(float64(abs(row.Amount)))

	ctx = context.WithoutCancel(ctx)
	if err := l.cache.Delete(ctx, cache.UserKey(row.UserID)); err != nil {
		l.logger.Warn("Failed to invalidate user cache", zap.Int64("user_id", row.UserID), zap.Error(err))
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	event := events.NewLedgerEvent(row.UserID, row.ID, string(row.Type), row.Amount, row.BalanceAfter, row.Description)
	if err := l.publisher.Publish(pubCtx, event); err != nil {
		l.logger.Warn("Failed to publish ledger event",
			zap.Int64("user_id", row.UserID),
			zap.Int64("transaction_id", row.ID),
			zap.Error(err))
	}
}

func outcome(err error) string {
	if _, ok := AsInsufficientFunds(err); ok {
		return "insufficient_funds"
	}
	return "error"
}

func abs(v int64) int64 {
	if v < 0 {
		if v == math.MinInt64 {
			return math.MaxInt64
		}
		return -v
	}
	return v
}
