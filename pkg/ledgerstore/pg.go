package ledgerstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

type pgStore struct {
	db bun.IDB
}

// NewStore creates a new postgres implementation of the ledger store
func NewStore(db bun.IDB) *pgStore {
	return &pgStore{db: db}
}

// AddCoins increments the balance in a single statement; the row lock it takes
// serializes concurrent updates of the same user.
func (s *pgStore) AddCoins(ctx context.Context, userID, amount int64) (int64, error) {
	var balance int64
	err := pgutil.Conn(ctx, s.db).NewUpdate().
		Model((*userstore.UserDao)(nil)).
		Set("coins = coins + ?", amount).
		Set("last_active = NOW()").
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("coins <= ?", math.MaxInt64-amount).
		Returning("coins").
		Scan(ctx, &balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to credit user: %w", err)
	}

	if _, err := s.currentBalance(ctx, userID); err != nil {
		return 0, err
	}
	return 0, ledger.ErrBalanceOverflow
}

// SubtractCoins decrements the balance only when it covers amount. The check and
// the write are one conditional UPDATE, so two concurrent debits can never both pass.
func (s *pgStore) SubtractCoins(ctx context.Context, userID, amount int64) (int64, error) {
	var balance int64
	err := pgutil.Conn(ctx, s.db).NewUpdate().
		Model((*userstore.UserDao)(nil)).
		Set("coins = coins - ?", amount).
		Set("last_active = NOW()").
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("coins >= ?", amount).
		Returning("coins").
		Scan(ctx, &balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to debit user: %w", err)
	}

	available, err := s.currentBalance(ctx, userID)
	if err != nil {
		return 0, err
	}
	return 0, &ledger.InsufficientFundsError{Required: amount, Available: available}
}

func (s *pgStore) currentBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model((*userstore.UserDao)(nil)).
		Column("coins").
		Where("id = ?", userID).
		Scan(ctx, &balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, userstore.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

func (s *pgStore) InsertTransaction(ctx context.Context, tx *ledger.Transaction) (*ledger.Transaction, error) {
	dao := toTransactionDao(tx)
	_, err := pgutil.Conn(ctx, s.db).NewInsert().
		Model(dao).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return toTransaction(dao), nil
}

func (s *pgStore) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*ledger.Transaction, error) {
	var daos []TransactionDao
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(&daos).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	txs := make([]*ledger.Transaction, len(daos))
	for i := range daos {
		txs[i] = toTransaction(&daos[i])
	}
	return txs, nil
}

// SumByType returns the total signed amount of the user's transactions of type t.
func (s *pgStore) SumByType(ctx context.Context, userID int64, t ledger.Type) (int64, error) {
	var sum int64
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model((*TransactionDao)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Where("type = ?", string(t)).
		Scan(ctx, &sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}

// FindDrift lists users whose stored balance differs from the sum of their transactions.
func (s *pgStore) FindDrift(ctx context.Context) ([]Drift, error) {
	var drift []Drift
	err := pgutil.Conn(ctx, s.db).NewSelect().
		TableExpr("users AS u").
		ColumnExpr("u.id AS user_id").
		ColumnExpr("u.coins AS balance").
		ColumnExpr("COALESCE(SUM(t.amount), 0) AS ledger").
		Join("LEFT JOIN transactions AS t ON t.user_id = u.id").
		GroupExpr("u.id, u.coins").
		Having("u.coins <> COALESCE(SUM(t.amount), 0)").
		OrderExpr("u.id").
		Scan(ctx, &drift)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance drift: %w", err)
	}
	return drift, nil
}
