package referralstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	"github.com/onurmutlu/flirtmarket/pkg/referral"
)

// ErrAlreadyAwarded is returned when a bonus for the referred user already exists.
var ErrAlreadyAwarded = errors.New("referral bonus already awarded")

type pgStore struct {
	db bun.IDB
}

// NewStore creates a new postgres implementation of the referral store
func NewStore(db bun.IDB) *pgStore {
	return &pgStore{db: db}
}

// InsertBonus claims the bonus slot for referredID. The unique indexes decide the
// race: a second claim inserts nothing and yields ErrAlreadyAwarded.
func (s *pgStore) InsertBonus(ctx context.Context, referrerID, referredID, amount int64) (*referral.Bonus, error) {
	dao := &BonusDao{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Amount:     amount,
	}
	res, err := pgutil.Conn(ctx, s.db).NewInsert().
		Model(dao).
		On("CONFLICT DO NOTHING").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert referral bonus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrAlreadyAwarded
	}
	return toBonus(dao), nil
}

func (s *pgStore) SetBonusTransaction(ctx context.Context, bonusID, transactionID int64) error {
	_, err := pgutil.Conn(ctx, s.db).NewUpdate().
		Model((*BonusDao)(nil)).
		Set("transaction_id = ?", transactionID).
		Where("id = ?", bonusID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to link referral transaction: %w", err)
	}
	return nil
}

// Summary returns how many users referrerID brought in and the coins paid for them.
func (s *pgStore) Summary(ctx context.Context, referrerID int64) (int, int64, error) {
	var row struct {
		Count int   `bun:"count"`
		Sum   int64 `bun:"sum"`
	}
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model((*BonusDao)(nil)).
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(amount), 0) AS sum").
		Where("referrer_id = ?", referrerID).
		Scan(ctx, &row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("failed to summarise referrals: %w", err)
	}
	return row.Count, row.Sum, nil
}
