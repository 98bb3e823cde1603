package referralstore

import (
	"context"
	"errors"
	"testing"

	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	mghelper "github.com/onurmutlu/flirtmarket/pkg/pgutil/migrations"
)

func setupStore(t *testing.T) (context.Context, *pgStore) {
	t.Helper()

	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := mghelper.CreateSchema(ctx, db, &BonusDao{}); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if err := mghelper.CreateCompositeUniqueIndex(ctx, db, &BonusDao{}, "", "referrer_id", "referred_id"); err != nil {
		t.Fatalf("failed to create pair index: %v", err)
	}
	if err := mghelper.CreateCompositeUniqueIndex(ctx, db, &BonusDao{}, "", "referred_id"); err != nil {
		t.Fatalf("failed to create referred index: %v", err)
	}
	return ctx, NewStore(db)
}

func TestReferralPGStore_BonusIsUniquePerReferred(t *testing.T) {
	ctx, s := setupStore(t)

	bonus, err := s.InsertBonus(ctx, 1, 2, 100)
	if err != nil {
		t.Fatalf("InsertBonus() failed: %v", err)
	}
	if bonus.ID == 0 || bonus.Amount != 100 {
		t.Fatalf("unexpected bonus: %+v", bonus)
	}

	if _, err := s.InsertBonus(ctx, 1, 2, 100); !errors.Is(err, ErrAlreadyAwarded) {
		t.Fatalf("expected ErrAlreadyAwarded for same pair, got %v", err)
	}
	if _, err := s.InsertBonus(ctx, 3, 2, 100); !errors.Is(err, ErrAlreadyAwarded) {
		t.Fatalf("expected ErrAlreadyAwarded for second referrer, got %v", err)
	}

	if err := s.SetBonusTransaction(ctx, bonus.ID, 55); err != nil {
		t.Fatalf("SetBonusTransaction() failed: %v", err)
	}
}

func TestReferralPGStore_Summary(t *testing.T) {
	ctx, s := setupStore(t)

	count, sum, err := s.Summary(ctx, 1)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if count != 0 || sum != 0 {
		t.Fatalf("expected empty summary, got %d/%d", count, sum)
	}

	for _, referred := range []int64{2, 3, 4} {
		if _, err := s.InsertBonus(ctx, 1, referred, 100); err != nil {
			t.Fatalf("InsertBonus() failed: %v", err)
		}
	}

	count, sum, err = s.Summary(ctx, 1)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if count != 3 || sum != 300 {
		t.Fatalf("expected 3 referrals worth 300, got %d/%d", count, sum)
	}
}
