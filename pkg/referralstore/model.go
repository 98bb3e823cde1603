package referralstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/referral"
)

// BonusDao maps to the 'referral_bonuses' table.
// Both (referrer_id, referred_id) and referred_id are unique.
type BonusDao struct {
	bun.BaseModel `bun:"table:referral_bonuses,alias:rb"`
	ID            int64     `bun:"id,pk,autoincrement"`
	ReferrerID    int64     `bun:"referrer_id,notnull"`
	ReferredID    int64     `bun:"referred_id,notnull"`
	Amount        int64     `bun:"amount,notnull"`
	TransactionID *int64    `bun:"transaction_id"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toBonus(dao *BonusDao) *referral.Bonus {
	return &referral.Bonus{
		ID:            dao.ID,
		ReferrerID:    dao.ReferrerID,
		ReferredID:    dao.ReferredID,
		Amount:        dao.Amount,
		TransactionID: dao.TransactionID,
		CreatedAt:     dao.CreatedAt,
	}
}
