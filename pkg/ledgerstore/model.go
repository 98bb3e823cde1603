package ledgerstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/ledger"
)

// TransactionDao maps to the append-only 'transactions' table.
type TransactionDao struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,notnull"`
	Type          string    `bun:"type,notnull,type:varchar(16)"`
	Amount        int64     `bun:"amount,notnull"`
	Description   string    `bun:"description,notnull,type:varchar(255)"`
	RelatedUserID *int64    `bun:"related_user_id"`
	BalanceAfter  int64     `bun:"balance_after,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toTransactionDao(tx *ledger.Transaction) *TransactionDao {
	return &TransactionDao{
		UserID:        tx.UserID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Description:   tx.Description,
		RelatedUserID: tx.RelatedUserID,
		BalanceAfter:  tx.BalanceAfter,
	}
}

func toTransaction(dao *TransactionDao) *ledger.Transaction {
	return &ledger.Transaction{
		ID:            dao.ID,
		UserID:        dao.UserID,
		Type:          ledger.Type(dao.Type),
		Amount:        dao.Amount,
		Description:   dao.Description,
		RelatedUserID: dao.RelatedUserID,
		BalanceAfter:  dao.BalanceAfter,
		CreatedAt:     dao.CreatedAt,
	}
}

// Drift is a user whose balance differs from the sum of their transactions.
type Drift struct {
	UserID  int64 `bun:"user_id"`
	Balance int64 `bun:"balance"`
	Ledger  int64 `bun:"ledger"`
}
