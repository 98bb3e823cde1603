package appdb

import (
	"context"
	"log"

	"github.com/onurmutlu/flirtmarket/pkg/ledgerstore"
	mghelper "github.com/onurmutlu/flirtmarket/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating transactions table...")
		if err := mghelper.CreateSchema(ctx, db, &ledgerstore.TransactionDao{}); err != nil {
			return err
		}
		if err := mghelper.ExecStatements(ctx, db,
			`ALTER TABLE transactions ADD CONSTRAINT transactions_type_check CHECK (type IN ('purchase', 'spend', 'earn', 'referral'))`,
			`ALTER TABLE transactions ADD CONSTRAINT transactions_amount_non_zero CHECK (amount <> 0)`,
		); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &ledgerstore.TransactionDao{}, "user_id", "created_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping transactions table...")
		return mghelper.DropTables(ctx, db, &ledgerstore.TransactionDao{})
	})
}
