package appdb

import (
	"context"
	"log"

	mghelper "github.com/onurmutlu/flirtmarket/pkg/pgutil/migrations"
	"github.com/onurmutlu/flirtmarket/pkg/referralstore"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating referral_bonuses table...")
		if err := mghelper.CreateSchema(ctx, db, &referralstore.BonusDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateCompositeUniqueIndex(ctx, db, &referralstore.BonusDao{}, "", "referrer_id", "referred_id"); err != nil {
			return err
		}
		// A user can be the referred side of at most one bonus.
		return mghelper.CreateCompositeUniqueIndex(ctx, db, &referralstore.BonusDao{}, "", "referred_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping referral_bonuses table...")
		return mghelper.DropTables(ctx, db, &referralstore.BonusDao{})
	})
}
