package appdb

import (
	"context"
	"log"

	"github.com/onurmutlu/flirtmarket/pkg/monetizationstore"
	mghelper "github.com/onurmutlu/flirtmarket/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func monetizationModels() []any {
	return []any{
		&monetizationstore.GiftDao{},
		&monetizationstore.GiftTransactionDao{},
		&monetizationstore.SubscriptionDao{},
		&monetizationstore.LootboxDao{},
		&monetizationstore.LootboxRewardDao{},
		&monetizationstore.LootboxOpeningDao{},
		&monetizationstore.BoostDao{},
		&monetizationstore.TaskDao{},
		&monetizationstore.UserTaskDao{},
	}
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating monetization tables...")
		if err := mghelper.CreateSchema(ctx, db, monetizationModels()...); err != nil {
			return err
		}
		if err := mghelper.ExecStatements(ctx, db,
			`ALTER TABLE lootbox_rewards ADD CONSTRAINT lootbox_rewards_probability_check CHECK (probability >= 0)`,
			`ALTER TABLE tasks ADD CONSTRAINT tasks_target_positive CHECK (target > 0)`,
			`ALTER TABLE user_tasks ADD CONSTRAINT user_tasks_progress_non_negative CHECK (progress >= 0)`,
		); err != nil {
			return err
		}

		// One free lootbox per user per UTC day, one active subscription per pair.
		if err := mghelper.CreateCompositeUniqueIndex(ctx, db, &monetizationstore.LootboxOpeningDao{}, "free_day IS NOT NULL", "user_id", "free_day"); err != nil {
			return err
		}
		if err := mghelper.CreateCompositeUniqueIndex(ctx, db, &monetizationstore.SubscriptionDao{}, "active", "subscriber_id", "performer_id"); err != nil {
			return err
		}

		if err := mghelper.CreateModelIndexes(ctx, db, &monetizationstore.GiftTransactionDao{}, "sender_id", "recipient_id"); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &monetizationstore.LootboxRewardDao{}, "lootbox_id"); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &monetizationstore.BoostDao{}, "user_id"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &monetizationstore.TaskDao{}, "action")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping monetization tables...")
		return mghelper.DropTables(ctx, db, monetizationModels()...)
	})
}
