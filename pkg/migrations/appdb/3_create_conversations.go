package appdb

import (
	"context"
	"log"

	"github.com/onurmutlu/flirtmarket/pkg/chatstore"
	mghelper "github.com/onurmutlu/flirtmarket/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating conversations and messages tables...")
		if err := mghelper.CreateSchema(ctx, db, &chatstore.ConversationDao{}, &chatstore.MessageDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateCompositeUniqueIndex(ctx, db, &chatstore.ConversationDao{}, "", "regular_user_id", "performer_id"); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &chatstore.ConversationDao{}, "performer_id"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &chatstore.MessageDao{}, "conversation_id", "recipient_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping conversations and messages tables...")
		return mghelper.DropTables(ctx, db, &chatstore.MessageDao{}, &chatstore.ConversationDao{})
	})
}
