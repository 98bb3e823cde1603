package appdb

import (
	"context"
	"log"

	mghelper "github.com/onurmutlu/flirtmarket/pkg/pgutil/migrations"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating users table...")
		if err := mghelper.CreateSchema(ctx, db, &userstore.UserDao{}); err != nil {
			return err
		}
		if err := mghelper.ExecStatements(ctx, db,
			`ALTER TABLE users ADD CONSTRAINT users_coins_non_negative CHECK (coins >= 0)`,
			`ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('regular', 'performer', 'admin'))`,
		); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &userstore.UserDao{}, "role", "referred_by")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping users table...")
		return mghelper.DropTables(ctx, db, &userstore.UserDao{})
	})
}
