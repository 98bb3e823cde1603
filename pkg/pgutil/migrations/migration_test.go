package migrations

import (
	"context"
	"testing"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/config"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
)

type pairDao struct {
	bun.BaseModel `bun:"table:pairs"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Left          int64  `bun:"left_id,notnull"`
	Right         int64  `bun:"right_id,notnull"`
	Label         string `bun:"label,type:varchar(32)"`
}

func TestConnectDB_InvalidHost(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "invalid-host-that-does-not-exist",
		Port:     5432,
		User:     "test",
		Password: "test",
		Database: "test",
		SSLMode:  "disable",
	}

	db, err := pgutil.ConnectDB(cfg)
	if err == nil {
		_ = db.Close()
		t.Fatal("ConnectDB() should fail with invalid host")
	}
}

func TestCreateSchemaAndDropTables(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &pairDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	pgutil.AssertTableExists(t, db, "pairs")

	// idempotent
	if err := CreateSchema(ctx, db, &pairDao{}); err != nil {
		t.Fatalf("CreateSchema() second call failed: %v", err)
	}

	if err := DropTables(ctx, db, &pairDao{}); err != nil {
		t.Fatalf("DropTables() failed: %v", err)
	}
	if err := DropTables(ctx, db, &pairDao{}); err != nil {
		t.Fatalf("DropTables() second call failed: %v", err)
	}
}

func TestCreateIndexes(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &pairDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	if err := CreateModelIndexes(ctx, db, &pairDao{}, "label"); err != nil {
		t.Fatalf("CreateModelIndexes() failed: %v", err)
	}
	if err := CreateCompositeUniqueIndex(ctx, db, &pairDao{}, "", "left_id", "right_id"); err != nil {
		t.Fatalf("CreateCompositeUniqueIndex() failed: %v", err)
	}

	pgutil.AssertIndexExists(t, db, "idx_pairs_label")
	pgutil.AssertIndexExists(t, db, "idx_pairs_left_id_right_id")

	if _, err := db.NewInsert().Model(&pairDao{Left: 1, Right: 2}).Exec(ctx); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := db.NewInsert().Model(&pairDao{Left: 1, Right: 2}).Exec(ctx); err == nil {
		t.Fatal("expected duplicate pair to violate unique index")
	}
	pgutil.AssertRowCount(t, db, "pairs", 1)
}

func TestExecStatements(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &pairDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	err := ExecStatements(ctx, db, `ALTER TABLE pairs ADD CONSTRAINT pairs_left_positive CHECK (left_id > 0)`)
	if err != nil {
		t.Fatalf("ExecStatements() failed: %v", err)
	}
	if _, err := db.NewInsert().Model(&pairDao{Left: -1, Right: 2}).Exec(ctx); err == nil {
		t.Fatal("expected check constraint violation")
	}
}
