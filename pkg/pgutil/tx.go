package pgutil

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// Transactor runs a function inside one database transaction.
// Stores obtain the active transaction through Conn, so several stores can take
// part in the same atomic unit without knowing about each other.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type txState struct {
	tx          bun.Tx
	afterCommit []func()
}

type txManager struct {
	db *bun.DB
}

// NewTransactor creates a Transactor backed by db.
func NewTransactor(db *bun.DB) Transactor {
	return &txManager{db: db}
}

// RunInTx opens a read-committed transaction, or joins the one already carried by ctx.
// Hooks registered with AfterCommit run once the outermost transaction commits.
func (m *txManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	state := &txState{}
	err := m.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx bun.Tx) error {
		state.tx = tx
		return fn(context.WithValue(ctx, txKey{}, state))
	})
	if err != nil {
		return err
	}

	for _, hook := range state.afterCommit {
		hook()
	}
	return nil
}

// Conn returns the transaction carried by ctx, or db when there is none.
func Conn(ctx context.Context, db bun.IDB) bun.IDB {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		return state.tx
	}
	return db
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}

// AfterCommit schedules fn to run after the transaction carried by ctx commits.
// Outside a transaction fn runs immediately. Hooks are dropped on rollback.
func AfterCommit(ctx context.Context, fn func()) {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		state.afterCommit = append(state.afterCommit, fn)
		return
	}
	fn()
}

// NoTx is a Transactor that runs fn directly. Used by unit tests with fake stores.
type NoTx struct{}

// RunInTx calls fn with ctx unchanged.
func (NoTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
