package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

// fakeLedger keeps balances in memory, newest transaction last.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	txs      []*ledger.Transaction
	err      error
}

func (l *fakeLedger) Credit(_ context.Context, e ledger.Entry) (*ledger.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.balances[e.UserID] += e.Amount
	return l.record(e, e.Amount), nil
}

func (l *fakeLedger) Debit(_ context.Context, e ledger.Entry) (*ledger.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.balances[e.UserID] < e.Amount {
		return nil, &ledger.InsufficientFundsError{Required: e.Amount, Available: l.balances[e.UserID]}
	}
	l.balances[e.UserID] -= e.Amount
	e.Type = ledger.TypeSpend
	return l.record(e, -e.Amount), nil
}

func (l *fakeLedger) record(e ledger.Entry, signed int64) *ledger.Result {
	row := &ledger.Transaction{
		ID:            int64(len(l.txs) + 1),
		UserID:        e.UserID,
		Type:          e.Type,
		Amount:        signed,
		Description:   e.Description,
		RelatedUserID: e.RelatedUserID,
		BalanceAfter:  l.balances[e.UserID],
	}
	l.txs = append(l.txs, row)
	return &ledger.Result{Balance: row.BalanceAfter, Transaction: row}
}

func (l *fakeLedger) ListTransactions(_ context.Context, userID int64, limit, offset int) ([]*ledger.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*ledger.Transaction
	for i := len(l.txs) - 1; i >= 0; i-- {
		if l.txs[i].UserID == userID {
			out = append(out, l.txs[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

type fakeUsers map[int64]*user.User

func (f fakeUsers) GetUser(_ context.Context, opts ...userstore.QueryOption) (*user.User, error) {
	var q userstore.QueryOptions
	for _, opt := range opts {
		opt(&q)
	}
	if q.ID != nil {
		if u, ok := f[*q.ID]; ok {
			cp := *u
			return &cp, nil
		}
	}
	return nil, userstore.ErrUserNotFound
}

type trackerFunc func(ctx context.Context, userID int64, action string, delta int) error

func (f trackerFunc) TrackProgress(ctx context.Context, userID int64, action string, delta int) error {
	return f(ctx, userID, action, delta)
}

// serviceMock is a testify mock of Service for handler tests.
type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) ListPackages(ctx context.Context) []ledger.CoinPackage {
	args := m.Called(ctx)
	pkgs, _ := args.Get(0).([]ledger.CoinPackage)
	return pkgs
}

func (m *serviceMock) Purchase(ctx context.Context, userID int64, req *ledger.PurchaseRequest) (*ledger.PurchaseResponse, error) {
	args := m.Called(ctx, userID, req)
	resp, _ := args.Get(0).(*ledger.PurchaseResponse)
	return resp, args.Error(1)
}

func (m *serviceMock) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*ledger.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	txs, _ := args.Get(0).([]*ledger.Transaction)
	return txs, args.Error(1)
}

func (m *serviceMock) AdjustCoins(ctx context.Context, adminID, targetID int64, req *ledger.AdjustCoinsRequest) (*user.User, error) {
	args := m.Called(ctx, adminID, targetID, req)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}
