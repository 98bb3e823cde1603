package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/onurmutlu/flirtmarket/pkg/cache"
	"github.com/onurmutlu/flirtmarket/pkg/events"
)

// memStore is an in-memory Store used by the primitive tests.
type memStore struct {
	mu       sync.Mutex
	balances map[int64]int64
	rows     []*Transaction
	nextID   int64

	insertErr error
}

func newMemStore(balances map[int64]int64) *memStore {
	return &memStore{balances: balances}
}

func (s *memStore) AddCoins(_ context.Context, userID, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] += amount
	return s.balances[userID], nil
}

func (s *memStore) SubtractCoins(_ context.Context, userID, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[userID] < amount {
		return 0, &InsufficientFundsError{Required: amount, Available: s.balances[userID]}
	}
	s.balances[userID] -= amount
	return s.balances[userID], nil
}

func (s *memStore) InsertTransaction(_ context.Context, tx *Transaction) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.nextID++
	row := *tx
	row.ID = s.nextID
	row.CreatedAt = time.Now()
	s.rows = append(s.rows, &row)
	return &row, nil
}

func (s *memStore) ListTransactions(_ context.Context, userID int64, limit, offset int) ([]*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Transaction
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].UserID == userID {
			out = append(out, s.rows[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingCache struct {
	cache.Nop
	mu      sync.Mutex
	deleted []string
}

func (c *recordingCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, keys...)
	return nil
}
