package service

import (
	"context"
	"sync"
	"time"

	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/monetizationstore"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

// fakeLedger keeps balances in memory and records every entry it applied.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	entries  []ledger.Entry
}

func newFakeLedger(balances map[int64]int64) *fakeLedger {
	return &fakeLedger{balances: balances}
}

func (l *fakeLedger) Credit(_ context.Context, e ledger.Entry) (*ledger.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	l.balances[e.UserID] += e.Amount
	return l.record(e, e.Amount), nil
}

func (l *fakeLedger) Debit(_ context.Context, e ledger.Entry) (*ledger.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if l.balances[e.UserID] < e.Amount {
		return nil, &ledger.InsufficientFundsError{Required: e.Amount, Available: l.balances[e.UserID]}
	}
	l.balances[e.UserID] -= e.Amount
	e.Type = ledger.TypeSpend
	return l.record(e, -e.Amount), nil
}

func (l *fakeLedger) record(e ledger.Entry, signed int64) *ledger.Result {
	l.entries = append(l.entries, e)
	tx := &ledger.Transaction{
		ID:           int64(len(l.entries)),
		UserID:       e.UserID,
		Type:         e.Type,
		Amount:       signed,
		Description:  e.Description,
		BalanceAfter: l.balances[e.UserID],
	}
	return &ledger.Result{Balance: l.balances[e.UserID], Transaction: tx}
}

func (l *fakeLedger) balance(userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

type fakeUsers map[int64]*user.User

func (f fakeUsers) GetUser(_ context.Context, opts ...userstore.QueryOption) (*user.User, error) {
	var q userstore.QueryOptions
	for _, opt := range opts {
		opt(&q)
	}
	if q.ID != nil {
		if u, ok := f[*q.ID]; ok {
			return u, nil
		}
	}
	return nil, userstore.ErrUserNotFound
}

// memStore is an in-memory Store used by the service tests.
type memStore struct {
	mu sync.Mutex

	gifts     map[int64]*monetization.Gift
	giftTxs   []*monetization.GiftTransaction
	subs      []*monetization.Subscription
	boxes     map[int64]*monetization.Lootbox
	rewards   map[int64][]monetization.LootboxReward
	openings  []*monetization.LootboxOpening
	boosts    []*monetization.Boost
	tasks     map[int64]*monetization.Task
	progress  map[[2]int64]*monetization.TaskProgress
	nextID    int64
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{
		gifts:    map[int64]*monetization.Gift{},
		boxes:    map[int64]*monetization.Lootbox{},
		rewards:  map[int64][]monetization.LootboxReward{},
		tasks:    map[int64]*monetization.Task{},
		progress: map[[2]int64]*monetization.TaskProgress{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) GetGift(_ context.Context, id int64) (*monetization.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gifts[id]
	if !ok {
		return nil, monetizationstore.ErrGiftNotFound
	}
	return g, nil
}

func (s *memStore) ListGifts(context.Context) ([]*monetization.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*monetization.Gift
	for _, g := range s.gifts {
		out = append(out, g)
	}
	return out, nil
}

func (s *memStore) InsertGiftTransaction(_ context.Context, gt *monetization.GiftTransaction) (*monetization.GiftTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	row := *gt
	row.ID = s.id()
	s.giftTxs = append(s.giftTxs, &row)
	return &row, nil
}

func (s *memStore) GetSubscription(_ context.Context, subscriberID, performerID int64) (*monetization.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID && sub.PerformerID == performerID && sub.Active {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, monetizationstore.ErrSubscriptionNotFound
}

func (s *memStore) InsertSubscription(_ context.Context, sub *monetization.Subscription) (*monetization.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := *sub
	row.ID = s.id()
	row.Active = true
	s.subs = append(s.subs, &row)
	cp := row
	return &cp, nil
}

func (s *memStore) UpdateSubscription(_ context.Context, sub *monetization.Subscription) (*monetization.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.subs {
		if row.ID == sub.ID {
			row.StartDate, row.EndDate, row.Price = sub.StartDate, sub.EndDate, sub.Price
			cp := *row
			return &cp, nil
		}
	}
	return nil, monetizationstore.ErrSubscriptionNotFound
}

func (s *memStore) ListSubscriptions(_ context.Context, subscriberID int64, now time.Time) ([]*monetization.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*monetization.Subscription
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID && sub.EndDate.After(now) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *memStore) GetLootbox(_ context.Context, id int64) (*monetization.Lootbox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boxes[id]
	if !ok {
		return nil, monetizationstore.ErrLootboxNotFound
	}
	return b, nil
}

func (s *memStore) ListLootboxes(context.Context) ([]*monetization.Lootbox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*monetization.Lootbox
	for _, b := range s.boxes {
		out = append(out, b)
	}
	return out, nil
}

func (s *memStore) ListRewards(_ context.Context, lootboxID int64) ([]monetization.LootboxReward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewards[lootboxID], nil
}

func (s *memStore) InsertOpening(_ context.Context, o *monetization.LootboxOpening) (*monetization.LootboxOpening, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.FreeDay != nil {
		for _, prev := range s.openings {
			if prev.UserID == o.UserID && prev.FreeDay != nil && prev.FreeDay.Equal(*o.FreeDay) {
				return nil, monetizationstore.ErrDailyFreeUsed
			}
		}
	}
	row := *o
	row.ID = s.id()
	s.openings = append(s.openings, &row)
	return &row, nil
}

func (s *memStore) InsertBoost(_ context.Context, b *monetization.Boost) (*monetization.Boost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := *b
	row.ID = s.id()
	s.boosts = append(s.boosts, &row)
	return &row, nil
}

func (s *memStore) ListActiveBoosts(_ context.Context, userID int64, now time.Time) ([]*monetization.Boost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*monetization.Boost
	for _, b := range s.boosts {
		if b.UserID == userID && b.ExpiresAt.After(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) GetTask(_ context.Context, id int64) (*monetization.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, monetizationstore.ErrTaskNotFound
	}
	return t, nil
}

func (s *memStore) ListActiveTasksByAction(_ context.Context, action string) ([]*monetization.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*monetization.Task
	for _, t := range s.tasks {
		if t.Active && t.Action == action {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) ListTasksWithProgress(_ context.Context, userID int64) ([]*monetization.UserTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*monetization.UserTask
	for _, t := range s.tasks {
		ut := &monetization.UserTask{Task: *t}
		if p, ok := s.progress[[2]int64{userID, t.ID}]; ok {
			ut.Progress, ut.Completed, ut.RewardClaimed = p.Progress, p.Completed, p.RewardClaimed
		}
		out = append(out, ut)
	}
	return out, nil
}

func (s *memStore) AddProgress(_ context.Context, userID int64, task *monetization.Task, delta int) (*monetization.TaskProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{userID, task.ID}
	p, ok := s.progress[key]
	if !ok {
		p = &monetization.TaskProgress{TaskID: task.ID, UserID: userID}
		s.progress[key] = p
	}
	if !p.Completed {
		p.Progress = min(p.Progress+delta, task.Target)
		p.Completed = p.Progress >= task.Target
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) ClaimReward(_ context.Context, userID, taskID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[[2]int64{userID, taskID}]
	if !ok || !p.Completed || p.RewardClaimed {
		return monetizationstore.ErrNotClaimable
	}
	p.RewardClaimed = true
	return nil
}

func (s *memStore) progressOf(userID, taskID int64) *monetization.TaskProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress[[2]int64{userID, taskID}]
}

type fixedRand int

func (f fixedRand) IntN(n int) int {
	return int(f) % n
}
