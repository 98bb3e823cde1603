package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/onurmutlu/flirtmarket/pkg/cache"
	"github.com/onurmutlu/flirtmarket/pkg/chat"
	"github.com/onurmutlu/flirtmarket/pkg/chatstore"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

type memStore struct {
	mu            sync.Mutex
	conversations map[int64]*chat.Conversation
	messages      []*chat.Message
	listCalls     int
	insertErr     error
}

func newMemStore(convs ...*chat.Conversation) *memStore {
	s := &memStore{conversations: map[int64]*chat.Conversation{}}
	for _, c := range convs {
		s.conversations[c.ID] = c
	}
	return s
}

func (s *memStore) GetConversation(_ context.Context, id int64) (*chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, chatstore.ErrConversationNotFound
	}
	return c, nil
}

func (s *memStore) CreateConversation(_ context.Context, regularUserID, performerID int64) (*chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.RegularUserID == regularUserID && c.PerformerID == performerID {
			return c, nil
		}
	}
	c := &chat.Conversation{ID: int64(len(s.conversations) + 100), RegularUserID: regularUserID, PerformerID: performerID}
	s.conversations[c.ID] = c
	return c, nil
}

func (s *memStore) ListConversations(_ context.Context, userID int64) ([]*chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*chat.Conversation
	for _, c := range s.conversations {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) InsertMessage(_ context.Context, msg *chat.Message) (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	row := *msg
	row.ID = int64(len(s.messages) + 1)
	row.CreatedAt = time.Now()
	s.messages = append(s.messages, &row)
	return &row, nil
}

func (s *memStore) ClaimUnansweredPaid(_ context.Context, conversationID, performerID int64) (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.RecipientID == performerID &&
			m.Cost != nil && *m.Cost > 0 && !m.Answered {
			m.Answered = true
			return m, nil
		}
	}
	return nil, chatstore.ErrNoUnansweredMessage
}

func (s *memStore) TouchConversation(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[id]; ok {
		c.LastMessageAt = &at
	}
	return nil
}

func (s *memStore) ListMessages(_ context.Context, conversationID int64) ([]*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	var out []*chat.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) MarkRead(_ context.Context, conversationID, recipientID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.RecipientID == recipientID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
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

// fakeLedger keeps balances in memory and records every entry it applied.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	entries  []ledger.Entry
}

func (l *fakeLedger) Credit(_ context.Context, e ledger.Entry) (*ledger.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[e.UserID] += e.Amount
	return l.record(e, e.Amount), nil
}

func (l *fakeLedger) Debit(_ context.Context, e ledger.Entry) (*ledger.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[e.UserID] < e.Amount {
		return nil, &ledger.InsufficientFundsError{Required: e.Amount, Available: l.balances[e.UserID]}
	}
	l.balances[e.UserID] -= e.Amount
	e.Type = ledger.TypeSpend
	return l.record(e, -e.Amount), nil
}

func (l *fakeLedger) record(e ledger.Entry, signed int64) *ledger.Result {
	l.entries = append(l.entries, e)
	return &ledger.Result{
		Balance: l.balances[e.UserID],
		Transaction: &ledger.Transaction{
			ID:           int64(len(l.entries)),
			UserID:       e.UserID,
			Type:         e.Type,
			Amount:       signed,
			BalanceAfter: l.balances[e.UserID],
		},
	}
}

type trackerFunc func(ctx context.Context, userID int64, action string, delta int) error

func (f trackerFunc) TrackProgress(ctx context.Context, userID int64, action string, delta int) error {
	return f(ctx, userID, action, delta)
}

// recordingCache embeds an in-memory cache and records invalidations.
type recordingCache struct {
	cache.Cache
	mu      sync.Mutex
	deleted []string
}

func (c *recordingCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	c.deleted = append(c.deleted, keys...)
	c.mu.Unlock()
	return c.Cache.Delete(ctx, keys...)
}

// serviceMock is a testify mock of Service for handler tests.
type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) SendMessage(ctx context.Context, req *chat.SendMessageRequest) (*chat.SendMessageResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*chat.SendMessageResponse)
	return resp, args.Error(1)
}

func (m *serviceMock) CreateConversation(ctx context.Context, userID, performerID int64) (*chat.Conversation, error) {
	args := m.Called(ctx, userID, performerID)
	conv, _ := args.Get(0).(*chat.Conversation)
	return conv, args.Error(1)
}

func (m *serviceMock) ListConversations(ctx context.Context, userID int64) ([]*chat.Conversation, error) {
	args := m.Called(ctx, userID)
	convs, _ := args.Get(0).([]*chat.Conversation)
	return convs, args.Error(1)
}

func (m *serviceMock) ListMessages(ctx context.Context, userID, conversationID int64) ([]*chat.Message, error) {
	args := m.Called(ctx, userID, conversationID)
	msgs, _ := args.Get(0).([]*chat.Message)
	return msgs, args.Error(1)
}

func (m *serviceMock) MarkRead(ctx context.Context, userID, conversationID int64) (int64, error) {
	args := m.Called(ctx, userID, conversationID)
	return args.Get(0).(int64), args.Error(1)
}
