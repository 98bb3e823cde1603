package service

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/referral"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

type memStore struct {
	mu        sync.Mutex
	users     map[int64]*user.User
	getCalls  int
	listCalls int
}

func newMemStore(users ...*user.User) *memStore {
	s := &memStore{users: map[int64]*user.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) CreateUser(_ context.Context, usr *user.User) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TelegramID == usr.TelegramID || u.ReferralCode == usr.ReferralCode {
			return nil, userstore.ErrDuplicateUser
		}
	}
	row := *usr
	row.ID = int64(len(s.users) + 1)
	s.users[row.ID] = &row
	cp := row
	return &cp, nil
}

func (s *memStore) GetUser(_ context.Context, opts ...userstore.QueryOption) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	var q userstore.QueryOptions
	for _, opt := range opts {
		opt(&q)
	}
	for _, u := range s.users {
		if (q.ID != nil && u.ID == *q.ID) || (q.ReferralCode != nil && u.ReferralCode == *q.ReferralCode) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, userstore.ErrUserNotFound
}

func (s *memStore) ListByRole(_ context.Context, role user.Role, limit, offset int) ([]*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	var out []*user.User
	for _, u := range s.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (s *memStore) UpdateMessagePrice(_ context.Context, userID, price int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return userstore.ErrUserNotFound
	}
	u.MessagePrice = &price
	return nil
}

// fakeReferrals links the new user to the owner of the code through the store.
type fakeReferrals struct {
	store   *memStore
	applied []string
}

func (f *fakeReferrals) ApplyCode(ctx context.Context, userID int64, code string) (*referral.Bonus, error) {
	owner, err := f.store.GetUser(ctx, userstore.WithReferralCode(code))
	if err != nil {
		return nil, apperrors.ResourceNotFoundError(err, "invalid referral code")
	}
	f.store.mu.Lock()
	f.store.users[userID].ReferredBy = &owner.ID
	f.store.mu.Unlock()
	f.applied = append(f.applied, code)
	return &referral.Bonus{ReferrerID: owner.ID, ReferredID: userID, Amount: 100}, nil
}

// serviceMock is a testify mock of Service for handler tests.
type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) GetUser(ctx context.Context, userID int64) (*user.User, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

func (m *serviceMock) ListPerformers(ctx context.Context, limit, offset int) ([]*user.User, error) {
	args := m.Called(ctx, limit, offset)
	users, _ := args.Get(0).([]*user.User)
	return users, args.Error(1)
}

func (m *serviceMock) UpdateMessagePrice(ctx context.Context, userID, price int64) (*user.User, error) {
	args := m.Called(ctx, userID, price)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

func (m *serviceMock) CreateUser(ctx context.Context, adminID int64, req *user.CreateRequest) (*user.User, error) {
	args := m.Called(ctx, adminID, req)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}
