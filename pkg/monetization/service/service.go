package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

// Store persists catalogue items and add-on state.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	GetGift(ctx context.Context, id int64) (*monetization.Gift, error)
	ListGifts(ctx context.Context) ([]*monetization.Gift, error)
	InsertGiftTransaction(ctx context.Context, gt *monetization.GiftTransaction) (*monetization.GiftTransaction, error)

	GetSubscription(ctx context.Context, subscriberID, performerID int64) (*monetization.Subscription, error)
	InsertSubscription(ctx context.Context, sub *monetization.Subscription) (*monetization.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *monetization.Subscription) (*monetization.Subscription, error)
	ListSubscriptions(ctx context.Context, subscriberID int64, now time.Time) ([]*monetization.Subscription, error)

	GetLootbox(ctx context.Context, id int64) (*monetization.Lootbox, error)
	ListLootboxes(ctx context.Context) ([]*monetization.Lootbox, error)
	ListRewards(ctx context.Context, lootboxID int64) ([]monetization.LootboxReward, error)
	InsertOpening(ctx context.Context, o *monetization.LootboxOpening) (*monetization.LootboxOpening, error)

	InsertBoost(ctx context.Context, b *monetization.Boost) (*monetization.Boost, error)
	ListActiveBoosts(ctx context.Context, userID int64, now time.Time) ([]*monetization.Boost, error)

	GetTask(ctx context.Context, id int64) (*monetization.Task, error)
	ListActiveTasksByAction(ctx context.Context, action string) ([]*monetization.Task, error)
	ListTasksWithProgress(ctx context.Context, userID int64) ([]*monetization.UserTask, error)
	AddProgress(ctx context.Context, userID int64, task *monetization.Task, delta int) (*monetization.TaskProgress, error)
	ClaimReward(ctx context.Context, userID, taskID int64) error
}

// UserStore looks up counterparties.
type UserStore interface {
	GetUser(ctx context.Context, opts ...userstore.QueryOption) (*user.User, error)
}

// Ledger is the pair of coin primitives every add-on is built on.
type Ledger interface {
	Credit(ctx context.Context, entry ledger.Entry) (*ledger.Result, error)
	Debit(ctx context.Context, entry ledger.Entry) (*ledger.Result, error)
}

// Service defines the monetization add-on business logic
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	ListGifts(ctx context.Context) ([]*monetization.Gift, error)
	SendGift(ctx context.Context, senderID int64, req *monetization.SendGiftRequest) (*monetization.SendGiftResponse, error)

	Subscribe(ctx context.Context, subscriberID int64, req *monetization.SubscribeRequest) (*monetization.SubscribeResponse, error)
	ListSubscriptions(ctx context.Context, subscriberID int64) ([]*monetization.Subscription, error)

	ListLootboxes(ctx context.Context) ([]*monetization.Lootbox, error)
	OpenLootbox(ctx context.Context, userID int64, req *monetization.OpenLootboxRequest) (*monetization.LootboxResult, error)
	ListBoosts(ctx context.Context, userID int64) ([]*monetization.Boost, error)

	ListTasks(ctx context.Context, userID int64) ([]*monetization.UserTask, error)
	TrackProgress(ctx context.Context, userID int64, action string, delta int) error
	ClaimTaskReward(ctx context.Context, userID, taskID int64) (*monetization.ClaimResult, error)
}

// Config holds add-on pricing.
type Config struct {
	GiftFeePercent          int64
	SubscriptionFeePercent  int64
	SubscriptionPricePerDay int64
	MaxSubscriptionDays     int
}

// sharedRand draws from the concurrency-safe top-level math/rand/v2 source.
type sharedRand struct{}

func (sharedRand) IntN(n int) int {
	return rand.IntN(n)
}

type monetizationService struct {
	store  Store
	users  UserStore
	ledger Ledger
	tx     pgutil.Transactor
	cfg    Config
	rnd    monetization.RandomSource
	now    func() time.Time
	logger *zap.Logger
}

// Option customises a monetization service.
type Option func(*monetizationService)

// WithRandomSource replaces the lootbox random source.
func WithRandomSource(rnd monetization.RandomSource) Option {
	return func(s *monetizationService) {
		s.rnd = rnd
	}
}

// WithClock replaces the wall clock used for subscription dates, boosts and the daily free box.
func WithClock(now func() time.Time) Option {
	return func(s *monetizationService) {
		s.now = now
	}
}

// NewService creates a new monetization service
func NewService(store Store, users UserStore, l Ledger, tx pgutil.Transactor, cfg Config, logger *zap.Logger, opts ...Option) Service {
	s := &monetizationService{
		store:  store,
		users:  users,
		ledger: l,
		tx:     tx,
		cfg:    cfg,
		rnd:    sharedRand{},
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *monetizationService) getUser(ctx context.Context, id int64) (*user.User, error) {
	usr, err := s.users.GetUser(ctx, userstore.WithID(id))
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return usr, nil
}

// trackProgress is best effort. A failing task tracker never undoes a payment.
func (s *monetizationService) trackProgress(ctx context.Context, userID int64, action string) {
	if err := s.TrackProgress(ctx, userID, action, 1); err != nil {
		s.logger.Warn("failed to track task progress",
			zap.Int64("user_id", userID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
