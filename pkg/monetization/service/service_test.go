package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	"github.com/onurmutlu/flirtmarket/pkg/user"
)

const (
	regularID   int64 = 1
	performerID int64 = 2
	otherID     int64 = 3
)

var testNow = time.Date(2026, 5, 10, 22, 0, 0, 0, time.UTC)

type fixture struct {
	svc    Service
	store  *memStore
	ledger *fakeLedger
}

func newFixture(t *testing.T, balances map[int64]int64, opts ...Option) *fixture {
	t.Helper()

	users := fakeUsers{
		regularID:   {ID: regularID, FirstName: "Alice", Role: user.RoleRegular},
		performerID: {ID: performerID, FirstName: "Bella", Username: "bella", Role: user.RolePerformer},
		otherID:     {ID: otherID, FirstName: "Carl", Role: user.RoleRegular},
	}
	store := newMemStore()
	l := newFakeLedger(balances)
	cfg := Config{
		GiftFeePercent:          20,
		SubscriptionFeePercent:  20,
		SubscriptionPricePerDay: 50,
		MaxSubscriptionDays:     365,
	}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	svc := NewService(store, users, l, pgutil.NoTx{}, cfg, zap.NewNop(), opts...)
	return &fixture{svc: svc, store: store, ledger: l}
}

func requireCategory(t *testing.T, err error, cat apperrors.Category) *apperrors.ServiceError {
	t.Helper()
	var svcErr *apperrors.ServiceError
	require.True(t, errors.As(err, &svcErr), "expected ServiceError, got %v", err)
	require.Equal(t, cat, svcErr.Category, "unexpected category: %v", svcErr)
	return svcErr
}

func TestSendGift_SplitsPaymentAndRecordsGift(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 500})
	f.store.gifts[10] = &monetization.Gift{ID: 10, Name: "Rose", Price: 99, Active: true}

	resp, err := f.svc.SendGift(context.Background(), regularID, &monetization.SendGiftRequest{GiftID: 10, RecipientID: performerID})
	require.NoError(t, err)

	assert.Equal(t, int64(401), resp.UpdatedCoins)
	assert.Equal(t, int64(401), f.ledger.balance(regularID))
	// floor(99 * 0.8) = 79; the remaining 20 coins are burned
	assert.Equal(t, int64(79), f.ledger.balance(performerID))
	assert.Equal(t, int64(79), resp.Gift.RecipientEarnings)
	require.NotNil(t, resp.Gift.EarningTransactionID)
	require.Len(t, f.store.giftTxs, 1)

	require.Len(t, f.ledger.entries, 2)
	assert.Equal(t, ledger.TypeSpend, f.ledger.entries[0].Type)
	assert.Equal(t, ledger.TypeEarn, f.ledger.entries[1].Type)
	assert.Equal(t, "Gift Rose to @bella", f.ledger.entries[0].Description)
}

func TestSendGift_InvalidRecipient(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 500})
	f.store.gifts[10] = &monetization.Gift{ID: 10, Name: "Rose", Price: 99, Active: true}

	for name, recipient := range map[string]int64{"self": regularID, "unknown": 404} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SendGift(context.Background(), regularID, &monetization.SendGiftRequest{GiftID: 10, RecipientID: recipient})
			svcErr := requireCategory(t, err, apperrors.CategoryDataError)
			assert.Equal(t, "invalid recipient", svcErr.Message)
		})
	}
	assert.Empty(t, f.ledger.entries)
	assert.Empty(t, f.store.giftTxs)
}

func TestSendGift_InsufficientCoins(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 20})
	f.store.gifts[10] = &monetization.Gift{ID: 10, Name: "Diamond", Price: 35, Active: true}

	_, err := f.svc.SendGift(context.Background(), regularID, &monetization.SendGiftRequest{GiftID: 10, RecipientID: performerID})
	svcErr := requireCategory(t, err, apperrors.CategoryInsufficientFunds)
	assert.Equal(t, int64(35), svcErr.Details["required"])
	assert.Equal(t, int64(20), svcErr.Details["available"])

	assert.Equal(t, int64(20), f.ledger.balance(regularID))
	assert.Empty(t, f.store.giftTxs)
}

func TestSendGift_UnknownOrInactiveGift(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 500})
	f.store.gifts[11] = &monetization.Gift{ID: 11, Name: "Retired", Price: 5}

	for _, id := range []int64{11, 12} {
		_, err := f.svc.SendGift(context.Background(), regularID, &monetization.SendGiftRequest{GiftID: id, RecipientID: performerID})
		requireCategory(t, err, apperrors.CategoryResourceNotFound)
	}
}

func TestSubscribe_CreatesThenExtends(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 5000})
	ctx := context.Background()

	resp, err := f.svc.Subscribe(ctx, regularID, &monetization.SubscribeRequest{PerformerID: performerID, DurationDays: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), resp.Subscription.Price)
	assert.Equal(t, testNow.AddDate(0, 0, 30), resp.Subscription.EndDate)
	assert.Equal(t, int64(3500), resp.UpdatedCoins)
	assert.Equal(t, int64(1200), f.ledger.balance(performerID))

	resp, err = f.svc.Subscribe(ctx, regularID, &monetization.SubscribeRequest{PerformerID: performerID, DurationDays: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(1850), resp.Subscription.Price)
	assert.Equal(t, testNow.AddDate(0, 0, 37), resp.Subscription.EndDate)
	assert.Len(t, f.store.subs, 1, "extension must not create a second row")
	assert.Equal(t, int64(1200+280), f.ledger.balance(performerID))
}

func TestSubscribe_LapsedSubscriptionRestarts(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 5000})
	f.store.subs = append(f.store.subs, &monetization.Subscription{
		ID:           99,
		SubscriberID: regularID,
		PerformerID:  performerID,
		StartDate:    testNow.AddDate(0, -2, 0),
		EndDate:      testNow.AddDate(0, -1, 0),
		Price:        1500,
		Active:       true,
	})

	resp, err := f.svc.Subscribe(context.Background(), regularID, &monetization.SubscribeRequest{PerformerID: performerID, DurationDays: 1})
	require.NoError(t, err)
	assert.Equal(t, testNow, resp.Subscription.StartDate)
	assert.Equal(t, testNow.AddDate(0, 0, 1), resp.Subscription.EndDate)
	assert.Equal(t, int64(1550), resp.Subscription.Price)
}

func TestSubscribe_Validation(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 5000})
	ctx := context.Background()

	_, err := f.svc.Subscribe(ctx, regularID, &monetization.SubscribeRequest{PerformerID: performerID, DurationDays: 366})
	requireCategory(t, err, apperrors.CategoryDataError)

	_, err = f.svc.Subscribe(ctx, regularID, &monetization.SubscribeRequest{PerformerID: otherID, DurationDays: 1})
	requireCategory(t, err, apperrors.CategoryResourceNotFound)

	_, err = f.svc.Subscribe(ctx, regularID, &monetization.SubscribeRequest{PerformerID: 404, DurationDays: 1})
	requireCategory(t, err, apperrors.CategoryResourceNotFound)

	assert.Empty(t, f.ledger.entries)
}

func TestSubscribe_InsufficientCoins(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 100})

	_, err := f.svc.Subscribe(context.Background(), regularID, &monetization.SubscribeRequest{PerformerID: performerID, DurationDays: 3})
	svcErr := requireCategory(t, err, apperrors.CategoryInsufficientFunds)
	assert.Equal(t, "insufficient coins", svcErr.Message)
	assert.Empty(t, f.store.subs)
}

func seedLootboxes(s *memStore) {
	s.boxes[1] = &monetization.Lootbox{ID: 1, Name: "Daily", Free: true, Active: true}
	s.boxes[2] = &monetization.Lootbox{ID: 2, Name: "Gold", Price: 100, Active: true}
	s.boxes[3] = &monetization.Lootbox{ID: 3, Name: "Empty", Price: 10, Active: true}
	s.tasks[7] = &monetization.Task{ID: 7, Title: "Open boxes", Action: monetization.ActionOpenLootbox, Target: 5, RewardType: monetization.TaskRewardCoins, RewardValue: 10, Active: true}

	s.rewards[1] = []monetization.LootboxReward{
		{ID: 11, LootboxID: 1, Type: monetization.RewardCoins, Value: 25, Probability: 0.5},
		{ID: 12, LootboxID: 1, Type: monetization.RewardDiscount, Value: 10, Probability: 0.5},
	}
	s.rewards[2] = []monetization.LootboxReward{
		{ID: 21, LootboxID: 2, Type: monetization.RewardBoost, Value: 2, Probability: 1, DurationHours: 6},
	}
	s.rewards[3] = []monetization.LootboxReward{
		{ID: 31, LootboxID: 3, Type: monetization.RewardCoins, Value: 5, Probability: 0},
	}
}

func TestOpenLootbox_DailyFreeOncePerUTCDay(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 0}, WithRandomSource(fixedRand(0)))
	seedLootboxes(f.store)
	ctx := context.Background()

	res, err := f.svc.OpenLootbox(ctx, regularID, &monetization.OpenLootboxRequest{LootboxID: 1})
	require.NoError(t, err)
	assert.Equal(t, monetization.RewardCoins, res.Type)
	require.NotNil(t, res.UpdatedCoins)
	assert.Equal(t, int64(25), *res.UpdatedCoins)
	assert.Equal(t, int64(25), f.ledger.balance(regularID))

	_, err = f.svc.OpenLootbox(ctx, regularID, &monetization.OpenLootboxRequest{LootboxID: 1})
	svcErr := requireCategory(t, err, apperrors.CategoryDataError)
	assert.Equal(t, "daily free lootbox already opened", svcErr.Message)

	require.Len(t, f.store.openings, 1)
	assert.Nil(t, f.store.openings[0].TransactionID)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), *f.store.openings[0].FreeDay)
}

func TestOpenLootbox_DiscountIsNotPersisted(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 0}, WithRandomSource(fixedRand(600_000)))
	seedLootboxes(f.store)

	res, err := f.svc.OpenLootbox(context.Background(), regularID, &monetization.OpenLootboxRequest{LootboxID: 1})
	require.NoError(t, err)
	assert.Equal(t, monetization.RewardDiscount, res.Type)
	assert.Nil(t, res.UpdatedCoins)
	assert.Empty(t, f.ledger.entries)
	assert.Empty(t, f.store.boosts)
}

func TestOpenLootbox_PaidBoxGrantsBoost(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 150})
	seedLootboxes(f.store)

	res, err := f.svc.OpenLootbox(context.Background(), regularID, &monetization.OpenLootboxRequest{LootboxID: 2})
	require.NoError(t, err)
	require.NotNil(t, res.Boost)
	assert.Equal(t, testNow.Add(6*time.Hour), res.Boost.ExpiresAt)
	assert.Equal(t, int64(50), *res.UpdatedCoins)

	require.Len(t, f.store.openings, 1)
	assert.NotNil(t, f.store.openings[0].TransactionID)
	assert.Nil(t, f.store.openings[0].FreeDay)

	p := f.store.progressOf(regularID, 7)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Progress)
}

func TestOpenLootbox_Failures(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 50})
	seedLootboxes(f.store)
	ctx := context.Background()

	_, err := f.svc.OpenLootbox(ctx, regularID, &monetization.OpenLootboxRequest{LootboxID: 404})
	requireCategory(t, err, apperrors.CategoryResourceNotFound)

	_, err = f.svc.OpenLootbox(ctx, regularID, &monetization.OpenLootboxRequest{LootboxID: 3})
	requireCategory(t, err, apperrors.CategoryResourceNotFound)

	_, err = f.svc.OpenLootbox(ctx, regularID, &monetization.OpenLootboxRequest{LootboxID: 2})
	svcErr := requireCategory(t, err, apperrors.CategoryInsufficientFunds)
	assert.Equal(t, int64(100), svcErr.Details["required"])
	assert.Equal(t, int64(50), svcErr.Details["available"])

	assert.Empty(t, f.store.openings)
	assert.Equal(t, int64(50), f.ledger.balance(regularID))
}

func TestClaimTaskReward(t *testing.T) {
	f := newFixture(t, map[int64]int64{regularID: 0})
	f.store.tasks[5] = &monetization.Task{ID: 5, Title: "Chatty", Action: monetization.ActionSendMessage, Target: 2, RewardType: monetization.TaskRewardCoins, RewardValue: 40, Active: true}
	f.store.tasks[6] = &monetization.Task{ID: 6, Title: "Gifter", Action: monetization.ActionSendGift, Target: 1, RewardType: monetization.TaskRewardBoost, RewardValue: 3, RewardDurationHours: 12, Active: true}
	ctx := context.Background()

	_, err := f.svc.ClaimTaskReward(ctx, regularID, 5)
	svcErr := requireCategory(t, err, apperrors.CategoryDataError)
	assert.Equal(t, "not eligible", svcErr.Message)

	require.NoError(t, f.svc.TrackProgress(ctx, regularID, monetization.ActionSendMessage, 1))
	_, err = f.svc.ClaimTaskReward(ctx, regularID, 5)
	requireCategory(t, err, apperrors.CategoryDataError)

	require.NoError(t, f.svc.TrackProgress(ctx, regularID, monetization.ActionSendMessage, 3))
	res, err := f.svc.ClaimTaskReward(ctx, regularID, 5)
	require.NoError(t, err)
	assert.True(t, res.Claimed)
	assert.Equal(t, int64(40), *res.UpdatedCoins)
	assert.Equal(t, 2, f.store.progressOf(regularID, 5).Progress)

	_, err = f.svc.ClaimTaskReward(ctx, regularID, 5)
	requireCategory(t, err, apperrors.CategoryDataError)
	assert.Equal(t, int64(40), f.ledger.balance(regularID), "reward must be paid once")

	require.NoError(t, f.svc.TrackProgress(ctx, regularID, monetization.ActionSendGift, 1))
	res, err = f.svc.ClaimTaskReward(ctx, regularID, 6)
	require.NoError(t, err)
	require.NotNil(t, res.Boost)
	assert.Equal(t, "task", res.Boost.Source)
	assert.Equal(t, testNow.Add(12*time.Hour), res.Boost.ExpiresAt)

	_, err = f.svc.ClaimTaskReward(ctx, regularID, 404)
	requireCategory(t, err, apperrors.CategoryResourceNotFound)
}

func TestTrackProgress_IgnoresNonPositiveDelta(t *testing.T) {
	f := newFixture(t, map[int64]int64{})
	f.store.tasks[5] = &monetization.Task{ID: 5, Action: monetization.ActionSendMessage, Target: 2, Active: true}

	require.NoError(t, f.svc.TrackProgress(context.Background(), regularID, monetization.ActionSendMessage, 0))
	assert.Nil(t, f.store.progressOf(regularID, 5))
}
