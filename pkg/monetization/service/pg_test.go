package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/onurmutlu/flirtmarket/pkg/cache"
	"github.com/onurmutlu/flirtmarket/pkg/events"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/ledgerstore"
	"github.com/onurmutlu/flirtmarket/pkg/migrations/appdb"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/monetizationstore"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

// failingGiftStore fails the gift record after both ledger legs have run.
type failingGiftStore struct {
	Store
}

func (failingGiftStore) InsertGiftTransaction(context.Context, *monetization.GiftTransaction) (*monetization.GiftTransaction, error) {
	return nil, errors.New("insert gift transaction: connection reset")
}

func TestSendGiftPG_FailedRecordRollsBackPayment(t *testing.T) {
	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	migrator := migrate.NewMigrator(db, appdb.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)

	logger := zap.NewNop()
	tx := pgutil.NewTransactor(db)
	users := userstore.NewStore(db)
	ledgerStore := ledgerstore.NewStore(db)
	l := ledger.New(ledgerStore, tx, cache.Nop{}, events.Nop{}, logger)
	store := monetizationstore.NewStore(db)

	createUser := func(telegramID int64, role user.Role, coins int64) *user.User {
		usr, err := users.CreateUser(ctx, &user.User{
			TelegramID:   telegramID,
			FirstName:    "user",
			Role:         role,
			ReferralCode: fmt.Sprintf("GIFT%d", telegramID),
		})
		require.NoError(t, err)
		if coins > 0 {
			_, err = l.Credit(ctx, ledger.Entry{UserID: usr.ID, Amount: coins, Type: ledger.TypePurchase, Description: "seed"})
			require.NoError(t, err)
		}
		return usr
	}
	sender := createUser(6001, user.RoleRegular, 500)
	recipient := createUser(6002, user.RolePerformer, 0)

	gifts, err := store.ListGifts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, gifts)

	cfg := Config{GiftFeePercent: 20, SubscriptionFeePercent: 20, SubscriptionPricePerDay: 50, MaxSubscriptionDays: 365}
	svc := NewService(failingGiftStore{Store: store}, users, l, tx, cfg, logger)

	_, err = svc.SendGift(ctx, sender.ID, &monetization.SendGiftRequest{GiftID: gifts[0].ID, RecipientID: recipient.ID})
	require.Error(t, err)

	for _, tt := range []struct {
		userID  int64
		balance int64
		txs     int
	}{
		{sender.ID, 500, 1},
		{recipient.ID, 0, 0},
	} {
		usr, err := users.GetUser(ctx, userstore.WithID(tt.userID))
		require.NoError(t, err)
		assert.Equal(t, tt.balance, usr.Coins)

		txs, err := l.ListTransactions(ctx, tt.userID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, txs, tt.txs)
	}

	drift, err := ledgerStore.FindDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)
}
