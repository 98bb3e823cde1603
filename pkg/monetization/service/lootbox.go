package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onurmutlu/flirtmarket/internal/metrics"
	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/monetizationstore"
)

const (
	boostKindVisibility = "visibility"
	defaultBoostHours   = 24
)

func (s *monetizationService) ListLootboxes(ctx context.Context) ([]*monetization.Lootbox, error) {
	return s.store.ListLootboxes(ctx)
}

func (s *monetizationService) ListBoosts(ctx context.Context, userID int64) ([]*monetization.Boost, error) {
	return s.store.ListActiveBoosts(ctx, userID, s.now().UTC())
}

// OpenLootbox charges the box price, rolls a reward and applies it. Free boxes
// are limited to one opening per user per UTC day. Nothing persists unless the
// payment and the reward both succeed.
func (s *monetizationService) OpenLootbox(ctx context.Context, userID int64, req *monetization.OpenLootboxRequest) (*monetization.LootboxResult, error) {
	box, err := s.store.GetLootbox(ctx, req.LootboxID)
	if err != nil {
		if errors.Is(err, monetizationstore.ErrLootboxNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "lootbox not found")
		}
		return nil, fmt.Errorf("failed to load lootbox: %w", err)
	}
	if !box.Active {
		return nil, apperrors.ResourceNotFoundError(monetizationstore.ErrLootboxNotFound, "lootbox not found")
	}

	rewards, err := s.store.ListRewards(ctx, box.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lootbox rewards: %w", err)
	}
	reward, err := monetization.PickReward(rewards, s.rnd)
	if err != nil {
		return nil, apperrors.ResourceNotFoundError(err, "lootbox has no rewards")
	}

	now := s.now().UTC()
	result := &monetization.LootboxResult{
		Type:        reward.Type,
		Value:       reward.Value,
		Description: reward.Description,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		opening := &monetization.LootboxOpening{
			UserID:    userID,
			LootboxID: box.ID,
			RewardID:  reward.ID,
		}

		if box.Free || box.Price <= 0 {
			day := monetization.UTCDay(now)
			opening.FreeDay = &day
		} else {
			spend, err := s.ledger.Debit(ctx, ledger.Entry{
				UserID:      userID,
				Amount:      box.Price,
				Description: "Lootbox " + box.Name,
			})
			if err != nil {
				return err
			}
			opening.TransactionID = &spend.Transaction.ID
			result.UpdatedCoins = &spend.Balance
		}

		if _, err := s.store.InsertOpening(ctx, opening); err != nil {
			return err
		}
		return s.applyReward(ctx, userID, box, reward, now, result)
	})
	if err != nil {
		if errors.Is(err, monetizationstore.ErrDailyFreeUsed) {
			return nil, apperrors.BadRequestError(err, "daily free lootbox already opened")
		}
		return nil, ledger.ToServiceError(err)
	}

	metrics.MonetizationEventsTotal.WithLabelValues("lootbox_" + string(reward.Type)).Inc()
	s.trackProgress(ctx, userID, monetization.ActionOpenLootbox)
	return result, nil
}

func (s *monetizationService) applyReward(
	ctx context.Context,
	userID int64,
	box *monetization.Lootbox,
	reward *monetization.LootboxReward,
	now time.Time,
	result *monetization.LootboxResult,
) error {
	switch reward.Type {
	case monetization.RewardCoins:
		if reward.Value <= 0 {
			return nil
		}
		res, err := s.ledger.Credit(ctx, ledger.Entry{
			UserID:      userID,
			Amount:      reward.Value,
			Type:        ledger.TypeEarn,
			Description: "Lootbox reward from " + box.Name,
		})
		if err != nil {
			return err
		}
		result.UpdatedCoins = &res.Balance
		return nil

	case monetization.RewardBoost:
		hours := reward.DurationHours
		if hours <= 0 {
			hours = defaultBoostHours
		}
		boost, err := s.store.InsertBoost(ctx, &monetization.Boost{
			UserID:    userID,
			Kind:      boostKindVisibility,
			Value:     reward.Value,
			Source:    "lootbox",
			ExpiresAt: now.Add(time.Duration(hours) * time.Hour),
		})
		if err != nil {
			return err
		}
		result.Boost = boost
		return nil

	case monetization.RewardTaskProgress:
		if reward.Value <= 0 {
			return nil
		}
		if reward.TaskID == nil {
			return s.advanceTasks(ctx, userID, monetization.ActionOpenLootbox, int(reward.Value))
		}
		task, err := s.store.GetTask(ctx, *reward.TaskID)
		if err != nil {
			return err
		}
		_, err = s.store.AddProgress(ctx, userID, task, int(reward.Value))
		return err

	case monetization.RewardDiscount:
		// reported to the client only
		return nil
	}
	return fmt.Errorf("unknown reward type %q", reward.Type)
}
