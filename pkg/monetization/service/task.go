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

func (s *monetizationService) ListTasks(ctx context.Context, userID int64) ([]*monetization.UserTask, error) {
	return s.store.ListTasksWithProgress(ctx, userID)
}

// TrackProgress advances every active task bound to action by delta.
func (s *monetizationService) TrackProgress(ctx context.Context, userID int64, action string, delta int) error {
	if delta <= 0 {
		return nil
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.advanceTasks(ctx, userID, action, delta)
	})
}

func (s *monetizationService) advanceTasks(ctx context.Context, userID int64, action string, delta int) error {
	tasks, err := s.store.ListActiveTasksByAction(ctx, action)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if _, err := s.store.AddProgress(ctx, userID, task, delta); err != nil {
			return fmt.Errorf("task %d: %w", task.ID, err)
		}
	}
	return nil
}

// ClaimTaskReward pays out a completed task once. The claim flag and the payout
// commit together, so a failed payout leaves the task claimable.
func (s *monetizationService) ClaimTaskReward(ctx context.Context, userID, taskID int64) (*monetization.ClaimResult, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, monetizationstore.ErrTaskNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "task not found")
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	result := &monetization.ClaimResult{
		Claimed:     true,
		RewardType:  task.RewardType,
		RewardValue: task.RewardValue,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.ClaimReward(ctx, userID, task.ID); err != nil {
			return err
		}

		switch task.RewardType {
		case monetization.TaskRewardCoins:
			res, err := s.ledger.Credit(ctx, ledger.Entry{
				UserID:      userID,
				Amount:      task.RewardValue,
				Type:        ledger.TypeEarn,
				Description: "Task reward: " + task.Title,
			})
			if err != nil {
				return err
			}
			result.UpdatedCoins = &res.Balance
			return nil

		case monetization.TaskRewardBoost:
			hours := task.RewardDurationHours
			if hours <= 0 {
				hours = defaultBoostHours
			}
			result.Boost, err = s.store.InsertBoost(ctx, &monetization.Boost{
				UserID:    userID,
				Kind:      boostKindVisibility,
				Value:     task.RewardValue,
				Source:    "task",
				ExpiresAt: s.now().UTC().Add(time.Duration(hours) * time.Hour),
			})
			return err
		}
		return fmt.Errorf("unknown task reward type %q", task.RewardType)
	})
	if err != nil {
		if errors.Is(err, monetizationstore.ErrNotClaimable) {
			return nil, apperrors.BadRequestError(err, "not eligible")
		}
		return nil, ledger.ToServiceError(err)
	}

	metrics.MonetizationEventsTotal.WithLabelValues("task_reward").Inc()
	return result, nil
}
