package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
)

const serviceName = "MonetizationService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the monetization Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) ListGifts(ctx context.Context) (gifts []*monetization.Gift, err error) {
	defer ls.onError("ListGifts", time.Now(), &err)
	return ls.svc.ListGifts(ctx)
}

// SendGift wraps the service method with logging
func (ls *logService) SendGift(ctx context.Context, senderID int64, req *monetization.SendGiftRequest) (resp *monetization.SendGiftResponse, err error) {
	start := time.Now()
	ls.started("SendGift",
		zap.Int64("sender_id", senderID),
		zap.Int64("recipient_id", req.RecipientID),
		zap.Int64("gift_id", req.GiftID),
	)

	defer func() {
		if err != nil {
			ls.failed("SendGift", err,
				zap.Int64("sender_id", senderID),
				zap.Int64("gift_id", req.GiftID),
				zap.Duration("duration", time.Since(start)),
			)
			return
		}
		ls.completed("SendGift",
			zap.Int64("gift_transaction_id", resp.Gift.ID),
			zap.Int64("price", resp.Gift.Price),
			zap.Int64("recipient_earnings", resp.Gift.RecipientEarnings),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.SendGift(ctx, senderID, req)
}

// Subscribe wraps the service method with logging
func (ls *logService) Subscribe(ctx context.Context, subscriberID int64, req *monetization.SubscribeRequest) (resp *monetization.SubscribeResponse, err error) {
	start := time.Now()
	ls.started("Subscribe",
		zap.Int64("subscriber_id", subscriberID),
		zap.Int64("performer_id", req.PerformerID),
		zap.Int("duration_days", req.DurationDays),
	)

	defer func() {
		if err != nil {
			ls.failed("Subscribe", err,
				zap.Int64("subscriber_id", subscriberID),
				zap.Int64("performer_id", req.PerformerID),
				zap.Duration("duration", time.Since(start)),
			)
			return
		}
		ls.completed("Subscribe",
			zap.Int64("subscription_id", resp.Subscription.ID),
			zap.Time("end_date", resp.Subscription.EndDate),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.Subscribe(ctx, subscriberID, req)
}

func (ls *logService) ListSubscriptions(ctx context.Context, subscriberID int64) (subs []*monetization.Subscription, err error) {
	defer ls.onError("ListSubscriptions", time.Now(), &err, zap.Int64("subscriber_id", subscriberID))
	return ls.svc.ListSubscriptions(ctx, subscriberID)
}

func (ls *logService) ListLootboxes(ctx context.Context) (boxes []*monetization.Lootbox, err error) {
	defer ls.onError("ListLootboxes", time.Now(), &err)
	return ls.svc.ListLootboxes(ctx)
}

// OpenLootbox wraps the service method with logging
func (ls *logService) OpenLootbox(ctx context.Context, userID int64, req *monetization.OpenLootboxRequest) (result *monetization.LootboxResult, err error) {
	start := time.Now()
	ls.started("OpenLootbox",
		zap.Int64("user_id", userID),
		zap.Int64("lootbox_id", req.LootboxID),
	)

	defer func() {
		if err != nil {
			ls.failed("OpenLootbox", err,
				zap.Int64("user_id", userID),
				zap.Int64("lootbox_id", req.LootboxID),
				zap.Duration("duration", time.Since(start)),
			)
			return
		}
		ls.completed("OpenLootbox",
			zap.Int64("user_id", userID),
			zap.String("reward_type", string(result.Type)),
			zap.Int64("reward_value", result.Value),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.OpenLootbox(ctx, userID, req)
}

func (ls *logService) ListBoosts(ctx context.Context, userID int64) (boosts []*monetization.Boost, err error) {
	defer ls.onError("ListBoosts", time.Now(), &err, zap.Int64("user_id", userID))
	return ls.svc.ListBoosts(ctx, userID)
}

func (ls *logService) ListTasks(ctx context.Context, userID int64) (tasks []*monetization.UserTask, err error) {
	defer ls.onError("ListTasks", time.Now(), &err, zap.Int64("user_id", userID))
	return ls.svc.ListTasks(ctx, userID)
}

func (ls *logService) TrackProgress(ctx context.Context, userID int64, action string, delta int) (err error) {
	defer ls.onError("TrackProgress", time.Now(), &err,
		zap.Int64("user_id", userID),
		zap.String("action", action),
	)
	return ls.svc.TrackProgress(ctx, userID, action, delta)
}

// ClaimTaskReward wraps the service method with logging
func (ls *logService) ClaimTaskReward(ctx context.Context, userID, taskID int64) (result *monetization.ClaimResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.failed("ClaimTaskReward", err,
				zap.Int64("user_id", userID),
				zap.Int64("task_id", taskID),
				zap.Duration("duration", time.Since(start)),
			)
			return
		}
		ls.completed("ClaimTaskReward",
			zap.Int64("user_id", userID),
			zap.Int64("task_id", taskID),
			zap.String("reward_type", string(result.RewardType)),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.ClaimTaskReward(ctx, userID, taskID)
}

func (ls *logService) started(method string, fields ...zap.Field) {
	ls.logger.Info(method+" started", append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
	}, fields...)...)
}

func (ls *logService) completed(method string, fields ...zap.Field) {
	ls.logger.Info(method+" completed", append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
	}, fields...)...)
}

func (ls *logService) onError(method string, start time.Time, errp *error, fields ...zap.Field) {
	if *errp != nil {
		ls.failed(method, *errp, append(fields, zap.Duration("duration", time.Since(start)))...)
	}
}

// failed logs client-caused failures at Warn and infrastructure failures at Error.
func (ls *logService) failed(method string, err error, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
	}, fields...)
	fields = append(fields, zap.Error(err))

	if apperrors.IsInternalError(err) {
		ls.logger.Error(method+" failed", fields...)
		return
	}
	ls.logger.Warn(method+" failed", fields...)
}
