package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/user"
)

const serviceName = "UserService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the users Service.
// Cached reads are only logged when they fail.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) GetUser(ctx context.Context, userID int64) (usr *user.User, err error) {
	defer func(start time.Time) {
		if err != nil {
			ls.failed("GetUser", err, zap.Int64("user_id", userID), zap.Duration("duration", time.Since(start)))
		}
	}(time.Now())
	return ls.svc.GetUser(ctx, userID)
}

func (ls *logService) ListPerformers(ctx context.Context, limit, offset int) (performers []*user.User, err error) {
	defer func(start time.Time) {
		if err != nil {
			ls.failed("ListPerformers", err,
				zap.Int("limit", limit),
				zap.Int("offset", offset),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}(time.Now())
	return ls.svc.ListPerformers(ctx, limit, offset)
}

// UpdateMessagePrice wraps the service method with logging
func (ls *logService) UpdateMessagePrice(ctx context.Context, userID, price int64) (usr *user.User, err error) {
	start := time.Now()

	ls.logger.Info("UpdateMessagePrice started",
		zap.String("service", serviceName),
		zap.String("method", "UpdateMessagePrice"),
		zap.Int64("user_id", userID),
		zap.Int64("price", price),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.failed("UpdateMessagePrice", err, zap.Int64("user_id", userID), zap.Duration("duration", duration))
			return
		}
		ls.logger.Info("UpdateMessagePrice completed",
			zap.String("service", serviceName),
			zap.String("method", "UpdateMessagePrice"),
			zap.Int64("user_id", userID),
			zap.Duration("duration", duration),
		)
	}()

	return ls.svc.UpdateMessagePrice(ctx, userID, price)
}

// CreateUser wraps the service method with logging
func (ls *logService) CreateUser(ctx context.Context, adminID int64, req *user.CreateRequest) (usr *user.User, err error) {
	start := time.Now()

	ls.logger.Info("CreateUser started",
		zap.String("service", serviceName),
		zap.String("method", "CreateUser"),
		zap.Int64("admin_id", adminID),
		zap.Int64("telegram_id", req.TelegramID),
		zap.String("role", string(req.Role)),
		zap.Bool("has_referrer_code", req.ReferrerCode != ""),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.failed("CreateUser", err,
				zap.Int64("admin_id", adminID),
				zap.Int64("telegram_id", req.TelegramID),
				zap.Duration("duration", duration),
			)
			return
		}
		ls.logger.Info("CreateUser completed",
			zap.String("service", serviceName),
			zap.String("method", "CreateUser"),
			zap.Int64("user_id", usr.ID),
			zap.String("referral_code", usr.ReferralCode),
			zap.Duration("duration", duration),
		)
	}()

	return ls.svc.CreateUser(ctx, adminID, req)
}

// failed logs expected domain rejections at Warn and everything else at Error.
func (ls *logService) failed(method string, err error, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Error(err),
	}, fields...)
	if apperrors.IsInternalError(err) {
		ls.logger.Error(method+" failed", fields...)
		return
	}
	ls.logger.Warn(method+" failed", fields...)
}
