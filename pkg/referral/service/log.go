package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/referral"
)

const serviceName = "ReferralService"

type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the referral Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) AwardBonus(ctx context.Context, referrerID, referredID int64) (bonus *referral.Bonus, err error) {
	start := time.Now()
	defer func() {
		ls.done("AwardBonus", start, err,
			zap.Int64("referrer_id", referrerID),
			zap.Int64("referred_id", referredID),
		)
	}()
	return ls.svc.AwardBonus(ctx, referrerID, referredID)
}

func (ls *logService) ApplyCode(ctx context.Context, userID int64, code string) (bonus *referral.Bonus, err error) {
	start := time.Now()
	ls.logger.Info("ApplyCode started",
		zap.String("service", serviceName),
		zap.String("method", "ApplyCode"),
		zap.Int64("user_id", userID),
	)
	defer func() {
		fields := []zap.Field{zap.Int64("user_id", userID)}
		if bonus != nil {
			fields = append(fields, zap.Int64("referrer_id", bonus.ReferrerID), zap.Int64("amount", bonus.Amount))
		}
		ls.done("ApplyCode", start, err, fields...)
	}()
	return ls.svc.ApplyCode(ctx, userID, code)
}

func (ls *logService) Stats(ctx context.Context, userID int64) (stats *referral.Stats, err error) {
	defer func(start time.Time) {
		if err != nil {
			ls.done("Stats", start, err, zap.Int64("user_id", userID))
		}
	}(time.Now())
	return ls.svc.Stats(ctx, userID)
}

func (ls *logService) done(method string, start time.Time, err error, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
	}, fields...)
	fields = append(fields, zap.Duration("duration", time.Since(start)))

	switch {
	case err == nil:
		ls.logger.Info(method+" completed", fields...)
	case apperrors.IsInternalError(err):
		ls.logger.Error(method+" failed", append(fields, zap.Error(err))...)
	default:
		ls.logger.Warn(method+" failed", append(fields, zap.Error(err))...)
	}
}
