package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/user"
)

const serviceName = "CoinService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the coins Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) ListPackages(ctx context.Context) []ledger.CoinPackage {
	return ls.svc.ListPackages(ctx)
}

// Purchase wraps the service method with logging
func (ls *logService) Purchase(ctx context.Context, userID int64, req *ledger.PurchaseRequest) (resp *ledger.PurchaseResponse, err error) {
	start := time.Now()

	ls.logger.Info("Purchase started",
		zap.String("service", serviceName),
		zap.String("method", "Purchase"),
		zap.Int64("user_id", userID),
		zap.String("package_id", req.PackageID),
		zap.Int64("amount", req.Amount),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.failed("Purchase", err, zap.Int64("user_id", userID), zap.Duration("duration", duration))
			return
		}
		ls.logger.Info("Purchase completed",
			zap.String("service", serviceName),
			zap.String("method", "Purchase"),
			zap.Int64("user_id", userID),
			zap.Int64("balance", resp.User.Coins),
			zap.Duration("duration", duration),
		)
	}()

	return ls.svc.Purchase(ctx, userID, req)
}

func (ls *logService) ListTransactions(ctx context.Context, userID int64, limit, offset int) (txs []*ledger.Transaction, err error) {
	defer func(start time.Time) {
		if err != nil {
			ls.failed("ListTransactions", err, zap.Int64("user_id", userID), zap.Duration("duration", time.Since(start)))
		}
	}(time.Now())
	return ls.svc.ListTransactions(ctx, userID, limit, offset)
}

// AdjustCoins wraps the service method with logging
func (ls *logService) AdjustCoins(ctx context.Context, adminID, targetID int64, req *ledger.AdjustCoinsRequest) (usr *user.User, err error) {
	start := time.Now()

	ls.logger.Info("AdjustCoins started",
		zap.String("service", serviceName),
		zap.String("method", "AdjustCoins"),
		zap.Int64("admin_id", adminID),
		zap.Int64("target_id", targetID),
		zap.Int64("amount", req.Amount),
		zap.String("reason", req.Reason),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.failed("AdjustCoins", err,
				zap.Int64("admin_id", adminID),
				zap.Int64("target_id", targetID),
				zap.Duration("duration", duration),
			)
			return
		}
		ls.logger.Info("AdjustCoins completed",
			zap.String("service", serviceName),
			zap.String("method", "AdjustCoins"),
			zap.Int64("admin_id", adminID),
			zap.Int64("target_id", targetID),
			zap.Int64("balance", usr.Coins),
			zap.Duration("duration", duration),
		)
	}()

	return ls.svc.AdjustCoins(ctx, adminID, targetID, req)
}

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
