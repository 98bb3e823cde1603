package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/monetization"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

var (
	ErrUnknownPackage = errors.New("unknown coin package")
	ErrNotAdmin       = errors.New("admin role required")
)

// Ledger is the subset of the coin ledger used by the coins API.
type Ledger interface {
	Credit(ctx context.Context, entry ledger.Entry) (*ledger.Result, error)
	Debit(ctx context.Context, entry ledger.Entry) (*ledger.Result, error)
	ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*ledger.Transaction, error)
}

// UserStore loads the accounts a coin operation touches.
type UserStore interface {
	GetUser(ctx context.Context, opts ...userstore.QueryOption) (*user.User, error)
}

// TaskTracker advances task progress for user actions.
type TaskTracker interface {
	TrackProgress(ctx context.Context, userID int64, action string, delta int) error
}

// Service defines the interface for coin purchases, history and admin corrections
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	ListPackages(ctx context.Context) []ledger.CoinPackage
	Purchase(ctx context.Context, userID int64, req *ledger.PurchaseRequest) (*ledger.PurchaseResponse, error)
	ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*ledger.Transaction, error)
	AdjustCoins(ctx context.Context, adminID, targetID int64, req *ledger.AdjustCoinsRequest) (*user.User, error)
}

// Config holds the purchasable packages and amount limits.
type Config struct {
	Packages          []ledger.CoinPackage
	MaxPurchaseAmount int64
	MaxAdjustAmount   int64
}

type coinService struct {
	ledger Ledger
	users  UserStore
	tasks  TaskTracker
	cfg    Config
	logger *zap.Logger
}

// NewService creates a new coins service
func NewService(l Ledger, users UserStore, tasks TaskTracker, cfg Config, logger *zap.Logger) Service {
	return &coinService{
		ledger: l,
		users:  users,
		tasks:  tasks,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *coinService) ListPackages(context.Context) []ledger.CoinPackage {
	return s.cfg.Packages
}

// Purchase credits coins for a simulated payment. No payment provider is contacted.
func (s *coinService) Purchase(ctx context.Context, userID int64, req *ledger.PurchaseRequest) (*ledger.PurchaseResponse, error) {
	amount, description, err := s.resolvePurchase(req)
	if err != nil {
		return nil, err
	}

	usr, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res, err := s.ledger.Credit(ctx, ledger.Entry{
		UserID:      userID,
		Amount:      amount,
		Type:        ledger.TypePurchase,
		Description: description,
	})
	if err != nil {
		return nil, ledger.ToServiceError(err)
	}
	usr.Coins = res.Balance

	s.track(ctx, userID, monetization.ActionPurchaseCoin)

	return &ledger.PurchaseResponse{
		Success: true,
		User:    usr,
		Message: fmt.Sprintf("Successfully purchased %d coins", amount),
	}, nil
}

func (s *coinService) resolvePurchase(req *ledger.PurchaseRequest) (int64, string, error) {
	if req.PackageID != "" {
		for _, p := range s.cfg.Packages {
			if p.ID == req.PackageID {
				return p.Coins, fmt.Sprintf("Purchased %s package (%d coins)", p.ID, p.Coins), nil
			}
		}
		return 0, "", apperrors.ResourceNotFoundError(ErrUnknownPackage, "unknown coin package")
	}
	if req.Amount <= 0 || req.Amount > s.cfg.MaxPurchaseAmount {
		return 0, "", apperrors.BadRequestError(ledger.ErrInvalidAmount, "invalid amount")
	}
	return req.Amount, fmt.Sprintf("Purchased %d coins", req.Amount), nil
}

// ListTransactions returns the caller's ledger history, newest first.
func (s *coinService) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*ledger.Transaction, error) {
	txs, err := s.ledger.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if txs == nil {
		txs = []*ledger.Transaction{}
	}
	return txs, nil
}

// AdjustCoins applies an admin correction to targetID's balance. Positive amounts
// are recorded as earnings, negative amounts as spend and never overdraw.
func (s *coinService) AdjustCoins(ctx context.Context, adminID, targetID int64, req *ledger.AdjustCoinsRequest) (*user.User, error) {
	admin, err := s.users.GetUser(ctx, userstore.WithID(adminID))
	if err != nil && !errors.Is(err, userstore.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if admin == nil || admin.Role != user.RoleAdmin {
		return nil, apperrors.ForbiddenError(ErrNotAdmin, "admin role required")
	}
	if req.Amount == 0 || req.Amount > s.cfg.MaxAdjustAmount || req.Amount < -s.cfg.MaxAdjustAmount {
		return nil, apperrors.BadRequestError(ledger.ErrInvalidAmount, "invalid amount")
	}

	target, err := s.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	description := "Admin adjustment"
	if req.Reason != "" {
		description += ": " + req.Reason
	}
	entry := ledger.Entry{
		UserID:        targetID,
		Type:          ledger.TypeEarn,
		Description:   description,
		RelatedUserID: ledger.Related(adminID),
	}

	var res *ledger.Result
	if req.Amount > 0 {
		entry.Amount = req.Amount
		res, err = s.ledger.Credit(ctx, entry)
	} else {
		entry.Amount = -req.Amount
		res, err = s.ledger.Debit(ctx, entry)
	}
	if err != nil {
		if insufficient, ok := ledger.AsInsufficientFunds(err); ok {
			return nil, apperrors.InsufficientFundsError(err, "insufficient balance", insufficient.Required, insufficient.Available)
		}
		return nil, ledger.ToServiceError(err)
	}

	target.Coins = res.Balance
	return target, nil
}

func (s *coinService) getUser(ctx context.Context, userID int64) (*user.User, error) {
	usr, err := s.users.GetUser(ctx, userstore.WithID(userID))
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return usr, nil
}

// track advances purchase tasks. Failures are logged and never undo the purchase.
func (s *coinService) track(ctx context.Context, userID int64, action string) {
	if s.tasks == nil {
		return
	}
	if err := s.tasks.TrackProgress(ctx, userID, action, 1); err != nil {
		s.logger.Warn("failed to track task progress",
			zap.Int64("user_id", userID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
