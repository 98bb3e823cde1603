package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/onurmutlu/flirtmarket/internal/metrics"
	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/ledger"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	"github.com/onurmutlu/flirtmarket/pkg/referral"
	"github.com/onurmutlu/flirtmarket/pkg/referralstore"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

var ErrSelfReferral = errors.New("users cannot refer themselves")

// Store persists referral bonuses.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	InsertBonus(ctx context.Context, referrerID, referredID, amount int64) (*referral.Bonus, error)
	SetBonusTransaction(ctx context.Context, bonusID, transactionID int64) error
	Summary(ctx context.Context, referrerID int64) (int, int64, error)
}

// UserStore resolves referral codes and records who referred whom.
type UserStore interface {
	GetUser(ctx context.Context, opts ...userstore.QueryOption) (*user.User, error)
	SetReferredBy(ctx context.Context, userID, referrerID int64) error
}

// Crediter is the ledger primitive used to pay bonuses.
type Crediter interface {
	Credit(ctx context.Context, entry ledger.Entry) (*ledger.Result, error)
}

// Service defines the referral business logic
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	AwardBonus(ctx context.Context, referrerID, referredID int64) (*referral.Bonus, error)
	ApplyCode(ctx context.Context, userID int64, code string) (*referral.Bonus, error)
	Stats(ctx context.Context, userID int64) (*referral.Stats, error)
}

type referralService struct {
	store  Store
	users  UserStore
	ledger Crediter
	tx     pgutil.Transactor
	bonus  int64
	logger *zap.Logger
}

// NewService creates a new referral service paying bonus coins per referred user
func NewService(store Store, users UserStore, l Crediter, tx pgutil.Transactor, bonus int64, logger *zap.Logger) Service {
	return &referralService{
		store:  store,
		users:  users,
		ledger: l,
		tx:     tx,
		bonus:  bonus,
		logger: logger,
	}
}

// AwardBonus pays the referrer once per referred user. The bonus row and the
// credit commit together; a repeated award fails with a conflict and pays nothing.
func (s *referralService) AwardBonus(ctx context.Context, referrerID, referredID int64) (*referral.Bonus, error) {
	if referrerID == referredID {
		return nil, apperrors.BadRequestError(ErrSelfReferral, "cannot refer yourself")
	}

	referred, err := s.getUser(ctx, referredID)
	if err != nil {
		return nil, err
	}

	var bonus *referral.Bonus
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		bonus, err = s.store.InsertBonus(ctx, referrerID, referredID, s.bonus)
		if err != nil {
			return err
		}

		res, err := s.ledger.Credit(ctx, ledger.Entry{
			UserID:        referrerID,
			Amount:        s.bonus,
			Type:          ledger.TypeReferral,
			Description:   "Referral bonus for " + referred.DisplayName(),
			RelatedUserID: ledger.Related(referredID),
		})
		if err != nil {
			return err
		}

		bonus.TransactionID = &res.Transaction.ID
		return s.store.SetBonusTransaction(ctx, bonus.ID, res.Transaction.ID)
	})
	if err != nil {
		if errors.Is(err, referralstore.ErrAlreadyAwarded) {
			return nil, apperrors.ConflictError(err, "referral bonus already awarded")
		}
		return nil, ledger.ToServiceError(err)
	}

	metrics.MonetizationEventsTotal.WithLabelValues("referral_bonus").Inc()
	return bonus, nil
}

// ApplyCode links userID to the owner of code and pays the owner's bonus.
// A user can be referred only once.
func (s *referralService) ApplyCode(ctx context.Context, userID int64, code string) (*referral.Bonus, error) {
	referrer, err := s.users.GetUser(ctx, userstore.WithReferralCode(code))
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "invalid referral code")
		}
		return nil, fmt.Errorf("failed to resolve referral code: %w", err)
	}
	if referrer.ID == userID {
		return nil, apperrors.BadRequestError(ErrSelfReferral, "cannot refer yourself")
	}

	var bonus *referral.Bonus
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.SetReferredBy(ctx, userID, referrer.ID); err != nil {
			return err
		}
		bonus, err = s.AwardBonus(ctx, referrer.ID, userID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrAlreadyReferred):
			return nil, apperrors.ConflictError(err, "referral code already applied")
		case errors.Is(err, userstore.ErrUserNotFound):
			return nil, apperrors.ResourceNotFoundError(err, "user not found")
		}
		return nil, err
	}
	return bonus, nil
}

func (s *referralService) Stats(ctx context.Context, userID int64) (*referral.Stats, error) {
	usr, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, earned, err := s.store.Summary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load referral stats: %w", err)
	}

	return &referral.Stats{
		ReferralCode: usr.ReferralCode,
		Referred:     count,
		CoinsEarned:  earned,
	}, nil
}

func (s *referralService) getUser(ctx context.Context, id int64) (*user.User, error) {
	usr, err := s.users.GetUser(ctx, userstore.WithID(id))
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return usr, nil
}
