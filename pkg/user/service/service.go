package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/cache"
	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	"github.com/onurmutlu/flirtmarket/pkg/referral"
	"github.com/onurmutlu/flirtmarket/pkg/user"
	"github.com/onurmutlu/flirtmarket/pkg/userstore"
)

// referralCodeLength is the number of hex characters taken from a random uuid.
const referralCodeLength = 10

var (
	ErrNotPerformer = errors.New("only performers can set a message price")
	ErrNotAdmin     = errors.New("admin role required")
)

// Store is the narrow data-access interface for the users service.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	CreateUser(ctx context.Context, usr *user.User) (*user.User, error)
	GetUser(ctx context.Context, opts ...userstore.QueryOption) (*user.User, error)
	ListByRole(ctx context.Context, role user.Role, limit, offset int) ([]*user.User, error)
	UpdateMessagePrice(ctx context.Context, userID, price int64) error
}

// Referrals links a new account to the owner of a referral code.
type Referrals interface {
	ApplyCode(ctx context.Context, userID int64, code string) (*referral.Bonus, error)
}

// Service defines the interface for account profiles
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	GetUser(ctx context.Context, userID int64) (*user.User, error)
	ListPerformers(ctx context.Context, limit, offset int) ([]*user.User, error)
	UpdateMessagePrice(ctx context.Context, userID, price int64) (*user.User, error)
	CreateUser(ctx context.Context, adminID int64, req *user.CreateRequest) (*user.User, error)
}

// Config holds cache lifetimes for profile reads.
type Config struct {
	UserTTL       time.Duration
	PerformersTTL time.Duration
}

type userService struct {
	store     Store
	referrals Referrals
	tx        pgutil.Transactor
	cache     cache.Cache
	cfg       Config
	logger    *zap.Logger
}

// NewService creates a new users service
func NewService(
	store Store,
	referrals Referrals,
	tx pgutil.Transactor,
	c cache.Cache,
	cfg Config,
	logger *zap.Logger,
) Service {
	return &userService{
		store:     store,
		referrals: referrals,
		tx:        tx,
		cache:     c,
		cfg:       cfg,
		logger:    logger,
	}
}

// GetUser returns a profile, served from the cache when fresh.
func (s *userService) GetUser(ctx context.Context, userID int64) (*user.User, error) {
	usr, err := cache.Load(ctx, s.cache, cache.UserKey(userID), s.cfg.UserTTL, func(ctx context.Context) (*user.User, error) {
		return s.store.GetUser(ctx, userstore.WithID(userID))
	})
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return usr, nil
}

// ListPerformers returns one page of performer profiles.
func (s *userService) ListPerformers(ctx context.Context, limit, offset int) ([]*user.User, error) {
	performers, err := cache.Load(ctx, s.cache, cache.PerformersKey(limit, offset), s.cfg.PerformersTTL, func(ctx context.Context) ([]*user.User, error) {
		return s.store.ListByRole(ctx, user.RolePerformer, limit, offset)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list performers: %w", err)
	}
	if performers == nil {
		performers = []*user.User{}
	}
	return performers, nil
}

// UpdateMessagePrice sets the price regular users pay to message a performer.
func (s *userService) UpdateMessagePrice(ctx context.Context, userID, price int64) (*user.User, error) {
	if price <= 0 {
		return nil, apperrors.BadRequestError(nil, "message price must be positive")
	}

	usr, err := s.store.GetUser(ctx, userstore.WithID(userID))
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if usr.Role != user.RolePerformer {
		return nil, apperrors.ForbiddenError(ErrNotPerformer, "only performers can set a message price")
	}

	if err := s.store.UpdateMessagePrice(ctx, userID, price); err != nil {
		return nil, fmt.Errorf("failed to update message price: %w", err)
	}
	s.invalidate(ctx, userID)

	usr.MessagePrice = &price
	return usr, nil
}

// CreateUser registers an account on behalf of an admin. When a referrer code is
// given, the referral link and the referrer's bonus commit with the account.
func (s *userService) CreateUser(ctx context.Context, adminID int64, req *user.CreateRequest) (*user.User, error) {
	admin, err := s.store.GetUser(ctx, userstore.WithID(adminID))
	if err != nil && !errors.Is(err, userstore.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if admin == nil || admin.Role != user.RoleAdmin {
		return nil, apperrors.ForbiddenError(ErrNotAdmin, "admin role required")
	}
	if !req.Role.Valid() {
		return nil, apperrors.BadRequestError(nil, "invalid role")
	}

	newUser := &user.User{
		TelegramID:   req.TelegramID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Role:         req.Role,
		ReferralCode: newReferralCode(),
	}
	if req.Role == user.RolePerformer {
		newUser.MessagePrice = req.MessagePrice
	}

	var created *user.User
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.store.CreateUser(ctx, newUser)
		if err != nil {
			return err
		}
		if req.ReferrerCode == "" {
			return nil
		}
		if _, err = s.referrals.ApplyCode(ctx, created.ID, req.ReferrerCode); err != nil {
			return err
		}
		created, err = s.store.GetUser(ctx, userstore.WithID(created.ID))
		return err
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateUser) {
			return nil, apperrors.ConflictError(err, "user already exists")
		}
		var svcErr *apperrors.ServiceError
		if errors.As(err, &svcErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if created.Role == user.RolePerformer {
		if err := s.cache.DeletePrefix(ctx, cache.PerformersPrefix); err != nil {
			s.logger.Warn("failed to invalidate performers cache", zap.Error(err))
		}
	}
	return created, nil
}

func (s *userService) invalidate(ctx context.Context, userID int64) {
	if err := s.cache.Delete(ctx, cache.UserKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate user cache", zap.Int64("user_id", userID), zap.Error(err))
	}
	if err := s.cache.DeletePrefix(ctx, cache.PerformersPrefix); err != nil {
		s.logger.Warn("failed to invalidate performers cache", zap.Error(err))
	}
}

func newReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:referralCodeLength])
}
