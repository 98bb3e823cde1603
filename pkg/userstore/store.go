package userstore

import (
	"context"
	"errors"

	"github.com/onurmutlu/flirtmarket/pkg/user"
)

var (
	// ErrUserNotFound is returned when a user lookup finds no matching record.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when telegram id, username or referral code is taken.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrAlreadyReferred is returned when referred_by is already set.
	ErrAlreadyReferred = errors.New("user already has a referrer")
)

// Store defines user persistence. Balances are read here but only written by the ledger.
type Store interface {
	CreateUser(ctx context.Context, usr *user.User) (*user.User, error)
	GetUser(ctx context.Context, opts ...QueryOption) (*user.User, error)
	ListByRole(ctx context.Context, role user.Role, limit, offset int) ([]*user.User, error)
	UpdateMessagePrice(ctx context.Context, userID, price int64) error
	SetReferredBy(ctx context.Context, userID, referrerID int64) error
}

// QueryOptions defines options for querying users
type QueryOptions struct {
	ID           *int64
	TelegramID   *int64
	ReferralCode *string
	ForUpdate    bool
}

// QueryOption is a functional option for querying users
type QueryOption func(*QueryOptions)

// WithID filters by primary key
func WithID(id int64) QueryOption {
	return func(opts *QueryOptions) {
		opts.ID = &id
	}
}

// WithTelegramID filters by the messaging platform id
func WithTelegramID(telegramID int64) QueryOption {
	return func(opts *QueryOptions) {
		opts.TelegramID = &telegramID
	}
}

// WithReferralCode filters by referral code
func WithReferralCode(code string) QueryOption {
	return func(opts *QueryOptions) {
		opts.ReferralCode = &code
	}
}

// ForUpdate locks the selected row until the surrounding transaction ends
func ForUpdate() QueryOption {
	return func(opts *QueryOptions) {
		opts.ForUpdate = true
	}
}
