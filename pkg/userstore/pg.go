package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/pgutil"
	"github.com/onurmutlu/flirtmarket/pkg/user"
)

type pgStore struct {
	db bun.IDB
}

// NewStore creates a new postgres implementation of the user store
func NewStore(db bun.IDB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) CreateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	dao := toUserDao(usr)
	dao.ID = 0

	_, err := pgutil.Conn(ctx, s.db).NewInsert().
		Model(dao).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return toUser(dao), nil
}

func (s *pgStore) GetUser(ctx context.Context, opts ...QueryOption) (*user.User, error) {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	dao := new(UserDao)
	query := pgutil.Conn(ctx, s.db).NewSelect().Model(dao)

	if options.ID != nil {
		query = query.Where("id = ?", *options.ID)
	}
	if options.TelegramID != nil {
		query = query.Where("telegram_id = ?", *options.TelegramID)
	}
	if options.ReferralCode != nil {
		query = query.Where("referral_code = ?", *options.ReferralCode)
	}
	if options.ForUpdate {
		query = query.For("UPDATE")
	}

	err := query.Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUser(dao), nil
}

func (s *pgStore) ListByRole(ctx context.Context, role user.Role, limit, offset int) ([]*user.User, error) {
	var daos []UserDao
	err := pgutil.Conn(ctx, s.db).NewSelect().
		Model(&daos).
		Where("role = ?", string(role)).
		OrderExpr("last_active DESC NULLS LAST, id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*user.User, len(daos))
	for i := range daos {
		users[i] = toUser(&daos[i])
	}
	return users, nil
}

func (s *pgStore) UpdateMessagePrice(ctx context.Context, userID, price int64) error {
	res, err := pgutil.Conn(ctx, s.db).NewUpdate().
		Model((*UserDao)(nil)).
		Set("message_price = ?", price).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update message price: %w", err)
	}
	return requireAffected(res, ErrUserNotFound)
}

// SetReferredBy records the referrer once; a second call fails with ErrAlreadyReferred.
func (s *pgStore) SetReferredBy(ctx context.Context, userID, referrerID int64) error {
	res, err := pgutil.Conn(ctx, s.db).NewUpdate().
		Model((*UserDao)(nil)).
		Set("referred_by = ?", referrerID).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("referred_by IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set referrer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetUser(ctx, WithID(userID)); err != nil {
			return err
		}
		return ErrAlreadyReferred
	}
	return nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

