package userstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/onurmutlu/flirtmarket/pkg/user"
)

// UserDao is a data access object that maps directly to the 'users' table in PostgreSQL.
// The coins column is written only by the ledger store.
type UserDao struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            int64      `bun:"id,pk,autoincrement"`
	TelegramID    int64      `bun:"telegram_id,unique,notnull"`
	FirstName     string     `bun:"first_name,notnull,type:varchar(255)"`
	LastName      *string    `bun:"last_name,type:varchar(255)"`
	Username      *string    `bun:"username,unique,type:varchar(64)"`
	Role          string     `bun:"role,notnull,type:varchar(16),default:'regular'"`
	Coins         int64      `bun:"coins,notnull,default:0"`
	MessagePrice  *int64     `bun:"message_price"`
	ReferralCode  string     `bun:"referral_code,unique,notnull,type:varchar(32)"`
	ReferredBy    *int64     `bun:"referred_by"`
	LastActive    *time.Time `bun:"last_active"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func toUserDao(usr *user.User) *UserDao {
	dao := &UserDao{
		ID:           usr.ID,
		TelegramID:   usr.TelegramID,
		FirstName:    usr.FirstName,
		Role:         string(usr.Role),
		Coins:        usr.Coins,
		MessagePrice: usr.MessagePrice,
		ReferralCode: usr.ReferralCode,
		ReferredBy:   usr.ReferredBy,
		LastActive:   usr.LastActive,
	}
	if usr.LastName != "" {
		dao.LastName = &usr.LastName
	}
	if usr.Username != "" {
		dao.Username = &usr.Username
	}
	return dao
}

func toUser(dao *UserDao) *user.User {
	usr := &user.User{
		ID:           dao.ID,
		TelegramID:   dao.TelegramID,
		FirstName:    dao.FirstName,
		Role:         user.Role(dao.Role),
		Coins:        dao.Coins,
		MessagePrice: dao.MessagePrice,
		ReferralCode: dao.ReferralCode,
		ReferredBy:   dao.ReferredBy,
		LastActive:   dao.LastActive,
		CreatedAt:    dao.CreatedAt,
	}
	if dao.LastName != nil {
		usr.LastName = *dao.LastName
	}
	if dao.Username != nil {
		usr.Username = *dao.Username
	}
	return usr
}
