package user

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles. It decides whether messaging debits or credits an account.
type Role string

const (
	RoleRegular   Role = "regular"
	RolePerformer Role = "performer"
	RoleAdmin     Role = "admin"
)

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRegular, RolePerformer, RoleAdmin:
		return true
	default:
		return false
	}
}

// User represents the domain model for a platform account.
type User struct {
	ID           int64      `json:"id"`
	TelegramID   int64      `json:"telegramId"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName,omitempty"`
	Username     string     `json:"username,omitempty"`
	Role         Role       `json:"role"`
	Coins        int64      `json:"coins"`
	MessagePrice *int64     `json:"messagePrice,omitempty"`
	ReferralCode string     `json:"referralCode"`
	ReferredBy   *int64     `json:"referredBy,omitempty"`
	LastActive   *time.Time `json:"lastActive,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// DisplayName returns the @username when set, otherwise the first name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FirstName
}

// PriceOr returns the user's message price, or fallback when none is set.
func (u *User) PriceOr(fallback int64) int64 {
	if u.MessagePrice != nil && *u.MessagePrice > 0 {
		return *u.MessagePrice
	}
	return fallback
}

// CreateRequest is the admin payload for creating an account.
type CreateRequest struct {
	TelegramID   int64  `json:"telegramId" validate:"required,gt=0"`
	FirstName    string `json:"firstName" validate:"required,max=255"`
	LastName     string `json:"lastName" validate:"max=255"`
	Username     string `json:"username" validate:"omitempty,max=64"`
	Role         Role   `json:"role" validate:"required,oneof=regular performer admin"`
	MessagePrice *int64 `json:"messagePrice" validate:"omitempty,gt=0"`
	// ReferrerCode is the referral code of the user who invited this account.
	ReferrerCode string `json:"referrerCode" validate:"omitempty,max=32"`
}

// UpdatePriceRequest sets a performer's per-message price.
type UpdatePriceRequest struct {
	MessagePrice int64 `json:"messagePrice" validate:"required,gt=0,lte=100000"`
}
