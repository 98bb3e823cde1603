// Package ledger holds the coin ledger types and the two balance primitives,
// Credit and Debit, that every monetized feature goes through.
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Type classifies a transaction row.
type Type string

const (
	TypePurchase Type = "purchase"
	TypeSpend    Type = "spend"
	TypeEarn     Type = "earn"
	TypeReferral Type = "referral"
)

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	switch t {
	case TypePurchase, TypeSpend, TypeEarn, TypeReferral:
		return true
	default:
		return false
	}
}

// IsCredit reports whether rows of this type add coins.
func (t Type) IsCredit() bool {
	return t == TypePurchase || t == TypeEarn || t == TypeReferral
}

var (
	// ErrInvalidAmount is returned for non-positive amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidType is returned when a credit is requested with a non-credit type.
	ErrInvalidType = errors.New("invalid transaction type")
	// ErrBalanceOverflow is returned when a credit would exceed the int64 range.
	ErrBalanceOverflow = errors.New("balance overflow")
)

// InsufficientFundsError is returned by Debit when the balance cannot cover the amount.
// No balance change and no transaction row are made in that case.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %d, available %d", e.Required, e.Available)
}

// AsInsufficientFunds unwraps err into an InsufficientFundsError.
func AsInsufficientFunds(err error) (*InsufficientFundsError, bool) {
	var insufficient *InsufficientFundsError
	if errors.As(err, &insufficient) {
		return insufficient, true
	}
	return nil, false
}

// Transaction is one append-only ledger row. Amount is signed.
type Transaction struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	Type          Type      `json:"type"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description"`
	RelatedUserID *int64    `json:"relatedUserId,omitempty"`
	BalanceAfter  int64     `json:"balanceAfter"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Entry describes a single balance change requested from the ledger.
// Amount is always positive; the sign is derived from the operation.
type Entry struct {
	UserID        int64
	Amount        int64
	Type          Type
	Description   string
	RelatedUserID *int64
}

// Result is the outcome of a successful primitive.
type Result struct {
	Balance     int64
	Transaction *Transaction
}

// Related returns a pointer to id, for Entry.RelatedUserID.
func Related(id int64) *int64 {
	return &id
}
