package ledger

import "github.com/onurmutlu/flirtmarket/pkg/user"

// CoinPackage is a purchasable bundle of coins.
type CoinPackage struct {
	ID         string `json:"id"`
	Coins      int64  `json:"coins"`
	PriceCents int64  `json:"priceCents"`
}

// PurchaseRequest buys either a configured package or a raw amount of coins.
type PurchaseRequest struct {
	PackageID string `json:"packageId" validate:"omitempty,max=64"`
	Amount    int64  `json:"amount" validate:"omitempty,gt=0"`
}

// PurchaseResponse reports a completed simulated purchase.
type PurchaseResponse struct {
	Success bool       `json:"success"`
	User    *user.User `json:"user"`
	Message string     `json:"message"`
}

// AdjustCoinsRequest is an admin correction. Positive amounts credit, negative debit.
type AdjustCoinsRequest struct {
	Amount int64  `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"max=255"`
}
