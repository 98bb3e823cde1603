package referral

import "time"

// Bonus records that a referrer has been paid for one referred user.
// A referred user can produce at most one bonus.
type Bonus struct {
	ID            int64     `json:"id"`
	ReferrerID    int64     `json:"referrerId"`
	ReferredID    int64     `json:"referredId"`
	Amount        int64     `json:"amount"`
	TransactionID *int64    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Stats summarises a user's referral activity.
type Stats struct {
	ReferralCode string `json:"referralCode"`
	Referred     int    `json:"referred"`
	CoinsEarned  int64  `json:"coinsEarned"`
}

// ApplyCodeRequest is the body of POST /referrals/apply.
type ApplyCodeRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}
