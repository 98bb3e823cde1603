package ledger

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EarningsAfterCommission returns floor(price * (1 - rate)), where rate is the
// platform share in [0, 1].
func EarningsAfterCommission(price int64, rate decimal.Decimal) int64 {
	if price <= 0 {
		return 0
	}
	share := decimal.NewFromInt(1).Sub(rate)
	if share.IsNegative() {
		return 0
	}
	return decimal.NewFromInt(price).Mul(share).Floor().IntPart()
}

// NetAfterFee returns floor(price * (1 - feePercent/100)).
func NetAfterFee(price, feePercent int64) int64 {
	if price <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(feePercent).Div(hundred)
	return EarningsAfterCommission(price, rate)
}
