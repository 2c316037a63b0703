package ledger

import "github.com/shopspring/decimal"

// Monetary values are decimals with at most two fractional digits,
// persisted as NUMERIC(14,2). A residual balance strictly below Epsilon
// collapses to exact zero when a debit lands there.
var Epsilon = decimal.NewFromFloat(0.01)

// CheckAmount validates a value supplied by a caller. Zero is accepted
// only when allowZero is set (commitment edits may zero a commitment;
// everything else requires a positive value).
func CheckAmount(v decimal.Decimal, allowZero bool) error {
	if v.IsNegative() || (!allowZero && v.IsZero()) {
		return &InvalidAmountError{Value: v, Reason: "value must be positive"}
	}
	if v.Exponent() < -2 {
		return &InvalidAmountError{Value: v, Reason: "value has more than two decimal places"}
	}
	return nil
}

// roundsToZero reports whether a balance is close enough to zero to be
// treated as fully consumed.
func roundsToZero(v decimal.Decimal) bool {
	return v.Abs().LessThan(Epsilon)
}

// clampBalance collapses a sub-epsilon residue to exact zero. Balances at
// or above Epsilon pass through untouched.
func clampBalance(v decimal.Decimal) decimal.Decimal {
	if roundsToZero(v) {
		return decimal.Zero
	}
	return v
}
