package paytr

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a major-unit amount and rejects non-positive values.
func ParseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("paytr: invalid amount %q", value)
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("paytr: amount must be positive")
	}
	return amount, nil
}

// AmountToMinor converts a major-unit amount into minor currency units
// (kuruş), rounding half away from zero. Amounts are positive, so this is
// round-half-up: 19.995 maps to 2000, not 1999.
func AmountToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
