package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of fractional digits an amount may carry (cents)
	AmountScale = 2

	maxAmountLength = 32
)

// maxAmount caps a single deposit or withdrawal
var maxAmount = decimal.New(1, 12)

// ParseAmount parses a raw amount as sent by a client. Only plain decimal numbers with at
// most AmountScale fractional digits and no larger than maxAmount are accepted.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}

	if len(s) > maxAmountLength {
		return decimal.Zero, fmt.Errorf("%w: amount is too long", ErrInvalidAmount)
	}

	// exponents are rejected before parsing, decimal rescales to them on every operation
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: exponent notation is not allowed", ErrInvalidAmount)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}

	if amount.Abs().GreaterThan(maxAmount) {
		return decimal.Zero, fmt.Errorf("%w: amount exceeds %s", ErrInvalidAmount, FormatAmount(maxAmount))
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return decimal.Zero, fmt.Errorf("%w: at most %d decimal places are allowed", ErrInvalidAmount, AmountScale)
	}

	return amount, nil
}

func RequirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	return nil
}

// ParsePositiveAmount combines ParseAmount and RequirePositive
func ParsePositiveAmount(raw string) (decimal.Decimal, error) {
	amount, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}

	if err := RequirePositive(amount); err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// NormalizeAccountID returns the canonical form of an account number used as key
// for both the store and the lock registry.
func NormalizeAccountID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrInvalidAccount
	}

	return id, nil
}

// FormatAmount renders an amount with exactly AmountScale fractional digits
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(AmountScale)
}
