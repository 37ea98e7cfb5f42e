package chain

import (
	"math/big"
	"strings"

	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// ToBaseUnits converts a decimal amount string to integer base units with
// the given decimal precision, flooring any excess fractional digits.
// For example, "1.5" with 9 decimals returns 1500000000.
//
//nolint:gocognit // Decimal parsing requires sequential validation steps
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	if amount == "" {
		return nil, tperr.WithDetails(tperr.ErrInvalidInput, map[string]string{"amount": amount})
	}

	// Negative amounts never convert
	if strings.HasPrefix(amount, "-") {
		return nil, tperr.WithDetails(tperr.ErrInvalidInput, map[string]string{"amount": amount})
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, tperr.WithDetails(tperr.ErrInvalidInput, map[string]string{"amount": amount})
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if intPart == "" {
		intPart = "0"
	}
	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, tperr.WithDetails(tperr.ErrInvalidInput, map[string]string{"amount": amount})
	}

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	result := new(big.Int).Mul(intVal, multiplier)

	if decPart != "" {
		for _, c := range decPart {
			if c < '0' || c > '9' {
				return nil, tperr.WithDetails(tperr.ErrInvalidInput, map[string]string{"amount": amount})
			}
		}

		// Pad to precision; truncating beyond it is the floor semantics
		for len(decPart) < decimals {
			decPart += "0"
		}
		decPart = decPart[:decimals]

		if decPart != "" {
			decVal, ok := new(big.Int).SetString(decPart, 10)
			if !ok {
				return nil, tperr.WithDetails(tperr.ErrInvalidInput, map[string]string{"amount": amount})
			}
			result = result.Add(result, decVal)
		}
	}

	return result, nil
}

// FormatBaseUnits converts integer base units to a human-readable decimal
// string with the given precision. Trailing zeros after the decimal point
// are removed. Used only for log rendering.
func FormatBaseUnits(units *big.Int, decimals int) string {
	if units == nil {
		return "0"
	}

	s := units.String()
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	for len(s) <= decimals {
		s = "0" + s
	}

	intPart := s[:len(s)-decimals]
	decPart := strings.TrimRight(s[len(s)-decimals:], "0")

	result := intPart
	if decPart != "" {
		result += "." + decPart
	}
	if negative {
		result = "-" + result
	}
	return result
}
