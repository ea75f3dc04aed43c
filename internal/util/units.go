// Package util holds small helpers shared across the CLI, chiefly the
// conversion between human-readable token amounts and base units.
package util

import (
	"fmt"
	"math/big"
	"strings"
)

// ToBaseUnits converts a human-readable decimal amount into the token's
// smallest unit, e.g. "100" at 6 decimals -> 100000000. The conversion is
// exact: amounts with more fractional digits than the token supports are
// rejected rather than rounded.
func ToBaseUnits(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("amount must be positive: %s", amount)
	}

	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return nil, fmt.Errorf("invalid amount format: %s", amount)
		}
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	// Digits only; big.Int would otherwise tolerate a leading sign.
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("invalid amount format: %s", amount)
		}
	}

	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		digits = "0"
	}

	result, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	return result, nil
}

// FromBaseUnits renders a base-unit amount as a human-readable decimal
// string, trimming trailing zeros, e.g. 100000000 at 6 decimals -> "100".
func FromBaseUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}

	str := amount.String()
	neg := strings.HasPrefix(str, "-")
	if neg {
		str = str[1:]
	}

	if len(str) <= int(decimals) {
		str = strings.Repeat("0", int(decimals)-len(str)+1) + str
	}

	cut := len(str) - int(decimals)
	whole, frac := str[:cut], strings.TrimRight(str[cut:], "0")

	out := whole
	if frac != "" {
		out = whole + "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
