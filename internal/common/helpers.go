package common

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseBaseUnits parses a base-unit integer amount ("1500000000000000000")
// into a big.Int without float precision loss.
func ParseBaseUnits(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid base-unit amount: %q", s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative: %q", s)
	}
	return n, nil
}

// FormatBaseUnits converts a base-unit integer string to a decimal string by
// inserting a decimal point, e.g. FormatBaseUnits("24981836", 9) = "0.024981836".
func FormatBaseUnits(value string, decimals int) (string, error) {
	n, err := ParseBaseUnits(value)
	if err != nil {
		return "", err
	}
	if decimals <= 0 {
		return n.String(), nil
	}

	s := n.String()

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:], nil
}

// CompareBaseUnits compares two base-unit amounts without float precision loss.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func CompareBaseUnits(a, b string) (int, error) {
	aVal, err := ParseBaseUnits(a)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", a, err)
	}
	bVal, err := ParseBaseUnits(b)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", b, err)
	}
	return aVal.Cmp(bVal), nil
}
