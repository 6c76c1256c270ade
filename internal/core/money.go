// Package core holds the loan domain types shared by every layer.
//
// Amounts are float64 currency units. Inputs arriving as text (forms,
// spreadsheet cells, CLI flags) go through ParseAmount, which accepts
// both "12.34" and "12,34".
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount parses a non-negative decimal amount with at most two
// significant fractional digits (half-up on the third).
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
//	ParseAmount("0")      -> 0
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<53 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}
	var cents int64
	if len(fracPart) > 0 {
		cents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			cents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				cents++
			}
		}
	}
	return float64(iv*100+cents) / 100, nil
}

// ParseRate parses an annual percentage rate in [0, MaxInterestRate].
func ParseRate(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > MaxInterestRate {
		return 0, ErrInvalidRate
	}
	return v, nil
}

// RoundCents rounds v to two decimals for display and persistence.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
