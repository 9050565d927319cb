// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and splitting an entry total into per-installment amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingPolicy selects how an installment total is split across payments.
type RoundingPolicy string

const (
	// RoundEach rounds total/N to cents independently for every installment. The
	// schedule may then differ from the total by a few cents.
	RoundEach RoundingPolicy = "per_installment"
	// LastAbsorbs rounds every installment but the last, which takes the remainder so
	// that the schedule sums exactly to the total.
	LastAbsorbs RoundingPolicy = "last_absorbs"
)

// ParseRoundingPolicy converts a configuration value into a RoundingPolicy.
// Empty input selects RoundEach.
func ParseRoundingPolicy(s string) (RoundingPolicy, error) {
	switch p := RoundingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RoundEach, nil
	case RoundEach, LastAbsorbs:
		return p, nil
	}
	return "", ErrInvalidRounding
}

// ParseAmount converts a decimal string to an amount rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative,
// zero and malformed values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil (half away from zero)
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "+-eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// SplitInstallments divides total into n per-payment amounts rounded to cents.
// n below 1 is treated as 1.
func SplitInstallments(total decimal.Decimal, n int, policy RoundingPolicy) []decimal.Decimal {
	if n < 1 {
		n = 1
	}
	if n == 1 {
		return []decimal.Decimal{total}
	}

	each := total.Div(decimal.NewFromInt(int64(n))).Round(2)
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = each
	}
	if policy == LastAbsorbs {
		out[n-1] = total.Sub(each.Mul(decimal.NewFromInt(int64(n - 1))))
	}
	return out
}

// Residual returns total minus the sum of parts.
func Residual(total decimal.Decimal, parts []decimal.Decimal) decimal.Decimal {
	return total.Sub(decimal.Sum(decimal.Zero, parts...))
}

// AmountFromFloat converts a REAL column value into a cent-rounded amount.
func AmountFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}
