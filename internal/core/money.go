// Package core provides the domain model of the organizer.
//
// This file contains helpers for parsing and formatting rupiah amounts.
// Amounts are integer rupiah; there is no fractional unit.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts user input to a positive integer amount.
//
// Group separators ('.', ',', ' ' and '_') are ignored, so "1.500.000",
// "1,500,000" and "1500000" are the same amount. Signs are rejected.
//
// Examples:
//
//	ParseAmount("15000")   -> 15000, nil
//	ParseAmount("15.000")  -> 15000, nil
//	ParseAmount("-5")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == ',' || r == ' ' || r == '_':
		default:
			return 0, ErrInvalidAmount
		}
	}
	if b.Len() == 0 {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatRupiah groups thousands with dots: 1500000 -> "1.500.000".
func FormatRupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	out := strings.Join(groups, ".")
	if neg {
		out = "-" + out
	}
	return out
}

// SignedRupiah renders a finance subtitle, "+ Rp 1.500" or "- Rp 1.500".
func SignedRupiah(t FinanceType, amount int64) string {
	sign := "-"
	if t == Income {
		sign = "+"
	}
	return sign + " Rp " + FormatRupiah(amount)
}
