// Package core provides money parsing and handling utilities.
//
// This file contains the two amount readers: a lenient one used when
// aggregating stored records, and a strict one used on user input.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MonthTotal holds a pair of USD and BRL amounts.
type MonthTotal struct {
	USD decimal.Decimal `json:"totalUSD"`
	BRL decimal.Decimal `json:"totalBRL"`
}

// Add returns the element-wise sum.
func (t MonthTotal) Add(o MonthTotal) MonthTotal {
	return MonthTotal{USD: t.USD.Add(o.USD), BRL: t.BRL.Add(o.BRL)}
}

// IsZero reports whether both amounts are zero.
func (t MonthTotal) IsZero() bool {
	return t.USD.IsZero() && t.BRL.IsZero()
}

// Equal compares amounts numerically, so 100 and 100.00 are equal.
func (t MonthTotal) Equal(o MonthTotal) bool {
	return t.USD.Equal(o.USD) && t.BRL.Equal(o.BRL)
}

// ParseAmount reads the longest leading number of s and never fails.
//
// Missing, empty or non-numeric input yields zero; trailing garbage is
// ignored ("12.5abc" reads as 12.5). Exponents are accepted. A comma is
// the decimal point unless a dot follows it, in which case it groups
// thousands.
//
// Examples:
//   ParseAmount("100")      -> 100
//   ParseAmount(" 12,30 ")  -> 12.3
//   ParseAmount("1,234.56") -> 1234.56
//   ParseAmount("2.5E2")    -> 250
//   ParseAmount("abc")      -> 0
func ParseAmount(s string) decimal.Decimal {
	num, _ := scanNumber(strings.TrimSpace(s))
	if num == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseStrictAmount parses a user-entered amount. The whole string must be
// a number; negative values are rejected.
func ParseStrictAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	num, n := scanNumber(s)
	if num == "" || n != len(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(num)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// scanNumber reads the leading [+-]digits[.digits][e[+-]digits] run of s
// and returns it normalized for decimal.NewFromString, along with the
// number of bytes consumed. It returns "" when no digit is found.
func scanNumber(s string) (string, int) {
	var b strings.Builder
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		if s[i] == '-' {
			b.WriteByte('-')
		}
		i++
	}
	commaIsDecimal := !strings.Contains(s, ".")

	digits := 0
	for i < len(s) {
		c := s[i]
		if isDigit(c) {
			b.WriteByte(c)
			digits++
			i++
			continue
		}
		// thousands separator: 1,234.56
		if c == ',' && !commaIsDecimal && digits > 0 && i+1 < len(s) && isDigit(s[i+1]) {
			i++
			continue
		}
		break
	}

	if i < len(s) && (s[i] == '.' || (s[i] == ',' && commaIsDecimal)) {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > i+1 {
			if digits == 0 {
				b.WriteByte('0')
			}
			b.WriteByte('.')
			b.WriteString(s[i+1 : j])
			digits += j - i - 1
			i = j
		}
	}
	if digits == 0 {
		return "", 0
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			b.WriteByte('e')
			b.WriteString(s[i+1 : k])
			i = k
		}
	}
	return b.String(), i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
