// Package money accumulates currency amounts exactly so that totals do not
// depend on the order records are read in.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Sum is a running decimal total. The zero value is ready to use.
type Sum struct {
	total   decimal.Decimal
	skipped int
}

// Add adds v and reports whether it was accepted. NaN and infinite values
// are skipped and counted instead of poisoning the total.
func (s *Sum) Add(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.skipped++
		return false
	}
	s.total = s.total.Add(decimal.NewFromFloat(v))
	return true
}

// AddProduct adds a*b, skipping non-finite factors.
func (s *Sum) AddProduct(a, b float64) bool {
	if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
		s.skipped++
		return false
	}
	s.total = s.total.Add(decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)))
	return true
}

// Float returns the total rounded to cents.
func (s Sum) Float() float64 {
	f, _ := s.total.Round(2).Float64()
	return f
}

// Decimal returns the exact total.
func (s Sum) Decimal() decimal.Decimal {
	return s.total
}

// Skipped returns how many values were rejected.
func (s Sum) Skipped() int {
	return s.skipped
}

// Round2 rounds a ratio or amount to two decimals.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Percent returns part/whole*100 rounded to two decimals, or 0 when whole
// is zero.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return Round2(part / whole * 100)
}
