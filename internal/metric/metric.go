// Package metric holds the stateless statistics the analytics engine is
// built from.  Monetary values use exact decimals so repeated sums do
// not drift.
package metric

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-analytics/internal/model"
)

// ErrDivisionUndefined is returned by RatioPercent for a zero
// denominator.  Callers reporting on empty systems turn it into 0.
var ErrDivisionUndefined = errors.New("division undefined: denominator is zero")

var hundred = decimal.NewFromInt(100)

// SumConfirmedPrice adds up TotalPrice over confirmed bookings.  Every
// other status contributes nothing and an empty slice sums to zero.
func SumConfirmedPrice(bookings []model.Booking) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bookings {
		if b.IsConfirmed() {
			total = total.Add(b.TotalPrice)
		}
	}
	return total
}

// CountWhere counts the records that satisfy pred.
func CountWhere[T any](records []T, pred func(T) bool) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}

// RatioPercent returns numerator/denominator*100 rounded half-to-even
// to two decimal places.
func RatioPercent(numerator, denominator int64) (decimal.Decimal, error) {
	if denominator == 0 {
		return decimal.Zero, ErrDivisionUndefined
	}
	return decimal.NewFromInt(numerator).
		Mul(hundred).
		Div(decimal.NewFromInt(denominator)).
		RoundBank(2), nil
}

// SumSeats adds up NumberOfSeats over confirmed bookings.
func SumSeats(bookings []model.Booking) int {
	n := 0
	for _, b := range bookings {
		if b.IsConfirmed() {
			n += b.NumberOfSeats
		}
	}
	return n
}
