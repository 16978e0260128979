package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking statuses as stored in bookings.status. Only Confirmed
// bookings count toward revenue and engagement; Cancelled bookings
// count toward cancellation totals; anything else is ignored.
const (
	BookingPending   = "Pending"
	BookingConfirmed = "Confirmed"
	BookingCancelled = "Cancelled"
)

// Booking records a user's purchase of seats for a show.  It is
// created by the upstream booking workflow and is read-only to the
// analytics code.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who made the booking.
//  ShowID        – show being booked.
//  Status        – Pending, Confirmed or Cancelled.
//  TotalPrice    – amount paid for all seats (exact decimal).
//  NumberOfSeats – number of seats in the booking (positive).
//  CreatedAt     – creation timestamp (UTC).
type Booking struct {
	ID            uint64          // bookings.id
	UserID        uint64          // bookings.user_id
	ShowID        uint64          // bookings.show_id
	Status        string          // bookings.status
	TotalPrice    decimal.Decimal // bookings.total_price
	NumberOfSeats int             // bookings.number_of_seats
	CreatedAt     time.Time       // bookings.created_at
}

// IsConfirmed reports whether the booking contributes to revenue.
func (b Booking) IsConfirmed() bool { return b.Status == BookingConfirmed }
