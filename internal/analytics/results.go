package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueTotal is the sum of all confirmed booking prices.
type RevenueTotal struct {
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// BookingCounts splits bookings into confirmed and cancelled.
type BookingCounts struct {
	TotalBookings int `json:"totalBookings"`
	TotalCancels  int `json:"totalCancels"`
}

// ScreeningCount is the number of shows scheduled today.
type ScreeningCount struct {
	TotalScreening int `json:"totalScreening"`
}

// Utilization is the share of today's seats held by confirmed bookings,
// as a percentage with two decimals.
type Utilization struct {
	UtilizationRate decimal.Decimal `json:"utilizationRate"`
	SeatsUsed       int             `json:"seatsUsed"`
	TotalSeats      int             `json:"totalSeats"`
}

// TicketCounts is the number of seats sold today and since the first
// of the month.
type TicketCounts struct {
	BookingsToday int `json:"bookingsToday"`
	BookingsMonth int `json:"bookingsMonth"`
}

// CustomerActivity is one entry of the recent customers list.
type CustomerActivity struct {
	ID           uint64     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone"`
	IsActive     bool       `json:"isActive"`
	ModifiedAt   *time.Time `json:"modifiedAt"`
	LastActivity time.Time  `json:"lastActivity"`
}

// MonthlySignups counts customer signups in one month.
type MonthlySignups struct {
	Month     int `json:"month"`
	UserCount int `json:"userCount"`
}

// SignupYears lists every year with at least one signup, newest first.
type SignupYears struct {
	Years []int `json:"years"`
}

// CinemaRevenue is a cinema's confirmed revenue and booking count.
type CinemaRevenue struct {
	CinemaID      uint64          `json:"cinemaId"`
	CinemaName    string          `json:"cinemaName"`
	Address       string          `json:"address"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalBookings int             `json:"totalBookings"`
}

// MovieRevenue is a movie's confirmed revenue.
type MovieRevenue struct {
	MovieID       uint64          `json:"movieId"`
	MovieTitle    string          `json:"movieTitle"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalBookings int             `json:"totalBookings"`
}

// OpeningRevenue is a movie's confirmed revenue inside the opening
// window of its run.  WindowStart and WindowEnd are nil for movies that
// were never scheduled.
type OpeningRevenue struct {
	MovieRevenue
	Period      string     `json:"period"`
	WindowStart *time.Time `json:"windowStart"`
	WindowEnd   *time.Time `json:"windowEnd"`
}

// Summary gathers the headline dashboard counters.
type Summary struct {
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalBookings  int             `json:"totalBookings"`
	TotalCancels   int             `json:"totalCancels"`
	TotalCustomers int             `json:"totalCustomers"`
	TotalMovies    int             `json:"totalMovies"`
	TotalCinemas   int             `json:"totalCinemas"`
}
