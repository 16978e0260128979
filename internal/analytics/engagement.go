package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
	"github.com/iliyamo/cinema-analytics/internal/metric"
	"github.com/iliyamo/cinema-analytics/internal/model"
	"github.com/iliyamo/cinema-analytics/internal/window"
)

// RecentCustomersLimit is the size of the recent customers list.
const RecentCustomersLimit = 5

// ScreeningsToday counts the shows scheduled for the current day.
func (e *Engine) ScreeningsToday(ctx context.Context) (ScreeningCount, error) {
	shows, err := e.store.ListShows(ctx)
	if err != nil {
		return ScreeningCount{}, fmt.Errorf("list shows: %w", err)
	}
	today := e.today()
	n := metric.CountWhere(shows, func(s model.Show) bool { return e.isOn(s, today) })
	return ScreeningCount{TotalScreening: n}, nil
}

// SeatUtilization is the percentage of today's seats held by confirmed
// bookings.  Capacity is the seat count of the hall of every show held
// today, so the rate stays within [0, 100].  With no capacity the rate
// is 0.
func (e *Engine) SeatUtilization(ctx context.Context) (Utilization, error) {
	shows, err := e.store.ListShows(ctx)
	if err != nil {
		return Utilization{}, fmt.Errorf("list shows: %w", err)
	}
	seatsByHall, err := e.store.CountSeatsByHall(ctx)
	if err != nil {
		return Utilization{}, fmt.Errorf("count seats: %w", err)
	}

	today := e.today()
	var ids []uint64
	capacity := 0
	for _, s := range shows {
		if e.isOn(s, today) {
			ids = append(ids, s.ID)
			capacity += seatsByHall[s.HallID]
		}
	}
	used := 0
	if len(ids) > 0 {
		if used, err = e.store.CountBookedSeats(ctx, ids); err != nil {
			return Utilization{}, fmt.Errorf("count booked seats: %w", err)
		}
	}

	rate, err := metric.RatioPercent(int64(used), int64(capacity))
	if errors.Is(err, metric.ErrDivisionUndefined) {
		rate = decimal.Zero
	} else if err != nil {
		return Utilization{}, err
	}
	return Utilization{UtilizationRate: rate, SeatsUsed: used, TotalSeats: capacity}, nil
}

// TicketsSold sums the seats of confirmed bookings created today and
// since the first day of the current month.
func (e *Engine) TicketsSold(ctx context.Context) (TicketCounts, error) {
	today := e.today()
	monthStart := today.AddDate(0, 0, 1-today.Day())
	tomorrow := today.AddDate(0, 0, 1)
	bookings, err := e.store.ListBookings(ctx, model.BookingFilter{
		Statuses:      []string{model.BookingConfirmed},
		CreatedFrom:   &monthStart,
		CreatedBefore: &tomorrow,
	})
	if err != nil {
		return TicketCounts{}, fmt.Errorf("list bookings: %w", err)
	}

	var todays []model.Booking
	for _, b := range bookings {
		if window.Day(b.CreatedAt, e.loc).Equal(today) {
			todays = append(todays, b)
		}
	}
	return TicketCounts{
		BookingsToday: metric.SumSeats(todays),
		BookingsMonth: metric.SumSeats(bookings),
	}, nil
}

// RecentCustomers returns the customers with the most recent activity,
// newest first.  Staff accounts are skipped.
func (e *Engine) RecentCustomers(ctx context.Context) ([]CustomerActivity, error) {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	customers := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.IsCustomer() {
			customers = append(customers, u)
		}
	}
	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].LastActivity().After(customers[j].LastActivity())
	})
	if len(customers) > RecentCustomersLimit {
		customers = customers[:RecentCustomersLimit]
	}

	out := make([]CustomerActivity, 0, len(customers))
	for _, u := range customers {
		out = append(out, CustomerActivity{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Phone:        u.Phone,
			IsActive:     u.IsActive,
			ModifiedAt:   u.ModifiedAt,
			LastActivity: u.LastActivity(),
		})
	}
	return out, nil
}

// SignupsByMonth counts customer signups per month of year, in month
// order.  Months without signups are omitted.  A zero year means the
// current one.
func (e *Engine) SignupsByMonth(ctx context.Context, year int) ([]MonthlySignups, error) {
	if year < 0 {
		return nil, apperror.Invalid("year", "must not be negative")
	}
	if year == 0 {
		year = e.today().Year()
	}
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	counts := make(map[int]int)
	for _, u := range users {
		created := u.CreatedAt.In(e.loc)
		if u.IsCustomer() && created.Year() == year {
			counts[int(created.Month())]++
		}
	}
	out := make([]MonthlySignups, 0, len(counts))
	for m, n := range counts {
		out = append(out, MonthlySignups{Month: m, UserCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// SignupYears lists the distinct years in which any account was
// created, newest first.
func (e *Engine) SignupYears(ctx context.Context) (SignupYears, error) {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return SignupYears{}, fmt.Errorf("list users: %w", err)
	}
	seen := make(map[int]bool)
	years := []int{}
	for _, u := range users {
		y := u.CreatedAt.In(e.loc).Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return SignupYears{Years: years}, nil
}

// isOn reports whether a show is scheduled on the given day.
func (e *Engine) isOn(s model.Show, day time.Time) bool {
	return s.ShowDate != nil && e.calendarDate(*s.ShowDate).Equal(day)
}
