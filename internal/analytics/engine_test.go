package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
	"github.com/iliyamo/cinema-analytics/internal/model"
	"github.com/iliyamo/cinema-analytics/internal/window"
)

var (
	store  *fakeStore
	engine *Engine
	now    = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func at(y int, m time.Month, d, h int) time.Time { return time.Date(y, m, d, h, 0, 0, 0, time.UTC) }

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup() {
	store = &fakeStore{
		cinemas: []model.Cinema{
			{ID: 1, Name: "Galaxy", Address: "1 Nguyen Hue"},
			{ID: 2, Name: "Lotte", Address: "2 Le Loi"},
			{ID: 3, Name: "Empty", Address: "3 Hai Ba Trung"},
		},
		halls: []model.Hall{
			{ID: 10, CinemaID: 1, Name: "A"},
			{ID: 11, CinemaID: 1, Name: "B"},
			{ID: 20, CinemaID: 2, Name: "A"},
		},
		movies: []model.Movie{
			{ID: 100, Title: "Dune"},
			{ID: 200, Title: "Wonka"},
			{ID: 300, Title: "Unscheduled"},
		},
		shows: []model.Show{
			{ID: 1000, MovieID: 100, HallID: 10, ShowDate: ptr(day(2024, 3, 1))},
			{ID: 1001, MovieID: 100, HallID: 20, ShowDate: ptr(day(2024, 3, 10))},
			{ID: 1002, MovieID: 200, HallID: 11, ShowDate: ptr(day(2024, 3, 10))},
			{ID: 1003, MovieID: 200, HallID: 20},
		},
		bookings: []model.Booking{
			{ID: 1, UserID: 5, ShowID: 1000, Status: model.BookingConfirmed, TotalPrice: dec("100.00"), NumberOfSeats: 2, CreatedAt: at(2024, 3, 1, 10)},
			{ID: 2, UserID: 6, ShowID: 1001, Status: model.BookingConfirmed, TotalPrice: dec("50.50"), NumberOfSeats: 1, CreatedAt: at(2024, 3, 10, 9)},
			{ID: 3, UserID: 7, ShowID: 1002, Status: model.BookingCancelled, TotalPrice: dec("70.00"), NumberOfSeats: 1, CreatedAt: at(2024, 3, 10, 11)},
			{ID: 4, UserID: 6, ShowID: 1002, Status: model.BookingConfirmed, TotalPrice: dec("80.25"), NumberOfSeats: 3, CreatedAt: at(2024, 3, 9, 12)},
			{ID: 5, UserID: 5, ShowID: 1003, Status: model.BookingPending, TotalPrice: dec("30.00"), NumberOfSeats: 1, CreatedAt: at(2024, 3, 10, 8)},
			{ID: 6, UserID: 8, ShowID: 1003, Status: model.BookingConfirmed, TotalPrice: dec("20.00"), NumberOfSeats: 1, CreatedAt: at(2024, 2, 20, 18)},
			{ID: 7, UserID: 8, ShowID: 1000, Status: model.BookingConfirmed, TotalPrice: dec("40.00"), NumberOfSeats: 4, CreatedAt: at(2024, 3, 8, 20)},
		},
		users: []model.User{
			{ID: 1, RoleID: model.RoleAdmin, CreatedAt: day(2023, 1, 1)},
			{ID: 2, RoleID: model.RoleStaff, CreatedAt: day(2024, 2, 1), ModifiedAt: ptr(day(2024, 3, 9))},
			{ID: 5, Name: "An", RoleID: model.RoleCustomer, CreatedAt: day(2023, 6, 15), ModifiedAt: ptr(day(2024, 3, 5))},
			{ID: 6, Name: "Binh", RoleID: model.RoleCustomer, CreatedAt: day(2024, 1, 10)},
			{ID: 7, Name: "Chi", RoleID: model.RoleCustomer, CreatedAt: day(2024, 1, 20)},
			{ID: 8, Name: "Dung", RoleID: model.RoleOwner, CreatedAt: day(2024, 2, 14)},
			{ID: 9, Name: "Em", RoleID: model.RoleCustomer, CreatedAt: day(2022, 11, 11)},
			{ID: 10, Name: "Giang", RoleID: model.RoleCustomer, CreatedAt: day(2024, 3, 1)},
		},
		seatsByHall: map[uint64]int{10: 50, 11: 40, 20: 60},
		bookedSeats: map[uint64]int{1000: 2, 1001: 1, 1002: 3},
	}
	engine = New(store, func() time.Time { return now }, time.UTC)
}

func teardown() {
	store = nil
	engine = nil
}

func TestTotalRevenue(t *testing.T) {
	setup()
	defer teardown()

	got, err := engine.TotalRevenue(context.Background())
	require.NoError(t, err)
	assert.True(t, got.TotalRevenue.Equal(dec("290.75")), "got %s", got.TotalRevenue)
}

func TestTotalRevenueEmpty(t *testing.T) {
	setup()
	defer teardown()
	store.bookings = nil

	got, err := engine.TotalRevenue(context.Background())
	require.NoError(t, err)
	assert.True(t, got.TotalRevenue.IsZero())
}

func TestBookingCounts(t *testing.T) {
	setup()
	defer teardown()

	got, err := engine.BookingCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BookingCounts{TotalBookings: 5, TotalCancels: 1}, got)
}

func TestScreeningsToday(t *testing.T) {
	setup()
	defer teardown()

	got, err := engine.ScreeningsToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalScreening)
}

func TestSeatUtilization(t *testing.T) {
	t.Run("today's shows", func(t *testing.T) {
		setup()
		defer teardown()

		got, err := engine.SeatUtilization(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 100, got.TotalSeats)
		assert.Equal(t, 4, got.SeatsUsed)
		assert.Equal(t, "4.00", got.UtilizationRate.StringFixed(2))
	})

	t.Run("no capacity reports zero", func(t *testing.T) {
		setup()
		defer teardown()
		engine.now = func() time.Time { return at(2030, 1, 1, 12) }

		got, err := engine.SeatUtilization(context.Background())
		require.NoError(t, err)
		assert.True(t, got.UtilizationRate.IsZero())
		assert.Equal(t, 0, got.TotalSeats)
	})

	t.Run("stays within bounds", func(t *testing.T) {
		setup()
		defer teardown()
		store.bookedSeats = map[uint64]int{1001: 60, 1002: 40}

		got, err := engine.SeatUtilization(context.Background())
		require.NoError(t, err)
		assert.True(t, got.UtilizationRate.Equal(decimal.NewFromInt(100)))
	})
}

func TestTicketsSold(t *testing.T) {
	setup()
	defer teardown()

	got, err := engine.TicketsSold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TicketCounts{BookingsToday: 1, BookingsMonth: 10}, got)
}

func TestRecentCustomers(t *testing.T) {
	setup()
	defer teardown()

	got, err := engine.RecentCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, RecentCustomersLimit)

	ids := make([]uint64, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []uint64{5, 10, 8, 7, 6}, ids)
	assert.Equal(t, day(2024, 3, 5), got[0].LastActivity)
}

func TestSignupsByMonth(t *testing.T) {
	setup()
	defer teardown()

	tests := []struct {
		name string
		year int
		want []MonthlySignups
	}{
		{"current year by default", 0, []MonthlySignups{{Month: 1, UserCount: 2}, {Month: 2, UserCount: 1}, {Month: 3, UserCount: 1}}},
		{"explicit year excludes staff", 2023, []MonthlySignups{{Month: 6, UserCount: 1}}},
		{"year without signups", 2019, []MonthlySignups{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.SignupsByMonth(context.Background(), tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := engine.SignupsByMonth(context.Background(), -1)
	assert.True(t, apperror.IsValidation(err))
}

func TestSignupYears(t *testing.T) {
	setup()
	defer teardown()

	got, err := engine.SignupYears(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2023, 2022}, got.Years)
}

func TestRevenueByCinema(t *testing.T) {
	t.Run("all time", func(t *testing.T) {
		setup()
		defer teardown()

		got, err := engine.RevenueByCinema(context.Background(), DateRange{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, uint64(1), got[0].CinemaID)
		assert.True(t, got[0].TotalRevenue.Equal(dec("220.25")))
		assert.Equal(t, 3, got[0].TotalBookings)
		assert.Equal(t, uint64(2), got[1].CinemaID)
		assert.True(t, got[1].TotalRevenue.Equal(dec("70.50")))
		assert.Equal(t, uint64(3), got[2].CinemaID)
		assert.True(t, got[2].TotalRevenue.IsZero())
		assert.Equal(t, 0, got[2].TotalBookings)
	})

	t.Run("date range uses creation day", func(t *testing.T) {
		setup()
		defer teardown()

		got, err := engine.RevenueByCinema(context.Background(), DateRange{
			Start: ptr(day(2024, 3, 9)),
			End:   ptr(day(2024, 3, 10)),
		})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.True(t, got[0].TotalRevenue.Equal(dec("80.25")))
		assert.True(t, got[1].TotalRevenue.Equal(dec("50.50")))
		assert.True(t, got[2].TotalRevenue.IsZero())
	})

	t.Run("open start", func(t *testing.T) {
		setup()
		defer teardown()

		got, err := engine.RevenueByCinema(context.Background(), DateRange{End: ptr(day(2024, 2, 29))})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), got[0].CinemaID)
		assert.True(t, got[0].TotalRevenue.Equal(dec("20.00")))
	})

	t.Run("inverted range is rejected before querying", func(t *testing.T) {
		setup()
		defer teardown()

		_, err := engine.RevenueByCinema(context.Background(), DateRange{
			Start: ptr(day(2024, 3, 10)),
			End:   ptr(day(2024, 3, 1)),
		})
		assert.True(t, apperror.IsValidation(err))
		assert.Equal(t, 0, store.calls)
	})
}

func TestRevenueListingsAddUpToTotal(t *testing.T) {
	setup()
	defer teardown()
	ctx := context.Background()

	total, err := engine.TotalRevenue(ctx)
	require.NoError(t, err)
	cinemas, err := engine.RevenueByCinema(ctx, DateRange{})
	require.NoError(t, err)
	movies, err := engine.RevenueByMovie(ctx, DateRange{})
	require.NoError(t, err)

	sumC, sumM := decimal.Zero, decimal.Zero
	for i, c := range cinemas {
		sumC = sumC.Add(c.TotalRevenue)
		if i > 0 {
			assert.False(t, c.TotalRevenue.GreaterThan(cinemas[i-1].TotalRevenue))
		}
	}
	for i, m := range movies {
		sumM = sumM.Add(m.TotalRevenue)
		if i > 0 {
			assert.False(t, m.TotalRevenue.GreaterThan(movies[i-1].TotalRevenue))
		}
	}
	assert.True(t, sumC.Equal(total.TotalRevenue))
	assert.True(t, sumM.Equal(total.TotalRevenue))
}

func TestTopCinema(t *testing.T) {
	t.Run("highest revenue", func(t *testing.T) {
		setup()
		defer teardown()

		got, err := engine.TopCinema(context.Background())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Galaxy", got.CinemaName)
		assert.Equal(t, "1 Nguyen Hue", got.Address)
		assert.True(t, got.TotalRevenue.Equal(dec("220.25")))
		assert.Equal(t, 3, got.TotalBookings)
	})

	t.Run("tie goes to first encountered", func(t *testing.T) {
		setup()
		defer teardown()
		store.bookings = []model.Booking{
			{ID: 1, ShowID: 1001, Status: model.BookingConfirmed, TotalPrice: dec("50")},
			{ID: 2, ShowID: 1000, Status: model.BookingConfirmed, TotalPrice: dec("50")},
		}

		got, err := engine.TopCinema(context.Background())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, uint64(2), got.CinemaID)
	})

	t.Run("nothing sold", func(t *testing.T) {
		setup()
		defer teardown()
		store.bookings = nil

		got, err := engine.TopCinema(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestRevenueByMovie(t *testing.T) {
	setup()
	defer teardown()

	got, err := engine.RevenueByMovie(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Dune", got[0].MovieTitle)
	assert.True(t, got[0].TotalRevenue.Equal(dec("190.50")))
	assert.Equal(t, "Wonka", got[1].MovieTitle)
	assert.True(t, got[1].TotalRevenue.Equal(dec("100.25")))
	assert.Equal(t, "Unscheduled", got[2].MovieTitle)
	assert.True(t, got[2].TotalRevenue.IsZero())
}

func TestTopMovie(t *testing.T) {
	setup()
	defer teardown()

	got, err := engine.TopMovie(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(100), got.MovieID)
	assert.True(t, got.TotalRevenue.Equal(dec("190.50")))

	store.bookings = nil
	got, err = engine.TopMovie(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOpeningRevenue(t *testing.T) {
	setup()
	defer teardown()

	tests := []struct {
		name   string
		period window.Period
		dune   string
		end    time.Time
	}{
		{"first week", window.Week, "100.00", day(2024, 3, 7)},
		{"first month", window.Month, "190.50", day(2024, 3, 31)},
		{"unknown period uses week", window.Period(7), "100.00", day(2024, 3, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.OpeningRevenue(context.Background(), tt.period)
			require.NoError(t, err)
			require.Len(t, got, 3)

			assert.Equal(t, uint64(100), got[0].MovieID)
			assert.True(t, got[0].TotalRevenue.Equal(dec(tt.dune)), "got %s", got[0].TotalRevenue)
			require.NotNil(t, got[0].WindowEnd)
			assert.Equal(t, day(2024, 3, 1), *got[0].WindowStart)
			assert.Equal(t, tt.end, *got[0].WindowEnd)

			assert.Equal(t, uint64(200), got[1].MovieID)
			assert.True(t, got[1].TotalRevenue.IsZero())
			assert.Equal(t, day(2024, 3, 10), *got[1].WindowStart)

			assert.Equal(t, uint64(300), got[2].MovieID)
			assert.True(t, got[2].TotalRevenue.IsZero())
			assert.Nil(t, got[2].WindowStart)
		})
	}
}

func TestSummary(t *testing.T) {
	setup()
	defer teardown()

	got, err := engine.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, got.TotalRevenue.Equal(dec("290.75")))
	assert.Equal(t, 5, got.TotalBookings)
	assert.Equal(t, 1, got.TotalCancels)
	assert.Equal(t, 6, got.TotalCustomers)
	assert.Equal(t, 3, got.TotalMovies)
	assert.Equal(t, 3, got.TotalCinemas)
}

func TestStoreErrorsPropagate(t *testing.T) {
	setup()
	defer teardown()
	boom := errors.New("store unavailable")
	store.err = boom
	ctx := context.Background()

	_, err := engine.TotalRevenue(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = engine.RevenueByCinema(ctx, DateRange{})
	assert.ErrorIs(t, err, boom)
	_, err = engine.OpeningRevenue(ctx, window.Year)
	assert.ErrorIs(t, err, boom)
	_, err = engine.Summary(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = engine.SeatUtilization(ctx)
	assert.ErrorIs(t, err, boom)
}
