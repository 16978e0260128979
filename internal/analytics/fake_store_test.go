package analytics

import (
	"context"
	"sync"

	"github.com/iliyamo/cinema-analytics/internal/model"
)

// fakeStore serves fixed records from memory and applies booking
// filters with the same predicates the SQL store renders.
type fakeStore struct {
	mu sync.Mutex

	bookings    []model.Booking
	shows       []model.Show
	halls       []model.Hall
	cinemas     []model.Cinema
	movies      []model.Movie
	users       []model.User
	seatsByHall map[uint64]int
	bookedSeats map[uint64]int

	err   error
	calls int
}

func (f *fakeStore) hit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeStore) ListBookings(_ context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	var out []model.Booking
	match := model.All(filter.Predicates())
	for _, b := range f.bookings {
		if match(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListShows(context.Context) ([]model.Show, error) {
	return f.shows, f.hit()
}

func (f *fakeStore) ListHalls(context.Context) ([]model.Hall, error) {
	return f.halls, f.hit()
}

func (f *fakeStore) ListCinemas(context.Context) ([]model.Cinema, error) {
	return f.cinemas, f.hit()
}

func (f *fakeStore) ListMovies(context.Context) ([]model.Movie, error) {
	return f.movies, f.hit()
}

func (f *fakeStore) ListUsers(context.Context) ([]model.User, error) {
	return f.users, f.hit()
}

func (f *fakeStore) CountSeatsByHall(context.Context) (map[uint64]int, error) {
	return f.seatsByHall, f.hit()
}

func (f *fakeStore) CountBookedSeats(_ context.Context, showIDs []uint64) (int, error) {
	if err := f.hit(); err != nil {
		return 0, err
	}
	n := 0
	for _, id := range showIDs {
		n += f.bookedSeats[id]
	}
	return n, nil
}
