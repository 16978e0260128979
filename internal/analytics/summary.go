package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-analytics/internal/metric"
	"github.com/iliyamo/cinema-analytics/internal/model"
)

// Summary collects the dashboard headline counters.  The underlying
// reads are independent and run concurrently; the first failure
// cancels the rest.
func (e *Engine) Summary(ctx context.Context) (Summary, error) {
	var (
		bookings []model.Booking
		users    []model.User
		movies   []model.Movie
		cinemas  []model.Cinema
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if bookings, err = e.store.ListBookings(gctx, confirmedOrCancelled); err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if users, err = e.store.ListUsers(gctx); err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if movies, err = e.store.ListMovies(gctx); err != nil {
			return fmt.Errorf("list movies: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if cinemas, err = e.store.ListCinemas(gctx); err != nil {
			return fmt.Errorf("list cinemas: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	return Summary{
		TotalRevenue:   metric.SumConfirmedPrice(bookings),
		TotalBookings:  metric.CountWhere(bookings, isConfirmed),
		TotalCancels:   metric.CountWhere(bookings, isCancelled),
		TotalCustomers: metric.CountWhere(users, model.User.IsCustomer),
		TotalMovies:    len(movies),
		TotalCinemas:   len(cinemas),
	}, nil
}
