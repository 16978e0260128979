// Package analytics turns bookings, shows, cinemas, movies and users
// into the reporting figures shown on the admin dashboard.  All
// operations are read-only; "today" comes from an injected clock so
// every figure is reproducible in tests.
package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
	"github.com/iliyamo/cinema-analytics/internal/model"
	"github.com/iliyamo/cinema-analytics/internal/window"
)

// Store is the read access the engine needs.  Implementations must
// return bookings ordered by id so "first encountered" is stable.
type Store interface {
	ListBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	ListShows(ctx context.Context) ([]model.Show, error)
	ListHalls(ctx context.Context) ([]model.Hall, error)
	ListCinemas(ctx context.Context) ([]model.Cinema, error)
	ListMovies(ctx context.Context) ([]model.Movie, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// CountSeatsByHall returns the number of seats per hall id.
	CountSeatsByHall(ctx context.Context) (map[uint64]int, error)
	// CountBookedSeats counts seats held by confirmed bookings of the
	// given shows.
	CountBookedSeats(ctx context.Context, showIDs []uint64) (int, error)
}

// Clock returns the current time.
type Clock func() time.Time

// Engine computes dashboard metrics.  It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	store Store
	now   Clock
	loc   *time.Location
}

// New builds an Engine.  A nil clock uses time.Now and a nil location
// uses UTC; the location decides where calendar days begin.
func New(store Store, now Clock, loc *time.Location) *Engine {
	if store == nil {
		panic("analytics: nil store")
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{store: store, now: now, loc: loc}
}

// today is midnight of the current calendar day.
func (e *Engine) today() time.Time { return window.Day(e.now(), e.loc) }

// calendarDate reinterprets a DATE column value as a day in the
// engine's location.
func (e *Engine) calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.loc)
}

// DateRange is an optional inclusive range of calendar days.  A nil
// bound leaves that side open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Validate rejects a range whose end lies before its start.
func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil {
		sy, sm, sd := r.Start.Date()
		ey, em, ed := r.End.Date()
		if time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC).Before(time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)) {
			return apperror.Invalid("end", "must not be before start")
		}
	}
	return nil
}

// confirmedIn builds the booking filter for confirmed bookings created
// inside r.
func (e *Engine) confirmedIn(r DateRange) (model.BookingFilter, error) {
	if err := r.Validate(); err != nil {
		return model.BookingFilter{}, err
	}
	f := model.BookingFilter{Statuses: []string{model.BookingConfirmed}}
	if r.Start != nil {
		from := e.calendarDate(*r.Start)
		f.CreatedFrom = &from
	}
	if r.End != nil {
		before := e.calendarDate(*r.End).AddDate(0, 0, 1)
		f.CreatedBefore = &before
	}
	return f, nil
}

// catalog is the reference data most revenue reports join against.
type catalog struct {
	shows   []model.Show
	halls   []model.Hall
	cinemas []model.Cinema
	movies  []model.Movie
}

// loadCatalog fetches shows, halls, cinemas and movies concurrently.
func (e *Engine) loadCatalog(ctx context.Context) (catalog, error) {
	var c catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		c.shows, err = e.store.ListShows(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		c.halls, err = e.store.ListHalls(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		c.cinemas, err = e.store.ListCinemas(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		c.movies, err = e.store.ListMovies(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return catalog{}, err
	}
	return c, nil
}

// showIndex resolves a booking's show to its movie and cinema.
type showIndex struct {
	movieOf  map[uint64]uint64
	cinemaOf map[uint64]uint64
}

func (c catalog) index() showIndex {
	hallCinema := make(map[uint64]uint64, len(c.halls))
	for _, h := range c.halls {
		hallCinema[h.ID] = h.CinemaID
	}
	idx := showIndex{
		movieOf:  make(map[uint64]uint64, len(c.shows)),
		cinemaOf: make(map[uint64]uint64, len(c.shows)),
	}
	for _, s := range c.shows {
		idx.movieOf[s.ID] = s.MovieID
		if cid, ok := hallCinema[s.HallID]; ok {
			idx.cinemaOf[s.ID] = cid
		}
	}
	return idx
}
