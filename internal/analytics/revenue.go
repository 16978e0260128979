package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/cinema-analytics/internal/metric"
	"github.com/iliyamo/cinema-analytics/internal/model"
	"github.com/iliyamo/cinema-analytics/internal/window"
)

var (
	confirmedOnly        = model.BookingFilter{Statuses: []string{model.BookingConfirmed}}
	confirmedOrCancelled = model.BookingFilter{Statuses: []string{model.BookingConfirmed, model.BookingCancelled}}
)

func isConfirmed(b model.Booking) bool { return b.IsConfirmed() }
func isCancelled(b model.Booking) bool { return b.Status == model.BookingCancelled }

// TotalRevenue sums the price of every confirmed booking.
func (e *Engine) TotalRevenue(ctx context.Context) (RevenueTotal, error) {
	bookings, err := e.store.ListBookings(ctx, confirmedOnly)
	if err != nil {
		return RevenueTotal{}, fmt.Errorf("list bookings: %w", err)
	}
	return RevenueTotal{TotalRevenue: metric.SumConfirmedPrice(bookings)}, nil
}

// BookingCounts counts confirmed and cancelled bookings.
func (e *Engine) BookingCounts(ctx context.Context) (BookingCounts, error) {
	bookings, err := e.store.ListBookings(ctx, confirmedOrCancelled)
	if err != nil {
		return BookingCounts{}, fmt.Errorf("list bookings: %w", err)
	}
	return BookingCounts{
		TotalBookings: metric.CountWhere(bookings, isConfirmed),
		TotalCancels:  metric.CountWhere(bookings, isCancelled),
	}, nil
}

// RevenueByCinema reports every cinema's confirmed revenue inside r,
// highest first.  Cinemas without halls, shows or bookings are listed
// with zero.
func (e *Engine) RevenueByCinema(ctx context.Context, r DateRange) ([]CinemaRevenue, error) {
	f, err := e.confirmedIn(r)
	if err != nil {
		return nil, err
	}
	cat, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	bookings, err := e.store.ListBookings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	idx := cat.index()
	byCinema := make(map[uint64][]model.Booking)
	for _, b := range bookings {
		if cid, ok := idx.cinemaOf[b.ShowID]; ok {
			byCinema[cid] = append(byCinema[cid], b)
		}
	}

	out := make([]CinemaRevenue, 0, len(cat.cinemas))
	for _, c := range cat.cinemas {
		group := byCinema[c.ID]
		out = append(out, CinemaRevenue{
			CinemaID:      c.ID,
			CinemaName:    c.Name,
			Address:       c.Address,
			TotalRevenue:  metric.SumConfirmedPrice(group),
			TotalBookings: metric.CountWhere(group, isConfirmed),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalRevenue.GreaterThan(out[j].TotalRevenue) })
	return out, nil
}

// TopCinema returns the cinema with the highest confirmed revenue, or
// nil when nothing has been sold.  On a tie the cinema whose booking
// was encountered first wins.
func (e *Engine) TopCinema(ctx context.Context) (*CinemaRevenue, error) {
	cat, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	bookings, err := e.store.ListBookings(ctx, confirmedOnly)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	idx := cat.index()
	keys, groups := groupInOrder(bookings, idx.cinemaOf)
	best, ok := pickTop(keys, groups)
	if !ok {
		return nil, nil
	}
	res := &CinemaRevenue{
		CinemaID:      best,
		TotalRevenue:  metric.SumConfirmedPrice(groups[best]),
		TotalBookings: len(groups[best]),
	}
	for _, c := range cat.cinemas {
		if c.ID == best {
			res.CinemaName, res.Address = c.Name, c.Address
			break
		}
	}
	return res, nil
}

// RevenueByMovie reports every movie's confirmed revenue inside r,
// highest first.  Movies that never sold a ticket are listed with zero.
func (e *Engine) RevenueByMovie(ctx context.Context, r DateRange) ([]MovieRevenue, error) {
	f, err := e.confirmedIn(r)
	if err != nil {
		return nil, err
	}
	cat, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	bookings, err := e.store.ListBookings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	idx := cat.index()
	byMovie := make(map[uint64][]model.Booking)
	for _, b := range bookings {
		if mid, ok := idx.movieOf[b.ShowID]; ok {
			byMovie[mid] = append(byMovie[mid], b)
		}
	}

	out := make([]MovieRevenue, 0, len(cat.movies))
	for _, m := range cat.movies {
		out = append(out, movieRevenue(m, byMovie[m.ID]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalRevenue.GreaterThan(out[j].TotalRevenue) })
	return out, nil
}

// TopMovie returns the movie with the highest confirmed revenue, or nil
// when nothing has been sold.
func (e *Engine) TopMovie(ctx context.Context) (*MovieRevenue, error) {
	cat, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	bookings, err := e.store.ListBookings(ctx, confirmedOnly)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	keys, groups := groupInOrder(bookings, cat.index().movieOf)
	best, ok := pickTop(keys, groups)
	if !ok {
		return nil, nil
	}
	for _, m := range cat.movies {
		if m.ID == best {
			res := movieRevenue(m, groups[best])
			return &res, nil
		}
	}
	res := movieRevenue(model.Movie{ID: best}, groups[best])
	return &res, nil
}

// OpeningRevenue reports each movie's confirmed revenue from bookings
// created inside the period that starts on the movie's first show
// date, highest first.  Movies without a dated show stay in the list
// with zero revenue and no window.
func (e *Engine) OpeningRevenue(ctx context.Context, p window.Period) ([]OpeningRevenue, error) {
	cat, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	bookings, err := e.store.ListBookings(ctx, confirmedOnly)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	firstShow := make(map[uint64]*time.Time)
	for _, s := range cat.shows {
		if s.ShowDate == nil {
			continue
		}
		d := e.calendarDate(*s.ShowDate)
		if cur, ok := firstShow[s.MovieID]; !ok || d.Before(*cur) {
			firstShow[s.MovieID] = &d
		}
	}

	idx := cat.index()
	byMovie := make(map[uint64][]model.Booking)
	for _, b := range bookings {
		if mid, ok := idx.movieOf[b.ShowID]; ok {
			byMovie[mid] = append(byMovie[mid], b)
		}
	}

	out := make([]OpeningRevenue, 0, len(cat.movies))
	for _, m := range cat.movies {
		row := OpeningRevenue{Period: p.String()}
		w, ok := window.ResolveFor(firstShow[m.ID], p)
		if !ok {
			row.MovieRevenue = movieRevenue(m, nil)
			out = append(out, row)
			continue
		}
		var inWindow []model.Booking
		for _, b := range byMovie[m.ID] {
			if w.Contains(b.CreatedAt) {
				inWindow = append(inWindow, b)
			}
		}
		row.MovieRevenue = movieRevenue(m, inWindow)
		row.WindowStart, row.WindowEnd = &w.Start, &w.End
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalRevenue.GreaterThan(out[j].TotalRevenue) })
	return out, nil
}

func movieRevenue(m model.Movie, bookings []model.Booking) MovieRevenue {
	return MovieRevenue{
		MovieID:       m.ID,
		MovieTitle:    m.Title,
		TotalRevenue:  metric.SumConfirmedPrice(bookings),
		TotalBookings: metric.CountWhere(bookings, isConfirmed),
	}
}

// groupInOrder buckets bookings by the key keyOf assigns to their show
// and remembers the order in which keys first appeared.  Bookings whose
// show has no key are dropped.
func groupInOrder(bookings []model.Booking, keyOf map[uint64]uint64) ([]uint64, map[uint64][]model.Booking) {
	var keys []uint64
	groups := make(map[uint64][]model.Booking)
	for _, b := range bookings {
		k, ok := keyOf[b.ShowID]
		if !ok {
			continue
		}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], b)
	}
	return keys, groups
}

// pickTop returns the key with the highest confirmed revenue.  Only a
// strictly greater total replaces the current leader, so ties keep the
// earliest key.
func pickTop(keys []uint64, groups map[uint64][]model.Booking) (uint64, bool) {
	if len(keys) == 0 {
		return 0, false
	}
	best := keys[0]
	bestRev := metric.SumConfirmedPrice(groups[best])
	for _, k := range keys[1:] {
		if rev := metric.SumConfirmedPrice(groups[k]); rev.GreaterThan(bestRev) {
			best, bestRev = k, rev
		}
	}
	return best, true
}
