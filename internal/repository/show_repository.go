// Package repository contains data access logic for Show domain operations.
// A Show is a scheduled screening of a movie in a hall; the analytics
// engine joins bookings to movies and cinemas through it.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction

	"github.com/iliyamo/cinema-analytics/internal/model"
)

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// ListShows returns every show ordered by id.  show_date is a nullable
// DATE column; with parseTime=true the driver yields midnight UTC of
// that day, which callers reinterpret as a calendar date.
func (r *ShowRepo) ListShows(ctx context.Context) ([]model.Show, error) {
	const q = `SELECT id, movie_id, hall_id, show_date, start_time, end_time, ticket_price
	           FROM shows ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Show
	for rows.Next() {
		var (
			s    model.Show
			date sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.MovieID, &s.HallID, &date, &s.StartTime, &s.EndTime, &s.TicketPrice); err != nil {
			return nil, err
		}
		if date.Valid {
			d := date.Time
			s.ShowDate = &d
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
