package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cinema-analytics/internal/model"
)

// BookingRepo reads bookings and booked seats.  Bookings are written by
// the booking workflow; nothing here mutates them.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// ListBookings returns the bookings matching f ordered by id.  Each
// populated field of the filter becomes one condition of the WHERE
// clause, mirroring BookingFilter.Predicates.
func (r *BookingRepo) ListBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	where := []string{}
	args := []any{}

	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.CreatedFrom != nil {
		where = append(where, "created_at >= ?")
		args = append(args, f.CreatedFrom.UTC())
	}
	if f.CreatedBefore != nil {
		where = append(where, "created_at < ?")
		args = append(args, f.CreatedBefore.UTC())
	}

	q := `SELECT id, user_id, show_id, status, total_price, number_of_seats, created_at
	      FROM bookings
	      WHERE ` + whereClause(where) + `
	      ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ShowID, &b.Status, &b.TotalPrice, &b.NumberOfSeats, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HasConfirmedBooking reports whether the user holds at least one
// confirmed booking for any show of the movie.
func (r *BookingRepo) HasConfirmedBooking(ctx context.Context, userID, movieID uint64) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM bookings b
	             JOIN shows s ON s.id = b.show_id
	             WHERE b.user_id = ? AND s.movie_id = ? AND b.status = ?)`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, userID, movieID, model.BookingConfirmed).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// CountBookedSeats counts the seats of the given shows that belong to
// confirmed bookings.
func (r *BookingRepo) CountBookedSeats(ctx context.Context, showIDs []uint64) (int, error) {
	if len(showIDs) == 0 {
		return 0, nil
	}
	q := `SELECT COUNT(*)
	      FROM booked_seats bs
	      JOIN bookings b ON b.id = bs.booking_id
	      WHERE b.status = ? AND bs.show_id IN (` + placeholders(len(showIDs)) + `)`
	args := make([]any, 0, len(showIDs)+1)
	args = append(args, model.BookingConfirmed)
	for _, id := range showIDs {
		args = append(args, id)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
