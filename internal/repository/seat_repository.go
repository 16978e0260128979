package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
)

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CountSeatsByHall returns the number of seats of every hall that has
// at least one seat.  Halls without seats are absent from the map.
func (r *SeatRepo) CountSeatsByHall(ctx context.Context) (map[uint64]int, error) {
	const q = `SELECT hall_id, COUNT(*) FROM seats GROUP BY hall_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64]int)
	for rows.Next() {
		var (
			hallID uint64
			n      int
		)
		if err := rows.Scan(&hallID, &n); err != nil {
			return nil, err
		}
		out[hallID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
