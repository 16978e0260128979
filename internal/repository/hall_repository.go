package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cinema-analytics/internal/model"
)

// HallRepo reads screening halls.
type HallRepo struct {
	db *sql.DB
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

// ListHalls returns every hall ordered by id.
func (r *HallRepo) ListHalls(ctx context.Context) ([]model.Hall, error) {
	const q = `SELECT id, cinema_id, name FROM cinema_halls ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Hall
	for rows.Next() {
		var h model.Hall
		if err := rows.Scan(&h.ID, &h.CinemaID, &h.Name); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
