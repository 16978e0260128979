// Package repository contains data access logic separated from HTTP handlers.
// This file reads cinemas, the venues that contain halls.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers

	"github.com/iliyamo/cinema-analytics/internal/model"
)

// CinemaRepo encapsulates all database queries related to cinemas.  It
// depends on a sql.DB connection which should be configured elsewhere.
type CinemaRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewCinemaRepo constructs a CinemaRepo with the provided DB handle.
func NewCinemaRepo(db *sql.DB) *CinemaRepo {
	return &CinemaRepo{db: db}
}

// ListCinemas returns all cinemas ordered by id.
func (r *CinemaRepo) ListCinemas(ctx context.Context) ([]model.Cinema, error) {
	const q = `SELECT id, name, address FROM cinemas ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Cinema
	for rows.Next() {
		var (
			c       model.Cinema
			address sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &address); err != nil {
			return nil, err
		}
		c.Address = address.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
