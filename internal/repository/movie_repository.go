package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-analytics/internal/model"
)

// RatedMovie is a movie together with the number of votes behind its
// rating.
type RatedMovie struct {
	ID     uint64          `json:"id"`
	Title  string          `json:"title"`
	Rating decimal.Decimal `json:"rating"`
	Votes  int             `json:"votes"`
}

// MovieRepo reads movies and stores their derived rating.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = "id, title, rating, created_at, modified_at"

func scanMovie(sc interface{ Scan(...any) error }) (model.Movie, error) {
	var (
		m        model.Movie
		modified sql.NullTime
	)
	if err := sc.Scan(&m.ID, &m.Title, &m.Rating, &m.CreatedAt, &modified); err != nil {
		return model.Movie{}, err
	}
	if modified.Valid {
		t := modified.Time
		m.ModifiedAt = &t
	}
	return m, nil
}

// ListMovies returns every movie ordered by id.
func (r *MovieRepo) ListMovies(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMovie fetches a movie by id.  It returns ErrMovieNotFound if no
// row is found.
func (r *MovieRepo) GetMovie(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Movie{}, ErrMovieNotFound
		}
		return model.Movie{}, err
	}
	return m, nil
}

// ListMovieIDs returns the id of every movie in ascending order.
func (r *MovieRepo) ListMovieIDs(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM movies ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetMovieRating stores a recomputed rating and stamps modified_at.
// The DSN sets clientFoundRows, so an unchanged row still counts as
// affected and zero means the movie is gone.
func (r *MovieRepo) SetMovieRating(ctx context.Context, movieID uint64, rating decimal.Decimal, at time.Time) error {
	const q = `UPDATE movies SET rating = ?, modified_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, rating.StringFixed(1), at.UTC(), movieID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// TopRated returns the highest rated movies that have at least one
// vote.  Ties are broken by vote count and then by id.
func (r *MovieRepo) TopRated(ctx context.Context, limit int) ([]RatedMovie, error) {
	const q = `SELECT m.id, m.title, m.rating, COUNT(v.id) AS votes
	           FROM movies m
	           JOIN votes v ON v.movie_id = m.id
	           GROUP BY m.id, m.title, m.rating
	           ORDER BY m.rating DESC, votes DESC, m.id ASC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RatedMovie, 0, limit)
	for rows.Next() {
		var m RatedMovie
		if err := rows.Scan(&m.ID, &m.Title, &m.Rating, &m.Votes); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MovieTitles maps the given ids to movie titles.  Unknown ids are
// absent from the result.
func (r *MovieRepo) MovieTitles(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, "SELECT id, title FROM movies WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    uint64
			title string
		)
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		out[id] = title
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
