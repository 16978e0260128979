package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-analytics/internal/model"
)

// VoteRepo persists votes.  (user_id, movie_id) is unique.
type VoteRepo struct {
	db *sql.DB
}

// NewVoteRepo constructs a VoteRepo with the given DB handle.
func NewVoteRepo(db *sql.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

const voteColumns = "id, user_id, movie_id, rating_value, vote_time"

func scanVote(sc interface{ Scan(...any) error }) (model.Vote, error) {
	var v model.Vote
	err := sc.Scan(&v.ID, &v.UserID, &v.MovieID, &v.RatingValue, &v.VoteTime)
	return v, err
}

// UpsertVote inserts the vote or overwrites the value and time of the
// user's existing vote for the movie.  LAST_INSERT_ID(id) makes the
// driver report the id of the updated row as well.
func (r *VoteRepo) UpsertVote(ctx context.Context, v model.Vote) (model.Vote, error) {
	const q = `INSERT INTO votes (user_id, movie_id, rating_value, vote_time)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             id = LAST_INSERT_ID(id),
	             rating_value = VALUES(rating_value),
	             vote_time = VALUES(vote_time)`
	res, err := r.db.ExecContext(ctx, q, v.UserID, v.MovieID, v.RatingValue, v.VoteTime.UTC())
	if err != nil {
		return model.Vote{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Vote{}, err
	}
	v.ID = uint64(id)
	return v, nil
}

// GetVote fetches a vote by id.
func (r *VoteRepo) GetVote(ctx context.Context, id uint64) (model.Vote, error) {
	v, err := scanVote(r.db.QueryRowContext(ctx, "SELECT "+voteColumns+" FROM votes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vote{}, ErrVoteNotFound
	}
	return v, err
}

// FindVote fetches the vote a user cast for a movie.
func (r *VoteRepo) FindVote(ctx context.Context, userID, movieID uint64) (model.Vote, error) {
	v, err := scanVote(r.db.QueryRowContext(ctx,
		"SELECT "+voteColumns+" FROM votes WHERE user_id = ? AND movie_id = ?", userID, movieID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vote{}, ErrVoteNotFound
	}
	return v, err
}

// UpdateVoteValue overwrites the rating value and vote time of a vote.
func (r *VoteRepo) UpdateVoteValue(ctx context.Context, id uint64, value int, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE votes SET rating_value = ?, vote_time = ? WHERE id = ?", value, at.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVoteNotFound
	}
	return nil
}

// DeleteVote removes a vote by id.
func (r *VoteRepo) DeleteVote(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM votes WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVoteNotFound
	}
	return nil
}

// ListVotes returns the votes matching every populated field of f,
// ordered by id.
func (r *VoteRepo) ListVotes(ctx context.Context, f model.VoteFilter) ([]model.Vote, error) {
	where := []string{}
	args := []any{}

	if f.MovieID != nil {
		where = append(where, "movie_id = ?")
		args = append(args, *f.MovieID)
	}
	if f.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.MinRating != nil {
		where = append(where, "rating_value >= ?")
		args = append(args, *f.MinRating)
	}
	if f.MaxRating != nil {
		where = append(where, "rating_value <= ?")
		args = append(args, *f.MaxRating)
	}
	if f.From != nil {
		where = append(where, "vote_time >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "vote_time <= ?")
		args = append(args, f.To.UTC())
	}

	q := "SELECT " + voteColumns + " FROM votes WHERE " + whereClause(where) + " ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Vote
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
