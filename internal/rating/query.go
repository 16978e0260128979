package rating

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
	"github.com/iliyamo/cinema-analytics/internal/model"
)

// Stats summarises the votes of one movie.  StarCounts always has an
// entry for every rating value, zero when nobody picked it.
type Stats struct {
	MovieID       uint64          `json:"movieId"`
	TotalVotes    int             `json:"totalVotes"`
	AverageRating decimal.Decimal `json:"averageRating"`
	StarCounts    map[int]int     `json:"starCounts"`
}

// Stats returns the vote count, mean and histogram of a movie.  The
// mean is exact up to two decimal places; it is not the stored
// one-decimal rating.
func (m *Maintainer) Stats(ctx context.Context, movieID uint64) (Stats, error) {
	votes, err := m.store.ListVotes(ctx, model.VoteFilter{MovieID: &movieID})
	if err != nil {
		return Stats{}, fmt.Errorf("list votes: %w", err)
	}
	s := Stats{
		MovieID:       movieID,
		TotalVotes:    len(votes),
		AverageRating: decimal.Zero,
		StarCounts:    make(map[int]int, model.MaxRating),
	}
	for r := model.MinRating; r <= model.MaxRating; r++ {
		s.StarCounts[r] = 0
	}
	for _, v := range votes {
		s.StarCounts[v.RatingValue]++
	}
	if len(votes) > 0 {
		s.AverageRating = mean(votes).Round(2)
	}
	return s, nil
}

// ListVotes returns the votes matching every populated field of f.
func (m *Maintainer) ListVotes(ctx context.Context, f model.VoteFilter) ([]model.Vote, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	votes, err := m.store.ListVotes(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return votes, nil
}

// MyVote returns the vote userID cast for movieID.
func (m *Maintainer) MyVote(ctx context.Context, userID, movieID uint64) (model.Vote, error) {
	return m.store.FindVote(ctx, userID, movieID)
}

func validateFilter(f model.VoteFilter) error {
	if f.MinRating != nil {
		if err := validateBound("min_rating", *f.MinRating); err != nil {
			return err
		}
	}
	if f.MaxRating != nil {
		if err := validateBound("max_rating", *f.MaxRating); err != nil {
			return err
		}
	}
	if f.MinRating != nil && f.MaxRating != nil && *f.MinRating > *f.MaxRating {
		return apperror.Invalid("max_rating", "must not be below min_rating")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return apperror.Invalid("to", "must not be before from")
	}
	return nil
}

func validateBound(field string, v int) error {
	if v < model.MinRating || v > model.MaxRating {
		return apperror.Invalid(field, fmt.Sprintf("must be between %d and %d", model.MinRating, model.MaxRating))
	}
	return nil
}

// GetVote returns a vote by id.
func (m *Maintainer) GetVote(ctx context.Context, voteID uint64) (model.Vote, error) {
	return m.store.GetVote(ctx, voteID)
}
