// Package rating keeps Movie.Rating in step with the votes cast for
// the movie.  Every vote mutation goes through a Maintainer, which
// checks eligibility, writes the vote and then re-derives the movie's
// rating from the full vote set.
package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
	"github.com/iliyamo/cinema-analytics/internal/model"
	"github.com/iliyamo/cinema-analytics/internal/queue"
)

// Store is the persistence the maintainer needs.  Lookups by id or by
// (user, movie) return an error wrapping apperror.ErrNotFound when
// nothing matches.
type Store interface {
	HasConfirmedBooking(ctx context.Context, userID, movieID uint64) (bool, error)
	// UpsertVote inserts the vote or, when (UserID, MovieID) already
	// voted, overwrites RatingValue and VoteTime.  It returns the
	// stored row.
	UpsertVote(ctx context.Context, v model.Vote) (model.Vote, error)
	GetVote(ctx context.Context, id uint64) (model.Vote, error)
	FindVote(ctx context.Context, userID, movieID uint64) (model.Vote, error)
	UpdateVoteValue(ctx context.Context, id uint64, value int, at time.Time) error
	DeleteVote(ctx context.Context, id uint64) error
	ListVotes(ctx context.Context, f model.VoteFilter) ([]model.Vote, error)
	SetMovieRating(ctx context.Context, movieID uint64, rating decimal.Decimal, at time.Time) error
	ListMovieIDs(ctx context.Context) ([]uint64, error)
}

// Locker serialises rating work per movie.  The returned function
// releases the lock.
type Locker interface {
	Lock(ctx context.Context, movieID uint64) (func(), error)
}

// Publisher announces ratings that could not be persisted so a
// consumer can repair them later.
type Publisher interface {
	PublishRatingRecompute(ctx context.Context, ev queue.RatingRecomputeEvent) error
}

// RankingSink receives every freshly computed rating.
type RankingSink interface {
	UpdateMovie(ctx context.Context, movieID uint64, rating decimal.Decimal, votes int) error
}

// Option configures a Maintainer.
type Option func(*Maintainer)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(m *Maintainer) { m.now = now } }

// WithLocker serialises vote mutations per movie.
func WithLocker(l Locker) Option { return func(m *Maintainer) { m.locker = l } }

// WithPublisher enables repair events for failed recomputes.
func WithPublisher(p Publisher) Option { return func(m *Maintainer) { m.publisher = p } }

// WithRanking pushes recomputed ratings to a leaderboard.
func WithRanking(r RankingSink) Option { return func(m *Maintainer) { m.ranking = r } }

// Maintainer owns every write to votes and to Movie.Rating.
type Maintainer struct {
	store     Store
	log       *zap.Logger
	now       func() time.Time
	locker    Locker
	publisher Publisher
	ranking   RankingSink
}

// New builds a Maintainer.  A nil logger discards log output.
func New(store Store, log *zap.Logger, opts ...Option) *Maintainer {
	if store == nil {
		panic("rating: nil store")
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Maintainer{store: store, log: log, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Vote records userID's rating of movieID, replacing any earlier vote
// by the same user, and refreshes the movie's rating.  Users without a
// confirmed booking for the movie get a NotEligibleError and nothing
// is written.
func (m *Maintainer) Vote(ctx context.Context, userID, movieID uint64, value int) (model.Vote, error) {
	if err := validateValue(value); err != nil {
		return model.Vote{}, err
	}
	ok, err := m.store.HasConfirmedBooking(ctx, userID, movieID)
	if err != nil {
		return model.Vote{}, fmt.Errorf("check eligibility: %w", err)
	}
	if !ok {
		return model.Vote{}, &apperror.NotEligibleError{UserID: userID, MovieID: movieID}
	}

	unlock := m.lock(ctx, movieID)
	defer unlock()

	v, err := m.store.UpsertVote(ctx, model.Vote{
		UserID:      userID,
		MovieID:     movieID,
		RatingValue: value,
		VoteTime:    m.now().UTC(),
	})
	if err != nil {
		return model.Vote{}, fmt.Errorf("upsert vote: %w", err)
	}
	m.refresh(ctx, movieID)
	return v, nil
}

// UpdateVote overwrites the value of an existing vote.
func (m *Maintainer) UpdateVote(ctx context.Context, voteID uint64, value int) (model.Vote, error) {
	if err := validateValue(value); err != nil {
		return model.Vote{}, err
	}
	v, err := m.store.GetVote(ctx, voteID)
	if err != nil {
		return model.Vote{}, err
	}

	unlock := m.lock(ctx, v.MovieID)
	defer unlock()

	at := m.now().UTC()
	if err := m.store.UpdateVoteValue(ctx, voteID, value, at); err != nil {
		return model.Vote{}, fmt.Errorf("update vote %d: %w", voteID, err)
	}
	v.RatingValue, v.VoteTime = value, at
	m.refresh(ctx, v.MovieID)
	return v, nil
}

// DeleteVote removes a vote and refreshes the rating of the movie it
// belonged to.
func (m *Maintainer) DeleteVote(ctx context.Context, voteID uint64) error {
	v, err := m.store.GetVote(ctx, voteID)
	if err != nil {
		return err
	}
	movieID := v.MovieID

	unlock := m.lock(ctx, movieID)
	defer unlock()

	if err := m.store.DeleteVote(ctx, voteID); err != nil {
		return fmt.Errorf("delete vote %d: %w", voteID, err)
	}
	m.refresh(ctx, movieID)
	return nil
}

// Recompute re-derives and stores a movie's rating.  It is safe to
// call at any time, e.g. for repair or backfill.
func (m *Maintainer) Recompute(ctx context.Context, movieID uint64) (decimal.Decimal, error) {
	unlock := m.lock(ctx, movieID)
	defer unlock()
	return m.recompute(ctx, movieID)
}

// BackfillResult reports a Backfill run.
type BackfillResult struct {
	Movies int
	Failed int
}

// Backfill recomputes the rating of every movie.  Per-movie failures
// are logged and counted; only failing to list movies is an error.
func (m *Maintainer) Backfill(ctx context.Context) (BackfillResult, error) {
	ids, err := m.store.ListMovieIDs(ctx)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("list movies: %w", err)
	}
	res := BackfillResult{Movies: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if _, err := m.Recompute(ctx, id); err != nil {
			res.Failed++
			m.log.Warn("backfill: recompute failed", zap.Uint64("movie_id", id), zap.Error(err))
		}
	}
	return res, nil
}

func (m *Maintainer) recompute(ctx context.Context, movieID uint64) (decimal.Decimal, error) {
	votes, err := m.store.ListVotes(ctx, model.VoteFilter{MovieID: &movieID})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list votes: %w", err)
	}
	r := Average(votes)
	if err := m.store.SetMovieRating(ctx, movieID, r, m.now().UTC()); err != nil {
		return decimal.Zero, fmt.Errorf("store rating: %w", err)
	}
	if m.ranking != nil {
		if err := m.ranking.UpdateMovie(ctx, movieID, r, len(votes)); err != nil {
			m.log.Warn("ranking update failed", zap.Uint64("movie_id", movieID), zap.Error(err))
		}
	}
	m.log.Debug("rating recomputed", zap.Uint64("movie_id", movieID), zap.String("rating", r.String()), zap.Int("votes", len(votes)))
	return r, nil
}

// refresh runs a recompute after a committed vote mutation.  Failures
// are logged and published for repair but never reach the caller.
func (m *Maintainer) refresh(ctx context.Context, movieID uint64) {
	if _, err := m.recompute(ctx, movieID); err != nil {
		failure := &apperror.DerivedWriteFailure{MovieID: movieID, Err: err}
		m.log.Error("derived rating write failed", zap.Uint64("movie_id", movieID), zap.Error(failure))
		if m.publisher == nil {
			return
		}
		ev := queue.RatingRecomputeEvent{
			MovieID:     movieID,
			Reason:      err.Error(),
			RequestedAt: m.now().UTC().Format(time.RFC3339),
		}
		if perr := m.publisher.PublishRatingRecompute(ctx, ev); perr != nil {
			m.log.Warn("publish recompute request failed", zap.Uint64("movie_id", movieID), zap.Error(perr))
		}
	}
}

func (m *Maintainer) lock(ctx context.Context, movieID uint64) func() {
	if m.locker == nil {
		return func() {}
	}
	unlock, err := m.locker.Lock(ctx, movieID)
	if err != nil {
		m.log.Warn("rating lock unavailable, continuing unlocked", zap.Uint64("movie_id", movieID), zap.Error(err))
		return func() {}
	}
	return unlock
}

// Average is the mean rating value rounded half-to-even to one decimal
// place, or zero for no votes.
func Average(votes []model.Vote) decimal.Decimal {
	if len(votes) == 0 {
		return decimal.Zero
	}
	return mean(votes).RoundBank(1)
}

func mean(votes []model.Vote) decimal.Decimal {
	var sum int64
	for _, v := range votes {
		sum += int64(v.RatingValue)
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(votes))))
}

func validateValue(v int) error {
	if v < model.MinRating || v > model.MaxRating {
		return apperror.Invalid("rating_value", fmt.Sprintf("must be between %d and %d", model.MinRating, model.MaxRating))
	}
	return nil
}
