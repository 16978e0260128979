package rating

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
	"github.com/iliyamo/cinema-analytics/internal/model"
)

type eligibility struct{ user, movie uint64 }

// memStore keeps votes and movie ratings in memory.
type memStore struct {
	mu sync.Mutex

	eligible map[eligibility]bool
	votes    map[uint64]model.Vote
	nextID   uint64
	ratings  map[uint64]decimal.Decimal
	modified map[uint64]time.Time

	failRating error
}

func newMemStore(movies ...uint64) *memStore {
	s := &memStore{
		eligible: make(map[eligibility]bool),
		votes:    make(map[uint64]model.Vote),
		ratings:  make(map[uint64]decimal.Decimal),
		modified: make(map[uint64]time.Time),
	}
	for _, id := range movies {
		s.ratings[id] = decimal.Zero
	}
	return s
}

func (s *memStore) allow(user, movie uint64) { s.eligible[eligibility{user, movie}] = true }

func (s *memStore) HasConfirmedBooking(_ context.Context, userID, movieID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eligible[eligibility{userID, movieID}], nil
}

func (s *memStore) UpsertVote(_ context.Context, v model.Vote) (model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cur := range s.votes {
		if cur.UserID == v.UserID && cur.MovieID == v.MovieID {
			cur.RatingValue, cur.VoteTime = v.RatingValue, v.VoteTime
			s.votes[id] = cur
			return cur, nil
		}
	}
	s.nextID++
	v.ID = s.nextID
	s.votes[v.ID] = v
	return v, nil
}

func (s *memStore) GetVote(_ context.Context, id uint64) (model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.votes[id]
	if !ok {
		return model.Vote{}, fmt.Errorf("vote %d: %w", id, apperror.ErrNotFound)
	}
	return v, nil
}

func (s *memStore) FindVote(_ context.Context, userID, movieID uint64) (model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.votes {
		if v.UserID == userID && v.MovieID == movieID {
			return v, nil
		}
	}
	return model.Vote{}, fmt.Errorf("vote: %w", apperror.ErrNotFound)
}

func (s *memStore) UpdateVoteValue(_ context.Context, id uint64, value int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.votes[id]
	if !ok {
		return fmt.Errorf("vote %d: %w", id, apperror.ErrNotFound)
	}
	v.RatingValue, v.VoteTime = value, at
	s.votes[id] = v
	return nil
}

func (s *memStore) DeleteVote(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.votes[id]; !ok {
		return fmt.Errorf("vote %d: %w", id, apperror.ErrNotFound)
	}
	delete(s.votes, id)
	return nil
}

func (s *memStore) ListVotes(_ context.Context, f model.VoteFilter) ([]model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Vote
	for _, v := range s.votes {
		if f.Match(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) SetMovieRating(_ context.Context, movieID uint64, r decimal.Decimal, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRating != nil {
		return s.failRating
	}
	if _, ok := s.ratings[movieID]; !ok {
		return fmt.Errorf("movie %d: %w", movieID, apperror.ErrNotFound)
	}
	s.ratings[movieID] = r
	s.modified[movieID] = at
	return nil
}

func (s *memStore) ListMovieIDs(context.Context) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint64, 0, len(s.ratings))
	for id := range s.ratings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memStore) rating(movieID uint64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratings[movieID]
}
