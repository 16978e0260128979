package rating

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
	"github.com/iliyamo/cinema-analytics/internal/model"
	"github.com/iliyamo/cinema-analytics/internal/queue"
)

type publisherMock struct{ mock.Mock }

func (m *publisherMock) PublishRatingRecompute(ctx context.Context, ev queue.RatingRecomputeEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type rankingMock struct{ mock.Mock }

func (m *rankingMock) UpdateMovie(ctx context.Context, movieID uint64, r decimal.Decimal, votes int) error {
	return m.Called(ctx, movieID, r.String(), votes).Error(0)
}

var (
	fixedNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	clock    = func() time.Time { return fixedNow }
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestVoteIsUpsertedPerUserAndMovie(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(3)
	store.allow(7, 3)
	m := New(store, nil, WithClock(clock))

	first, err := m.Vote(ctx, 7, 3, 4)
	require.NoError(t, err)
	assert.True(t, store.rating(3).Equal(dec("4")))

	second, err := m.Vote(ctx, 7, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.RatingValue)
	assert.Equal(t, fixedNow, second.VoteTime)

	votes, err := m.ListVotes(ctx, model.VoteFilter{MovieID: ptr(uint64(3))})
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, 5, votes[0].RatingValue)
	assert.True(t, store.rating(3).Equal(dec("5")))
	assert.Equal(t, fixedNow, store.modified[3])
}

func TestVoteRecomputesMeanOfAllVotes(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(3)
	for _, u := range []uint64{1, 2, 3, 4} {
		store.allow(u, 3)
	}
	m := New(store, nil, WithClock(clock))

	for u, v := range map[uint64]int{1: 5, 2: 4, 3: 4, 4: 4} {
		_, err := m.Vote(ctx, u, 3, v)
		require.NoError(t, err)
	}
	// 17 / 4 = 4.25 rounds half to even.
	assert.Equal(t, "4.2", store.rating(3).String())
}

func TestVoteRequiresConfirmedBooking(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(3)
	m := New(store, nil, WithClock(clock))

	_, err := m.Vote(ctx, 7, 3, 4)
	var ne *apperror.NotEligibleError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, uint64(7), ne.UserID)
	assert.Equal(t, uint64(3), ne.MovieID)

	votes, err := m.ListVotes(ctx, model.VoteFilter{})
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestVoteRejectsOutOfRangeValues(t *testing.T) {
	store := newMemStore(3)
	store.allow(7, 3)
	m := New(store, nil)

	for _, v := range []int{0, 6, -1} {
		_, err := m.Vote(context.Background(), 7, 3, v)
		assert.True(t, apperror.IsValidation(err), "value %d", v)
	}
	_, err := m.UpdateVote(context.Background(), 1, 9)
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateVote(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(3)
	store.allow(1, 3)
	store.allow(2, 3)
	m := New(store, nil, WithClock(clock))

	v, err := m.Vote(ctx, 1, 3, 1)
	require.NoError(t, err)
	_, err = m.Vote(ctx, 2, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, "1.5", store.rating(3).String())

	updated, err := m.UpdateVote(ctx, v.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.RatingValue)
	assert.Equal(t, "3.5", store.rating(3).String())

	_, err = m.UpdateVote(ctx, 999, 3)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteLastVoteResetsRating(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(3)
	store.allow(7, 3)
	m := New(store, nil, WithClock(clock))

	v, err := m.Vote(ctx, 7, 3, 4)
	require.NoError(t, err)
	require.True(t, store.rating(3).Equal(dec("4")))

	require.NoError(t, m.DeleteVote(ctx, v.ID))
	assert.True(t, store.rating(3).IsZero())

	err = m.DeleteVote(ctx, v.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRecomputeFailureIsSwallowedAndPublished(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(3)
	store.allow(7, 3)
	store.failRating = errors.New("lock wait timeout")

	pub := new(publisherMock)
	pub.On("PublishRatingRecompute", ctx, mock.MatchedBy(func(ev queue.RatingRecomputeEvent) bool {
		return ev.MovieID == 3 && ev.RequestedAt == "2024-03-10T15:00:00Z"
	})).Return(nil).Once()

	core, logs := observer.New(zap.ErrorLevel)
	m := New(store, zap.New(core), WithClock(clock), WithPublisher(pub))

	v, err := m.Vote(ctx, 7, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, v.RatingValue)

	pub.AssertExpectations(t)
	entries := logs.FilterMessage("derived rating write failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(3), entries[0].ContextMap()["movie_id"])
}

func TestRecomputeOfMissingMovie(t *testing.T) {
	m := New(newMemStore(), nil, WithClock(clock))
	_, err := m.Recompute(context.Background(), 42)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRecomputePushesRanking(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(3)
	store.allow(7, 3)

	rank := new(rankingMock)
	rank.On("UpdateMovie", ctx, uint64(3), "4", 1).Return(nil).Once()
	rank.On("UpdateMovie", ctx, uint64(3), "0", 0).Return(errors.New("redis down")).Once()
	m := New(store, nil, WithClock(clock), WithRanking(rank))

	v, err := m.Vote(ctx, 7, 3, 4)
	require.NoError(t, err)
	// A ranking failure does not fail the mutation.
	require.NoError(t, m.DeleteVote(ctx, v.ID))
	rank.AssertExpectations(t)
}

func TestStatsHistogram(t *testing.T) {
	ctx := context.Background()

	t.Run("no votes", func(t *testing.T) {
		m := New(newMemStore(3), nil)
		s, err := m.Stats(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 0, s.TotalVotes)
		assert.True(t, s.AverageRating.IsZero())
		assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, s.StarCounts)
	})

	t.Run("only five stars", func(t *testing.T) {
		store := newMemStore(3)
		m := New(store, nil, WithClock(clock))
		for _, u := range []uint64{1, 2} {
			store.allow(u, 3)
			_, err := m.Vote(ctx, u, 3, 5)
			require.NoError(t, err)
		}
		s, err := m.Stats(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, s.TotalVotes)
		assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 2}, s.StarCounts)
		assert.True(t, s.AverageRating.Equal(dec("5")))
	})

	t.Run("buckets sum to total", func(t *testing.T) {
		store := newMemStore(3)
		m := New(store, nil, WithClock(clock))
		for u, v := range map[uint64]int{1: 1, 2: 2, 3: 2, 4: 5} {
			store.allow(u, 3)
			_, err := m.Vote(ctx, u, 3, v)
			require.NoError(t, err)
		}
		s, err := m.Stats(ctx, 3)
		require.NoError(t, err)
		sum := 0
		for _, n := range s.StarCounts {
			sum += n
		}
		assert.Equal(t, s.TotalVotes, sum)
		assert.Len(t, s.StarCounts, 5)
		assert.Equal(t, "2.50", s.AverageRating.StringFixed(2))
	})
}

func TestListVotesFilters(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(3, 4)
	day := func(d int) time.Time { return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC) }
	seed := []model.Vote{
		{UserID: 1, MovieID: 3, RatingValue: 5, VoteTime: day(1)},
		{UserID: 2, MovieID: 3, RatingValue: 2, VoteTime: day(5)},
		{UserID: 1, MovieID: 4, RatingValue: 3, VoteTime: day(9)},
		{UserID: 3, MovieID: 4, RatingValue: 4, VoteTime: day(12)},
	}
	for _, v := range seed {
		_, err := store.UpsertVote(ctx, v)
		require.NoError(t, err)
	}
	m := New(store, nil)

	tests := []struct {
		name  string
		f     model.VoteFilter
		users []uint64
	}{
		{"no filters", model.VoteFilter{}, []uint64{1, 2, 1, 3}},
		{"by movie", model.VoteFilter{MovieID: ptr(uint64(4))}, []uint64{1, 3}},
		{"by user", model.VoteFilter{UserID: ptr(uint64(1))}, []uint64{1, 1}},
		{"rating range", model.VoteFilter{MinRating: ptr(3), MaxRating: ptr(4)}, []uint64{1, 3}},
		{"time range inclusive", model.VoteFilter{From: ptr(day(5)), To: ptr(day(9))}, []uint64{2, 1}},
		{"combined", model.VoteFilter{UserID: ptr(uint64(1)), MinRating: ptr(4)}, []uint64{1}},
		{"nothing matches", model.VoteFilter{MovieID: ptr(uint64(3)), MinRating: ptr(3), MaxRating: ptr(4)}, []uint64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			votes, err := m.ListVotes(ctx, tt.f)
			require.NoError(t, err)
			users := []uint64{}
			for _, v := range votes {
				users = append(users, v.UserID)
			}
			assert.Equal(t, tt.users, users)
		})
	}

	invalid := []model.VoteFilter{
		{MinRating: ptr(4), MaxRating: ptr(2)},
		{MinRating: ptr(0)},
		{MaxRating: ptr(6)},
		{From: ptr(day(9)), To: ptr(day(1))},
	}
	for _, f := range invalid {
		_, err := m.ListVotes(ctx, f)
		assert.True(t, apperror.IsValidation(err))
	}
}

func TestMyVote(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(3)
	store.allow(7, 3)
	m := New(store, nil, WithClock(clock))

	_, err := m.MyVote(ctx, 7, 3)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = m.Vote(ctx, 7, 3, 2)
	require.NoError(t, err)
	v, err := m.MyVote(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, v.RatingValue)
}

func TestBackfill(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(1, 2, 3)
	_, _ = store.UpsertVote(ctx, model.Vote{UserID: 1, MovieID: 2, RatingValue: 3})
	_, _ = store.UpsertVote(ctx, model.Vote{UserID: 2, MovieID: 2, RatingValue: 4})
	store.ratings[3] = dec("4.8") // stale: movie 3 has no votes
	m := New(store, nil, WithClock(clock))

	res, err := m.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Movies: 3, Failed: 0}, res)
	assert.True(t, store.rating(1).IsZero())
	assert.Equal(t, "3.5", store.rating(2).String())
	assert.True(t, store.rating(3).IsZero())

	store.failRating = errors.New("read only")
	res, err = m.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Failed)
}

func TestConcurrentVotesSettleOnFinalState(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(3)
	m := New(store, nil, WithClock(clock), WithLocker(NewKeyedMutex()))

	var wg sync.WaitGroup
	for u := uint64(1); u <= 20; u++ {
		store.allow(u, 3)
	}
	for u := uint64(1); u <= 20; u++ {
		wg.Add(1)
		go func(u uint64) {
			defer wg.Done()
			_, err := m.Vote(ctx, u, 3, int(u%5)+1)
			assert.NoError(t, err)
		}(u)
	}
	wg.Wait()

	votes, err := m.ListVotes(ctx, model.VoteFilter{MovieID: ptr(uint64(3))})
	require.NoError(t, err)
	assert.True(t, store.rating(3).Equal(Average(votes)))
}

func TestAverage(t *testing.T) {
	tests := []struct {
		values []int
		want   string
	}{
		{nil, "0"},
		{[]int{4}, "4"},
		{[]int{4, 5}, "4.5"},
		{[]int{1, 2, 2}, "1.7"},
		{[]int{5, 5, 4, 4, 4, 4, 4, 4}, "4.2"},
	}
	for _, tt := range tests {
		votes := make([]model.Vote, 0, len(tt.values))
		for _, v := range tt.values {
			votes = append(votes, model.Vote{RatingValue: v})
		}
		assert.Equal(t, tt.want, Average(votes).String(), "values %v", tt.values)
	}
}

func ptr[T any](v T) *T { return &v }
