// Package cache keeps derived movie rankings in redis sorted sets so
// the public top-rated listing does not have to aggregate votes on
// every request.
package cache

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	// TopKey ranks movies by rating.
	TopKey = "rank:movies:top"
	// PopularKey ranks movies by vote count.
	PopularKey = "rank:movies:popular"
)

// RankedMovie is one leaderboard entry.
type RankedMovie struct {
	MovieID uint64
	Rating  decimal.Decimal
	Votes   int
}

// RatingBoard is a redis-backed leaderboard of movie ratings.  It
// satisfies rating.RankingSink.
type RatingBoard struct {
	rdb *redis.Client
}

// NewRatingBoard returns a board, or nil when rdb is nil so callers can
// pass it straight through as an optional dependency.
func NewRatingBoard(rdb *redis.Client) *RatingBoard {
	if rdb == nil {
		return nil
	}
	return &RatingBoard{rdb: rdb}
}

// UpdateMovie records a movie's current rating and vote count.  Movies
// without votes leave both rankings.
func (b *RatingBoard) UpdateMovie(ctx context.Context, movieID uint64, rating decimal.Decimal, votes int) error {
	member := strconv.FormatUint(movieID, 10)
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if votes <= 0 {
			p.ZRem(ctx, TopKey, member)
			p.ZRem(ctx, PopularKey, member)
			return nil
		}
		p.ZAdd(ctx, TopKey, redis.Z{Score: rating.InexactFloat64(), Member: member})
		p.ZAdd(ctx, PopularKey, redis.Z{Score: float64(votes), Member: member})
		return nil
	})
	return err
}

// Top returns up to limit movies with the highest rating.  Ties are
// broken by vote count and then by ascending id, the same order the
// database listing uses.
func (b *RatingBoard) Top(ctx context.Context, limit int) ([]RankedMovie, error) {
	if limit <= 0 {
		return nil, nil
	}
	zs, err := b.rdb.ZRevRangeWithScores(ctx, TopKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return nil, nil
	}
	// redis orders equal scores by member, so pull every movie tied with
	// the last one in range before applying our own tiebreak.
	if len(zs) == limit {
		floor := strconv.FormatFloat(zs[len(zs)-1].Score, 'g', -1, 64)
		zs, err = b.rdb.ZRevRangeByScoreWithScores(ctx, TopKey, &redis.ZRangeBy{Min: floor, Max: "+inf"}).Result()
		if err != nil {
			return nil, err
		}
	}

	pipe := b.rdb.Pipeline()
	counts := make([]*redis.FloatCmd, len(zs))
	for i, z := range zs {
		counts[i] = pipe.ZScore(ctx, PopularKey, z.Member.(string))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	type entry struct {
		RankedMovie
		score float64
	}
	entries := make([]entry, 0, len(zs))
	for i, z := range zs {
		id, err := strconv.ParseUint(z.Member.(string), 10, 64)
		if err != nil {
			continue
		}
		votes, _ := counts[i].Result()
		entries = append(entries, entry{
			RankedMovie: RankedMovie{
				MovieID: id,
				Rating:  decimal.NewFromFloat(z.Score).Round(1),
				Votes:   int(votes),
			},
			score: z.Score,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		x, y := entries[i], entries[j]
		if x.score != y.score {
			return x.score > y.score
		}
		if x.Votes != y.Votes {
			return x.Votes > y.Votes
		}
		return x.MovieID < y.MovieID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]RankedMovie, len(entries))
	for i, e := range entries {
		out[i] = e.RankedMovie
	}
	return out, nil
}
