package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
	"github.com/iliyamo/cinema-analytics/internal/cache"
	"github.com/iliyamo/cinema-analytics/internal/repository"
)

// Bounds of the top-rated listing size.
const (
	defaultTopRated = 10
	maxTopRated     = 50
)

// RankingReader serves the leaderboard kept in redis.
type RankingReader interface {
	Top(ctx context.Context, limit int) ([]cache.RankedMovie, error)
}

// MovieCatalog is the SQL fallback and title lookup for rankings.
type MovieCatalog interface {
	TopRated(ctx context.Context, limit int) ([]repository.RatedMovie, error)
	MovieTitles(ctx context.Context, ids []uint64) (map[uint64]string, error)
}

// MovieHandler serves public movie rankings.
type MovieHandler struct {
	Movies  MovieCatalog
	Ranking RankingReader // nil when redis is unavailable
	Log     *zap.Logger
}

// TopRated: GET /v1/movies/top-rated?limit=10.  Reads the redis
// leaderboard when present and falls back to SQL when it is missing,
// empty or failing.
func (h *MovieHandler) TopRated(c echo.Context) error {
	limit := defaultTopRated
	n, err := queryInt(c, "limit")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if n != nil {
		if *n < 1 || *n > maxTopRated {
			return respondError(c, h.Log, apperror.Invalid("limit", "must be between 1 and 50"))
		}
		limit = *n
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if h.Ranking != nil {
		out, err := h.fromRanking(ctx, limit)
		if err == nil && len(out) > 0 {
			return c.JSON(http.StatusOK, echo.Map{"items": out, "source": "ranking"})
		}
		if err != nil && h.Log != nil {
			h.Log.Warn("ranking read failed, falling back to SQL", zap.Error(err))
		}
	}

	out, err := h.Movies.TopRated(ctx, limit)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "source": "database"})
}

func (h *MovieHandler) fromRanking(ctx context.Context, limit int) ([]repository.RatedMovie, error) {
	ranked, err := h.Ranking.Top(ctx, limit)
	if err != nil || len(ranked) == 0 {
		return nil, err
	}
	ids := make([]uint64, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.MovieID)
	}
	titles, err := h.Movies.MovieTitles(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]repository.RatedMovie, 0, len(ranked))
	for _, r := range ranked {
		title, ok := titles[r.MovieID]
		if !ok {
			continue // deleted since it was ranked
		}
		out = append(out, repository.RatedMovie{ID: r.MovieID, Title: title, Rating: r.Rating, Votes: r.Votes})
	}
	return out, nil
}
