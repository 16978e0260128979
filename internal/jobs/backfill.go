// Package jobs runs periodic maintenance work on a gocron scheduler.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/rating"
)

// Backfiller recomputes every stored movie rating.
type Backfiller interface {
	Backfill(ctx context.Context) (rating.BackfillResult, error)
}

// Scheduler owns the background jobs of the service.
type Scheduler struct {
	s   gocron.Scheduler
	log *zap.Logger
}

// StartRatingBackfill schedules a full rating recompute every interval,
// starting immediately, so ratings left stale by swallowed write
// failures converge.  Runs never overlap; a run still busy when the
// next one is due pushes that one back.  A non-positive interval
// disables the job and returns a nil Scheduler.
func StartRatingBackfill(ctx context.Context, b Backfiller, every time.Duration, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	if every <= 0 {
		return nil, nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			start := time.Now()
			res, err := b.Backfill(ctx)
			if err != nil {
				log.Error("rating backfill failed", zap.Error(err))
				return
			}
			log.Info("rating backfill done",
				zap.Int("movies", res.Movies),
				zap.Int("failed", res.Failed),
				zap.Duration("took", time.Since(start)))
		}),
		gocron.WithName("rating-backfill"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	s.Start()
	log.Info("rating backfill scheduled", zap.Duration("every", every))
	return &Scheduler{s: s, log: log}, nil
}

// Shutdown stops the scheduler and waits for a running job.  It is a
// no-op on a nil Scheduler.
func (s *Scheduler) Shutdown() error {
	if s == nil {
		return nil
	}
	return s.s.Shutdown()
}
