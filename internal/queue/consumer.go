package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
)

// Recomputer re-derives a movie's rating.
type Recomputer interface {
	Recompute(ctx context.Context, movieID uint64) (decimal.Decimal, error)
}

// RatingConsumer drains the rating.recompute queue and retries each
// requested recompute.
type RatingConsumer struct {
	url string
	r   Recomputer
	log *zap.Logger
}

// NewRatingConsumer builds a consumer for the broker at url.
func NewRatingConsumer(url string, r Recomputer, log *zap.Logger) *RatingConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &RatingConsumer{url: url, r: r, log: log.Named("rating-consumer")}
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes
// until ctx is cancelled.  Connection failures are retried with
// exponential backoff capped at 30s, so the server keeps running while
// the broker is down.
func (c *RatingConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *RatingConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		c.log.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(RatingRecomputeQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(RatingRecomputeQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				c.log.Error("handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one message body.  A movie that no longer exists is
// not an error: there is nothing left to repair.
func (c *RatingConsumer) Handle(ctx context.Context, body []byte) error {
	var ev RatingRecomputeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.MovieID == 0 {
		return errors.New("event without movie_id")
	}
	r, err := c.r.Recompute(ctx, ev.MovieID)
	if errors.Is(err, apperror.ErrNotFound) {
		c.log.Warn("dropping recompute for missing movie", zap.Uint64("movie_id", ev.MovieID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("recompute movie %d: %w", ev.MovieID, err)
	}
	c.log.Info("rating repaired", zap.Uint64("movie_id", ev.MovieID), zap.String("rating", r.String()), zap.String("reason", ev.Reason))
	return nil
}

// sleep waits for d or until ctx is done; it reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
