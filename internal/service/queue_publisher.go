// Package service holds outbound integrations used by the rating
// maintainer.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/queue"
)

// QueuePublisher publishes domain events to RabbitMQ.  Each publish
// opens its own connection; events are rare (only failed recomputes)
// so there is no pool to keep alive.
type QueuePublisher struct {
	url string
	log *zap.Logger
}

// NewQueuePublisher builds a publisher for the broker at url.
func NewQueuePublisher(url string, log *zap.Logger) *QueuePublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueuePublisher{url: url, log: log.Named("publisher")}
}

// PublishRatingRecompute publishes ev to the rating.recompute queue.
// Messages are persistent and carry a unique message id.  Errors are
// logged and returned so the caller may ignore them.
func (p *QueuePublisher) PublishRatingRecompute(ctx context.Context, ev queue.RatingRecomputeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.publish(ctx, queue.RatingRecomputeQueue, body)
}

func (p *QueuePublisher) publish(ctx context.Context, queueName string, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.log.Warn("queue declare failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, msg); err != nil {
		p.log.Warn("publish failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}
	return nil
}
