package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"taxiapp/pkg/logger"
)

const publishTimeout = 3 * time.Second

var _ IPublisher = (*RabbitMQ)(nil)

// RabbitMQ publishes events to a durable topic exchange, routed by event name.
type RabbitMQ struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      logger.ILogger
}

func NewRabbitMQ(url, exchange string, log logger.ILogger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Error("failed to connect RabbitMQ", logger.Error(err))
		return nil, fmt.Errorf("rabbit connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info("RabbitMQ connected", logger.String("exchange", exchange))
	return &RabbitMQ{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	pubctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch.PublishWithContext(pubctx, r.exchange, event.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ch.Close(); err != nil {
		r.log.Warning("rabbit channel close", logger.Error(err))
	}
	return r.conn.Close()
}
