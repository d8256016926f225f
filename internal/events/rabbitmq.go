package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/constants"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

// RabbitMQConfig describes the RabbitMQ connection.
type RabbitMQConfig struct {
	URL     string
	Queue   string
	Durable bool
}

// RabbitMQ publishes chain events to a durable queue for consumers that
// need delivery guarantees Pub/Sub does not give.
type RabbitMQ struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewRabbitMQ(cfg RabbitMQConfig) (*RabbitMQ, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = constants.DefaultEventsQueue
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, cfg.Durable, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare rabbitmq queue: %w", err)
	}
	return &RabbitMQ{conn: conn, ch: ch, queue: queue}, nil
}

// Publish sends the event as a persistent JSON message.
func (q *RabbitMQ) Publish(ctx context.Context, ev storage.ChainEvent) error {
	if q == nil || q.ch == nil {
		return errors.New("rabbitmq publisher is not initialised")
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal chain event: %w", err)
	}
	// amqp channels are not safe for concurrent publishing
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         string(ev.Type),
		Timestamp:    ev.Timestamp,
		Body:         body,
	})
}

// Consume acknowledges each delivery after handler returns.
func (q *RabbitMQ) Consume(ctx context.Context, handler func(storage.ChainEvent)) error {
	msgs, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume rabbitmq queue: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev storage.ChainEvent
			if err := json.Unmarshal(msg.Body, &ev); err == nil {
				handler(ev)
			}
			_ = msg.Ack(false)
		}
	}
}

func (q *RabbitMQ) Close() error {
	if q == nil {
		return nil
	}
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
