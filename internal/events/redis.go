package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/constants"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

// RedisPubSub publishes chain events over Redis Pub/Sub and lets
// subscribers follow all chains or a single one.
type RedisPubSub struct {
	client redis.UniversalClient
	logger *logrus.Logger
}

func NewRedisPubSub(client redis.UniversalClient, logger *logrus.Logger) *RedisPubSub {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// Publish sends the event to the global channel and the chain's own channel.
func (p *RedisPubSub) Publish(ctx context.Context, ev storage.ChainEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal chain event: %w", err)
	}

	channels := []string{constants.PubSubChannelChainEvents}
	if ev.ChainID != "" {
		channels = append(channels, ChainChannel(ev.ChainID))
	}

	pipe := p.client.Pipeline()
	for _, ch := range channels {
		pipe.Publish(ctx, ch, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish chain event: %w", err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (p *RedisPubSub) Close() error { return nil }

// Subscribe delivers events from channel until ctx is done.
func (p *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(storage.ChainEvent)) error {
	return p.consume(ctx, p.client.Subscribe(ctx, channel), channel, handler)
}

// PSubscribe delivers events from every channel matching pattern.
func (p *RedisPubSub) PSubscribe(ctx context.Context, pattern string, handler func(storage.ChainEvent)) error {
	return p.consume(ctx, p.client.PSubscribe(ctx, pattern), pattern, handler)
}

func (p *RedisPubSub) consume(ctx context.Context, sub *redis.PubSub, name string, handler func(storage.ChainEvent)) error {
	defer sub.Close()

	p.logger.WithField("channel", name).Info("subscribed to chain events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev storage.ChainEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.logger.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed chain event")
				continue
			}
			handler(ev)
		}
	}
}

// ChainChannel is the channel carrying one chain's events.
func ChainChannel(chainID string) string {
	return constants.PubSubChainPrefix + chainID
}
