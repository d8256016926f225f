// Command subscriber prints chain lifecycle events as they are published.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/bootstrap"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/config"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/constants"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/events"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

func main() {
	chainID := flag.String("chain", "", "Only follow events of this chain (redis backend)")
	flag.Parse()

	logger := bootstrap.NewLogger()

	cfg, err := bootstrap.LoadConfig(logger)
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down subscriber")
		cancel()
	}()

	handle := func(ev storage.ChainEvent) {
		entry := logger.WithFields(logrus.Fields{
			"chain_id": ev.ChainID,
			"event":    ev.Type,
		})
		if ev.Order > 0 {
			entry = entry.WithFields(logrus.Fields{
				"order":       ev.Order,
				"action_type": ev.ActionType,
				"status":      ev.Status,
			})
		}
		if ev.Error != "" {
			entry.WithField("error", ev.Error).Warn("chain event")
			return
		}
		entry.Info("chain event")
	}

	switch cfg.EventsBackend {
	case config.EventsRedis:
		rclient, err := bootstrap.OpenRedis(ctx, cfg)
		if err != nil || rclient == nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}
		defer rclient.Close()

		ps := events.NewRedisPubSub(rclient, logger)
		channel := constants.PubSubChannelChainEvents
		if *chainID != "" {
			channel = events.ChainChannel(*chainID)
		}
		err = ps.Subscribe(ctx, channel, handle)
		if err != nil && ctx.Err() == nil {
			logger.WithError(err).Fatal("subscription failed")
		}

	case config.EventsRabbitMQ:
		q, err := events.NewRabbitMQ(events.RabbitMQConfig{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue, Durable: true})
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to RabbitMQ")
		}
		defer q.Close()

		logger.WithField("queue", cfg.RabbitMQQueue).Info("consuming chain events")
		err = q.Consume(ctx, handle)
		if err != nil && ctx.Err() == nil {
			logger.WithError(err).Fatal("consume failed")
		}

	default:
		logger.Fatalf("events backend %q has nothing to subscribe to", cfg.EventsBackend)
	}
}
