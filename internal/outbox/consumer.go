package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"interview-assistant/internal/config"
	"interview-assistant/internal/logger"
	"interview-assistant/internal/storage"
)

// Invalidator drops derived data that an event may have made stale.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// InvalidationHandler acks malformed payloads (they can never succeed) and
// requeues events whose invalidation failed.
func InvalidationHandler(inv Invalidator) func(context.Context, []byte) bool {
	log := logger.Component("analytics-consumer")
	return func(ctx context.Context, body []byte) bool {
		var evt storage.Event
		if err := json.Unmarshal(body, &evt); err != nil {
			log.Error().Err(err).Int("bytes", len(body)).Msg("dropping malformed event")
			return true
		}
		if err := inv.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Str("event", evt.Type).Msg("invalidation failed, requeueing")
			return false
		}
		log.Debug().Str("event", evt.Type).Str("aggregate_id", evt.AggregateID).Msg("analytics cache invalidated")
		return true
	}
}

// SetupTopology declares the events exchange and the analytics queue.
func SetupTopology(mq storage.MessageQueue, cfg config.RabbitMQConfig) error {
	if err := mq.EnsureExchange(cfg.EventsExchange, "topic", true); err != nil {
		return err
	}
	if cfg.AnalyticsQueue == "" {
		return nil
	}
	if err := mq.EnsureQueue(cfg.AnalyticsQueue, true); err != nil {
		return err
	}
	key := cfg.AnalyticsBindingKey
	if key == "" {
		key = "#"
	}
	return mq.BindQueue(cfg.AnalyticsQueue, cfg.EventsExchange, key)
}

// StartAnalyticsConsumer consumes every domain event and invalidates the
// analytics cache until ctx is cancelled.
func StartAnalyticsConsumer(ctx context.Context, mq *storage.RabbitMQ, cfg config.RabbitMQConfig, inv Invalidator) error {
	if cfg.AnalyticsQueue == "" {
		return fmt.Errorf("rabbitmq analytics_queue is not configured")
	}
	workers := cfg.ConsumerWorkers["analytics_consumer_workers"]
	return mq.StartConsumer(ctx, cfg.AnalyticsQueue, cfg.PrefetchCount, workers, InvalidationHandler(inv))
}
