// Package outbox publishes domain events staged in the outbox table and
// consumes them to keep derived caches fresh.
package outbox

import (
	"context"
	"sync"
	"time"

	"interview-assistant/internal/logger"
	"interview-assistant/internal/storage"
	"interview-assistant/internal/storage/models"
	"interview-assistant/internal/tracing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	maxRetryCount          = 5
)

// MessageRelay polls the outbox table and publishes pending rows.
type MessageRelay struct {
	db              *gorm.DB
	publisher       storage.Publisher
	log             zerolog.Logger
	pollingInterval time.Duration
	batchSize       int
	tracer          trace.Tracer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMessageRelay creates a relay; interval <= 0 selects the default.
func NewMessageRelay(db *gorm.DB, publisher storage.Publisher, interval time.Duration) *MessageRelay {
	if interval <= 0 {
		interval = DefaultPollingInterval
	}
	return &MessageRelay{
		db:              db,
		publisher:       publisher,
		log:             logger.Component("outbox-relay"),
		pollingInterval: interval,
		batchSize:       defaultBatchSize,
		tracer:          otel.Tracer("interview-assistant/outbox"),
	}
}

// Start polls in the background until Stop or ctx cancellation.
func (r *MessageRelay) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.log.Info().Dur("interval", r.pollingInterval).Msg("relay starting")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.pollingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.log.Info().Msg("relay stopped")
				return
			case <-ticker.C:
				if err := r.ProcessPendingMessages(ctx); err != nil && ctx.Err() == nil {
					r.log.Error().Err(err).Msg("process pending messages")
				}
			}
		}
	}()
}

// Stop cancels polling and waits for the in-flight batch.
func (r *MessageRelay) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// ProcessPendingMessages publishes one batch. Rows are locked with
// FOR UPDATE SKIP LOCKED so several relays can run side by side.
func (r *MessageRelay) ProcessPendingMessages(ctx context.Context) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	var messages []models.OutboxMessage
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", models.OutboxPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		return err
	}
	// no span for empty polls
	if len(messages) == 0 {
		return tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(messages))))
	defer span.End()

	for i := range messages {
		msg := &messages[i]
		err := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true)
		applyResult(msg, err, time.Now())
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ, attribute.Int64("outbox.id", int64(msg.ID)))
			r.log.Warn().Err(err).Uint64("id", msg.ID).Str("event", msg.EventType).Int("retries", msg.RetryCount).Msg("publish failed")
		}
		if err := tx.Save(msg).Error; err != nil {
			// the whole batch is retried on the next poll
			return err
		}
	}
	return tx.Commit().Error
}

// applyResult records the outcome of one publish attempt on msg.
func applyResult(msg *models.OutboxMessage, publishErr error, now time.Time) {
	if publishErr != nil {
		msg.RetryCount++
		msg.ErrorMessage = publishErr.Error()
		if msg.RetryCount >= maxRetryCount {
			msg.Status = models.OutboxFailed
		}
		return
	}
	msg.Status = models.OutboxSent
	msg.ProcessedAt = &now
	msg.ErrorMessage = ""
}
