package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"interview-assistant/internal/storage/models"

	"gorm.io/gorm"
)

// Domain event types, used verbatim as routing keys.
const (
	EventCandidateCreated   = "candidate.created"
	EventCandidateUpdated   = "candidate.updated"
	EventCandidateDeleted   = "candidate.deleted"
	EventInterviewCreated   = "interview.created"
	EventInterviewUpdated   = "interview.updated"
	EventInterviewDeleted   = "interview.deleted"
	EventInterviewStarted   = "interview.started"
	EventInterviewEnded     = "interview.ended"
	EventResumeExtracted    = "resume.extracted"
	EventSettingsChanged    = "settings.changed"
	EventRecordingAttached  = "interview.recording_attached"
	EventEvaluationRecorded = "interview.evaluation_recorded"
)

// Event is the envelope published for every domain change.
type Event struct {
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregateId"`
	OccurredAt  time.Time `json:"occurredAt"`
	Data        any       `json:"data,omitempty"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(eventType, aggregateID string, data any) Event {
	return Event{Type: eventType, AggregateID: aggregateID, OccurredAt: time.Now().UTC(), Data: data}
}

// outboxWriter stages events in the outbox table inside the caller's
// transaction. An empty exchange disables staging.
type outboxWriter struct {
	exchange string
}

func (w outboxWriter) enqueue(tx *gorm.DB, eventType, aggregateID string, data any) error {
	if w.exchange == "" {
		return nil
	}
	payload, err := json.Marshal(NewEvent(eventType, aggregateID, data))
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	msg := &models.OutboxMessage{
		AggregateID:      aggregateID,
		EventType:        eventType,
		Payload:          string(payload),
		TargetExchange:   w.exchange,
		TargetRoutingKey: eventType,
		Status:           models.OutboxPending,
	}
	if err := tx.Create(msg).Error; err != nil {
		return fmt.Errorf("stage %s event: %w", eventType, err)
	}
	return nil
}
