// Package events publishes review lifecycle events to Kafka so downstream
// consumers (billing, analytics) can react to approved records without
// polling the extraction backend.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event names emitted by the session service.
const (
	RecordApproved = "record.approved"
	RecordSaved    = "record.saved"
)

// Envelope is the wire shape of a published event.
type Envelope struct {
	Event     string    `json:"event"`
	PatientID string    `json:"patient_id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits review events. A nil *Publisher is valid and drops
// everything, so wiring Kafka stays optional.
type Publisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewPublisher connects a writer to the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger,
	}
}

// Publish emits one event, keyed by patient so per-patient ordering holds.
// Failures are logged and swallowed: event delivery must not fail a review.
func (p *Publisher) Publish(ctx context.Context, event, patientID, sessionID string) {
	if p == nil || p.writer == nil {
		return
	}
	body, err := json.Marshal(Envelope{
		Event:     event,
		PatientID: patientID,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		p.logger.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}
	msg := kafka.Message{
		Key:   []byte(patientID),
		Value: body,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).
			Str("event", event).
			Str("patient_id", patientID).
			Msg("failed to publish event")
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
