// Package events publishes newly stored leads to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/segmentio/kafka-go"
)

// LeadEvent is the message written for every newly stored lead.
type LeadEvent struct {
	TaskID     string      `json:"task_id"`
	OwnerKeyID int64       `json:"owner_key_id"`
	Lead       models.Lead `json:"lead"`
}

// Publisher publishes lead events.
type Publisher interface {
	PublishLead(ctx context.Context, event LeadEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer wraps a Kafka writer for publishing lead events.
type Producer struct {
	writer messageWriter
}

// NewProducer creates a Kafka producer for the given broker and topic.
func NewProducer(broker, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// NewProducerWithWriter builds a producer using a custom writer (tests).
func NewProducerWithWriter(writer messageWriter) *Producer {
	return &Producer{writer: writer}
}

// Close shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishLead writes the event keyed by lead ID, so updates of one lead stay ordered.
func (p *Producer) PublishLead(ctx context.Context, event LeadEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode lead event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.Lead.ID, 10)),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "task_id", Value: []byte(event.TaskID)},
		},
	}

	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish lead event: %w", err)
	}

	return nil
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishLead(context.Context, LeadEvent) error { return nil }

func (Nop) Close() error { return nil }
