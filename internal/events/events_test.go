package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/UnknownOlympus/anvesh/internal/events"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_PublishLead(t *testing.T) {
	t.Parallel()
	writer := &recordingWriter{}
	producer := events.NewProducerWithWriter(writer)
	event := events.LeadEvent{
		TaskID:     "task-1",
		OwnerKeyID: 3,
		Lead:       models.Lead{ID: 42, BusinessName: "Crumbs Bakery", Address: "12 King St W"},
	}

	require.NoError(t, producer.PublishLead(t.Context(), event))

	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "task-1", string(msg.Headers[0].Value))

	var got events.LeadEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, event.TaskID, got.TaskID)
	assert.Equal(t, event.Lead.BusinessName, got.Lead.BusinessName)
	assert.Equal(t, event.Lead.Address, got.Lead.Address)
}

func TestProducer_PublishLeadError(t *testing.T) {
	t.Parallel()
	writer := &recordingWriter{err: assert.AnError}
	producer := events.NewProducerWithWriter(writer)

	err := producer.PublishLead(t.Context(), events.LeadEvent{TaskID: "task-1"})

	require.ErrorIs(t, err, assert.AnError)
	require.ErrorContains(t, err, "failed to publish lead event")
}

func TestProducer_Close(t *testing.T) {
	t.Parallel()
	writer := &recordingWriter{}

	require.NoError(t, events.NewProducerWithWriter(writer).Close())
	assert.True(t, writer.closed)
}

func TestNop(t *testing.T) {
	t.Parallel()
	var publisher events.Publisher = events.Nop{}

	require.NoError(t, publisher.PublishLead(t.Context(), events.LeadEvent{}))
	require.NoError(t, publisher.Close())
}
