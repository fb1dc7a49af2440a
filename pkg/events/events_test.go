package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Parallel()

	fw := &fakeWriter{}
	p := &KafkaPublisher{w: fw}

	err := p.Publish(context.Background(), TopicOrders, Event{
		Type:    "order.created",
		Key:     "42",
		Payload: map[string]any{"order_id": 42},
	})
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	assert.Equal(t, TopicOrders, msg.Topic)
	assert.Equal(t, "42", string(msg.Key))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "order.created", got.Type)
	assert.False(t, got.OccurredAt.IsZero())

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	t.Parallel()

	p := &KafkaPublisher{w: &fakeWriter{err: errors.New("broker down")}}
	err := p.Publish(context.Background(), TopicPayments, Event{Type: "payment.failed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNop(t *testing.T) {
	t.Parallel()

	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), TopicProducts, Event{}))
	assert.NoError(t, p.Close())
}
