package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

type fakeProducer struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeProducer) WriteMessage(_ context.Context, msg kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_PublishMovementRecorded(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisherWithProducer(producer, "inventory.movements")
	movedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	event := inventory.MovementRecordedEvent{
		MovementID:    "mov-1",
		ProductID:     "prod-1",
		Kind:          "ENTRY",
		DestinationID: "wh-1",
		Quantity:      decimal.RequireFromString("12.5"),
		MovedAt:       movedAt,
	}
	require.NoError(t, pub.PublishMovementRecorded(context.Background(), event))
	require.Len(t, producer.msgs, 1)

	msg := producer.msgs[0]
	assert.Equal(t, "prod-1", string(msg.Key))
	assert.Equal(t, movedAt, msg.Time)
	assert.Equal(t, EventMovementRecorded, string(msg.Headers[0].Value))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "mov-1", got["movement_id"])
	assert.Equal(t, "12.5", got["quantity"])
	assert.NotContains(t, got, "origin_id")

	require.NoError(t, pub.Close())
	assert.True(t, producer.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	pub := NewKafkaPublisherWithProducer(&fakeProducer{err: errors.New("broker caído")}, "t")
	err := pub.PublishMovementRecorded(context.Background(), inventory.MovementRecordedEvent{MovementID: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker caído")
}
