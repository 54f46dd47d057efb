package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/segmentio/kafka-go"
)

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func UnmarshalEnvelope(b []byte, out any) error {
	return json.Unmarshal(b, out)
}

// Unwrap memudahkan decode payload spesifik
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

// EventHeaders are attached to every envelope so consumers can route without
// decoding the body.
func EventHeaders(eventType string, version int) []kafka.Header {
	return []kafka.Header{
		{Key: "x-event-type", Value: []byte(eventType)},
		{Key: "x-event-version", Value: []byte(strconv.Itoa(version))},
	}
}

// PublishEnvelope keys the message by correlation id so all events of one
// order land on the same partition.
func PublishEnvelope(p Publisher, env orders.Envelope) {
	p.Publish(orders.PartitionKey(env.CorrelationID), MustMarshal(env), EventHeaders(env.EventType, env.EventVersion)...)
}

// PublishEnvelopeSync is PublishEnvelope with the broker ack awaited.
func PublishEnvelopeSync(ctx context.Context, p SyncPublisher, env orders.Envelope) error {
	return p.PublishSync(ctx, orders.PartitionKey(env.CorrelationID), MustMarshal(env), EventHeaders(env.EventType, env.EventVersion)...)
}
