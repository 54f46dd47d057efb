package packer

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-pack-store/internal/checkout"
	"github.com/ariefcatur/go-pack-store/internal/checkout/checkouttest"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingBuilder struct {
	calls [][2]string
	err   error
}

func (b *recordingBuilder) Build(_ context.Context, orderID, packID string) error {
	b.calls = append(b.calls, [2]string{orderID, packID})
	return b.err
}

func requested(t *testing.T) kafkago.Message {
	t.Helper()
	pub := &checkouttest.Publisher{}
	d := &checkout.KafkaDispatcher{Publisher: pub, Service: "pack-api"}
	require.NoError(t, d.Dispatch(context.Background(), "o1", "p1"))
	require.Len(t, pub.Messages, 1)
	return pub.Messages[0]
}

func TestHandlePackRequested_BuildsOnce(t *testing.T) {
	b := &recordingBuilder{}
	s := &Service{Builder: b, Dedup: &checkouttest.Dedup{}, Log: zap.NewNop()}
	m := requested(t)

	require.NoError(t, s.HandlePackRequested(context.Background(), m))
	require.NoError(t, s.HandlePackRequested(context.Background(), m))
	assert.Equal(t, [][2]string{{"o1", "p1"}}, b.calls)
}

func TestHandlePackRequested_ErrorAllowsRedelivery(t *testing.T) {
	b := &recordingBuilder{err: errors.New("db down")}
	s := &Service{Builder: b, Dedup: &checkouttest.Dedup{}, Log: zap.NewNop()}
	m := requested(t)

	assert.Error(t, s.HandlePackRequested(context.Background(), m))
	b.err = nil
	require.NoError(t, s.HandlePackRequested(context.Background(), m))
	assert.Len(t, b.calls, 2)
}

func TestHandlePackRequested_IgnoresOtherEvents(t *testing.T) {
	b := &recordingBuilder{}
	s := &Service{Builder: b, Dedup: &checkouttest.Dedup{}, Log: zap.NewNop()}

	require.NoError(t, s.HandlePackRequested(context.Background(), kafkago.Message{Value: []byte("not json")}))
	require.NoError(t, s.HandlePackRequested(context.Background(),
		kafkago.Message{Value: []byte(`{"event_type":"` + orders.EventPackReady + `","payload":{}}`)}))
	assert.Empty(t, b.calls)
}
