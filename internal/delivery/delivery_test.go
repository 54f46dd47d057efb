package delivery

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/checkout/checkouttest"
	kafkax "github.com/ariefcatur/go-pack-store/internal/kafka"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gopkgmail "gopkg.in/gomail.v2"
)

var samplePayload = orders.PackReadyPayload{
	OrderID:       "o1",
	OrderNumber:   "ORD-20250301-ABCDEF",
	PackID:        "p1",
	Email:         "buyer@example.com",
	DownloadURL:   "https://api.example.com/download/tok123",
	ExpiresAt:     time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
	FilesIncluded: 2,
	SizeBytes:     3 << 20,
}

func TestMailer_ComposesLinkAndExpiry(t *testing.T) {
	var sent []*gopkgmail.Message
	m := &Mailer{From: "Shop <noreply@example.com>", Send: func(msgs ...*gopkgmail.Message) error {
		sent = append(sent, msgs...)
		return nil
	}}

	require.NoError(t, m.PackReady(context.Background(), samplePayload))
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"buyer@example.com"}, sent[0].GetHeader("To"))

	var raw bytes.Buffer
	_, err := sent[0].WriteTo(&raw)
	require.NoError(t, err)
	body := raw.String()
	assert.Contains(t, body, "https://api.example.com/download/tok123")
	assert.Contains(t, body, "03/03/2025")
	assert.Contains(t, body, "ORD-20250301-ABCDEF")
	assert.Contains(t, body, "3.00 MB")
}

func TestMailer_SendError(t *testing.T) {
	m := &Mailer{From: "x@example.com", Send: func(...*gopkgmail.Message) error { return errors.New("smtp down") }}
	err := m.PackReady(context.Background(), samplePayload)
	assert.ErrorContains(t, err, "smtp down")
}

func envelopeValue(t *testing.T) []byte {
	t.Helper()
	pub := &checkouttest.Publisher{}
	p := &Publisher{Publisher: pub, Service: "packer"}
	require.NoError(t, p.PackReady(context.Background(), samplePayload))
	require.Len(t, pub.Messages, 1)
	assert.Equal(t, "o1", string(pub.Messages[0].Key))
	return pub.Messages[0].Value
}

func TestWorker_SendsOncePerEvent(t *testing.T) {
	notifier := &checkouttest.Notifier{}
	w := &Worker{Sender: notifier, Dedup: &checkouttest.Dedup{}, Log: zap.NewNop()}
	msg := kafkaMessage(envelopeValue(t))

	require.NoError(t, w.HandlePackReady(context.Background(), msg))
	require.NoError(t, w.HandlePackReady(context.Background(), msg))

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, samplePayload.DownloadURL, sent[0].DownloadURL)
	assert.True(t, samplePayload.ExpiresAt.Equal(sent[0].ExpiresAt))
}

func TestWorker_FailedSendIsRetried(t *testing.T) {
	notifier := &checkouttest.Notifier{Err: errors.New("smtp down")}
	w := &Worker{Sender: notifier, Dedup: &checkouttest.Dedup{}, Log: zap.NewNop()}
	msg := kafkaMessage(envelopeValue(t))

	assert.Error(t, w.HandlePackReady(context.Background(), msg))
	notifier.Err = nil
	require.NoError(t, w.HandlePackReady(context.Background(), msg))
	assert.Len(t, notifier.Sent(), 2)
}

func TestWorker_SkipsGarbage(t *testing.T) {
	notifier := &checkouttest.Notifier{}
	w := &Worker{Sender: notifier, Dedup: &checkouttest.Dedup{}, Log: zap.NewNop()}

	require.NoError(t, w.HandlePackReady(context.Background(), kafkaMessage([]byte("{"))))
	other, err := orders.NewEnvelope(orders.EventPackRequested, "api", "o1", "", orders.PackRequestedPayload{OrderID: "o1"})
	require.NoError(t, err)
	require.NoError(t, w.HandlePackReady(context.Background(), kafkaMessage(kafkax.MustMarshal(other))))
	assert.Empty(t, notifier.Sent())
}

func kafkaMessage(value []byte) kafkago.Message {
	return kafkago.Message{Topic: orders.TopicEmailSend, Value: value}
}
