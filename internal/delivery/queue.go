package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	kafkax "github.com/ariefcatur/go-pack-store/internal/kafka"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/redisx"
	"github.com/go-chi/chi/v5/middleware"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher queues PackReady events on the email.send topic.
type Publisher struct {
	Publisher kafkax.Publisher
	Service   string
}

func (p *Publisher) PackReady(ctx context.Context, payload orders.PackReadyPayload) error {
	env, err := orders.NewEnvelope(orders.EventPackReady, p.Service, payload.OrderID, middleware.GetReqID(ctx), payload)
	if err != nil {
		return err
	}
	kafkax.PublishEnvelope(p.Publisher, env)
	return nil
}

type sender interface {
	PackReady(ctx context.Context, p orders.PackReadyPayload) error
}

// Worker consumes email.send and mails each pack link once.
type Worker struct {
	Sender sender
	Dedup  redisx.Deduper
	Log    *zap.Logger
}

func (w *Worker) HandlePackReady(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, commit and move on
		w.Log.Error("undecodable email event", zap.ByteString("value", m.Value), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventPackReady {
		return nil
	}

	if seen, err := w.Dedup.Seen(ctx, env.EventID); err != nil {
		w.Log.Warn("dedup unavailable", zap.String("event_id", env.EventID), zap.Error(err))
	} else if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.PackReadyPayload](env.Payload)
	if err != nil {
		w.Log.Error("bad pack ready payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	if p.Email == "" || p.DownloadURL == "" {
		w.Log.Warn("incomplete pack ready payload", zap.String("order_id", p.OrderID))
		return nil
	}
	if err := w.Sender.PackReady(ctx, p); err != nil {
		_ = w.Dedup.Forget(ctx, env.EventID)
		return fmt.Errorf("pack ready %s: %w", p.OrderID, err)
	}
	return nil
}
