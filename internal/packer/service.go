// Package packer consumes pack.requested and runs the assembly pipeline.
package packer

import (
	"context"
	"encoding/json"
	"fmt"

	kafkax "github.com/ariefcatur/go-pack-store/internal/kafka"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/redisx"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Builder interface {
	Build(ctx context.Context, orderID, packID string) error
}

type Service struct {
	Builder Builder
	Dedup   redisx.Deduper
	Log     *zap.Logger
}

// HandlePackRequested is installed as the consumer handler. Returning an
// error leaves the offset uncommitted.
func (s *Service) HandlePackRequested(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Error("undecodable pack event", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventPackRequested {
		return nil
	}

	// 2) dedup by event id; the order claim stays the real guard
	seen, err := s.Dedup.Seen(ctx, env.EventID)
	if err != nil {
		s.Log.Warn("dedup unavailable", zap.String("event_id", env.EventID), zap.Error(err))
	} else if seen {
		return nil
	}

	// 3) decode payload
	p, err := kafkax.UnwrapPayload[orders.PackRequestedPayload](env.Payload)
	if err != nil {
		s.Log.Error("bad pack payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	// 4) build; on error forget the event so redelivery is processed
	if err := s.Builder.Build(ctx, p.OrderID, p.PackID); err != nil {
		_ = s.Dedup.Forget(ctx, env.EventID)
		return fmt.Errorf("build pack %s: %w", p.PackID, err)
	}
	return nil
}
