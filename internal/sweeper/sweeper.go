// Package sweeper removes expired pack archives from storage. Pack records
// are kept and flagged as purged.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/metrics"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/storage"
	"go.uber.org/zap"
)

const batchSize = 100

type Sweeper struct {
	Packs orders.PackStore
	Store storage.ObjectStore
	Log   *zap.Logger
	Now   func() time.Time
}

type Result struct {
	Purged int
	Failed int
}

// Once sweeps every expired pack. A failed delete is logged and the pack is
// retried on the next run; it never stops the sweep.
func (s *Sweeper) Once(ctx context.Context) (Result, error) {
	var res Result
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	skip := map[string]bool{}
	for {
		batch, err := s.Packs.ListExpired(ctx, now, batchSize+len(skip))
		if err != nil {
			return res, err
		}
		progressed := false
		for _, p := range batch {
			if skip[p.ID] {
				continue
			}
			progressed = true
			if err := s.purge(ctx, p, now); err != nil {
				s.Log.Warn("expired pack not removed", zap.String("pack_id", p.ID), zap.String("key", p.StorageKey), zap.Error(err))
				metrics.RecordSweep(false)
				skip[p.ID] = true
				res.Failed++
				continue
			}
			metrics.RecordSweep(true)
			res.Purged++
		}
		if !progressed || len(batch) < batchSize+len(skip) {
			break
		}
	}
	s.Log.Info("expired packs swept", zap.Int("purged", res.Purged), zap.Int("failed", res.Failed))
	return res, nil
}

func (s *Sweeper) purge(ctx context.Context, p orders.Pack, now time.Time) error {
	if err := s.Store.Delete(ctx, p.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return s.Packs.MarkPurged(ctx, p.ID, now)
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Once(ctx); err != nil && ctx.Err() == nil {
				s.Log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}
