package checkout

import (
	"context"
	"sync"
	"time"

	kafkax "github.com/ariefcatur/go-pack-store/internal/kafka"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type BuildFunc func(ctx context.Context, orderID, packID string) error

// InlineDispatcher builds packs in background goroutines of the api process.
// Each build is bounded by timeout and detached from the request context.
type InlineDispatcher struct {
	build   BuildFunc
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewInlineDispatcher(build BuildFunc, timeout time.Duration, log *zap.Logger) *InlineDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &InlineDispatcher{build: build, timeout: timeout, log: log}
}

func (d *InlineDispatcher) Dispatch(_ context.Context, orderID, packID string) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.build(ctx, orderID, packID); err != nil {
			d.log.Error("inline build failed",
				zap.String("order_id", orderID),
				zap.String("pack_id", packID),
				zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every dispatched build has returned.
func (d *InlineDispatcher) Wait() { d.wg.Wait() }

// KafkaDispatcher hands the build to the packer over the pack.requested topic.
// The write is awaited: a request the broker never took would leave the
// claimed order in processing with nobody to build it.
type KafkaDispatcher struct {
	Publisher kafkax.SyncPublisher
	Service   string
	Timeout   time.Duration
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, orderID, packID string) error {
	env, err := orders.NewEnvelope(orders.EventPackRequested, d.Service, orderID, middleware.GetReqID(ctx),
		orders.PackRequestedPayload{OrderID: orderID, PackID: packID})
	if err != nil {
		return err
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return kafkax.PublishEnvelopeSync(ctx, d.Publisher, env)
}
