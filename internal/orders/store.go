package orders

import (
	"context"
	"time"
)

// OrderStore funnels every order mutation through a lifecycle transition.
// Conditional methods report false instead of failing when the order is no
// longer in the expected state.
type OrderStore interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, ref string) (*Order, error)
	GetByPaymentRef(ctx context.Context, paymentRef string) (*Order, error)
	MarkPaid(ctx context.Context, id string, at time.Time) (bool, error)
	ClaimForAssembly(ctx context.Context, id, packID string) (bool, error)
	Complete(ctx context.Context, orderID string, p *Pack, downloadURL string) error
	Fail(ctx context.Context, orderID, reason string) error
	Stats(ctx context.Context, dayStart time.Time) (Stats, error)
}

type PackStore interface {
	GetByRef(ctx context.Context, ref string) (*Pack, error)
	RecordDownload(ctx context.Context, packID string, at time.Time) error
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Pack, error)
	MarkPurged(ctx context.Context, packID string, at time.Time) error
}

type CatalogStore interface {
	ListActive(ctx context.Context, category Category) ([]Product, error)
	GetMany(ctx context.Context, ids []string) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Upsert(ctx context.Context, p *Product) error
	Deactivate(ctx context.Context, id string) error
}

var (
	_ OrderStore   = (*Repo)(nil)
	_ PackStore    = (*PackRepo)(nil)
	_ CatalogStore = (*CatalogRepo)(nil)
)
