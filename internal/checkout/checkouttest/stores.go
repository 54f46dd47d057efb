// Package checkouttest provides in-memory stores and fakes with the same
// conditional-write semantics as the Postgres repositories. Writes fail on a
// done context as pgx does.
package checkouttest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/google/uuid"
)

type data struct {
	mu       sync.Mutex
	orders   map[string]*orders.Order
	packs    map[string]*orders.Pack
	products map[string]*orders.Product
}

// Kit bundles three stores over one shared dataset.
type Kit struct {
	Orders  *OrderStore
	Packs   *PackStore
	Catalog *CatalogStore
	d       *data
}

func New() *Kit {
	d := &data{
		orders:   map[string]*orders.Order{},
		packs:    map[string]*orders.Pack{},
		products: map[string]*orders.Product{},
	}
	return &Kit{Orders: &OrderStore{d}, Packs: &PackStore{d}, Catalog: &CatalogStore{d}, d: d}
}

// Seed puts products straight into the catalog.
func (k *Kit) Seed(ps ...orders.Product) {
	k.d.mu.Lock()
	defer k.d.mu.Unlock()
	for _, p := range ps {
		p := p
		k.d.products[p.ID] = &p
	}
}

// PackCount reports how many pack records exist.
func (k *Kit) PackCount() int {
	k.d.mu.Lock()
	defer k.d.mu.Unlock()
	return len(k.d.packs)
}

type OrderStore struct{ d *data }

func (s *OrderStore) Create(_ context.Context, o *orders.Order) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	now := time.Now().UTC()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = orders.NewOrderNumber(now)
	}
	if o.Status == "" {
		o.Status = orders.StatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = o.CreatedAt
	for _, x := range s.d.orders {
		if x.ID == o.ID || x.OrderNumber == o.OrderNumber || (o.PaymentRef != "" && x.PaymentRef == o.PaymentRef) {
			return orders.ErrAlreadyExists
		}
	}
	cp := cloneOrder(o)
	s.d.orders[o.ID] = cp
	return nil
}

func (s *OrderStore) Get(_ context.Context, ref string) (*orders.Order, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, o := range s.d.orders {
		if o.ID == ref || o.OrderNumber == ref {
			return cloneOrder(o), nil
		}
	}
	return nil, orders.ErrNotFound
}

func (s *OrderStore) GetByPaymentRef(_ context.Context, ref string) (*orders.Order, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, o := range s.d.orders {
		if ref != "" && o.PaymentRef == ref {
			return cloneOrder(o), nil
		}
	}
	return nil, orders.ErrNotFound
}

func (s *OrderStore) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	o, ok := s.d.orders[id]
	if !ok || !orders.CanTransition(o.Status, orders.StatusPaid) {
		return false, nil
	}
	o.Status = orders.StatusPaid
	o.PaidAt = &at
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *OrderStore) ClaimForAssembly(ctx context.Context, id, packID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	o, ok := s.d.orders[id]
	if !ok || !orders.CanTransition(o.Status, orders.StatusProcessing) || o.PackID != nil {
		return false, nil
	}
	o.Status = orders.StatusProcessing
	o.PackID = &packID
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *OrderStore) Complete(ctx context.Context, orderID string, p *orders.Pack, downloadURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	o, ok := s.d.orders[orderID]
	if !ok || !orders.CanTransition(o.Status, orders.StatusCompleted) || o.PackID == nil || *o.PackID != p.ID {
		return orders.ErrInvalidTransition
	}
	for _, x := range s.d.packs {
		if x.OrderID == orderID {
			return orders.ErrAlreadyExists
		}
	}
	cp := *p
	s.d.packs[p.ID] = &cp
	key := p.StorageKey
	o.Status = orders.StatusCompleted
	o.PackStorageKey = &key
	o.DownloadURL = &downloadURL
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *OrderStore) Fail(ctx context.Context, orderID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	o, ok := s.d.orders[orderID]
	if !ok || !orders.CanTransition(o.Status, orders.StatusFailed) {
		return orders.ErrInvalidTransition
	}
	o.Status = orders.StatusFailed
	o.FailureReason = &reason
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *OrderStore) Stats(_ context.Context, dayStart time.Time) (orders.Stats, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var st orders.Stats
	for _, p := range s.d.products {
		if p.Active {
			st.ProductsCount++
		}
	}
	customers := map[string]bool{}
	for _, o := range s.d.orders {
		switch o.Status {
		case orders.StatusPaid, orders.StatusProcessing, orders.StatusCompleted:
			st.OrdersCount++
			st.RevenueCents += o.AmountCents
			customers[o.CustomerEmail] = true
		}
		if !o.CreatedAt.Before(dayStart) {
			st.TodayOrders++
		}
	}
	st.CustomersCount = len(customers)
	return st, nil
}

type PackStore struct{ d *data }

func (s *PackStore) GetByRef(_ context.Context, ref string) (*orders.Pack, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, p := range s.d.packs {
		if p.ID == ref || p.DownloadToken == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, orders.ErrNotFound
}

// GetByOrder finds the pack recorded for an order.
func (s *PackStore) GetByOrder(_ context.Context, orderID string) (*orders.Pack, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, p := range s.d.packs {
		if p.OrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, orders.ErrNotFound
}

func (s *PackStore) RecordDownload(_ context.Context, packID string, at time.Time) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if p, ok := s.d.packs[packID]; ok {
		p.DownloadCount++
		p.LastDownloadedAt = &at
	}
	return nil
}

func (s *PackStore) ListExpired(_ context.Context, now time.Time, limit int) ([]orders.Pack, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	var out []orders.Pack
	for _, p := range s.d.packs {
		if p.PurgedAt == nil && p.ExpiresAt.Before(now) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *PackStore) MarkPurged(_ context.Context, packID string, at time.Time) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if p, ok := s.d.packs[packID]; ok && p.PurgedAt == nil {
		p.PurgedAt = &at
	}
	return nil
}

// Put inserts a pack record directly, bypassing the order lifecycle.
func (s *PackStore) Put(p orders.Pack) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.packs[p.ID] = &p
}

type CatalogStore struct{ d *data }

func (s *CatalogStore) ListActive(_ context.Context, category orders.Category) ([]orders.Product, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var out []orders.Product
	for _, p := range s.d.products {
		if p.Active && (category == "" || p.Category == category) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *CatalogStore) GetMany(_ context.Context, ids []string) ([]orders.Product, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var out []orders.Product
	for _, id := range ids {
		if p, ok := s.d.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *CatalogStore) Get(_ context.Context, id string) (*orders.Product, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	p, ok := s.d.products[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *CatalogStore) Upsert(_ context.Context, p *orders.Product) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	s.d.products[p.ID] = &cp
	return nil
}

func (s *CatalogStore) Deactivate(_ context.Context, id string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	p, ok := s.d.products[id]
	if !ok {
		return orders.ErrNotFound
	}
	p.Active = false
	return nil
}

func cloneOrder(o *orders.Order) *orders.Order {
	cp := *o
	cp.ProductIDs = append([]string(nil), o.ProductIDs...)
	return &cp
}

var (
	_ orders.OrderStore   = (*OrderStore)(nil)
	_ orders.PackStore    = (*PackStore)(nil)
	_ orders.CatalogStore = (*CatalogStore)(nil)
)
