// Package checkout drives an order from payment to a delivered pack. All
// order mutations go through the lifecycle transitions of orders.OrderStore.
package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/metrics"
	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/pack"
	"github.com/ariefcatur/go-pack-store/internal/payment"
	"github.com/ariefcatur/go-pack-store/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier tells the customer the pack is ready.
type Notifier interface {
	PackReady(ctx context.Context, p orders.PackReadyPayload) error
}

// Dispatcher starts assembly for an order that was claimed for packID.
type Dispatcher interface {
	Dispatch(ctx context.Context, orderID, packID string) error
}

type StatusCache interface {
	Get(ctx context.Context, ref string) (orders.StatusView, bool)
	Set(ctx context.Context, ref string, v orders.StatusView) error
}

type Config struct {
	Currency       string
	PackExpiry     time.Duration
	DownloadURLTTL time.Duration
	PublicBaseURL  string
}

type Service struct {
	Orders     orders.OrderStore
	Packs      orders.PackStore
	Catalog    orders.CatalogStore
	Store      storage.ObjectStore
	Assembler  *pack.Assembler
	Payments   payment.Provider // nil disables intent creation and provider polling
	Notifier   Notifier
	Dispatcher Dispatcher
	Cache      StatusCache // optional
	Cfg        Config
	Log        *zap.Logger
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Categories returns the active catalog grouped by category, every known
// category included even when empty.
func (s *Service) Categories(ctx context.Context) ([]CategoryView, error) {
	ps, err := s.Catalog.ListActive(ctx, "")
	if err != nil {
		return nil, s.upstream("list catalog", err)
	}
	byCat := map[orders.Category][]FileView{}
	for _, p := range ps {
		byCat[p.Category] = append(byCat[p.Category], FileView{
			ID:         p.ID,
			Name:       p.Name,
			Size:       humanSize(p.SizeBytes),
			SizeBytes:  p.SizeBytes,
			PriceCents: p.PriceCents,
		})
	}
	out := make([]CategoryView, 0, len(orders.Categories))
	for _, c := range orders.Categories {
		files := byCat[c]
		if files == nil {
			files = []FileView{}
		}
		info := categoryInfo[c]
		out = append(out, CategoryView{ID: string(c), Name: info.name, Description: info.description, Files: files})
	}
	return out, nil
}

func (s *Service) Products(ctx context.Context, category string) (*ProductsView, error) {
	cat := orders.Category(category)
	if cat != "" && !cat.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}
	ps, err := s.Catalog.ListActive(ctx, cat)
	if err != nil {
		return nil, s.upstream("list products", err)
	}
	v := &ProductsView{Products: make([]ProductView, 0, len(ps)), Counts: map[orders.Category]int{}}
	for _, p := range ps {
		v.Products = append(v.Products, ToProductView(p))
		v.Counts[p.Category]++
	}
	v.Total = len(v.Products)
	return v, nil
}

type PaymentIntentInput struct {
	Email       string
	Name        string
	Items       []string
	AmountCents int64 // optional; must match the catalog total when set
}

// CreatePaymentIntent prices the selection from the catalog, opens an intent
// with the provider and records a pending order keyed by the intent id.
func (s *Service) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntentView, error) {
	if s.Payments == nil {
		return nil, s.upstream("create intent", payment.ErrNotConfigured)
	}
	ids, products, total, err := s.resolve(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	if in.AmountCents != 0 && in.AmountCents != total {
		return nil, fmt.Errorf("%w: amount %d does not match selection total %d", ErrValidation, in.AmountCents, total)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: selection has nothing to pay", ErrValidation)
	}

	o := &orders.Order{
		ID:            uuid.NewString(),
		OrderNumber:   orders.NewOrderNumber(s.now()),
		CustomerEmail: in.Email,
		CustomerName:  in.Name,
		ProductIDs:    ids,
		AmountCents:   total,
		Currency:      s.Cfg.Currency,
	}
	intent, err := s.Payments.CreateIntent(ctx, payment.IntentRequest{
		AmountCents: total,
		Currency:    s.Cfg.Currency,
		Email:       in.Email,
		Metadata: map[string]string{
			"order_id":     o.ID,
			"order_number": o.OrderNumber,
			"items":        strings.Join(productNames(products), ", "),
		},
	})
	if err != nil {
		return nil, s.upstream("create intent", err)
	}
	o.PaymentRef = intent.ID
	if err := s.Orders.Create(ctx, o); err != nil {
		return nil, s.upstream("create order", err)
	}
	s.logger().Info("payment intent created",
		zap.String("order_id", o.ID),
		zap.String("payment_ref", intent.ID),
		zap.Int64("amount_cents", total))

	return &PaymentIntentView{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		PurchaseID:      o.ID,
		OrderNumber:     o.OrderNumber,
		AmountCents:     total,
		Currency:        o.Currency,
	}, nil
}

type CreateOrderInput struct {
	Email           string
	Name            string
	Selections      map[string][]string // category -> product ids
	PaymentIntentID string
}

// CreateOrder records a pending order for the selection. A payment intent
// that already has an order returns that order. Free selections and intents
// the provider reports as succeeded are marked paid straight away.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*orders.Order, error) {
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if in.PaymentIntentID != "" {
		existing, err := s.Orders.GetByPaymentRef(ctx, in.PaymentIntentID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, orders.ErrNotFound) {
			return nil, s.upstream("lookup order", err)
		}
	}

	ids, _, total, err := s.resolve(ctx, flattenSelections(in.Selections))
	if err != nil {
		return nil, err
	}
	o := &orders.Order{
		CustomerEmail: in.Email,
		CustomerName:  in.Name,
		PaymentRef:    in.PaymentIntentID,
		ProductIDs:    ids,
		AmountCents:   total,
		Currency:      s.Cfg.Currency,
	}
	err = s.Orders.Create(ctx, o)
	if errors.Is(err, orders.ErrAlreadyExists) && in.PaymentIntentID != "" {
		// lost a race with another create for the same intent
		existing, gerr := s.Orders.GetByPaymentRef(ctx, in.PaymentIntentID)
		if gerr != nil {
			return nil, s.upstream("lookup order", gerr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, s.upstream("create order", err)
	}
	log := s.logger().With(zap.String("order_id", o.ID), zap.String("order_number", o.OrderNumber))
	log.Info("order created", zap.Int("items", len(ids)), zap.Int64("amount_cents", total))

	if total == 0 {
		if _, err := s.markPaid(ctx, o); err != nil {
			return nil, err
		}
		return o, nil
	}
	if _, err := s.confirmPayment(ctx, o); err != nil {
		// the order exists; payment can still be confirmed by webhook or on generate
		log.Warn("payment check failed", zap.Error(err))
	}
	return o, nil
}

// GeneratePack claims the order for assembly and dispatches the build. An
// order that already has a pack id returns it untouched.
func (s *Service) GeneratePack(ctx context.Context, purchaseID string) (*GenerateView, error) {
	o, err := s.order(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if o.PackID != nil {
		return &GenerateView{PackID: *o.PackID, Status: o.Status}, nil
	}
	if o.Status == orders.StatusPending {
		paid, err := s.confirmPayment(ctx, o)
		if err != nil {
			return nil, err
		}
		if !paid {
			return nil, fmt.Errorf("%w: payment not confirmed for order %s", ErrValidation, o.OrderNumber)
		}
	}

	packID := uuid.NewString()
	won, err := s.Orders.ClaimForAssembly(ctx, o.ID, packID)
	if err != nil {
		return nil, s.upstream("claim order", err)
	}
	if !won {
		cur, err := s.order(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if cur.PackID != nil {
			return &GenerateView{PackID: *cur.PackID, Status: cur.Status}, nil
		}
		return nil, fmt.Errorf("%w: order %s cannot be packed in status %s", ErrValidation, cur.OrderNumber, cur.Status)
	}

	log := s.logger().With(zap.String("order_id", o.ID), zap.String("pack_id", packID))
	log.Info("pack assembly claimed")
	if err := s.Dispatcher.Dispatch(ctx, o.ID, packID); err != nil {
		log.Error("dispatch failed", zap.Error(err))
		s.fail(ctx, o.ID, "dispatch_failed")
		return nil, s.upstream("dispatch assembly", err)
	}
	return &GenerateView{PackID: packID, Status: orders.StatusProcessing}, nil
}

// Build assembles the pack for an order claimed with packID, records it and
// notifies the customer. Redelivered or stale requests are ignored. Lookup
// errors are returned so a queued request can be retried; assembly errors
// fail the order.
func (s *Service) Build(ctx context.Context, orderID, packID string) error {
	log := s.logger().With(zap.String("order_id", orderID), zap.String("pack_id", packID))

	o, err := s.Orders.Get(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		log.Warn("pack requested for unknown order")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if !orders.CanTransition(o.Status, orders.StatusCompleted) || o.PackID == nil || *o.PackID != packID {
		log.Info("pack request already handled", zap.String("status", string(o.Status)))
		metrics.RecordAssembly("skipped")
		return nil
	}

	products, err := s.Catalog.GetMany(ctx, o.ProductIDs)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	keyByID := make(map[string]string, len(products))
	for _, p := range products {
		keyByID[p.ID] = p.StorageKey
	}
	keys := make([]string, 0, len(o.ProductIDs))
	for _, id := range o.ProductIDs {
		k, ok := keyByID[id]
		if !ok {
			log.Warn("product no longer in catalog", zap.String("product_id", id))
			metrics.RecordSkippedFile()
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		log.Error("pack assembly failed", zap.Error(pack.ErrNoFilesIncluded))
		s.fail(ctx, o.ID, failureReason(pack.ErrNoFilesIncluded))
		return nil
	}

	res, err := s.Assembler.Assemble(ctx, keys, o.OrderNumber)
	if err != nil {
		log.Error("pack assembly failed", zap.Error(err))
		s.fail(ctx, o.ID, failureReason(err))
		return nil
	}

	now := s.now()
	p := &orders.Pack{
		ID:            packID,
		OrderID:       o.ID,
		StorageKey:    res.ArchiveKey,
		SizeBytes:     res.SizeBytes,
		FilesIncluded: res.FilesIncluded,
		DownloadToken: newToken(),
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.Cfg.PackExpiry),
	}
	link := s.downloadLink(p.DownloadToken)
	sctx, cancel := settleContext(ctx)
	defer cancel()
	if err := s.Orders.Complete(sctx, o.ID, p, link); err != nil {
		log.Error("recording pack failed", zap.Error(err))
		if derr := s.Store.Delete(sctx, res.ArchiveKey); derr != nil {
			log.Warn("orphan archive not removed", zap.String("key", res.ArchiveKey), zap.Error(derr))
		}
		s.fail(ctx, o.ID, "record_failed")
		return nil
	}
	metrics.RecordAssembly("completed")
	log.Info("pack completed",
		zap.String("key", p.StorageKey),
		zap.Int("files", p.FilesIncluded),
		zap.Time("expires_at", p.ExpiresAt))

	if s.Notifier != nil {
		err := s.Notifier.PackReady(sctx, orders.PackReadyPayload{
			OrderID:       o.ID,
			OrderNumber:   o.OrderNumber,
			PackID:        p.ID,
			Email:         o.CustomerEmail,
			DownloadURL:   link,
			ExpiresAt:     p.ExpiresAt,
			FilesIncluded: p.FilesIncluded,
			SizeBytes:     p.SizeBytes,
		})
		if err != nil {
			log.Error("pack notification failed", zap.Error(err))
		}
	}
	return nil
}

// Status reports the order status for polling. Terminal answers are cached.
func (s *Service) Status(ctx context.Context, purchaseID string) (orders.StatusView, error) {
	if s.Cache != nil {
		if v, ok := s.Cache.Get(ctx, purchaseID); ok {
			return v, nil
		}
	}
	o, err := s.order(ctx, purchaseID)
	if err != nil {
		return orders.StatusView{}, err
	}
	v := orders.StatusView{Status: o.Status, PackID: o.PackID}
	if o.Status != orders.StatusCompleted {
		// the pack id is only a download reference once the pack exists
		v.PackID = nil
	}
	if s.Cache != nil && o.Status.Terminal() {
		if err := s.Cache.Set(ctx, purchaseID, v); err != nil {
			s.logger().Debug("status cache write failed", zap.Error(err))
		}
	}
	return v, nil
}

// ResolveDownload turns a download token or pack id into a fresh signed URL.
// Packs past their expiry are refused whatever the URL lifetime would be.
func (s *Service) ResolveDownload(ctx context.Context, ref string) (string, error) {
	p, err := s.Packs.GetByRef(ctx, ref)
	if errors.Is(err, orders.ErrNotFound) {
		return "", fmt.Errorf("%w: pack %s", ErrNotFound, ref)
	}
	if err != nil {
		return "", s.upstream("lookup pack", err)
	}
	now := s.now()
	if p.Expired(now) {
		return "", fmt.Errorf("%w: pack %s expired at %s", ErrExpired, p.ID, p.ExpiresAt.Format(time.RFC3339))
	}
	ttl := s.Cfg.DownloadURLTTL
	if left := p.ExpiresAt.Sub(now); left < ttl {
		ttl = left
	}
	url, err := s.Store.SignedURL(ctx, p.StorageKey, ttl)
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%w: archive for pack %s", ErrNotFound, p.ID)
	}
	if err != nil {
		return "", s.upstream("sign url", err)
	}
	if err := s.Packs.RecordDownload(ctx, p.ID, now); err != nil {
		s.logger().Warn("download not recorded", zap.String("pack_id", p.ID), zap.Error(err))
	}
	return url, nil
}

// HandlePaymentEvent applies a verified provider event. Only successful
// payments for the full order total mark the order paid and trigger assembly.
func (s *Service) HandlePaymentEvent(ctx context.Context, ev *payment.Event) error {
	if ev.Type != payment.EventPaymentSucceeded || ev.PaymentRef == "" {
		return nil
	}
	o, err := s.Orders.GetByPaymentRef(ctx, ev.PaymentRef)
	if errors.Is(err, orders.ErrNotFound) {
		s.logger().Warn("payment for unknown order", zap.String("payment_ref", ev.PaymentRef))
		return nil
	}
	if err != nil {
		return s.upstream("lookup order", err)
	}
	if o.Status == orders.StatusPending {
		if ev.AmountCents != o.AmountCents {
			s.logger().Warn("paid amount differs from order total",
				zap.String("order_id", o.ID),
				zap.String("event_id", ev.ID),
				zap.Int64("paid_cents", ev.AmountCents),
				zap.Int64("amount_cents", o.AmountCents))
			return nil
		}
		if _, err := s.markPaid(ctx, o); err != nil {
			return err
		}
	}
	_, err = s.GeneratePack(ctx, o.ID)
	return err
}

type UploadInput struct {
	Category    string
	Filename    string
	Data        []byte
	ProductID   string
	Name        string
	Description string
	PriceCents  int64
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Upload stores a product file under {category}/{filename} and upserts the
// catalog entry pointing at it.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*orders.Product, error) {
	cat := orders.Category(in.Category)
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
	}
	name := path.Base(strings.ReplaceAll(in.Filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return nil, fmt.Errorf("%w: invalid file name", ErrValidation)
	}
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrValidation)
	}
	if in.PriceCents < 0 {
		return nil, fmt.Errorf("%w: negative price", ErrValidation)
	}

	key := string(cat) + "/" + name
	if _, err := s.Store.Put(ctx, key, in.Data, storage.ContentType(name, in.Data)); err != nil {
		return nil, s.upstream("upload file", err)
	}

	id := in.ProductID
	if id == "" {
		stem := strings.TrimSuffix(strings.ToLower(name), strings.ToLower(path.Ext(name)))
		id = string(cat) + "-" + strings.Trim(slugUnsafe.ReplaceAllString(stem, "-"), "-")
	}
	p := &orders.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Category:    cat,
		StorageKey:  key,
		SizeBytes:   int64(len(in.Data)),
		PriceCents:  in.PriceCents,
		Active:      true,
	}
	if p.Name == "" {
		p.Name = name
	}
	if err := s.Catalog.Upsert(ctx, p); err != nil {
		return nil, s.upstream("upsert product", err)
	}
	s.logger().Info("file uploaded", zap.String("key", key), zap.String("product_id", id), zap.Int64("size", p.SizeBytes))
	return p, nil
}

func (s *Service) ListFiles(ctx context.Context, category string) ([]storage.ObjectInfo, error) {
	prefix := ""
	if category != "" {
		if !orders.Category(category).Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
		}
		prefix = category + "/"
	}
	files, err := s.Store.List(ctx, prefix)
	if err != nil {
		return nil, s.upstream("list files", err)
	}
	return files, nil
}

func (s *Service) DeactivateProduct(ctx context.Context, id string) error {
	err := s.Catalog.Deactivate(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	if err != nil {
		return s.upstream("deactivate product", err)
	}
	return nil
}

func (s *Service) Stats(ctx context.Context) (orders.Stats, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	st, err := s.Orders.Stats(ctx, dayStart)
	if err != nil {
		return orders.Stats{}, s.upstream("stats", err)
	}
	return st, nil
}

func (s *Service) order(ctx context.Context, ref string) (*orders.Order, error) {
	o, err := s.Orders.Get(ctx, ref)
	if errors.Is(err, orders.ErrNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, s.upstream("lookup order", err)
	}
	return o, nil
}

// confirmPayment asks the provider about a pending order and marks it paid
// when the intent succeeded for the expected amount.
func (s *Service) confirmPayment(ctx context.Context, o *orders.Order) (bool, error) {
	if s.Payments == nil || o.PaymentRef == "" {
		return false, nil
	}
	intent, err := s.Payments.GetIntent(ctx, o.PaymentRef)
	if err != nil {
		return false, s.upstream("get intent", err)
	}
	if !intent.Succeeded {
		return false, nil
	}
	if intent.AmountCents != o.AmountCents {
		s.logger().Warn("paid amount differs from order total",
			zap.String("order_id", o.ID),
			zap.Int64("paid_cents", intent.AmountCents),
			zap.Int64("amount_cents", o.AmountCents))
		return false, nil
	}
	return s.markPaid(ctx, o)
}

func (s *Service) markPaid(ctx context.Context, o *orders.Order) (bool, error) {
	at := s.now()
	ok, err := s.Orders.MarkPaid(ctx, o.ID, at)
	if err != nil {
		return false, s.upstream("mark paid", err)
	}
	if ok {
		o.Status = orders.StatusPaid
		o.PaidAt = &at
		s.logger().Info("order paid", zap.String("order_id", o.ID))
	}
	return ok, nil
}

func (s *Service) fail(ctx context.Context, orderID, reason string) {
	metrics.RecordAssembly("failed")
	ctx, cancel := settleContext(ctx)
	defer cancel()
	if err := s.Orders.Fail(ctx, orderID, reason); err != nil {
		s.logger().Error("marking order failed", zap.String("order_id", orderID), zap.Error(err))
	}
}

const settleTimeout = 10 * time.Second

// settleContext detaches the terminal writes of a build from its deadline.
// An assembly that ran out of time must still be recorded as failed.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

// upstream logs the full error and returns a classified one whose message
// does not leak provider details.
func (s *Service) upstream(op string, err error) error {
	s.logger().Error(op+" failed", zap.Error(err))
	return fmt.Errorf("%w: %s", ErrUpstream, op)
}

func (s *Service) downloadLink(token string) string {
	return strings.TrimRight(s.Cfg.PublicBaseURL, "/") + "/download/" + token
}

// resolve dedups ids keeping first-seen order and checks each one is an
// active product. It returns the ids, the products and their total price.
func (s *Service) resolve(ctx context.Context, ids []string) ([]string, []orders.Product, int64, error) {
	seen := make(map[string]bool, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		uniq = append(uniq, id)
	}
	if len(uniq) == 0 {
		return nil, nil, 0, fmt.Errorf("%w: no items selected", ErrValidation)
	}
	found, err := s.Catalog.GetMany(ctx, uniq)
	if err != nil {
		return nil, nil, 0, s.upstream("load products", err)
	}
	byID := make(map[string]orders.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]orders.Product, 0, len(uniq))
	var total int64
	for _, id := range uniq {
		p, ok := byID[id]
		if !ok || !p.Active {
			return nil, nil, 0, fmt.Errorf("%w: unknown product %q", ErrValidation, id)
		}
		out = append(out, p)
		total += p.PriceCents
	}
	return uniq, out, total, nil
}

// flattenSelections orders categories by name so the product sequence is
// stable for a given request.
func flattenSelections(sel map[string][]string) []string {
	cats := make([]string, 0, len(sel))
	for c := range sel {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	var ids []string
	for _, c := range cats {
		ids = append(ids, sel[c]...)
	}
	return ids
}

func productNames(ps []orders.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, pack.ErrNoFilesIncluded):
		return "no_files_included"
	case errors.Is(err, pack.ErrUploadFailed):
		return "upload_failed"
	case errors.Is(err, storage.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "assembly_timeout"
	default:
		return "assembly_error"
	}
}

func newToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(b)
}
