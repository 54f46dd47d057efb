package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, order_number, customer_email, customer_name, payment_ref, product_ids,
	amount_cents, currency, status, pack_id, pack_storage_key, download_url, failure_reason,
	created_at, updated_at, paid_at`

// NewOrderNumber builds the human-readable ORD-YYYYMMDD-XXXXXX reference.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}

// Create inserts a pending order. ID, order number and timestamps are filled
// in when empty. A duplicate payment reference yields ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, o *Order) error {
	now := time.Now().UTC()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = NewOrderNumber(now)
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = o.CreatedAt

	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, order_number, customer_email, customer_name, payment_ref, product_ids,
		                   amount_cents, currency, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)`,
		o.ID, o.OrderNumber, o.CustomerEmail, o.CustomerName, nullIfEmpty(o.PaymentRef), o.ProductIDs,
		o.AmountCents, o.Currency, string(o.Status), o.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}

// Get resolves an order by id or by order number.
func (r *Repo) Get(ctx context.Context, ref string) (*Order, error) {
	return scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 OR order_number=$1`, ref))
}

func (r *Repo) GetByPaymentRef(ctx context.Context, paymentRef string) (*Order, error) {
	return scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_ref=$1`, paymentRef))
}

// MarkPaid moves pending -> paid. It returns false when the order was not
// pending any more.
func (r *Repo) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, paid_at=$3, updated_at=now()
		WHERE id=$1 AND status=$4`,
		id, string(StatusPaid), at, string(StatusPending))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// ClaimForAssembly moves paid -> processing and reserves packID in one
// conditional write. Only one caller can win the claim for a given order.
func (r *Repo) ClaimForAssembly(ctx context.Context, id, packID string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$3, pack_id=$2, updated_at=now()
		WHERE id=$1 AND status=$4 AND pack_id IS NULL`,
		id, packID, string(StatusProcessing), string(StatusPaid))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// Complete records the pack and moves processing -> completed in a single
// transaction, so the order never shows completed without its pack.
func (r *Repo) Complete(ctx context.Context, orderID string, p *Pack, downloadURL string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO packs(id, order_id, storage_key, size_bytes, files_included, download_token, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, orderID, p.StorageKey, p.SizeBytes, p.FilesIncluded, p.DownloadToken, p.CreatedAt, p.ExpiresAt,
	); err != nil {
		return err
	}

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, pack_storage_key=$3, download_url=$4, updated_at=now()
		WHERE id=$1 AND status=$5 AND pack_id=$6`,
		orderID, string(StatusCompleted), p.StorageKey, downloadURL, string(StatusProcessing), p.ID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrInvalidTransition
	}
	return tx.Commit(ctx)
}

// Fail moves processing -> failed. Failed orders stay queryable.
func (r *Repo) Fail(ctx context.Context, orderID, reason string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, failure_reason=$3, updated_at=now()
		WHERE id=$1 AND status=$4`,
		orderID, string(StatusFailed), reason, string(StatusProcessing))
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrInvalidTransition
	}
	return nil
}

// Stats aggregates dashboard numbers; "today" starts at dayStart.
func (r *Repo) Stats(ctx context.Context, dayStart time.Time) (Stats, error) {
	var s Stats
	err := r.DB.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products WHERE active),
			COUNT(*) FILTER (WHERE status IN ('paid','processing','completed')),
			COALESCE(SUM(amount_cents) FILTER (WHERE status IN ('paid','processing','completed')), 0),
			COUNT(DISTINCT customer_email) FILTER (WHERE status IN ('paid','processing','completed')),
			COUNT(*) FILTER (WHERE created_at >= $1)
		FROM orders`, dayStart).
		Scan(&s.ProductsCount, &s.OrdersCount, &s.RevenueCents, &s.CustomersCount, &s.TodayOrders)
	return s, err
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o          Order
		paymentRef *string
		status     string
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerEmail, &o.CustomerName, &paymentRef, &o.ProductIDs,
		&o.AmountCents, &o.Currency, &status, &o.PackID, &o.PackStorageKey, &o.DownloadURL, &o.FailureReason,
		&o.CreatedAt, &o.UpdatedAt, &o.PaidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if paymentRef != nil {
		o.PaymentRef = *paymentRef
	}
	o.Status = Status(status)
	return &o, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
