package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatalogRepo struct{ DB *pgxpool.Pool }

const productColumns = `id, name, description, category, storage_key, size_bytes, price_cents, active, created_at, updated_at`

// ListActive returns active products, optionally restricted to one category.
func (r *CatalogRepo) ListActive(ctx context.Context, category Category) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE active AND ($1 = '' OR category = $1)
		ORDER BY category, name`, string(category))
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// GetMany returns the products with the given ids, inactive ones included,
// in no particular order. Unknown ids are silently absent.
func (r *CatalogRepo) GetMany(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *CatalogRepo) Get(ctx context.Context, id string) (*Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	ps, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, ErrNotFound
	}
	return &ps[0], nil
}

// Upsert inserts the product or replaces the row with the same id.
func (r *CatalogRepo) Upsert(ctx context.Context, p *Product) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, category, storage_key, size_bytes, price_cents, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name, description=EXCLUDED.description, category=EXCLUDED.category,
			storage_key=EXCLUDED.storage_key, size_bytes=EXCLUDED.size_bytes,
			price_cents=EXCLUDED.price_cents, active=EXCLUDED.active, updated_at=EXCLUDED.updated_at`,
		p.ID, p.Name, p.Description, string(p.Category), p.StorageKey, p.SizeBytes, p.PriceCents, p.Active,
		p.CreatedAt, p.UpdatedAt)
	return err
}

// Deactivate soft-deletes a product.
func (r *CatalogRepo) Deactivate(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET active=false, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var (
			p   Product
			cat string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &cat, &p.StorageKey, &p.SizeBytes,
			&p.PriceCents, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Category = Category(cat)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return out, nil
}
