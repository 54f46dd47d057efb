package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PackRepo struct{ DB *pgxpool.Pool }

const packColumns = `id, order_id, storage_key, size_bytes, files_included, download_token,
	created_at, expires_at, download_count, last_downloaded_at, purged_at`

// GetByRef resolves a pack by download token or by pack id. Expired packs
// are returned as well; expiry is the caller's decision.
func (r *PackRepo) GetByRef(ctx context.Context, ref string) (*Pack, error) {
	return scanPack(r.DB.QueryRow(ctx,
		`SELECT `+packColumns+` FROM packs WHERE download_token=$1 OR id=$1`, ref))
}

func (r *PackRepo) RecordDownload(ctx context.Context, packID string, at time.Time) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE packs SET download_count = download_count + 1, last_downloaded_at=$2
		WHERE id=$1`, packID, at)
	return err
}

// ListExpired returns packs past expiry whose archive is still in storage.
func (r *PackRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]Pack, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Query(ctx, `
		SELECT `+packColumns+` FROM packs
		WHERE purged_at IS NULL AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// MarkPurged keeps the record for audit while flagging the archive as gone.
func (r *PackRepo) MarkPurged(ctx context.Context, packID string, at time.Time) error {
	_, err := r.DB.Exec(ctx, `UPDATE packs SET purged_at=$2 WHERE id=$1 AND purged_at IS NULL`, packID, at)
	return err
}

func scanPack(row pgx.Row) (*Pack, error) {
	var p Pack
	err := row.Scan(&p.ID, &p.OrderID, &p.StorageKey, &p.SizeBytes, &p.FilesIncluded, &p.DownloadToken,
		&p.CreatedAt, &p.ExpiresAt, &p.DownloadCount, &p.LastDownloadedAt, &p.PurgedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
