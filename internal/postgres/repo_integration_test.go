package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/ariefcatur/go-pack-store/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
)

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("packs"),
		tcpostgres.WithUsername("app"),
		tcpostgres.WithPassword("secret"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, postgres.Migrate(ctx, db, zap.NewNop()))
	// second run must be a no-op
	require.NoError(t, postgres.Migrate(ctx, db, zap.NewNop()))
	return db
}

func TestRepos_OrderLifecycle(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	catalog := &orders.CatalogRepo{DB: db}
	repo := &orders.Repo{DB: db}
	packs := &orders.PackRepo{DB: db}

	for _, p := range []orders.Product{
		{ID: "temp1", Name: "Landing", Category: orders.CategoryTemplates, StorageKey: "templates/temp1.zip", PriceCents: 500, Active: true},
		{ID: "plug1", Name: "SEO", Category: orders.CategoryPlugins, StorageKey: "plugins/plug1.zip", PriceCents: 700, Active: true},
	} {
		p := p
		require.NoError(t, catalog.Upsert(ctx, &p))
	}

	listed, err := catalog.ListActive(ctx, orders.CategoryTemplates)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "temp1", listed[0].ID)

	o := &orders.Order{
		CustomerEmail: "a@example.com",
		PaymentRef:    "pi_123",
		ProductIDs:    []string{"temp1", "plug1"},
		AmountCents:   1200,
		Currency:      "eur",
	}
	require.NoError(t, repo.Create(ctx, o))
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, o.OrderNumber)

	dup := &orders.Order{CustomerEmail: "b@example.com", PaymentRef: "pi_123", ProductIDs: []string{"temp1"}, Currency: "eur"}
	assert.ErrorIs(t, repo.Create(ctx, dup), orders.ErrAlreadyExists)

	byNumber, err := repo.Get(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byNumber.ID)
	assert.Equal(t, []string{"temp1", "plug1"}, byNumber.ProductIDs)

	ok, err := repo.MarkPaid(ctx, o.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.MarkPaid(ctx, o.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok, "already paid")

	packID := uuid.NewString()
	ok, err = repo.ClaimForAssembly(ctx, o.ID, packID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ClaimForAssembly(ctx, o.ID, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")

	now := time.Now().UTC().Truncate(time.Second)
	p := &orders.Pack{
		ID:            packID,
		OrderID:       o.ID,
		StorageKey:    "packs/pack-" + packID + ".zip",
		SizeBytes:     1024,
		FilesIncluded: 2,
		DownloadToken: "tok-" + packID,
		CreatedAt:     now.Add(-72 * time.Hour),
		ExpiresAt:     now.Add(-24 * time.Hour),
	}
	require.NoError(t, repo.Complete(ctx, o.ID, p, "https://signed.example/x"))

	got, err := repo.GetByPaymentRef(ctx, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, got.Status)
	require.NotNil(t, got.PackID)
	assert.Equal(t, packID, *got.PackID)

	assert.ErrorIs(t, repo.Fail(ctx, o.ID, "late"), orders.ErrInvalidTransition)

	byToken, err := packs.GetByRef(ctx, p.DownloadToken)
	require.NoError(t, err)
	assert.Equal(t, packID, byToken.ID)
	assert.True(t, byToken.Expired(now))

	require.NoError(t, packs.RecordDownload(ctx, packID, now))
	byID, err := packs.GetByRef(ctx, packID)
	require.NoError(t, err)
	assert.Equal(t, 1, byID.DownloadCount)

	expired, err := packs.ListExpired(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.NoError(t, packs.MarkPurged(ctx, packID, now))
	expired, err = packs.ListExpired(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, expired)

	_, err = packs.GetByRef(ctx, "unknown-token")
	assert.ErrorIs(t, err, orders.ErrNotFound)

	stats, err := repo.Stats(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ProductsCount)
	assert.Equal(t, 1, stats.OrdersCount)
	assert.Equal(t, int64(1200), stats.RevenueCents)

	require.NoError(t, catalog.Deactivate(ctx, "plug1"))
	assert.ErrorIs(t, catalog.Deactivate(ctx, "nope"), orders.ErrNotFound)
	all, err := catalog.ListActive(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
