package redisx

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	endpoint, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := New(endpoint)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestDedup_FirstWriterWins(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	d := &Dedup{Redis: rdb, Service: "packer"}

	seen, err := d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	ok, err := Exists(ctx, rdb, "dedup:packer:evt-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, d.Forget(ctx, "evt-1"))
	seen, err = d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestStatusCache_RoundTrip(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	c := &StatusCache{Redis: rdb}

	_, ok := c.Get(ctx, "o1")
	assert.False(t, ok)

	packID := "p1"
	require.NoError(t, c.Set(ctx, "o1", orders.StatusView{Status: orders.StatusCompleted, PackID: &packID}))
	v, ok := c.Get(ctx, "o1")
	require.True(t, ok)
	assert.Equal(t, orders.StatusCompleted, v.Status)
	require.NotNil(t, v.PackID)
	assert.Equal(t, "p1", *v.PackID)
}
