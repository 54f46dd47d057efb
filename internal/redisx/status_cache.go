package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-pack-store/internal/orders"
	"github.com/redis/go-redis/v9"
)

// StatusCache keeps the polled order status close to the handler. The DB
// stays the source of truth; every miss or error falls through to it.
type StatusCache struct {
	Redis *redis.Client
}

func (c *StatusCache) Get(ctx context.Context, orderID string) (orders.StatusView, bool) {
	s, err := c.Redis.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if err != nil {
		return orders.StatusView{}, false
	}
	var v orders.StatusView
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return orders.StatusView{}, false
	}
	return v, true
}

func (c *StatusCache) Set(ctx context.Context, orderID string, v orders.StatusView) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Redis.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), b, TTLStatusCache).Err()
}
