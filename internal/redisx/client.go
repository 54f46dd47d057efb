package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Deduper is what event consumers need from Dedup.
type Deduper interface {
	Seen(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

var _ Deduper = (*Dedup)(nil)

// Dedup records id under service and reports whether it was seen before.
// First writer wins (SET NX), so concurrent deliveries of one event agree.
type Dedup struct {
	Redis   *redis.Client
	Service string
}

func (d *Dedup) Seen(ctx context.Context, id string) (bool, error) {
	key := fmt.Sprintf(KeyDedup, d.Service, id)
	fresh, err := d.Redis.SetNX(ctx, key, "1", TTLDedup).Result()
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

// Forget drops a dedup marker so a failed event can be retried.
func (d *Dedup) Forget(ctx context.Context, id string) error {
	return d.Redis.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, id)).Err()
}
