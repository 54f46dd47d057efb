// Package storage wraps the key-addressed bucket that holds product files
// and assembled packs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("storage: object not found")
	ErrStoreUnavailable = errors.New("storage: store unavailable")
)

type ObjectInfo struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ObjectStore is the narrow contract every component talks to. Implementations
// return ErrNotFound for missing keys and wrap transport failures with
// ErrStoreUnavailable.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// SignedURL returns a fresh capability URL on every call.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Open builds the store selected by driver ("s3" or "memory").
func Open(driver string, cfg S3Config) (ObjectStore, error) {
	switch driver {
	case "memory":
		return NewMemory(cfg.Bucket), nil
	case "s3", "":
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}
