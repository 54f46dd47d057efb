package storage

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process ObjectStore for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memObject
	puts    int

	// FailPut, when set, is returned by every Put.
	FailPut error
}

type memObject struct {
	data     []byte
	modified time.Time
}

func NewMemory(bucket string) *Memory {
	return &Memory{bucket: bucket, objects: map[string]memObject{}}
}

func (m *Memory) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != nil {
		return "", fmt.Errorf("%w: %w", ErrStoreUnavailable, m.FailPut)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = memObject{data: cp, modified: time.Now().UTC()}
	m.puts++
	return key, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	cp := make([]byte, len(o.data))
	copy(cp, o.data)
	return cp, nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ObjectInfo, 0)
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(o.data)), Modified: o.modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	q := url.Values{}
	q.Set("expires", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	q.Set("signature", uuid.NewString())
	return fmt.Sprintf("memory://%s/%s?%s", m.bucket, key, q.Encode()), nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Puts reports how many successful uploads the store has seen.
func (m *Memory) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}
