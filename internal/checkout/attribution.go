package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"privacy-checkout/internal/model"

	"github.com/redis/go-redis/v9"
)

// AttributionStore keeps the visitor's UTM parameters between landing and
// checkout.
type AttributionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// RedisStore scopes keys to one visitor so several storefront sessions can
// share a server.
type RedisStore struct {
	client  *redis.Client
	visitor string
	ttl     time.Duration
}

func NewRedisStore(client *redis.Client, visitor string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		visitor: visitor,
		ttl:     ttl,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) key(name string) string {
	return fmt.Sprintf("attribution:%s:%s", r.visitor, name)
}

// CaptureAttribution saves the UTM parameters present in the landing URL.
// Parameters absent from the URL keep their stored value.
func CaptureAttribution(ctx context.Context, store AttributionStore, landingURL string) (model.UTM, error) {
	var captured model.UTM

	u, err := url.Parse(landingURL)
	if err != nil {
		return captured, fmt.Errorf("parse landing url: %w", err)
	}

	q := u.Query()
	for _, k := range model.UTMKeys {
		v := q.Get(k)
		if v == "" {
			continue
		}
		if err := store.Set(ctx, k, v); err != nil {
			return captured, fmt.Errorf("store %s: %w", k, err)
		}
		captured.Set(k, v)
	}
	return captured, nil
}

// ResolveAttribution prefers an explicit tracker reading and falls back to the
// stored parameters. Missing keys stay empty.
func ResolveAttribution(ctx context.Context, store AttributionStore, override model.UTM) (model.UTM, error) {
	if !override.IsEmpty() || store == nil {
		return override, nil
	}

	var utm model.UTM
	for _, k := range model.UTMKeys {
		v, ok, err := store.Get(ctx, k)
		if err != nil {
			return model.UTM{}, fmt.Errorf("load %s: %w", k, err)
		}
		if ok {
			utm.Set(k, v)
		}
	}
	return utm, nil
}
