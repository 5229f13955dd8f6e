package memoryCache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aws-sqs-messaging-template/internal/pkg/cache"

	gocache "github.com/patrickmn/go-cache"
)

// Repository implements cache.Client in process memory.
type Repository struct {
	store *gocache.Cache
}

var _ cache.Client = (*Repository)(nil)

// New creates an in-memory cache that purges expired keys every cleanupInterval.
func New(cleanupInterval time.Duration) *Repository {
	return &Repository{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (r *Repository) Get(_ context.Context, key string) (string, error) {
	v, ok := r.store.Get(key)
	if !ok {
		return "", cache.ErrMiss
	}
	return v.(string), nil
}

func (r *Repository) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	r.store.Set(key, stringify(value), expiration)
	return nil
}

func (r *Repository) Delete(_ context.Context, key string) error {
	r.store.Delete(key)
	return nil
}

func (r *Repository) ScanPrefix(_ context.Context, prefix string) (map[string]string, error) {
	result := make(map[string]string)
	for k, item := range r.store.Items() {
		if strings.HasPrefix(k, prefix) {
			result[k] = item.Object.(string)
		}
	}
	return result, nil
}

// stringify mirrors how redis stores scalar values.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
