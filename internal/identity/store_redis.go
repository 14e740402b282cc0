package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"driveflow/pkg/domain"
)

const cacheKeyPrefix = "directory:party:"

// CachedDirectory is a Redis read-through cache in front of another
// directory. Role listings are not cached; they change with every enrollment
// and assignment only consults them when no counterpart resolves.
type CachedDirectory struct {
	inner  Directory
	client *redis.Client
	ttl    time.Duration
}

func NewCachedDirectory(inner Directory, client *redis.Client, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{inner: inner, client: client, ttl: ttl}
}

func (c *CachedDirectory) Resolve(ctx context.Context, id domain.PartyID) (*Identity, error) {
	key := cacheKeyPrefix + id.String()

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var cached Identity
		if unmarshalErr := json.Unmarshal([]byte(raw), &cached); unmarshalErr == nil {
			return &cached, nil
		}
		// Corrupt cache entry: fall through to the source of truth.
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down must not take the directory down with it.
		return c.inner.Resolve(ctx, id)
	}

	resolved, err := c.inner.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(resolved); marshalErr == nil {
		// Best effort; a failed cache write is invisible to callers.
		_ = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	return resolved, nil
}

func (c *CachedDirectory) ListByRole(ctx context.Context, role domain.Role) ([]*Identity, error) {
	return c.inner.ListByRole(ctx, role)
}

// Invalidate drops the cached entry for a party, used after directory writes.
func (c *CachedDirectory) Invalidate(ctx context.Context, id domain.PartyID) error {
	return c.client.Del(ctx, cacheKeyPrefix+id.String()).Err()
}
