package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizforge/internal/domain"
)

// GetJSON reads and decodes the value at key. A miss returns ok=false and a
// nil error.
func GetJSON[T any](ctx context.Context, c domain.Cache, key string) (value T, ok bool, err error) {
	raw, err := c.Get(ctx, key)
	if errors.Is(err, domain.ErrCacheMiss) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return value, false, fmt.Errorf("failed to decode cached value %s: %w", key, err)
	}
	return value, true, nil
}

// SetJSON encodes value and stores it under key for ttl.
func SetJSON(ctx context.Context, c domain.Cache, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %s: %w", key, err)
	}
	return c.Set(ctx, key, string(raw), ttl)
}
