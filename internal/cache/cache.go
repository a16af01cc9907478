package cache

import (
	"context"
	"time"
)

// Cache defines the interface for caching services.
// Get reports a miss as ("", false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Noop is a Cache that stores nothing. Used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }

func (Noop) SetNX(context.Context, string, string, time.Duration) (bool, error) { return true, nil }

func (Noop) Delete(context.Context, string) error { return nil }

func (Noop) Close() error { return nil }
