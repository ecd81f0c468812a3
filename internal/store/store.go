// Package store persists the metadata enrichment cache.
package store

import (
	"context"
	"time"
)

// Store defines the persistence interface for enrichment lookups.
type Store interface {
	// Metadata cache, keyed by external id. A miss returns nil, nil.
	GetCachedMetadata(ctx context.Context, externalID string) ([]byte, error)
	SetCachedMetadata(ctx context.Context, externalID string, data []byte, ttl time.Duration) error
	DeleteExpiredMetadata(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
