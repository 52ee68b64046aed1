// Package storage caches successful listing metadata results.
package storage

import (
	"context"
	"errors"

	"roomy-listing/pkg/metadata"
)

// Cache backends accepted by NewResultCache.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// ErrUnknownBackend is returned for an unsupported cache backend name
var ErrUnknownBackend = errors.New("unknown cache backend")

// ResultCache stores successful fetch results by listing id. A miss is
// reported as (nil, false, nil); err is reserved for backend failures.
type ResultCache interface {
	Get(ctx context.Context, listingID string) (*metadata.MetadataResult, bool, error)
	Set(ctx context.Context, listingID string, result *metadata.MetadataResult) error
	Close() error
}
