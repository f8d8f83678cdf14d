// Package kvstore provides the durable single-value stores the progress record
// is persisted in. Values are opaque strings; keys must be non-empty.
package kvstore

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidKey is returned for empty or blank keys.
var ErrInvalidKey = errors.New("invalid key")

// Store is a durable string key-value store. Get reports found=false for a
// missing key rather than an error. Delete of a missing key is a no-op.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}
