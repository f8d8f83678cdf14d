package api

import (
	"context"

	"github.com/pushchain/validator-spawner/spawner/progress"
	"github.com/pushchain/validator-spawner/spawner/store"
)

// ProgressReader exposes the in-flight spawn record.
type ProgressReader interface {
	Load(ctx context.Context) (*progress.Record, error)
}

// HistoryReader exposes finished spawn attempts, newest first.
type HistoryReader interface {
	RecentAttempts(ctx context.Context, limit int) ([]store.SpawnAttempt, error)
}

// ChainReader is the RPC probe behind /health.
type ChainReader interface {
	GetLatestBlock(ctx context.Context) (uint64, error)
}
