package db

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/pushchain/validator-spawner/spawner/store"
)

// AttemptLog appends and queries the history of cleared spawn attempts.
type AttemptLog struct {
	db *DB
}

// NewAttemptLog creates an attempt log backed by the given database.
func NewAttemptLog(database *DB) *AttemptLog {
	return &AttemptLog{db: database}
}

// RecordAttempt appends one history row.
func (l *AttemptLog) RecordAttempt(ctx context.Context, attempt *store.SpawnAttempt) error {
	if attempt == nil {
		return errors.New("attempt is nil")
	}
	if err := l.db.Client().WithContext(ctx).Create(attempt).Error; err != nil {
		return errors.Wrapf(err, "failed to record attempt %s", attempt.RequestID)
	}
	return nil
}

// RecentAttempts returns the newest attempts first. A non-positive limit returns all rows.
func (l *AttemptLog) RecentAttempts(ctx context.Context, limit int) ([]store.SpawnAttempt, error) {
	var attempts []store.SpawnAttempt
	query := l.db.Client().WithContext(ctx).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&attempts).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query attempts")
	}
	return attempts, nil
}

// DeleteOlderThan hard-deletes attempts created before now-retention and
// returns the number of rows removed.
func (l *AttemptLog) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := l.db.Client().Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&store.SpawnAttempt{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to delete old attempts")
	}
	return res.RowsAffected, nil
}
