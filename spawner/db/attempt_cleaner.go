package db

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AttemptCleaner periodically prunes old attempt history and checkpoints the WAL.
type AttemptCleaner struct {
	database        *DB
	attempts        *AttemptLog
	logger          zerolog.Logger
	stopCh          chan struct{}
	stopOnce        sync.Once
	cleanupInterval time.Duration
	retentionPeriod time.Duration
}

// NewAttemptCleaner creates a new attempt cleaner
func NewAttemptCleaner(
	database *DB,
	cleanupInterval time.Duration,
	retentionPeriod time.Duration,
	logger zerolog.Logger,
) *AttemptCleaner {
	return &AttemptCleaner{
		database:        database,
		attempts:        NewAttemptLog(database),
		cleanupInterval: cleanupInterval,
		retentionPeriod: retentionPeriod,
		logger:          logger.With().Str("component", "attempt_cleaner").Logger(),
		stopCh:          make(chan struct{}),
	}
}

// Start begins the periodic cleanup process
func (ac *AttemptCleaner) Start(ctx context.Context) error {
	ac.logger.Info().
		Dur("cleanup_interval", ac.cleanupInterval).
		Dur("retention_period", ac.retentionPeriod).
		Msg("starting attempt cleaner")

	// Startup must not fail on a cleanup error
	if _, err := ac.performCleanup(); err != nil {
		ac.logger.Error().Err(err).Msg("failed to perform initial cleanup")
	}

	ticker := time.NewTicker(ac.cleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				ac.logger.Info().Msg("context cancelled, stopping attempt cleaner")
				return
			case <-ac.stopCh:
				ac.logger.Info().Msg("stop signal received, stopping attempt cleaner")
				return
			case <-ticker.C:
				if _, err := ac.performCleanup(); err != nil {
					ac.logger.Error().Err(err).Msg("failed to perform scheduled cleanup")
				}
			}
		}
	}()

	return nil
}

// Stop gracefully stops the attempt cleaner
func (ac *AttemptCleaner) Stop() {
	ac.stopOnce.Do(func() {
		ac.logger.Info().Msg("stopping attempt cleaner")
		close(ac.stopCh)
	})
}

func (ac *AttemptCleaner) performCleanup() (int64, error) {
	start := time.Now()

	deleted, err := ac.attempts.DeleteOlderThan(ac.retentionPeriod)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		ac.checkpointWAL()
		ac.logger.Info().
			Int64("deleted_count", deleted).
			Dur("duration", time.Since(start)).
			Msg("attempt cleanup completed")
	} else {
		ac.logger.Debug().
			Dur("duration", time.Since(start)).
			Msg("attempt cleanup completed - nothing to delete")
	}
	return deleted, nil
}

// checkpointWAL keeps the WAL file from growing after bulk deletes.
func (ac *AttemptCleaner) checkpointWAL() {
	if err := ac.database.Client().Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		ac.logger.Warn().Err(err).Msg("failed to checkpoint WAL")
		return
	}
	ac.logger.Debug().Msg("WAL checkpoint completed")
}
