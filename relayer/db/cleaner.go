package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/store"
)

// RecordCleaner periodically deletes execution requests and redemptions
// older than the retention period. Ledger accounts are never pruned.
type RecordCleaner struct {
	db              *DB
	ticker          *time.Ticker
	logger          zerolog.Logger
	stopCh          chan struct{}
	cleanupInterval time.Duration
	retentionPeriod time.Duration
}

// NewRecordCleaner creates a new record cleaner.
func NewRecordCleaner(database *DB, cleanupInterval, retentionPeriod time.Duration, logger zerolog.Logger) *RecordCleaner {
	return &RecordCleaner{
		db:              database,
		cleanupInterval: cleanupInterval,
		retentionPeriod: retentionPeriod,
		logger:          logger.With().Str("component", "record_cleaner").Logger(),
		stopCh:          make(chan struct{}),
	}
}

// Start runs one cleanup immediately and then one per interval until ctx
// is done or Stop is called.
func (rc *RecordCleaner) Start(ctx context.Context) error {
	rc.logger.Info().
		Dur("cleanup_interval", rc.cleanupInterval).
		Dur("retention_period", rc.retentionPeriod).
		Msg("starting record cleaner")

	if _, err := rc.Cleanup(time.Now()); err != nil {
		// Don't fail startup on cleanup error, just log it
		rc.logger.Error().Err(err).Msg("failed to perform initial cleanup")
	}

	rc.ticker = time.NewTicker(rc.cleanupInterval)

	go func() {
		defer rc.ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				rc.logger.Info().Msg("context cancelled, stopping record cleaner")
				return
			case <-rc.stopCh:
				rc.logger.Info().Msg("stop signal received, stopping record cleaner")
				return
			case now := <-rc.ticker.C:
				if _, err := rc.Cleanup(now); err != nil {
					rc.logger.Error().Err(err).Msg("failed to perform scheduled cleanup")
				}
			}
		}
	}()

	return nil
}

// Stop gracefully stops the cleaner.
func (rc *RecordCleaner) Stop() {
	rc.logger.Info().Msg("stopping record cleaner")
	close(rc.stopCh)
	if rc.ticker != nil {
		rc.ticker.Stop()
	}
}

// Cleanup hard-deletes records created before now minus the retention
// period and returns how many rows were removed.
func (rc *RecordCleaner) Cleanup(now time.Time) (int64, error) {
	cutoff := now.Add(-rc.retentionPeriod)
	var total int64

	for _, model := range []any{&store.ExecutionRequest{}, &store.Redemption{}} {
		res := rc.db.Client().Unscoped().Where("created_at < ?", cutoff).Delete(model)
		if res.Error != nil {
			return total, fmt.Errorf("failed to delete records of %T: %w", model, res.Error)
		}
		total += res.RowsAffected
	}

	if total > 0 {
		rc.logger.Info().Int64("deleted", total).Time("cutoff", cutoff).Msg("record cleanup completed")
		if err := rc.db.Client().Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
			rc.logger.Warn().Err(err).Msg("failed to checkpoint WAL")
		}
	}
	return total, nil
}
