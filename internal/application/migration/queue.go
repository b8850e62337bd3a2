package migration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

// DefaultFlushThreshold is the queue length above which Enqueue flushes.
const DefaultFlushThreshold = 21

// UpdateQueue buffers metadata updates and writes them with one bulk call.
type UpdateQueue struct {
	catalog   catalog.FileCatalog
	threshold int
	pending   []catalog.MetadataUpdate
	flushed   int
	dropped   int
	logger    logger.Interface
}

func NewUpdateQueue(c catalog.FileCatalog, threshold int, log logger.Interface) *UpdateQueue {
	if threshold <= 0 {
		threshold = DefaultFlushThreshold
	}
	return &UpdateQueue{
		catalog:   c,
		threshold: threshold,
		logger:    log,
	}
}

// Enqueue appends an update and flushes once more than threshold updates are
// pending.
func (q *UpdateQueue) Enqueue(ctx context.Context, update catalog.MetadataUpdate) error {
	q.pending = append(q.pending, update)
	if len(q.pending) > q.threshold {
		return q.Flush(ctx)
	}
	return nil
}

// Flush writes every pending update in enqueue order. On failure the updates
// stay queued for the next flush, except that a batch rejected as not_found
// is retried one update at a time and the updates for files the catalog no
// longer has are dropped.
func (q *UpdateQueue) Flush(ctx context.Context) error {
	if len(q.pending) == 0 {
		return nil
	}

	if q.logger.Enabled(slog.LevelDebug) {
		for _, u := range q.pending {
			q.logger.Debugw("updating metadata", "file_name", u.FileName)
		}
	}
	err := q.catalog.ModifyMetadataBulk(ctx, q.pending)
	if err == nil {
		q.flushed += len(q.pending)
		q.pending = nil
		return nil
	}
	if !errors.IsNotFoundError(err) {
		return fmt.Errorf("flush %d metadata updates: %w", len(q.pending), err)
	}

	q.logger.Warnw("bulk update rejected, retrying one by one", "updates", len(q.pending), "error", err)
	return q.flushEach(ctx)
}

func (q *UpdateQueue) flushEach(ctx context.Context) error {
	var (
		kept     []catalog.MetadataUpdate
		firstErr error
	)
	for _, u := range q.pending {
		err := q.catalog.ModifyMetadataBulk(ctx, []catalog.MetadataUpdate{u})
		switch {
		case err == nil:
			q.flushed++
		case errors.IsNotFoundError(err):
			q.logger.Warnw("dropping metadata update for missing file", "file_name", u.FileName, "error", err)
			q.dropped++
		default:
			kept = append(kept, u)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	q.pending = kept
	if firstErr != nil {
		return fmt.Errorf("flush %d metadata updates: %w", len(kept), firstErr)
	}
	return nil
}

// Len returns the number of pending updates.
func (q *UpdateQueue) Len() int {
	return len(q.pending)
}

// Flushed returns the number of updates written so far.
func (q *UpdateQueue) Flushed() int {
	return q.flushed
}

// Dropped returns the number of updates discarded because their file was
// missing from the catalog.
func (q *UpdateQueue) Dropped() int {
	return q.dropped
}
