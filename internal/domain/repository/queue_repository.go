package repository

import (
	"context"
	"time"

	"github.com/retailgrid/fbr-sync/internal/domain/entity"
)

// QueueRepository persists the durable FBR retry queue. Items are never
// deleted; terminal rows remain as an audit trail.
type QueueRepository interface {
	// Enqueue inserts a new pending item with the snapshotted invoice document.
	Enqueue(ctx context.Context, item *entity.FBRQueueItem) error

	// FetchAndClaim atomically moves up to batchSize of the oldest pending
	// items to processing and returns them. Concurrent callers never receive
	// the same item (FOR UPDATE SKIP LOCKED or equivalent).
	FetchAndClaim(ctx context.Context, batchSize int) ([]*entity.FBRQueueItem, error)

	// MarkCompleted terminates the item after a successful submission.
	MarkCompleted(ctx context.Context, id string) error

	// MarkRetry records a failed attempt: increments retry_count, stores the
	// translated error and returns the item to pending for the next cycle.
	MarkRetry(ctx context.Context, id string, errMsg string) error

	// MarkFailed terminates the item after the retry budget is exhausted.
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// ReclaimStale returns processing items claimed longer ago than olderThan
	// to pending, so a crashed worker's batch is eventually picked up again.
	// Reports how many items were reclaimed.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)

	// CountBacklog returns the number of pending plus processing items,
	// for the backlog gauge.
	CountBacklog(ctx context.Context) (int64, error)
}
