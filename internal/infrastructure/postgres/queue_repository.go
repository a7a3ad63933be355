package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retailgrid/fbr-sync/internal/domain/entity"
	"github.com/retailgrid/fbr-sync/internal/domain/repository"
)

var _ repository.QueueRepository = (*QueueRepo)(nil)

// QueueRepo persists the durable FBR retry queue. Rows are append-and-update
// only; terminal items stay behind as an audit trail.
type QueueRepo struct {
	q Querier
}

// NewQueueRepository builds the adapter. Pass a pool or a tx.
func NewQueueRepository(q Querier) *QueueRepo {
	return &QueueRepo{q: q}
}

// Enqueue inserts a pending item carrying the invoice-document snapshot.
func (r *QueueRepo) Enqueue(ctx context.Context, item *entity.FBRQueueItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now()
	query := `
		INSERT INTO fbr_queue_items
			(id, tenant_id, sale_id, invoice_document, status, retry_count, max_retries, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.TenantID, item.SaleID, item.InvoiceDocument,
		entity.QueueStatusPending, item.RetryCount, item.MaxRetries,
		nullIfEmpty(item.ErrorMessage), now,
	)
	if err != nil {
		return fmt.Errorf("enqueue fbr item: %w", err)
	}
	return nil
}

// FetchAndClaim atomically flips up to batchSize of the oldest pending items
// to processing and returns them. FOR UPDATE SKIP LOCKED keeps concurrent
// worker instances from ever claiming the same row. UPDATE ... RETURNING does
// not promise row order, so the outer SELECT re-sorts the claimed batch.
func (r *QueueRepo) FetchAndClaim(ctx context.Context, batchSize int) ([]*entity.FBRQueueItem, error) {
	query := `
		WITH claimed AS (
			UPDATE fbr_queue_items
			SET status = $1, updated_at = NOW()
			WHERE id IN (
				SELECT id FROM fbr_queue_items
				WHERE status = $2
				ORDER BY created_at
				LIMIT $3
				FOR UPDATE SKIP LOCKED
			)
			RETURNING id, tenant_id, sale_id, invoice_document, status,
			          retry_count, max_retries, COALESCE(error_message, '') AS error_message,
			          created_at, updated_at
		)
		SELECT * FROM claimed ORDER BY created_at`
	rows, err := r.q.Query(ctx, query,
		entity.QueueStatusProcessing, entity.QueueStatusPending, batchSize)
	if err != nil {
		return nil, fmt.Errorf("claim fbr queue batch: %w", err)
	}
	defer rows.Close()

	var items []*entity.FBRQueueItem
	for rows.Next() {
		var it entity.FBRQueueItem
		if err := rows.Scan(
			&it.ID, &it.TenantID, &it.SaleID, &it.InvoiceDocument, &it.Status,
			&it.RetryCount, &it.MaxRetries, &it.ErrorMessage,
			&it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan fbr queue item: %w", err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fbr queue batch: %w", err)
	}
	return items, nil
}

// MarkCompleted terminates the item after an accepted submission.
func (r *QueueRepo) MarkCompleted(ctx context.Context, id string) error {
	return r.setTerminal(ctx, id, entity.QueueStatusCompleted, "")
}

// MarkRetry sends the item back to pending with the attempt recorded, so the
// next worker cycle picks it up in its original FIFO position.
func (r *QueueRepo) MarkRetry(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE fbr_queue_items
		SET status = $2, retry_count = retry_count + 1, error_message = $3, updated_at = NOW()
		WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id, entity.QueueStatusPending, errMsg); err != nil {
		return fmt.Errorf("mark fbr item for retry: %w", err)
	}
	return nil
}

// MarkFailed terminates the item once the retry budget is spent.
func (r *QueueRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE fbr_queue_items
		SET status = $2, retry_count = retry_count + 1, error_message = $3, updated_at = NOW()
		WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id, entity.QueueStatusFailed, errMsg); err != nil {
		return fmt.Errorf("mark fbr item failed: %w", err)
	}
	return nil
}

func (r *QueueRepo) setTerminal(ctx context.Context, id, status, errMsg string) error {
	query := `
		UPDATE fbr_queue_items
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id, status, nullIfEmpty(errMsg)); err != nil {
		return fmt.Errorf("terminate fbr item: %w", err)
	}
	return nil
}

// ReclaimStale returns processing items whose claim is older than the cutoff
// to pending. Covers a worker that died between claiming a batch and writing
// the terminal statuses; without the sweep those rows would sit in processing
// forever.
func (r *QueueRepo) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	query := `
		UPDATE fbr_queue_items
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND updated_at < $3`
	tag, err := r.q.Exec(ctx, query, entity.QueueStatusPending, entity.QueueStatusProcessing, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale fbr items: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountBacklog counts pending plus processing items for the backlog gauge.
func (r *QueueRepo) CountBacklog(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*) FROM fbr_queue_items
		WHERE status IN ($1, $2)`
	var n int64
	if err := r.q.QueryRow(ctx, query, entity.QueueStatusPending, entity.QueueStatusProcessing).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fbr backlog: %w", err)
	}
	return n, nil
}
