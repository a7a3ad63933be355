package compliance

import (
	"context"
	"errors"
	"time"

	"github.com/retailgrid/fbr-sync/internal/domain"
	"github.com/retailgrid/fbr-sync/internal/domain/entity"
	"github.com/retailgrid/fbr-sync/internal/domain/repository"
	"github.com/retailgrid/fbr-sync/pkg/logger"
	"github.com/retailgrid/fbr-sync/pkg/metrics"
)

// staleClaimAge is how long an item may sit in processing before a pass
// treats its claimer as dead and returns it to pending. Generous next to the
// per-call HTTP timeout so a slow but alive batch is never stolen.
const staleClaimAge = 15 * time.Minute

// BatchStats summarizes one worker pass over the retry queue.
type BatchStats struct {
	Claimed   int
	Completed int
	Retried   int
	Failed    int
}

// Worker drains the durable retry queue. Items are claimed atomically
// (pending -> processing), so running a second worker instance is safe. Each
// item is re-submitted with its snapshotted document and never re-validated;
// the document already passed validation before it was queued.
type Worker struct {
	queueRepo repository.QueueRepository
	txRunner  TxRunner
	client    AuthorityClient
	creds     CredentialSource
	log       *logger.Logger
}

// NewWorker wires the retry worker.
func NewWorker(
	queueRepo repository.QueueRepository,
	txRunner TxRunner,
	client AuthorityClient,
	creds CredentialSource,
	log *logger.Logger,
) *Worker {
	return &Worker{
		queueRepo: queueRepo,
		txRunner:  txRunner,
		client:    client,
		creds:     creds,
		log:       log,
	}
}

// ProcessRetryQueue claims up to batchSize pending items (oldest first) and
// re-attempts each submission. One item's failure never blocks the rest of
// the batch; per-item errors are logged and counted, not returned.
func (w *Worker) ProcessRetryQueue(ctx context.Context, batchSize int) (BatchStats, error) {
	start := time.Now()
	var stats BatchStats

	if n, err := w.queueRepo.ReclaimStale(ctx, staleClaimAge); err != nil {
		w.log.Error().Err(err).Msg("reclaiming stale queue items failed")
	} else if n > 0 {
		w.log.Warn().Int64("reclaimed", n).Msg("returned stale processing items to pending")
	}

	items, err := w.queueRepo.FetchAndClaim(ctx, batchSize)
	if err != nil {
		return stats, err
	}
	stats.Claimed = len(items)
	if len(items) == 0 {
		w.observeBacklog(ctx)
		return stats, nil
	}

	metrics.BatchSize.Observe(float64(len(items)))
	defer func() {
		metrics.BatchDuration.Observe(time.Since(start).Seconds())
		w.observeBacklog(ctx)
		w.log.Info().
			Int("claimed", stats.Claimed).
			Int("completed", stats.Completed).
			Int("retried", stats.Retried).
			Int("failed", stats.Failed).
			Dur("elapsed", time.Since(start)).
			Msg("retry queue batch finished")
	}()

	for _, item := range items {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		switch w.processItem(ctx, item) {
		case entity.QueueStatusCompleted:
			stats.Completed++
		case entity.QueueStatusFailed:
			stats.Failed++
		default:
			stats.Retried++
		}
	}
	return stats, nil
}

// processItem runs one re-submission and returns the item's resulting status.
func (w *Worker) processItem(ctx context.Context, item *entity.FBRQueueItem) string {
	l := w.log.With().
		Str("queue_item_id", item.ID).
		Str("sale_id", item.SaleID).
		Int("retry_count", item.RetryCount).
		Logger()

	creds, err := w.creds.CredentialsForTenant(ctx, item.TenantID)
	if err != nil {
		msg := "FBR integration is not configured for this tenant"
		if !errors.Is(err, domain.ErrNotConfigured) {
			msg = err.Error()
		}
		l.Warn().Err(err).Msg("queue item has no usable credentials")
		return w.recordFailure(ctx, item, msg)
	}

	res := w.client.Submit(ctx, creds, item.InvoiceDocument)
	if res.Accepted() {
		err := w.txRunner.RunCompliance(ctx, func(
			saleRepo repository.SaleRepository,
			queueRepo repository.QueueRepository,
			configRepo repository.FBRConfigRepository,
		) error {
			sale, err := saleRepo.GetByID(ctx, item.TenantID, item.SaleID)
			if err != nil {
				return err
			}
			if sale != nil {
				sale.FBRStatus = entity.FBRStatusSynced
				sale.FBRInvoiceNumber = res.InvoiceNumber
				sale.FBRDated = res.Dated
				sale.FBRError = ""
				if err := saleRepo.UpdateFBRStatus(ctx, sale); err != nil {
					return err
				}
			}
			if err := configRepo.TouchLastSync(ctx, item.TenantID, time.Now()); err != nil {
				return err
			}
			return queueRepo.MarkCompleted(ctx, item.ID)
		})
		if err != nil {
			l.Error().Err(err).Msg("persisting completed queue item failed")
			return entity.QueueStatusProcessing
		}
		metrics.SubmissionsTotal.WithLabelValues(OutcomeSynced, "worker").Inc()
		l.Info().Str("fbr_invoice_number", res.InvoiceNumber).Msg("queued sale synced with FBR")
		return entity.QueueStatusCompleted
	}

	return w.recordFailure(ctx, item, res.Error)
}

// recordFailure increments the retry count; the item terminates once the
// budget is spent, taking the owning sale to failed with the last error.
func (w *Worker) recordFailure(ctx context.Context, item *entity.FBRQueueItem, errMsg string) string {
	item.RetryCount++

	if item.Exhausted() {
		err := w.txRunner.RunCompliance(ctx, func(
			saleRepo repository.SaleRepository,
			queueRepo repository.QueueRepository,
			_ repository.FBRConfigRepository,
		) error {
			if err := queueRepo.MarkFailed(ctx, item.ID, errMsg); err != nil {
				return err
			}
			sale, err := saleRepo.GetByID(ctx, item.TenantID, item.SaleID)
			if err != nil {
				return err
			}
			if sale == nil || sale.FBRStatus == entity.FBRStatusSynced {
				return nil
			}
			sale.FBRStatus = entity.FBRStatusFailed
			sale.FBRError = errMsg
			return saleRepo.UpdateFBRStatus(ctx, sale)
		})
		if err != nil {
			w.log.Error().Err(err).Str("queue_item_id", item.ID).Msg("persisting terminal queue failure failed")
			return entity.QueueStatusProcessing
		}
		metrics.QueueTerminalFailures.Inc()
		metrics.SubmissionsTotal.WithLabelValues(OutcomeFailed, "worker").Inc()
		w.log.Warn().
			Str("queue_item_id", item.ID).
			Str("sale_id", item.SaleID).
			Str("error", errMsg).
			Msg("queue item exhausted its retry budget")
		return entity.QueueStatusFailed
	}

	if err := w.queueRepo.MarkRetry(ctx, item.ID, errMsg); err != nil {
		w.log.Error().Err(err).Str("queue_item_id", item.ID).Msg("returning queue item to pending failed")
		return entity.QueueStatusProcessing
	}
	metrics.SubmissionsTotal.WithLabelValues("retried", "worker").Inc()
	return entity.QueueStatusPending
}

func (w *Worker) observeBacklog(ctx context.Context) {
	if n, err := w.queueRepo.CountBacklog(ctx); err == nil {
		metrics.QueueBacklog.Set(float64(n))
	}
}
