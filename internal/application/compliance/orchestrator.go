package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/retailgrid/fbr-sync/internal/domain"
	"github.com/retailgrid/fbr-sync/internal/domain/entity"
	domainfbr "github.com/retailgrid/fbr-sync/internal/domain/fbr"
	"github.com/retailgrid/fbr-sync/internal/domain/repository"
	infrafbr "github.com/retailgrid/fbr-sync/internal/infrastructure/fbr"
	"github.com/retailgrid/fbr-sync/pkg/logger"
	"github.com/retailgrid/fbr-sync/pkg/metrics"
)

// Submission outcomes as the caller sees them.
const (
	OutcomeSynced = "synced"
	OutcomeQueued = "queued"
	OutcomeFailed = "failed"
)

// Result is the typed outcome of SubmitSaleForCompliance. The cashier-facing
// flow branches on Status; Error carries the translated Authority message on
// the failure paths.
type Result struct {
	Status           string
	FBRInvoiceNumber string
	FBRDated         string
	Error            string
}

// Orchestrator drives one sale through BUILD -> VALIDATE -> SUBMIT and lands
// the outcome on the sale row. Runs inline with the request that finalizes
// the sale; only the single submit round trip goes over the network twice
// (validate + submit), bounded by the client's timeout.
//
// Failure routing:
//   - build failure            -> terminal failed (data fix needed, never queued)
//   - validation rejection     -> terminal failed (resubmitting unchanged data is futile)
//   - auth rejection           -> terminal failed (operator must fix the token)
//   - submit transport/business-> queue item created, sale stays pending
type Orchestrator struct {
	tenantRepo repository.TenantRepository
	saleRepo   repository.SaleRepository
	txRunner   TxRunner
	builder    *domainfbr.Builder
	client     AuthorityClient
	creds      CredentialSource
	maxRetries int
	log        *logger.Logger
}

// NewOrchestrator wires the orchestrator. maxRetries is copied onto each
// queue item at enqueue time.
func NewOrchestrator(
	tenantRepo repository.TenantRepository,
	saleRepo repository.SaleRepository,
	txRunner TxRunner,
	builder *domainfbr.Builder,
	client AuthorityClient,
	creds CredentialSource,
	maxRetries int,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		tenantRepo: tenantRepo,
		saleRepo:   saleRepo,
		txRunner:   txRunner,
		builder:    builder,
		client:     client,
		creds:      creds,
		maxRetries: maxRetries,
		log:        log,
	}
}

// SubmitSaleForCompliance reports the given sale to the Authority. The error
// return covers storage problems and unknown sales only; every protocol
// outcome arrives as a Result.
func (o *Orchestrator) SubmitSaleForCompliance(ctx context.Context, tenantID, saleID string) (*Result, error) {
	sale, err := o.saleRepo.GetByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	// A synced sale never goes back to the Authority.
	if sale.FBRStatus == entity.FBRStatusSynced {
		return &Result{
			Status:           OutcomeSynced,
			FBRInvoiceNumber: sale.FBRInvoiceNumber,
			FBRDated:         sale.FBRDated,
		}, nil
	}

	creds, err := o.creds.CredentialsForTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			// Configuration error: fail fast, never enqueue.
			return o.failSale(ctx, sale, "FBR integration is not configured for this tenant")
		}
		return nil, err
	}

	tenant, err := o.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrNotFound
	}

	// BUILD. Failures are data errors: terminal, surfaced immediately.
	doc, err := o.builder.Build(tenant, sale)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			o.log.Warn().Str("sale_id", sale.ID).Err(err).Msg("invoice build rejected")
			return o.failSale(ctx, sale, err.Error())
		}
		return nil, err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice document: %w", err)
	}

	// VALIDATE. A rejection here means the Authority dislikes the data;
	// retrying the same bytes cannot succeed.
	vres := o.client.Validate(ctx, creds, payload)
	switch {
	case vres.Accepted():
		// proceed to submit
	case vres.Outcome == infrafbr.OutcomeTransportFailure:
		// The document itself is fine; let the queue retry the submission.
		return o.queueSale(ctx, sale, payload, vres.Error)
	default:
		o.log.Warn().
			Str("sale_id", sale.ID).
			Str("error_code", vres.ErrorCode).
			Msg("authority rejected invoice during validation")
		return o.failSale(ctx, sale, vres.Error)
	}

	// SUBMIT.
	sres := o.client.Submit(ctx, creds, payload)
	switch {
	case sres.Accepted():
		if err := o.markSynced(ctx, sale, sres); err != nil {
			return nil, err
		}
		metrics.SubmissionsTotal.WithLabelValues(OutcomeSynced, "inline").Inc()
		o.log.Info().
			Str("sale_id", sale.ID).
			Str("fbr_invoice_number", sres.InvoiceNumber).
			Msg("sale synced with FBR")
		return &Result{
			Status:           OutcomeSynced,
			FBRInvoiceNumber: sres.InvoiceNumber,
			FBRDated:         sres.Dated,
		}, nil
	case sres.Retryable:
		return o.queueSale(ctx, sale, payload, sres.Error)
	default:
		// Non-retryable submit rejection (credentials): operator problem.
		return o.failSale(ctx, sale, sres.Error)
	}
}

// ComplianceStatus reads back the sale's current synchronization state
// without touching the Authority.
func (o *Orchestrator) ComplianceStatus(ctx context.Context, tenantID, saleID string) (*Result, error) {
	sale, err := o.saleRepo.GetByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return &Result{
		Status:           sale.FBRStatus,
		FBRInvoiceNumber: sale.FBRInvoiceNumber,
		FBRDated:         sale.FBRDated,
		Error:            sale.FBRError,
	}, nil
}

// markSynced stores the Authority-issued identifiers verbatim and stamps the
// tenant config's last_sync_at, atomically.
func (o *Orchestrator) markSynced(ctx context.Context, sale *entity.Sale, res *infrafbr.Result) error {
	now := time.Now()
	return o.txRunner.RunCompliance(ctx, func(
		saleRepo repository.SaleRepository,
		_ repository.QueueRepository,
		configRepo repository.FBRConfigRepository,
	) error {
		sale.FBRStatus = entity.FBRStatusSynced
		sale.FBRInvoiceNumber = res.InvoiceNumber
		sale.FBRDated = res.Dated
		sale.FBRError = ""
		if err := saleRepo.UpdateFBRStatus(ctx, sale); err != nil {
			return err
		}
		return configRepo.TouchLastSync(ctx, sale.TenantID, now)
	})
}

// queueSale snapshots the validated document into the retry queue and leaves
// the sale pending, in the same transaction.
func (o *Orchestrator) queueSale(ctx context.Context, sale *entity.Sale, payload []byte, errMsg string) (*Result, error) {
	item := &entity.FBRQueueItem{
		TenantID:        sale.TenantID,
		SaleID:          sale.ID,
		InvoiceDocument: payload,
		Status:          entity.QueueStatusPending,
		RetryCount:      0,
		MaxRetries:      o.maxRetries,
		ErrorMessage:    errMsg,
	}
	err := o.txRunner.RunCompliance(ctx, func(
		saleRepo repository.SaleRepository,
		queueRepo repository.QueueRepository,
		_ repository.FBRConfigRepository,
	) error {
		if err := queueRepo.Enqueue(ctx, item); err != nil {
			return err
		}
		sale.FBRStatus = entity.FBRStatusPending
		sale.FBRError = errMsg
		return saleRepo.UpdateFBRStatus(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	metrics.SubmissionsTotal.WithLabelValues(OutcomeQueued, "inline").Inc()
	o.log.Info().
		Str("sale_id", sale.ID).
		Str("queue_item_id", item.ID).
		Str("reason", errMsg).
		Msg("sale queued for FBR retry")
	return &Result{Status: OutcomeQueued, Error: errMsg}, nil
}

// failSale records a terminal failure with its translated message.
func (o *Orchestrator) failSale(ctx context.Context, sale *entity.Sale, errMsg string) (*Result, error) {
	sale.FBRStatus = entity.FBRStatusFailed
	sale.FBRError = errMsg
	if err := o.saleRepo.UpdateFBRStatus(ctx, sale); err != nil {
		return nil, err
	}
	metrics.SubmissionsTotal.WithLabelValues(OutcomeFailed, "inline").Inc()
	return &Result{Status: OutcomeFailed, Error: errMsg}, nil
}
