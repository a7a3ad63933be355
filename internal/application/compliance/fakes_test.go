package compliance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/retailgrid/fbr-sync/internal/domain/entity"
	"github.com/retailgrid/fbr-sync/internal/domain/repository"
	infrafbr "github.com/retailgrid/fbr-sync/internal/infrastructure/fbr"
	"github.com/retailgrid/fbr-sync/pkg/logger"
	"github.com/shopspring/decimal"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// fakeSaleRepo keeps sales in memory and records every status write.
type fakeSaleRepo struct {
	mu            sync.Mutex
	sales         map[string]*entity.Sale
	statusHistory []string
}

func newFakeSaleRepo(sales ...*entity.Sale) *fakeSaleRepo {
	r := &fakeSaleRepo{sales: make(map[string]*entity.Sale)}
	for _, s := range sales {
		r.sales[s.ID] = s
	}
	return r
}

func (r *fakeSaleRepo) GetByID(_ context.Context, tenantID, saleID string) (*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[saleID]
	if !ok || s.TenantID != tenantID {
		return nil, nil
	}
	return s, nil
}

func (r *fakeSaleRepo) UpdateFBRStatus(_ context.Context, sale *entity.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[sale.ID] = sale
	r.statusHistory = append(r.statusHistory, sale.FBRStatus)
	return nil
}

// fakeQueueRepo is an in-memory queue with the same claim semantics as the
// postgres implementation: oldest pending first, claimed items move to
// processing, concurrent claimers never share an item.
type fakeQueueRepo struct {
	mu    sync.Mutex
	seq   int
	items []*entity.FBRQueueItem
}

func (r *fakeQueueRepo) Enqueue(_ context.Context, item *entity.FBRQueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	item.ID = fmt.Sprintf("queue-%d", r.seq)
	item.CreatedAt = time.Now()
	r.items = append(r.items, item)
	return nil
}

func (r *fakeQueueRepo) FetchAndClaim(_ context.Context, batchSize int) ([]*entity.FBRQueueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed []*entity.FBRQueueItem
	for _, it := range r.items {
		if len(claimed) == batchSize {
			break
		}
		if it.Status == entity.QueueStatusPending {
			it.Status = entity.QueueStatusProcessing
			it.UpdatedAt = time.Now()
			cp := *it
			claimed = append(claimed, &cp)
		}
	}
	return claimed, nil
}

func (r *fakeQueueRepo) MarkCompleted(_ context.Context, id string) error {
	return r.setStatus(id, entity.QueueStatusCompleted, "", false)
}

func (r *fakeQueueRepo) MarkRetry(_ context.Context, id string, errMsg string) error {
	return r.setStatus(id, entity.QueueStatusPending, errMsg, true)
}

func (r *fakeQueueRepo) MarkFailed(_ context.Context, id string, errMsg string) error {
	return r.setStatus(id, entity.QueueStatusFailed, errMsg, true)
}

func (r *fakeQueueRepo) setStatus(id, status, errMsg string, bumpRetry bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ID == id {
			it.Status = status
			if errMsg != "" {
				it.ErrorMessage = errMsg
			}
			if bumpRetry {
				it.RetryCount++
			}
			it.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("queue item %s not found", id)
}

func (r *fakeQueueRepo) ReclaimStale(_ context.Context, olderThan time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var n int64
	for _, it := range r.items {
		if it.Status == entity.QueueStatusProcessing && it.UpdatedAt.Before(cutoff) {
			it.Status = entity.QueueStatusPending
			it.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (r *fakeQueueRepo) CountBacklog(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, it := range r.items {
		if it.Status == entity.QueueStatusPending || it.Status == entity.QueueStatusProcessing {
			n++
		}
	}
	return n, nil
}

func (r *fakeQueueRepo) byID(id string) *entity.FBRQueueItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// fakeConfigRepo records last-sync stamps; the config rows themselves are
// exercised through the config use case tests.
type fakeConfigRepo struct {
	mu       sync.Mutex
	configs  map[string]*entity.TenantFBRConfig
	syncedAt []time.Time
	upserted []*entity.TenantFBRConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: make(map[string]*entity.TenantFBRConfig)}
}

func (r *fakeConfigRepo) GetActiveByTenant(_ context.Context, tenantID string) (*entity.TenantFBRConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[tenantID]
	if !ok || !cfg.IsActive {
		return nil, nil
	}
	return cfg, nil
}

func (r *fakeConfigRepo) Upsert(_ context.Context, cfg *entity.TenantFBRConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg.UpdatedAt = time.Now()
	r.configs[cfg.TenantID] = cfg
	r.upserted = append(r.upserted, cfg)
	return nil
}

func (r *fakeConfigRepo) TouchLastSync(_ context.Context, tenantID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncedAt = append(r.syncedAt, at)
	if cfg, ok := r.configs[tenantID]; ok {
		cfg.LastSyncAt = &at
	}
	return nil
}

// fakeTenantRepo serves a fixed tenant set.
type fakeTenantRepo struct {
	tenants map[string]*entity.Tenant
}

func (r *fakeTenantRepo) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	return r.tenants[id], nil
}

// fakeTxRunner hands the same in-memory repos to the callback; atomicity is
// not simulated, only the wiring.
type fakeTxRunner struct {
	saleRepo   *fakeSaleRepo
	queueRepo  *fakeQueueRepo
	configRepo *fakeConfigRepo
}

func (t *fakeTxRunner) RunCompliance(ctx context.Context, fn func(
	saleRepo repository.SaleRepository,
	queueRepo repository.QueueRepository,
	configRepo repository.FBRConfigRepository,
) error) error {
	return fn(t.saleRepo, t.queueRepo, t.configRepo)
}

// fakeCreds is a canned credential source.
type fakeCreds struct {
	creds infrafbr.Credentials
	err   error
}

func (f *fakeCreds) CredentialsForTenant(context.Context, string) (infrafbr.Credentials, error) {
	return f.creds, f.err
}

// fakeAuthority replays canned results and records each call's payload.
type fakeAuthority struct {
	mu             sync.Mutex
	validateResult *infrafbr.Result
	submitResult   *infrafbr.Result
	validateCalls  [][]byte
	submitCalls    [][]byte
}

func (f *fakeAuthority) Validate(_ context.Context, _ infrafbr.Credentials, payload []byte) *infrafbr.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validateCalls = append(f.validateCalls, payload)
	return f.validateResult
}

func (f *fakeAuthority) Submit(_ context.Context, _ infrafbr.Credentials, payload []byte) *infrafbr.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls = append(f.submitCalls, payload)
	return f.submitResult
}

func acceptedResult(invoiceNumber string) *infrafbr.Result {
	return &infrafbr.Result{
		Outcome:       infrafbr.OutcomeAccepted,
		InvoiceNumber: invoiceNumber,
		Dated:         "2026-08-28 14:05:00",
	}
}

func transportFailure() *infrafbr.Result {
	return &infrafbr.Result{
		Outcome:   infrafbr.OutcomeTransportFailure,
		Retryable: true,
		Error:     "authority unreachable: context deadline exceeded",
	}
}

func rejectedResult(code, msg string, retryable bool) *infrafbr.Result {
	return &infrafbr.Result{
		Outcome:   infrafbr.OutcomeRejected,
		Retryable: retryable,
		ErrorCode: code,
		Error:     msg,
	}
}

func testTenant() *entity.Tenant {
	return &entity.Tenant{
		ID:           "tenant-1",
		BusinessName: "Karachi Traders",
		NTN:          "1234567",
		Province:     "Sindh",
		Address:      "Shahrah-e-Faisal, Karachi",
		IsActive:     true,
	}
}

func testSale() *entity.Sale {
	return &entity.Sale{
		ID:            "sale-1",
		TenantID:      "tenant-1",
		InvoiceNumber: "INV-0001",
		SaleDate:      time.Date(2026, 8, 28, 13, 45, 0, 0, time.UTC),
		GrandTotal:    decimal.NewFromInt(118),
		FBRStatus:     entity.FBRStatusPending,
		Items: []entity.SaleItem{
			{
				Description:   "Bottled water 1.5L",
				HSCode:        "2201.1010",
				UnitOfMeasure: "PCS",
				TaxCategory:   "standard",
				Quantity:      decimal.NewFromInt(1),
				UnitPrice:     decimal.NewFromInt(100),
			},
		},
	}
}
