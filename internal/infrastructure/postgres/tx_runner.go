package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailgrid/fbr-sync/internal/application/compliance"
	"github.com/retailgrid/fbr-sync/internal/domain/repository"
)

// Ensure TxRunner implements compliance.TxRunner.
var _ compliance.TxRunner = (*TxRunner)(nil)

// TxRunner executes callbacks inside one PostgreSQL transaction, handing the
// callback repositories bound to that transaction. The orchestrator uses it
// to pair a sale-status write with its queue insert, and the worker to pair
// a sale-status write with the item's terminal transition.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner builds the runner over the pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunCompliance begins a transaction, runs fn with tx-bound repos, then
// commits, or rolls back when fn errors.
func (r *TxRunner) RunCompliance(ctx context.Context, fn func(
	saleRepo repository.SaleRepository,
	queueRepo repository.QueueRepository,
	configRepo repository.FBRConfigRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	saleRepo := NewSaleRepository(tx)
	queueRepo := NewQueueRepository(tx)
	configRepo := NewFBRConfigRepository(tx)

	if err := fn(saleRepo, queueRepo, configRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
