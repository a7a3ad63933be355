package entity

import (
	"encoding/json"
	"time"
)

// Retry-queue item states. pending -> processing -> completed | pending,
// terminal at completed or failed. Rows are never deleted (audit trail).
const (
	QueueStatusPending    = "pending"
	QueueStatusProcessing = "processing"
	QueueStatusCompleted  = "completed"
	QueueStatusFailed     = "failed"
)

// FBRQueueItem is one durable retry entry. The invoice document is snapshotted
// at enqueue time so the worker replays exactly what was validated, regardless
// of later edits to the sale.
type FBRQueueItem struct {
	ID              string
	TenantID        string
	SaleID          string
	InvoiceDocument json.RawMessage
	Status          string
	RetryCount      int
	MaxRetries      int
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Exhausted reports whether the retry budget is spent.
func (q *FBRQueueItem) Exhausted() bool {
	return q.RetryCount >= q.MaxRetries
}
