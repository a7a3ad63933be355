package dto

// ComplianceResponse is the outcome of a submission attempt, and also the
// shape of the read-back status endpoint.
type ComplianceResponse struct {
	SaleID           string `json:"sale_id"`
	Status           string `json:"status"` // synced | queued | failed | pending
	FBRInvoiceNumber string `json:"fbr_invoice_number,omitempty"`
	FBRDated         string `json:"fbr_dated,omitempty"`
	Error            string `json:"error,omitempty"`
}

// ProcessQueueRequest body for the operational queue trigger.
type ProcessQueueRequest struct {
	BatchSize int `json:"batch_size" validate:"omitempty,min=1,max=100"`
}

// ProcessQueueResponse summarizes one worker pass.
type ProcessQueueResponse struct {
	Claimed   int `json:"claimed"`
	Completed int `json:"completed"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}
