package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/retailgrid/fbr-sync/internal/application/compliance"
	"github.com/retailgrid/fbr-sync/internal/application/dto"
)

// QueueHandler is the operational trigger for the retry queue, for running a
// pass outside the worker's schedule (admin only).
type QueueHandler struct {
	worker           *compliance.Worker
	defaultBatchSize int
}

// NewQueueHandler builds the handler.
func NewQueueHandler(worker *compliance.Worker, defaultBatchSize int) *QueueHandler {
	return &QueueHandler{worker: worker, defaultBatchSize: defaultBatchSize}
}

// Process runs one pass over the retry queue.
// POST /api/fbr/queue/process
func (h *QueueHandler) Process(c *fiber.Ctx) error {
	var in dto.ProcessQueueRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
		}
		if err := dto.Validate(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "batch_size must be between 1 and 100"})
		}
	}
	batchSize := in.BatchSize
	if batchSize == 0 {
		batchSize = h.defaultBatchSize
	}

	stats, err := h.worker.ProcessRetryQueue(c.Context(), batchSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.ProcessQueueResponse{
		Claimed:   stats.Claimed,
		Completed: stats.Completed,
		Retried:   stats.Retried,
		Failed:    stats.Failed,
	})
}
