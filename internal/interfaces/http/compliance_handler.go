package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/retailgrid/fbr-sync/internal/application/compliance"
	"github.com/retailgrid/fbr-sync/internal/application/dto"
	"github.com/retailgrid/fbr-sync/internal/domain"
)

// ComplianceHandler exposes invoice submission and status read-back.
type ComplianceHandler struct {
	orch *compliance.Orchestrator
}

// NewComplianceHandler builds the handler.
func NewComplianceHandler(orch *compliance.Orchestrator) *ComplianceHandler {
	return &ComplianceHandler{orch: orch}
}

// Submit reports a finalized sale to the FBR.
// POST /api/sales/:id/submit
func (h *ComplianceHandler) Submit(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	saleID := c.Params("id")
	if saleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "sale id required"})
	}

	res, err := h.orch.SubmitSaleForCompliance(c.Context(), tenantID, saleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "sale not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(toComplianceResponse(saleID, res))
}

// Status returns the sale's current FBR synchronization state.
// GET /api/sales/:id/compliance
func (h *ComplianceHandler) Status(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	saleID := c.Params("id")
	if saleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "sale id required"})
	}

	res, err := h.orch.ComplianceStatus(c.Context(), tenantID, saleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "sale not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(toComplianceResponse(saleID, res))
}

func toComplianceResponse(saleID string, res *compliance.Result) dto.ComplianceResponse {
	return dto.ComplianceResponse{
		SaleID:           saleID,
		Status:           res.Status,
		FBRInvoiceNumber: res.FBRInvoiceNumber,
		FBRDated:         res.FBRDated,
		Error:            res.Error,
	}
}
