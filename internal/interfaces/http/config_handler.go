package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/retailgrid/fbr-sync/internal/application/compliance"
	"github.com/retailgrid/fbr-sync/internal/application/dto"
	"github.com/retailgrid/fbr-sync/internal/domain"
)

// ConfigHandler manages the tenant's FBR credentials (admin only).
type ConfigHandler struct {
	uc *compliance.ConfigUseCase
}

// NewConfigHandler builds the handler.
func NewConfigHandler(uc *compliance.ConfigUseCase) *ConfigHandler {
	return &ConfigHandler{uc: uc}
}

// Upsert stores the tenant's bearer token and environment choice.
// PUT /api/fbr/config
func (h *ConfigHandler) Upsert(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}
	var in dto.UpsertFBRConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}

	resp, err := h.uc.Upsert(c.Context(), tenantID, &in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "bearer_token is required (min 16 characters)"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}

// Get returns the config without the credential material.
// GET /api/fbr/config
func (h *ConfigHandler) Get(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}

	resp, err := h.uc.Get(c.Context(), tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "FBR is not configured for this tenant"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}
