package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/retailgrid/fbr-sync/internal/application/compliance"
	"github.com/retailgrid/fbr-sync/internal/application/dto"
	"github.com/retailgrid/fbr-sync/internal/domain"
	infrafbr "github.com/retailgrid/fbr-sync/internal/infrastructure/fbr"
)

// ReferenceHandler proxies the Authority's reference catalogues (provinces,
// HS codes, units of measure, SRO schedules) for POS autocomplete. Calls go
// out with the tenant's own credentials against its configured environment.
type ReferenceHandler struct {
	creds  compliance.CredentialSource
	client *infrafbr.ReferenceClient
}

// NewReferenceHandler builds the handler.
func NewReferenceHandler(creds compliance.CredentialSource, client *infrafbr.ReferenceClient) *ReferenceHandler {
	return &ReferenceHandler{creds: creds, client: client}
}

// Provinces GET /api/fbr/reference/provinces
func (h *ReferenceHandler) Provinces(c *fiber.Ctx) error {
	return h.serve(c, func(creds infrafbr.Credentials) (interface{}, error) {
		return h.client.Provinces(c.Context(), creds)
	})
}

// HSCodes GET /api/fbr/reference/hs-codes
func (h *ReferenceHandler) HSCodes(c *fiber.Ctx) error {
	return h.serve(c, func(creds infrafbr.Credentials) (interface{}, error) {
		return h.client.HSCodes(c.Context(), creds)
	})
}

// UnitsOfMeasure GET /api/fbr/reference/uom
func (h *ReferenceHandler) UnitsOfMeasure(c *fiber.Ctx) error {
	return h.serve(c, func(creds infrafbr.Credentials) (interface{}, error) {
		return h.client.UnitsOfMeasure(c.Context(), creds)
	})
}

// SROSchedules GET /api/fbr/reference/sro-schedules
func (h *ReferenceHandler) SROSchedules(c *fiber.Ctx) error {
	return h.serve(c, func(creds infrafbr.Credentials) (interface{}, error) {
		return h.client.SROSchedules(c.Context(), creds)
	})
}

func (h *ReferenceHandler) serve(c *fiber.Ctx, fetch func(infrafbr.Credentials) (interface{}, error)) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid token"})
	}

	creds, err := h.creds.CredentialsForTenant(c.Context(), tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_CONFIGURED", Message: "FBR is not configured for this tenant"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	out, err := fetch(creds)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "AUTHORITY_UNAVAILABLE", Message: err.Error()})
	}
	return c.JSON(out)
}
