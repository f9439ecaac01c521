package handlers

import (
	"korfarm-api/internal/core/services"
	"korfarm-api/internal/pkg/pagination"
	"korfarm-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the HQ admin surface: flag administration and the
// full payment ledger.
type AdminHandler struct {
	flagService    *services.FeatureFlagService
	paymentService *services.PaymentService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(flagService *services.FeatureFlagService, paymentService *services.PaymentService) *AdminHandler {
	return &AdminHandler{
		flagService:    flagService,
		paymentService: paymentService,
	}
}

// ListFlags lists all feature flags
// @Summary List feature flags
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/flags [get]
func (h *AdminHandler) ListFlags(c *fiber.Ctx) error {
	flags, err := h.flagService.List(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, flags)
}

// UpdateFlag applies a partial update to a flag
// @Summary Update a feature flag
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Flag key"
// @Param body body services.UpdateFlagInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/flags/{key} [patch]
func (h *AdminHandler) UpdateFlag(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return response.BadRequest(c, "flag key is required")
	}

	var req services.UpdateFlagInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	flag, err := h.flagService.Update(c.Context(), key, &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, flag)
}

// ListPayments returns a page of all payments
// @Summary List all payments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/payments [get]
func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	payments, total, err := h.paymentService.ListAdmin(c.Context(), params)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, pagination.NewResponse(payments, params, total))
}
