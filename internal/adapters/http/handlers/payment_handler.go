package handlers

import (
	"korfarm-api/internal/adapters/http/middleware"
	"korfarm-api/internal/core/services"
	"korfarm-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles the checkout entry points and payment history.
// Both checkouts pass the kill switch and their rollout flag before any
// business logic runs.
type PaymentHandler struct {
	paymentService *services.PaymentService
	flagService    *services.FeatureFlagService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService, flagService *services.FeatureFlagService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		flagService:    flagService,
	}
}

// CheckoutSubscription handles subscription checkout
// @Summary Subscription checkout
// @Description Charge one subscription period and extend or start the window
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CheckoutInput true "Checkout data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /payments/checkout [post]
func (h *PaymentHandler) CheckoutSubscription(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "unauthorized")
	}

	if err := h.flagService.RequireNotKilled(c.Context(), services.FlagPaymentsKillSwitch); err != nil {
		return response.FromError(c, err)
	}
	if err := h.flagService.RequireEnabled(c.Context(), services.FlagSubscriptionCheckout, userID); err != nil {
		return response.FromError(c, err)
	}

	var req services.CheckoutInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	payment, err := h.paymentService.CheckoutSubscription(c.Context(), userID, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, payment)
}

// CheckoutShop handles shop checkout
// @Summary Shop checkout
// @Description Charge a pending order: payment, stock, order and shipment commit together
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CheckoutInput true "Checkout data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /payments/shop [post]
func (h *PaymentHandler) CheckoutShop(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "unauthorized")
	}

	if err := h.flagService.RequireNotKilled(c.Context(), services.FlagPaymentsKillSwitch); err != nil {
		return response.FromError(c, err)
	}
	if err := h.flagService.RequireEnabled(c.Context(), services.FlagShopCheckout, userID); err != nil {
		return response.FromError(c, err)
	}

	var req services.CheckoutInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	payment, err := h.paymentService.CheckoutShop(c.Context(), userID, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, payment)
}

// ListMine returns the caller's payment history
// @Summary My payments
// @Description Payment history, newest first
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /payments [get]
func (h *PaymentHandler) ListMine(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "unauthorized")
	}

	payments, err := h.paymentService.ListByUser(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, payments)
}
