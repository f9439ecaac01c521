package handlers

import (
	"korfarm-api/internal/adapters/http/middleware"
	"korfarm-api/internal/core/services"
	"korfarm-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SubscriptionHandler handles subscription endpoints
type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Current returns the caller's subscription view
// @Summary Get my subscription
// @Description Derived subscription state; past end date reports expired
// @Tags Subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /subscription [get]
func (h *SubscriptionHandler) Current(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "unauthorized")
	}

	view, err := h.subscriptionService.Current(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, view)
}

// Cancel cancels the caller's subscription at period end
// @Summary Cancel my subscription
// @Description Access continues until the paid window ends
// @Tags Subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /subscription/cancel [post]
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "unauthorized")
	}

	view, err := h.subscriptionService.Cancel(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, view)
}
