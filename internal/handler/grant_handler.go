package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/brightraise/couponbook-platform/internal/model"
	"github.com/brightraise/couponbook-platform/internal/service"
)

// GrantServiceInterface defines the interface for coupon grant business logic.
type GrantServiceInterface interface {
	Redeem(ctx context.Context, code string) (*model.CouponGrant, error)
	ListByUser(ctx context.Context, userID string) ([]model.CouponGrant, error)
}

// GrantHandler handles HTTP requests for coupon grant operations.
type GrantHandler struct {
	service   GrantServiceInterface
	validator *validator.Validate
}

// NewGrantHandler creates a new GrantHandler with the given service and validator.
func NewGrantHandler(svc GrantServiceInterface, v *validator.Validate) *GrantHandler {
	return &GrantHandler{service: svc, validator: v}
}

// RedeemGrant handles POST /api/grants/redeem requests from merchants
// marking a coupon as used.
func (h *GrantHandler) RedeemGrant(c *fiber.Ctx) error {
	var req model.RedeemGrantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	grant, err := h.service.Redeem(c.Context(), req.RedemptionCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGrantNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon grant not found"})
		case errors.Is(err, service.ErrGrantUsed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon grant already used"})
		case errors.Is(err, service.ErrGrantExpired):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "coupon grant expired"})
		}
		log.Error().Err(err).Msg("failed to redeem grant")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("grant_id", grant.ID).
		Str("coupon_id", grant.CouponID).
		Str("user_id", grant.UserID).
		Msg("grant redeemed")
	return c.JSON(grant)
}

// ListUserGrants handles GET /api/users/:user_id/grants requests.
func (h *GrantHandler) ListUserGrants(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: user_id is required"})
	}

	grants, err := h.service.ListByUser(c.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list grants")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"user_id": userID, "grants": grants})
}
