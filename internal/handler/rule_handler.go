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

// RuleServiceInterface defines the interface for targeting rule business logic.
type RuleServiceInterface interface {
	Create(ctx context.Context, req *model.CreateRuleRequest) (*model.TargetingRule, error)
	Get(ctx context.Context, id string) (*model.TargetingRule, error)
	List(ctx context.Context) ([]model.TargetingRule, error)
	Update(ctx context.Context, id string, req *model.UpdateRuleRequest) (*model.TargetingRule, error)
	Deactivate(ctx context.Context, id string) error
	Preview(ctx context.Context, id string) (*model.PreviewRuleResponse, error)
	Apply(ctx context.Context, id string, req *model.ApplyRuleRequest) (*model.ApplyRuleResponse, error)
}

// RuleHandler handles HTTP requests for targeting rule operations.
type RuleHandler struct {
	service   RuleServiceInterface
	validator *validator.Validate
}

// NewRuleHandler creates a new RuleHandler with the given service and validator.
func NewRuleHandler(svc RuleServiceInterface, v *validator.Validate) *RuleHandler {
	return &RuleHandler{service: svc, validator: v}
}

// CreateRule handles POST /api/rules requests to define a targeting rule.
func (h *RuleHandler) CreateRule(c *fiber.Ctx) error {
	var req model.CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	rule, err := h.service.Create(c.Context(), &req)
	if err != nil {
		return h.ruleError(c, err, req.Name, "failed to create rule")
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

// GetRule handles GET /api/rules/:id requests.
func (h *RuleHandler) GetRule(c *fiber.Ctx) error {
	rule, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.ruleError(c, err, c.Params("id"), "failed to get rule")
	}
	return c.JSON(rule)
}

// ListRules handles GET /api/rules requests.
func (h *RuleHandler) ListRules(c *fiber.Ctx) error {
	rules, err := h.service.List(c.Context())
	if err != nil {
		return h.ruleError(c, err, "", "failed to list rules")
	}
	return c.JSON(fiber.Map{"rules": rules})
}

// UpdateRule handles PUT /api/rules/:id requests.
func (h *RuleHandler) UpdateRule(c *fiber.Ctx) error {
	var req model.UpdateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	rule, err := h.service.Update(c.Context(), c.Params("id"), &req)
	if err != nil {
		return h.ruleError(c, err, c.Params("id"), "failed to update rule")
	}
	return c.JSON(rule)
}

// DeactivateRule handles DELETE /api/rules/:id requests. Rules are turned
// off, never removed, so existing grants keep their provenance.
func (h *RuleHandler) DeactivateRule(c *fiber.Ctx) error {
	if err := h.service.Deactivate(c.Context(), c.Params("id")); err != nil {
		return h.ruleError(c, err, c.Params("id"), "failed to deactivate rule")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PreviewRule handles POST /api/rules/:id/preview requests, reporting how
// many profiles the rule matches without granting anything.
func (h *RuleHandler) PreviewRule(c *fiber.Ctx) error {
	preview, err := h.service.Preview(c.Context(), c.Params("id"))
	if err != nil {
		return h.ruleError(c, err, c.Params("id"), "failed to preview rule")
	}
	return c.JSON(preview)
}

// ApplyRule handles POST /api/rules/:id/apply requests, granting the
// coupon to every matching profile.
func (h *RuleHandler) ApplyRule(c *fiber.Ctx) error {
	var req model.ApplyRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	result, err := h.service.Apply(c.Context(), c.Params("id"), &req)
	if err != nil {
		return h.ruleError(c, err, c.Params("id"), "failed to apply rule")
	}

	log.Info().
		Str("rule_id", result.RuleID).
		Int("matched", result.Matched).
		Int("granted", result.Granted).
		Int("skipped", result.Skipped).
		Msg("rule applied")
	return c.JSON(result)
}

// ruleError maps service errors to HTTP responses.
func (h *RuleHandler) ruleError(c *fiber.Ctx, err error, ruleRef, logMsg string) error {
	var validationErr *service.RuleValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "invalid targeting rule",
			"errors": validationErr.Errors,
		})
	}

	switch {
	case errors.Is(err, service.ErrRuleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "targeting rule not found"})
	case errors.Is(err, service.ErrRuleInactive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "targeting rule is inactive"})
	case errors.Is(err, service.ErrCouponNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
	case errors.Is(err, service.ErrGrantLimitReached):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon grant limit reached"})
	case errors.Is(err, service.ErrInvalidRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	log.Error().Err(err).Str("rule", ruleRef).Msg(logMsg)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
