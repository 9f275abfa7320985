package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/brightraise/couponbook-platform/internal/ledger"
	"github.com/brightraise/couponbook-platform/internal/model"
	"github.com/brightraise/couponbook-platform/internal/service"
)

// LedgerServiceInterface defines the interface for ledger business logic.
type LedgerServiceInterface interface {
	RecordPurchase(ctx context.Context, purchaseID string, grossCents, feeCents, discountCents int64, createdBy string) (*ledger.EntryRecord, error)
	RecordRefund(ctx context.Context, refundID string, refundCents, feeRefundCents int64, createdBy string) (*ledger.EntryRecord, error)
	RecordDiscount(ctx context.Context, discountID string, amountCents int64, createdBy string) (*ledger.EntryRecord, error)
	RecordPayout(ctx context.Context, payoutID, schoolID string, amountCents int64, createdBy string) (*ledger.EntryRecord, error)
	GetEntry(ctx context.Context, entryID string) (*ledger.EntryRecord, error)
	TrialBalance(ctx context.Context) ([]ledger.TrialBalanceRow, error)
}

// LedgerHandler handles HTTP requests for accounting operations.
type LedgerHandler struct {
	service   LedgerServiceInterface
	validator *validator.Validate
}

// NewLedgerHandler creates a new LedgerHandler with the given service and validator.
func NewLedgerHandler(svc LedgerServiceInterface, v *validator.Validate) *LedgerHandler {
	return &LedgerHandler{service: svc, validator: v}
}

// RecordEvent handles POST /api/ledger/events requests, dispatching on the
// event type. An entry that fails the balance gate is rejected with both
// totals so the operator can see the mismatch; it is never persisted and
// never coerced into balance.
func (h *LedgerHandler) RecordEvent(c *fiber.Ctx) error {
	var req model.RecordEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	var record *ledger.EntryRecord
	var err error
	switch req.Type {
	case string(ledger.EventPurchase):
		record, err = h.service.RecordPurchase(c.Context(), req.SourceID, req.GrossCents, req.FeeCents, req.DiscountCents, req.CreatedBy)
	case string(ledger.EventRefund):
		record, err = h.service.RecordRefund(c.Context(), req.SourceID, req.AmountCents, req.FeeRefundCents, req.CreatedBy)
	case string(ledger.EventDiscount):
		record, err = h.service.RecordDiscount(c.Context(), req.SourceID, req.AmountCents, req.CreatedBy)
	case string(ledger.EventPayout):
		if req.SchoolID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: school_id is required for payouts"})
		}
		record, err = h.service.RecordPayout(c.Context(), req.SourceID, req.SchoolID, req.AmountCents, req.CreatedBy)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: unknown event type"})
	}

	if err != nil {
		if errors.Is(err, service.ErrUnbalancedEntry) {
			resp := fiber.Map{"error": err.Error()}
			var imbalance *ledger.ImbalanceError
			if errors.As(err, &imbalance) {
				resp["debit_cents"] = imbalance.DebitCents
				resp["credit_cents"] = imbalance.CreditCents
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
		}
		log.Error().Err(err).Str("event_type", req.Type).Str("source_id", req.SourceID).Msg("failed to record event")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("entry_id", record.ID).
		Str("event_type", string(record.Type)).
		Str("source_id", record.SourceID).
		Msg("journal entry recorded")
	return c.Status(fiber.StatusCreated).JSON(record)
}

// GetEntry handles GET /api/ledger/entries/:id requests.
func (h *LedgerHandler) GetEntry(c *fiber.Ctx) error {
	record, err := h.service.GetEntry(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "journal entry not found"})
		}
		log.Error().Err(err).Str("entry_id", c.Params("id")).Msg("failed to get journal entry")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(record)
}

// TrialBalance handles GET /api/ledger/trial-balance requests.
func (h *LedgerHandler) TrialBalance(c *fiber.Ctx) error {
	balance, err := h.service.TrialBalance(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to compute trial balance")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	var debits, credits int64
	for _, row := range balance {
		debits += row.DebitCents
		credits += row.CreditCents
	}
	return c.JSON(fiber.Map{
		"accounts":           balance,
		"total_debit_cents":  debits,
		"total_credit_cents": credits,
	})
}
