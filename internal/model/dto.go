package model

import "time"

// CreateRuleRequest is the DTO for creating a targeting rule.
type CreateRuleRequest struct {
	Name       string          `json:"name" validate:"required,notblank,max=255"`
	Conditions ConditionGroups `json:"conditions"`
	Active     *bool           `json:"active"`
}

// UpdateRuleRequest is the DTO for replacing a rule's definition.
type UpdateRuleRequest struct {
	Name       string          `json:"name" validate:"required,notblank,max=255"`
	Conditions ConditionGroups `json:"conditions"`
	Active     *bool           `json:"active"`
}

// ApplyRuleRequest is the DTO for granting a coupon to a rule's audience.
type ApplyRuleRequest struct {
	CouponID   string     `json:"coupon_id" validate:"required,notblank,max=255"`
	GrantLimit int        `json:"grant_limit" validate:"gte=0"` // 0 = unlimited
	ExpiresAt  *time.Time `json:"expires_at"`
}

// ApplyRuleResponse reports the outcome of applying a rule.
type ApplyRuleResponse struct {
	RuleID  string `json:"rule_id"`
	Matched int    `json:"matched"`
	Granted int    `json:"granted"`
	Skipped int    `json:"skipped"`
}

// PreviewRuleResponse reports how many known profiles a rule matches.
type PreviewRuleResponse struct {
	RuleID        string `json:"rule_id"`
	MatchingUsers int    `json:"matching_users"`
}

// RedeemGrantRequest is the DTO for redeeming a coupon grant.
type RedeemGrantRequest struct {
	RedemptionCode string `json:"redemption_code" validate:"required,notblank,max=64"`
}

// RecordEventRequest is the DTO for recording a financial event. Amount
// fields the event type does not use are ignored.
type RecordEventRequest struct {
	Type           string `json:"type" validate:"required,oneof=purchase refund discount payout"`
	SourceID       string `json:"source_id" validate:"required,notblank,max=255"`
	SchoolID       string `json:"school_id" validate:"max=255"`
	GrossCents     int64  `json:"gross_cents" validate:"gte=0"`
	FeeCents       int64  `json:"fee_cents" validate:"gte=0"`
	DiscountCents  int64  `json:"discount_cents" validate:"gte=0"`
	AmountCents    int64  `json:"amount_cents" validate:"gte=0"`
	FeeRefundCents int64  `json:"fee_refund_cents" validate:"gte=0"`
	CreatedBy      string `json:"created_by" validate:"required,notblank,max=255"`
}
