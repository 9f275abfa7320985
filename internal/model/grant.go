package model

import "time"

// GrantType records the mechanism that awarded a coupon to a user.
type GrantType string

const (
	GrantPurchased GrantType = "purchased"
	GrantGifted    GrantType = "gifted"
	GrantTargeted  GrantType = "targeted"
)

// CouponGrant records that a specific user has been awarded a specific
// coupon. Targeted grants carry the rule that produced them.
type CouponGrant struct {
	ID              string     `json:"id"`
	CouponID        string     `json:"coupon_id"`
	UserID          string     `json:"user_id"`
	GrantType       GrantType  `json:"grant_type"`
	TargetingRuleID string     `json:"targeting_rule_id,omitempty"`
	GrantedAt       time.Time  `json:"granted_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Used            bool       `json:"used"`
	RedemptionCode  string     `json:"redemption_code,omitempty"`
}

// Expired reports whether the grant has an expiry in the past.
func (g CouponGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && g.ExpiresAt.Before(now)
}
