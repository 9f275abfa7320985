package service

import "errors"

var (
	// ErrRuleNotFound is returned when a targeting rule cannot be found
	ErrRuleNotFound = errors.New("targeting rule not found")

	// ErrRuleInactive is returned when applying a rule that has been deactivated
	ErrRuleInactive = errors.New("targeting rule is inactive")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrGrantExists is returned when a user already holds a grant for the coupon
	ErrGrantExists = errors.New("coupon already granted to user")

	// ErrGrantNotFound is returned when a grant cannot be found
	ErrGrantNotFound = errors.New("coupon grant not found")

	// ErrGrantUsed is returned when redeeming a grant that was already redeemed
	ErrGrantUsed = errors.New("coupon grant already used")

	// ErrGrantExpired is returned when redeeming a grant past its expiry
	ErrGrantExpired = errors.New("coupon grant expired")

	// ErrGrantLimitReached is returned when a coupon's grant limit is exhausted
	ErrGrantLimitReached = errors.New("coupon grant limit reached")

	// ErrEntryNotFound is returned when a journal entry cannot be found
	ErrEntryNotFound = errors.New("journal entry not found")

	// ErrUnbalancedEntry is returned when a journal entry fails the balance gate.
	// The wrapped error carries the computed debit and credit totals.
	ErrUnbalancedEntry = errors.New("journal entry does not balance")
)
