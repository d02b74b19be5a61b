package services

import "errors"

// Sentinel errors surfaced by the services. Handlers map these onto HTTP
// status codes with errors.Is.
var (
	// not found
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrReferredUserNotFound = errors.New("referred user not found")
	ErrCommissionNotFound   = errors.New("commission not found")
	ErrPayoutNotFound       = errors.New("payout not found")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrAffiliateNotFound    = errors.New("affiliate not found")
	ErrReferralCodeNotFound = errors.New("referral code not found")
	ErrUserNotFound         = errors.New("user not found")

	// conflict
	ErrDuplicateTransaction  = errors.New("transaction already exists")
	ErrReferralCodeExhausted = errors.New("failed to generate unique referral code")
	ErrEmailTaken            = errors.New("email already registered")

	// bad request
	ErrPayoutBelowMinimum   = errors.New("payout amount below minimum threshold")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrPayoutNotProcessable = errors.New("payout cannot be processed")
	ErrInvalidPayoutStatus  = errors.New("payout status must be paid or failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
)
