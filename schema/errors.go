package schema

import (
	"errors"
)

// Validation errors: malformed input, rejected before any state mutation.
var (
	ErrBadAssetString       = errors.New("bad_asset_string")
	ErrSymbolMismatch       = errors.New("symbol_mismatch")
	ErrZeroOrNegativeAmount = errors.New("zero_or_negative_amount")
	ErrInvalidVoteList      = errors.New("invalid_vote_list")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidKey           = errors.New("invalid_signing_key")
)

// Precondition errors: business-rule violations, rejected before mutation.
var (
	ErrNotExist              = errors.New("not_exist_record")
	ErrNotInitialized        = errors.New("not_initialized")
	ErrAlreadyInitialized    = errors.New("already_initialized")
	ErrInsufficientLiquidity = errors.New("insufficient_liquidity")
	ErrLiquidityExhausted    = errors.New("liquidity_exhausted")
	ErrInsufficientFunds     = errors.New("insufficient_funds")
	ErrInsufficientStake     = errors.New("insufficient_stake")
	ErrUnregisteredProxy     = errors.New("unregistered_proxy")
	ErrVoteRequirement       = errors.New("vote_requirement_not_met")
	ErrNothingToClaim        = errors.New("nothing_to_claim")
	ErrChainNotActivated     = errors.New("chain_not_activated")
	ErrAuctionClosed         = errors.New("auction_closed")
	ErrAuctionOpen           = errors.New("auction_still_open")
	ErrBidTooLow             = errors.New("bid_too_low")
	ErrSelfOutbid            = errors.New("self_outbid")
	ErrNoRefundDue           = errors.New("no_refund_due")
	ErrNotHighBidder         = errors.New("not_high_bidder")
	ErrNonzeroBalance        = errors.New("nonzero_balance")
	ErrLoanExpired           = errors.New("loan_expired")
	ErrNotLoanOwner          = errors.New("not_loan_owner")
	ErrRefundNotDue          = errors.New("refund_not_due")
	ErrOpenObligations       = errors.New("open_obligations")
	ErrResourceManaged       = errors.New("resource_managed")
	ErrNoEffect              = errors.New("action_has_no_effect")
)

// Invariant errors: never reachable from valid input, fatal to the action.
var (
	ErrAmountOverflow         = errors.New("amount_overflow")
	ErrInconsistentReserves   = errors.New("inconsistent_reserves")
	ErrInconsistentMaturities = errors.New("inconsistent_maturities")
)
