package syscore

import (
	"errors"

	"github.com/corechain/syscore/schema"
)

var validationErrors = []error{
	schema.ErrBadAssetString, schema.ErrSymbolMismatch, schema.ErrZeroOrNegativeAmount,
	schema.ErrInvalidVoteList, schema.ErrInvalidName, schema.ErrInvalidKey,
}

var invariantErrors = []error{
	schema.ErrAmountOverflow, schema.ErrInconsistentReserves, schema.ErrInconsistentMaturities,
}

func IsValidationErr(err error) bool {
	for _, e := range validationErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsInvariantErr reports internal-arithmetic failures that must never be
// reachable from valid input; the action aborts and the error is logged loudly.
func IsInvariantErr(err error) bool {
	for _, e := range invariantErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
