package market

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the settlement taxonomy. Every precondition failure
// wraps exactly one of these so callers can branch on cause with errors.Is.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCapability  = errors.New("invalid capability")
	ErrClaimMismatch      = errors.New("claim mismatch")
	ErrAlreadySold        = errors.New("track already sold")
	ErrNotReleasable      = errors.New("track not releasable")
	ErrInvalidWithdrawal  = errors.New("invalid withdrawal")
	ErrAlreadyResolved    = errors.New("no open dispute")
	ErrInsufficientEscrow = errors.New("insufficient escrow")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrPaymentSpent       = errors.New("payment already spent")
	ErrAlreadyRated       = errors.New("track already rated")
	ErrDepositOverflow    = errors.New("deposit overflows escrow")
)

// Wrap tags a failure with its sentinel kind plus operation context.
func Wrap(kind error, operation, detail string) error {
	if kind == nil {
		kind = errors.New("settlement failure")
	}
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if detail = strings.TrimSpace(detail); detail != "" {
		parts = append(parts, detail)
	}
	if len(parts) == 0 {
		return kind
	}
	return fmt.Errorf("%w: %s", kind, strings.Join(parts, ": "))
}

var errorCodes = []struct {
	kind error
	code string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidCapability, "invalid_capability"},
	{ErrClaimMismatch, "claim_mismatch"},
	{ErrAlreadySold, "already_sold"},
	{ErrNotReleasable, "not_releasable"},
	{ErrInvalidWithdrawal, "invalid_withdrawal"},
	{ErrAlreadyResolved, "already_resolved"},
	{ErrInsufficientEscrow, "insufficient_escrow"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrPaymentSpent, "payment_spent"},
	{ErrAlreadyRated, "already_rated"},
	{ErrDepositOverflow, "deposit_overflow"},
}

// Code returns the stable error code for a settlement failure, or empty when
// the error does not belong to the taxonomy.
func Code(err error) string {
	for _, entry := range errorCodes {
		if errors.Is(err, entry.kind) {
			return entry.code
		}
	}
	return ""
}
