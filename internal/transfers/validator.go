package transfers

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
)

// Validation reasons surfaced to the caller. These are user-correctable
// messages, not internal errors.
const (
	ReasonSameEndpoint = "Source and destination must differ."
	ReasonNonPositive  = "Amount must be greater than zero."
)

// Validate runs the ordered transfer checks against an already-computed
// available balance. First failure wins. Pure: no reads, no writes.
func Validate(fromLLP, toLLP string, speciesCode enums.SpeciesCode, pounds, available decimal.Decimal) error {
	if fromLLP == toLLP {
		return pkgerrors.New(pkgerrors.CodeValidation, ReasonSameEndpoint)
	}
	if !pounds.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, ReasonNonPositive)
	}
	if !speciesCode.IsTransferable() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Species %d is not transferable.", speciesCode))
	}
	// an exhausted or overdrawn permit cannot source any transfer; exact
	// exhaustion (pounds == available) is allowed
	if !available.IsPositive() || pounds.GreaterThan(available) {
		return pkgerrors.New(pkgerrors.CodeValidation, insufficientReason(fromLLP, available))
	}
	return nil
}

// ValidateStatic runs only the checks that need no ledger read, so callers
// can fail fast before opening a transaction.
func ValidateStatic(fromLLP, toLLP string, speciesCode enums.SpeciesCode, pounds decimal.Decimal) error {
	if fromLLP == toLLP {
		return pkgerrors.New(pkgerrors.CodeValidation, ReasonSameEndpoint)
	}
	if !pounds.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, ReasonNonPositive)
	}
	if !speciesCode.IsTransferable() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Species %d is not transferable.", speciesCode))
	}
	return nil
}

func insufficientReason(fromLLP string, available decimal.Decimal) string {
	return fmt.Sprintf("Insufficient quota: %s has %s remaining.", fromLLP, available.StringFixed(2))
}

// NormalizeNotes trims surrounding whitespace; an empty or all-whitespace
// note becomes absent rather than a blank string.
func NormalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
