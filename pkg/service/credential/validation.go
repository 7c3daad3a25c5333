package credential

import (
	"github.com/benbjohnson/clock"

	credint "github.com/janskor-cz/identuslabel-sub001/internal/credential"
)

const (
	emptySubjectErrMsg     = "credential subject is empty"
	unknownIssuerErrMsg    = "credential issuer is missing or unknown"
	expiryBeforeIssueErrMsg = "expiration date does not follow issuance date"
	expiredErrMsg          = "credential is expired"
)

// Validator runs the structural and trust checks over a normalized credential.
// Checks always run in the same order and every failure is accumulated, so the
// holder sees the full picture instead of the first problem found.
type Validator struct {
	clock clock.Clock
}

func NewValidator() *Validator {
	return NewValidatorWithClock(clock.New())
}

func NewValidatorWithClock(c clock.Clock) *Validator {
	return &Validator{clock: c}
}

func (v *Validator) Validate(normalized credint.Normalized) ValidationResult {
	var errs []string
	if !normalized.HasSubject() {
		errs = append(errs, emptySubjectErrMsg)
	}
	if !normalized.HasKnownIssuer() {
		errs = append(errs, unknownIssuerErrMsg)
	}
	if normalized.ExpiresAt != nil {
		if !normalized.ExpiresAt.After(normalized.IssuedAt) {
			errs = append(errs, expiryBeforeIssueErrMsg)
		}
		if !v.clock.Now().Before(*normalized.ExpiresAt) {
			errs = append(errs, expiredErrMsg)
		}
	}
	return ValidationResult{
		IsValid:   len(errs) == 0,
		Errors:    errs,
		Issuer:    normalized.Issuer,
		IssuedAt:  normalized.IssuedAt,
		ExpiresAt: normalized.ExpiresAt,
	}
}
