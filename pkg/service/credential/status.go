package credential

import (
	"context"
	"time"

	credint "github.com/janskor-cz/identuslabel-sub001/internal/credential"
)

// RevocationRegistry answers whether a credential has been revoked. Revocation is
// an externally supplied fact (e.g. relayed from the issuing agent); the wallet
// records it but never derives it.
type RevocationRegistry interface {
	IsRevoked(ctx context.Context, credentialID string) (bool, error)
}

// ResolveStatus folds the revocation fact and the credential's temporal window into
// a single lifecycle state. Revocation always wins over expiry, and expiry over valid,
// so a revoked credential stays revoked even past its expiration date.
func ResolveStatus(normalized credint.Normalized, revoked bool, now time.Time) Status {
	if revoked {
		return StatusRevoked
	}
	if normalized.ExpiresAt != nil && !now.Before(*normalized.ExpiresAt) {
		return StatusExpired
	}
	return StatusValid
}
