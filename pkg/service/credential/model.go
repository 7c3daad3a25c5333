package credential

import (
	"time"

	"github.com/goccy/go-json"

	credint "github.com/janskor-cz/identuslabel-sub001/internal/credential"
)

// Status is the resolved lifecycle state of a stored credential
type Status string

const (
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// ValidationResult is the outcome of the structural and trust checks on a credential.
// Errors are accumulated in check order and shown to the holder verbatim, so the
// ordering is part of the contract. IsValid is true iff Errors is empty.
type ValidationResult struct {
	IsValid   bool       `json:"isValid"`
	Errors    []string   `json:"errors"`
	Issuer    string     `json:"issuer,omitempty"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// StoredCredential is the denormalized form a credential takes in storage: the original
// raw encoding is retained untouched next to its normalized projection.
type StoredCredential struct {
	ID         string             `json:"id"`
	Raw        json.RawMessage    `json:"raw,omitempty"`
	Normalized credint.Normalized `json:"normalized"`
	StoredAt   time.Time          `json:"storedAt"`
}

func (s StoredCredential) IsValid() bool {
	return s.ID != ""
}

type StoreCredentialRequest struct {
	// ID is optional; when absent the credential's own id, or a generated one, is used
	ID string

	// Raw is the resolved credential variant
	Raw credint.Raw

	// RawJSON is the original encoding as received, stored untouched
	RawJSON json.RawMessage
}

type StoreCredentialResponse struct {
	Credential StoredCredential `json:"credential"`
}

type GetCredentialRequest struct {
	ID string
}

type GetCredentialResponse struct {
	Credential StoredCredential `json:"credential"`

	// DisplaySubject is a presentation copy of the subject with human readable labels
	DisplaySubject map[string]any `json:"displaySubject,omitempty"`
}

type ListCredentialsResponse struct {
	Credentials []StoredCredential `json:"credentials"`
}

type DeleteCredentialRequest struct {
	ID string
}

type ValidateCredentialRequest struct {
	// ID of a stored credential to validate; mutually exclusive with Raw
	ID string

	// Raw is an inbound credential to validate without storing it
	Raw *credint.Raw
}

type ValidateCredentialResponse struct {
	Validation ValidationResult `json:"validation"`
}

type GetCredentialStatusRequest struct {
	ID string
}

type GetCredentialStatusResponse struct {
	Status Status `json:"status"`
}

type UpdateCredentialStatusRequest struct {
	ID      string
	Revoked bool
}

type UpdateCredentialStatusResponse struct {
	Revoked bool `json:"revoked"`
}
