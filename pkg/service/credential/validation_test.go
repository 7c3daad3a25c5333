package credential

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"

	credint "github.com/janskor-cz/identuslabel-sub001/internal/credential"
)

func TestValidateWellFormedCredential(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	validator := NewValidatorWithClock(mockClock)

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	result := validator.Validate(credint.Normalized{
		ID:     "cred-1",
		Issuer: "did:prism:issuer",
		Types:  []string{"VerifiableCredential"},
		Subject: map[string]any{
			"firstName": "Ada",
			"lastName":  "Lovelace",
			"uniqueId":  "U1",
		},
		IssuedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiresAt: &expiry,
	})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "did:prism:issuer", result.Issuer)
}

func TestValidateAccumulatesErrorsInOrder(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	validator := NewValidatorWithClock(mockClock)

	// expires before it was issued, and is already past expiry
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	result := validator.Validate(credint.Normalized{
		Issuer:    credint.UnknownIssuer,
		Subject:   map[string]any{},
		IssuedAt:  issued,
		ExpiresAt: &expiry,
	})

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{
		"credential subject is empty",
		"credential issuer is missing or unknown",
		"expiration date does not follow issuance date",
		"credential is expired",
	}, result.Errors)
}

func TestValidateExpiryChecks(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt *time.Time
		errors    []string
	}{
		{
			name:      "no expiry is always temporally fine",
			expiresAt: nil,
		},
		{
			name:      "expiry in the future is fine",
			expiresAt: timePtr(now.Add(24 * time.Hour)),
		},
		{
			name:      "expiry exactly now counts as expired",
			expiresAt: &now,
			errors:    []string{"credential is expired"},
		},
		{
			name:      "expiry in the past counts as expired",
			expiresAt: timePtr(now.Add(-time.Minute)),
			errors:    []string{"credential is expired"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClock := clock.NewMock()
			mockClock.Set(now)
			validator := NewValidatorWithClock(mockClock)

			result := validator.Validate(credint.Normalized{
				Issuer:    "did:prism:issuer",
				Subject:   map[string]any{"firstName": "Ada"},
				IssuedAt:  now.Add(-365 * 24 * time.Hour),
				ExpiresAt: tt.expiresAt,
			})
			assert.Equal(t, len(tt.errors) == 0, result.IsValid)
			assert.Equal(t, tt.errors, result.Errors)
		})
	}
}

func TestValidateExpiryEqualToIssuanceIsRejected(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	validator := NewValidatorWithClock(mockClock)

	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	result := validator.Validate(credint.Normalized{
		Issuer:    "did:prism:issuer",
		Subject:   map[string]any{"firstName": "Ada"},
		IssuedAt:  when,
		ExpiresAt: &when,
	})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "expiration date does not follow issuance date")
}

func TestResolveStatusPrecedence(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	pastExpiry := now.Add(-time.Hour)
	futureExpiry := now.Add(time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		revoked   bool
		expected  Status
	}{
		{
			name:     "no expiry and not revoked is valid",
			expected: StatusValid,
		},
		{
			name:      "future expiry and not revoked is valid",
			expiresAt: &futureExpiry,
			expected:  StatusValid,
		},
		{
			name:      "past expiry is expired",
			expiresAt: &pastExpiry,
			expected:  StatusExpired,
		},
		{
			name:      "expiry exactly now is expired",
			expiresAt: &now,
			expected:  StatusExpired,
		},
		{
			name:     "revoked without expiry is revoked",
			revoked:  true,
			expected: StatusRevoked,
		},
		{
			name:      "revoked beats expired",
			expiresAt: &pastExpiry,
			revoked:   true,
			expected:  StatusRevoked,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := ResolveStatus(credint.Normalized{
				Issuer:    "did:prism:issuer",
				Subject:   map[string]any{"firstName": "Ada"},
				IssuedAt:  now.Add(-24 * time.Hour),
				ExpiresAt: tt.expiresAt,
			}, tt.revoked, now)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
