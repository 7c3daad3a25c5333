package credential

import (
	"time"

	credsdk "github.com/TBD54566975/ssi-sdk/credential"
	"github.com/benbjohnson/clock"
)

// Normalizer maps any supported raw credential encoding into the canonical Normalized
// form. Normalization is total: structural anomalies degrade to an empty subject with
// sentinel metadata instead of failing, and downstream validation surfaces the damage.
type Normalizer struct {
	clock clock.Clock
}

func NewNormalizer() *Normalizer {
	return &Normalizer{clock: clock.New()}
}

// NewNormalizerWithClock is used in tests to control the issuance fallback timestamp
func NewNormalizerWithClock(c clock.Clock) *Normalizer {
	return &Normalizer{clock: c}
}

// Normalize produces a fresh Normalized credential from the given raw variant.
// The raw value is never mutated.
func (n *Normalizer) Normalize(raw Raw) Normalized {
	switch raw.Kind() {
	case KindVerifiable:
		return n.fromVerifiable(*raw.Verifiable)
	case KindSDK:
		return n.fromSDK(*raw.SDK)
	case KindPreview:
		return n.fromPreview(raw.Preview)
	default:
		return n.degraded()
	}
}

func (n *Normalizer) fromVerifiable(cred credsdk.VerifiableCredential) Normalized {
	normalized := Normalized{
		ID:        cred.ID,
		Issuer:    issuerString(cred.Issuer),
		Types:     typeStrings(cred.Type),
		Subject:   stripReserved(cred.CredentialSubject),
		IssuedAt:  n.parseTimeOrNow(cred.IssuanceDate),
		ExpiresAt: parseTimePtr(cred.ExpirationDate),
	}
	return normalized
}

func (n *Normalizer) fromSDK(cred SDKCredential) Normalized {
	// the first claim is the subject map; trailing claims are SDK bookkeeping
	var subject map[string]any
	if len(cred.Claims) > 0 {
		subject = cred.Claims[0]
	}

	issuer := cred.Issuer
	if issuer == "" {
		issuer = UnknownIssuer
	}

	types := cred.Types
	if len(types) == 0 {
		types = []string{DefaultCredentialType}
	}

	return Normalized{
		ID:        cred.ID,
		Issuer:    issuer,
		Types:     types,
		Subject:   stripReserved(subject),
		IssuedAt:  n.parseTimeOrNow(cred.IssuanceDate),
		ExpiresAt: parseTimePtr(cred.ExpirationDate),
	}
}

func (n *Normalizer) fromPreview(attrs []PreviewAttribute) Normalized {
	subject := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		if attr.Name == "" || IsReservedKey(attr.Name) {
			continue
		}
		subject[attr.Name] = attr.Value
	}
	return Normalized{
		Issuer:   UnknownIssuer,
		Types:    []string{DefaultCredentialType},
		Subject:  subject,
		IssuedAt: n.clock.Now(),
	}
}

func (n *Normalizer) degraded() Normalized {
	return Normalized{
		Issuer:   UnknownIssuer,
		Types:    []string{DefaultCredentialType},
		Subject:  make(map[string]any),
		IssuedAt: n.clock.Now(),
	}
}

func (n *Normalizer) parseTimeOrNow(value string) time.Time {
	if parsed := parseTimePtr(value); parsed != nil {
		return *parsed
	}
	return n.clock.Now()
}

func parseTimePtr(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

// stripReserved copies a subject map, dropping reserved keys. The input is left untouched.
func stripReserved(subject map[string]any) map[string]any {
	stripped := make(map[string]any, len(subject))
	for k, v := range subject {
		if IsReservedKey(k) {
			continue
		}
		stripped[k] = v
	}
	return stripped
}

// issuerString coerces the issuer property, which the data model allows to be either a
// string or an object with an id, into a plain string
func issuerString(issuer any) string {
	switch v := issuer.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if id, ok := v[subjectIDKey].(string); ok && id != "" {
			return id
		}
	}
	return UnknownIssuer
}

// typeStrings coerces the credential type property, which may be a single string or a
// list, into an ordered string sequence
func typeStrings(credType any) []string {
	switch v := credType.(type) {
	case string:
		if v != "" {
			return []string{v}
		}
	case []string:
		if len(v) > 0 {
			return v
		}
	case []any:
		types := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok && s != "" {
				types = append(types, s)
			}
		}
		if len(types) > 0 {
			return types
		}
	}
	return []string{DefaultCredentialType}
}
