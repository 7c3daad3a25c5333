package credential

import (
	"time"

	credsdk "github.com/TBD54566975/ssi-sdk/credential"
	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const (
	// UnknownIssuer is the sentinel issuer value applied when a raw credential carries no
	// usable issuer information. Validators treat it as a missing issuer.
	UnknownIssuer = "Unknown Issuer"

	// DefaultCredentialType is the sole credential type applied on degraded normalization
	DefaultCredentialType = "VerifiableCredential"
)

// reserved subject keys that are never exposed as credential attributes
const (
	subjectIDKey      = "id"
	subjectContextKey = "@context"
)

// IsReservedKey reports whether a subject key is wallet bookkeeping rather than a
// credential attribute. Reserved keys are stripped at normalization and must never
// surface in disclosures.
func IsReservedKey(key string) bool {
	return key == subjectIDKey || key == subjectContextKey
}

// Kind discriminates the supported raw credential encodings
type Kind string

const (
	KindVerifiable Kind = "verifiable"
	KindSDK        Kind = "sdk"
	KindPreview    Kind = "preview"
	KindUnknown    Kind = "unknown"
)

// Raw is a tagged variant over the credential encodings the wallet accepts. Exactly one
// of the variant fields is set; the variant is resolved once at ingestion so downstream
// code never probes raw shapes. A zero Raw is legal and normalizes to the degraded form.
type Raw struct {
	// Verifiable is a JSON-LD style credential with a credentialSubject
	Verifiable *credsdk.VerifiableCredential

	// SDK is the wallet agent SDK's credential object, whose claims sequence
	// carries the subject as its first element
	SDK *SDKCredential

	// Preview is the flat attribute list used in offer previews
	Preview []PreviewAttribute
}

// Kind returns the resolved variant of this raw credential
func (r Raw) Kind() Kind {
	switch {
	case r.Verifiable != nil:
		return KindVerifiable
	case r.SDK != nil:
		return KindSDK
	case r.Preview != nil:
		return KindPreview
	default:
		return KindUnknown
	}
}

// SDKCredential mirrors the agent SDK's credential object. The first element of Claims
// is the subject attribute map; trailing elements are SDK bookkeeping and are ignored.
type SDKCredential struct {
	ID             string           `json:"id,omitempty" mapstructure:"id"`
	Issuer         string           `json:"issuer,omitempty" mapstructure:"issuer"`
	Types          []string         `json:"type,omitempty" mapstructure:"type"`
	Claims         []map[string]any `json:"claims" mapstructure:"claims"`
	IssuanceDate   string           `json:"issuanceDate,omitempty" mapstructure:"issuanceDate"`
	ExpirationDate string           `json:"expirationDate,omitempty" mapstructure:"expirationDate"`
}

// PreviewAttribute is a single entry of an offer preview attribute list
type PreviewAttribute struct {
	Name      string `json:"name"`
	Value     any    `json:"value"`
	MediaType string `json:"media_type,omitempty"`
}

// Normalized is the canonical credential form all wallet components operate on.
// It is created fresh per normalization call and must not be mutated afterwards.
type Normalized struct {
	ID        string         `json:"id,omitempty"`
	Issuer    string         `json:"issuer"`
	Types     []string       `json:"types"`
	Subject   map[string]any `json:"subject"`
	IssuedAt  time.Time      `json:"issuedAt"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
}

// HasSubject returns true when at least one attribute survived normalization
func (n Normalized) HasSubject() bool {
	return len(n.Subject) > 0
}

// HasKnownIssuer returns true when the issuer is present and not the degraded sentinel
func (n Normalized) HasKnownIssuer() bool {
	return n.Issuer != "" && n.Issuer != UnknownIssuer
}

// SubjectKeys returns the attribute names of the normalized subject
func (n Normalized) SubjectKeys() []string {
	keys := make([]string, 0, len(n.Subject))
	for k := range n.Subject {
		keys = append(keys, k)
	}
	return keys
}

// ParseRaw resolves an already-deserialized credential payload into its tagged variant.
// Probing happens here, and only here: credentialSubject first, then a claims sequence,
// then a flat attribute list. Shapes matching none of the encodings produce an unknown
// variant rather than an error, which normalization degrades gracefully.
func ParseRaw(data []byte) (*Raw, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal raw credential")
	}

	switch v := probe.(type) {
	case map[string]any:
		return parseRawMap(v)
	case []any:
		return parseRawList(data)
	default:
		return &Raw{}, nil
	}
}

func parseRawMap(credMap map[string]any) (*Raw, error) {
	if _, ok := credMap["credentialSubject"]; ok {
		var cred credsdk.VerifiableCredential
		credBytes, err := json.Marshal(credMap)
		if err != nil {
			return nil, errors.Wrap(err, "could not marshal credential map")
		}
		if err = json.Unmarshal(credBytes, &cred); err != nil {
			return nil, errors.Wrap(err, "could not unmarshal verifiable credential")
		}
		return &Raw{Verifiable: &cred}, nil
	}

	if _, ok := credMap["claims"]; ok {
		var sdkCred SDKCredential
		if err := mapstructure.Decode(credMap, &sdkCred); err != nil {
			return nil, errors.Wrap(err, "could not decode sdk credential")
		}
		return &Raw{SDK: &sdkCred}, nil
	}

	if attrs, ok := credMap["attributes"]; ok {
		attrBytes, err := json.Marshal(attrs)
		if err != nil {
			return nil, errors.Wrap(err, "could not marshal preview attributes")
		}
		return parseRawList(attrBytes)
	}

	return &Raw{}, nil
}

func parseRawList(data []byte) (*Raw, error) {
	var attrs []PreviewAttribute
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal preview attribute list")
	}
	return &Raw{Preview: attrs}, nil
}
