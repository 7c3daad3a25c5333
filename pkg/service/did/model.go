package did

import (
	"time"

	"github.com/TBD54566975/ssi-sdk/crypto"
)

// StoredDID is one entry of the wallet's DID inventory
type StoredDID struct {
	DID       string         `json:"did"`
	Alias     string         `json:"alias,omitempty"`
	KeyType   crypto.KeyType `json:"keyType"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (s StoredDID) IsValid() bool {
	return s.DID != ""
}

type CreateDIDRequest struct {
	// KeyType defaults to Ed25519 when absent
	KeyType crypto.KeyType
	Alias   string
}

type CreateDIDResponse struct {
	DID StoredDID `json:"did"`

	// PrivateKeyBase58 is returned exactly once at creation and is never persisted
	PrivateKeyBase58 string `json:"privateKeyBase58"`
}

type GetDIDRequest struct {
	DID string
}

type GetDIDResponse struct {
	DID StoredDID `json:"did"`
}

type ListDIDsResponse struct {
	DIDs []StoredDID `json:"dids"`
}

type DeleteDIDRequest struct {
	DID string
}
