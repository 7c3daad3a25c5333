package credential

import (
	"context"
	"fmt"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/janskor-cz/identuslabel-sub001/pkg/storage"
)

const (
	namespace           = "credential"
	// revocation facts live in their own namespace; the name must not share a
	// dash-prefix with the credential namespace or the redis driver's
	// namespace-key scans would mingle the two
	revocationNamespace = "credential_revocation"

	credentialNotFoundErrMsg = "credential not found with id: %s"
)

type Storage struct {
	db storage.ServiceStorage
}

func NewCredentialStorage(db storage.ServiceStorage) (*Storage, error) {
	if db == nil {
		return nil, errors.New("db reference is nil")
	}
	return &Storage{db: db}, nil
}

func (cs *Storage) StoreCredential(ctx context.Context, credential StoredCredential) error {
	if !credential.IsValid() {
		return sdkutil.LoggingNewError("could not store credential without an id")
	}
	credBytes, err := json.Marshal(credential)
	if err != nil {
		return sdkutil.LoggingErrorMsgf(err, "could not marshal stored credential: %s", credential.ID)
	}
	return cs.db.Write(ctx, namespace, credential.ID, credBytes)
}

func (cs *Storage) GetCredential(ctx context.Context, id string) (*StoredCredential, error) {
	credBytes, err := cs.db.Read(ctx, namespace, id)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get credential: %s", id)
	}
	if len(credBytes) == 0 {
		return nil, sdkutil.LoggingNewErrorf(credentialNotFoundErrMsg, id)
	}
	var stored StoredCredential
	if err = json.Unmarshal(credBytes, &stored); err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "unmarshalling stored credential: %s", id)
	}
	return &stored, nil
}

func (cs *Storage) ListCredentials(ctx context.Context) ([]StoredCredential, error) {
	credentialMap, err := cs.db.ReadAll(ctx, namespace)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not list credentials")
	}
	stored := make([]StoredCredential, 0, len(credentialMap))
	for key, credBytes := range credentialMap {
		var cred StoredCredential
		if err = json.Unmarshal(credBytes, &cred); err != nil {
			return nil, sdkutil.LoggingErrorMsgf(err, "unmarshalling stored credential: %s", key)
		}
		stored = append(stored, cred)
	}
	return stored, nil
}

func (cs *Storage) DeleteCredential(ctx context.Context, id string) error {
	if err := cs.db.Delete(ctx, namespace, id); err != nil {
		return sdkutil.LoggingErrorMsg(err, fmt.Sprintf("deleting credential: %s", id))
	}
	return nil
}

// revocationFact is the persisted record of an externally reported revocation.
type revocationFact struct {
	CredentialID string `json:"credentialId"`
	Revoked      bool   `json:"revoked"`
}

func (cs *Storage) SetRevoked(ctx context.Context, id string, revoked bool) error {
	factBytes, err := json.Marshal(revocationFact{CredentialID: id, Revoked: revoked})
	if err != nil {
		return sdkutil.LoggingErrorMsgf(err, "could not marshal revocation fact: %s", id)
	}
	return cs.db.Write(ctx, revocationNamespace, id, factBytes)
}

// IsRevoked reports the recorded revocation fact for a credential. A credential
// with no recorded fact is not revoked.
func (cs *Storage) IsRevoked(ctx context.Context, id string) (bool, error) {
	factBytes, err := cs.db.Read(ctx, revocationNamespace, id)
	if err != nil {
		return false, sdkutil.LoggingErrorMsgf(err, "could not read revocation fact: %s", id)
	}
	if len(factBytes) == 0 {
		return false, nil
	}
	var fact revocationFact
	if err = json.Unmarshal(factBytes, &fact); err != nil {
		return false, sdkutil.LoggingErrorMsgf(err, "unmarshalling revocation fact: %s", id)
	}
	return fact.Revoked, nil
}
