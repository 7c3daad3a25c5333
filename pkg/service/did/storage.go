package did

import (
	"context"
	"sort"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/janskor-cz/identuslabel-sub001/pkg/storage"
)

const namespace = "did"

type Storage struct {
	db storage.ServiceStorage
}

func NewDIDStorage(db storage.ServiceStorage) (*Storage, error) {
	if db == nil {
		return nil, errors.New("db reference is nil")
	}
	return &Storage{db: db}, nil
}

func (ds *Storage) StoreDID(ctx context.Context, stored StoredDID) error {
	if !stored.IsValid() {
		return sdkutil.LoggingNewError("could not store did without an identifier")
	}
	didBytes, err := json.Marshal(stored)
	if err != nil {
		return sdkutil.LoggingErrorMsgf(err, "could not marshal stored did: %s", stored.DID)
	}
	return ds.db.Write(ctx, namespace, stored.DID, didBytes)
}

func (ds *Storage) GetDID(ctx context.Context, id string) (*StoredDID, error) {
	didBytes, err := ds.db.Read(ctx, namespace, id)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get did: %s", id)
	}
	if len(didBytes) == 0 {
		return nil, sdkutil.LoggingNewErrorf("did not found: %s", id)
	}
	var stored StoredDID
	if err = json.Unmarshal(didBytes, &stored); err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "unmarshalling stored did: %s", id)
	}
	return &stored, nil
}

// ListDIDs returns the inventory ordered by creation time, oldest first
func (ds *Storage) ListDIDs(ctx context.Context) ([]StoredDID, error) {
	didMap, err := ds.db.ReadAll(ctx, namespace)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not list dids")
	}
	stored := make([]StoredDID, 0, len(didMap))
	for key, didBytes := range didMap {
		var did StoredDID
		if err = json.Unmarshal(didBytes, &did); err != nil {
			return nil, sdkutil.LoggingErrorMsgf(err, "unmarshalling stored did: %s", key)
		}
		stored = append(stored, did)
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].CreatedAt.Before(stored[j].CreatedAt)
	})
	return stored, nil
}

func (ds *Storage) DeleteDID(ctx context.Context, id string) error {
	if err := ds.db.Delete(ctx, namespace, id); err != nil {
		return sdkutil.LoggingErrorMsgf(err, "deleting did: %s", id)
	}
	return nil
}
