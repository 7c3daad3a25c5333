package offer

import (
	"context"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/janskor-cz/identuslabel-sub001/pkg/storage"
)

// messageNamespace must not be a dash-prefix of the offer queue namespace, or the
// redis driver's namespace-key scans would surface raw messages as queued offers
const messageNamespace = "offer_message"

// StorageMessageStore is a MessageStore backed by the wallet's own storage provider,
// for deployments where inbound offer messages land in the same store as everything
// else. Transports with their own message database supply their own MessageStore.
type StorageMessageStore struct {
	db storage.ServiceStorage
}

func NewStorageMessageStore(db storage.ServiceStorage) (*StorageMessageStore, error) {
	if db == nil {
		return nil, errors.New("db reference is nil")
	}
	return &StorageMessageStore{db: db}, nil
}

func (ms *StorageMessageStore) StoreMessage(ctx context.Context, id string, message json.RawMessage) error {
	if id == "" {
		return sdkutil.LoggingNewError("could not store message without an id")
	}
	return ms.db.Write(ctx, messageNamespace, id, message)
}

// GetMessage returns the stored message, or nil when it was purged
func (ms *StorageMessageStore) GetMessage(ctx context.Context, id string) (json.RawMessage, error) {
	message, err := ms.db.Read(ctx, messageNamespace, id)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not read message: %s", id)
	}
	return message, nil
}

func (ms *StorageMessageStore) DeleteMessage(ctx context.Context, id string) error {
	if err := ms.db.Delete(ctx, messageNamespace, id); err != nil {
		return sdkutil.LoggingErrorMsgf(err, "deleting message: %s", id)
	}
	return nil
}

var _ MessageStore = (*StorageMessageStore)(nil)
