package offer

import (
	"context"
	"sort"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/janskor-cz/identuslabel-sub001/pkg/storage"
)

const (
	namespace = "offer"

	offerNotFoundErrMsg = "offer not found with id: %s"
)

// storedOffer pairs an offer with its state machine position
type storedOffer struct {
	Offer PendingOffer `json:"offer"`
	State State        `json:"state"`
}

type Storage struct {
	db storage.ServiceStorage
}

func NewOfferStorage(db storage.ServiceStorage) (*Storage, error) {
	if db == nil {
		return nil, errors.New("db reference is nil")
	}
	return &Storage{db: db}, nil
}

func (os *Storage) StoreOffer(ctx context.Context, offer storedOffer) error {
	if !offer.Offer.IsValid() {
		return sdkutil.LoggingNewError("could not store offer without an id")
	}
	offerBytes, err := json.Marshal(offer)
	if err != nil {
		return sdkutil.LoggingErrorMsgf(err, "could not marshal stored offer: %s", offer.Offer.ID)
	}
	return os.db.Write(ctx, namespace, offer.Offer.ID, offerBytes)
}

func (os *Storage) GetOffer(ctx context.Context, id string) (*storedOffer, error) {
	offerBytes, err := os.db.Read(ctx, namespace, id)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get offer: %s", id)
	}
	if len(offerBytes) == 0 {
		return nil, sdkutil.LoggingNewErrorf(offerNotFoundErrMsg, id)
	}
	var stored storedOffer
	if err = json.Unmarshal(offerBytes, &stored); err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "unmarshalling stored offer: %s", id)
	}
	return &stored, nil
}

// ListOffers returns all queued offers ordered by receipt time, oldest first. The
// ordering is recomputed on every read, so it never depends on how the underlying
// store happens to iterate or in what order offers were written.
func (os *Storage) ListOffers(ctx context.Context) ([]storedOffer, error) {
	offerMap, err := os.db.ReadAll(ctx, namespace)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not list offers")
	}
	stored := make([]storedOffer, 0, len(offerMap))
	for key, offerBytes := range offerMap {
		var offer storedOffer
		if err = json.Unmarshal(offerBytes, &offer); err != nil {
			return nil, sdkutil.LoggingErrorMsgf(err, "unmarshalling stored offer: %s", key)
		}
		stored = append(stored, offer)
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].Offer.ReceivedAt.Before(stored[j].Offer.ReceivedAt)
	})
	return stored, nil
}

func (os *Storage) DeleteOffer(ctx context.Context, id string) error {
	if err := os.db.Delete(ctx, namespace, id); err != nil {
		return sdkutil.LoggingErrorMsgf(err, "deleting offer: %s", id)
	}
	return nil
}
