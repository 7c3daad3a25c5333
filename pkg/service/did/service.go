package did

import (
	"context"

	"github.com/TBD54566975/ssi-sdk/crypto"
	"github.com/TBD54566975/ssi-sdk/did/key"
	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/benbjohnson/clock"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/janskor-cz/identuslabel-sub001/config"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/storage"
)

// Service is the wallet's DID inventory: the identifiers the holder can bind newly
// accepted credentials to.
type Service struct {
	config  config.DIDServiceConfig
	storage *Storage
	clock   clock.Clock
}

func (s Service) Type() framework.Type {
	return framework.DID
}

func (s Service) Status() framework.Status {
	if s.storage == nil {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: "no storage configured",
		}
	}
	return framework.Status{Status: framework.StatusReady}
}

func (s Service) Config() config.DIDServiceConfig {
	return s.config
}

func NewDIDService(config config.DIDServiceConfig, s storage.ServiceStorage) (*Service, error) {
	return NewDIDServiceWithClock(config, s, clock.New())
}

func NewDIDServiceWithClock(config config.DIDServiceConfig, s storage.ServiceStorage, c clock.Clock) (*Service, error) {
	didStorage, err := NewDIDStorage(s)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate storage for the did service")
	}
	service := Service{
		config:  config,
		storage: didStorage,
		clock:   c,
	}
	if !service.Status().IsReady() {
		return nil, sdkutil.LoggingNewError(service.Status().Message)
	}
	return &service, nil
}

// CreateDID mints a new did:key entry for the inventory. The private key is handed
// back to the caller once and never persisted.
func (s Service) CreateDID(ctx context.Context, request CreateDIDRequest) (*CreateDIDResponse, error) {
	logrus.Debugf("creating did with key type: %s", request.KeyType)

	keyType := request.KeyType
	if keyType == "" {
		keyType = crypto.Ed25519
	}
	privKey, didKey, err := key.GenerateDIDKey(keyType)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not generate did:key")
	}

	stored := StoredDID{
		DID:       didKey.String(),
		Alias:     request.Alias,
		KeyType:   keyType,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err = s.storage.StoreDID(ctx, stored); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not store did")
	}

	privKeyBytes, err := crypto.PrivKeyToBytes(privKey)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not serialize private key")
	}
	return &CreateDIDResponse{
		DID:              stored,
		PrivateKeyBase58: base58.Encode(privKeyBytes),
	}, nil
}

func (s Service) GetDID(ctx context.Context, request GetDIDRequest) (*GetDIDResponse, error) {
	logrus.Debugf("getting did: %s", request.DID)

	stored, err := s.storage.GetDID(ctx, request.DID)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get did: %s", request.DID)
	}
	return &GetDIDResponse{DID: *stored}, nil
}

func (s Service) ListDIDs(ctx context.Context) (*ListDIDsResponse, error) {
	logrus.Debug("listing dids")

	stored, err := s.storage.ListDIDs(ctx)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not list dids")
	}
	return &ListDIDsResponse{DIDs: stored}, nil
}

func (s Service) DeleteDID(ctx context.Context, request DeleteDIDRequest) error {
	logrus.Debugf("deleting did: %s", request.DID)

	if err := s.storage.DeleteDID(ctx, request.DID); err != nil {
		return sdkutil.LoggingErrorMsgf(err, "could not delete did: %s", request.DID)
	}
	return nil
}
