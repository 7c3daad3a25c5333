package service

import (
	"context"
	"fmt"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/pkg/errors"

	"github.com/janskor-cz/identuslabel-sub001/config"
	"github.com/janskor-cz/identuslabel-sub001/internal/util"
	"github.com/janskor-cz/identuslabel-sub001/pkg/encryption"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/credential"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/did"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/disclosure"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/offer"
	"github.com/janskor-cz/identuslabel-sub001/pkg/storage"
)

const (
	metaNamespace = "wallet-meta"
	saltKey       = "storage-encryption-salt"
)

// WalletService is the total set of services the wallet core exposes
type WalletService struct {
	services []framework.Service
	storage  storage.ServiceStorage

	Credential *credential.Service
	Disclosure *disclosure.Service
	DID        *did.Service
	Offer      *offer.Service
}

// GetServices returns the instantiated service providers
func (ws *WalletService) GetServices() []framework.Service {
	return ws.services
}

func (ws *WalletService) GetStorage() storage.ServiceStorage {
	return ws.storage
}

// InstantiateWalletService creates a new instance of the wallet core, instantiating its
// storage provider and all services. The agent collaborator is external: the core never
// performs issuer-facing I/O itself. A nil message store defaults to one backed by the
// wallet's own storage provider.
func InstantiateWalletService(config config.ServicesConfig, agent offer.Agent, messages offer.MessageStore, callbacks offer.Callbacks) (*WalletService, error) {
	if err := validateServiceConfig(config); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the wallet core, invalid config")
	}
	return instantiateServices(config, agent, messages, callbacks)
}

func validateServiceConfig(config config.ServicesConfig) error {
	if !storage.IsStorageAvailable(storage.Type(config.StorageProvider)) {
		return fmt.Errorf("%s storage provider configured, but not available", config.StorageProvider)
	}
	if config.CredentialConfig.IsEmpty() {
		return fmt.Errorf("no credential service config provided")
	}
	if config.DisclosureConfig.IsEmpty() {
		return fmt.Errorf("no disclosure service config provided")
	}
	if config.DIDConfig.IsEmpty() {
		return fmt.Errorf("no did service config provided")
	}
	if config.OfferConfig.IsEmpty() {
		return fmt.Errorf("no offer service config provided")
	}
	return nil
}

// instantiateServices begins all instantiation and awaits errors. Services are
// instantiated in dependency order: credential and did first, then disclosure and
// the offer coordinator which consume them.
func instantiateServices(config config.ServicesConfig, agent offer.Agent, messages offer.MessageStore, callbacks offer.Callbacks) (*WalletService, error) {
	storageProvider, err := storage.NewStorage(storage.Type(config.StorageProvider))
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not instantiate storage provider: %s", config.StorageProvider)
	}

	serviceStorage := storageProvider
	if config.StorageEncryptionPassword != "" {
		serviceStorage, err = wrapEncryptedStorage(storageProvider, config.StorageEncryptionPassword)
		if err != nil {
			return nil, sdkutil.LoggingErrorMsg(err, "could not enable storage encryption")
		}
	}

	// without an external message store, raw offer messages are kept in the wallet's own store
	if messages == nil {
		messages, err = offer.NewStorageMessageStore(serviceStorage)
		if err != nil {
			return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the message store")
		}
	}

	credentialService, err := credential.NewCredentialService(config.CredentialConfig, serviceStorage)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the credential service")
	}

	didService, err := did.NewDIDService(config.DIDConfig, serviceStorage)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the did service")
	}

	disclosureService, err := disclosure.NewDisclosureService(config.DisclosureConfig, credentialService)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the disclosure service")
	}

	offerService, err := offer.NewOfferService(config.OfferConfig, serviceStorage, agent, messages, didInventoryAdapter{didService}, callbacks)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate the offer service")
	}

	return &WalletService{
		services: []framework.Service{
			credentialService,
			didService,
			disclosureService,
			offerService,
		},
		storage:    serviceStorage,
		Credential: credentialService,
		Disclosure: disclosureService,
		DID:        didService,
		Offer:      offerService,
	}, nil
}

// wrapEncryptedStorage derives the at-rest key from the configured password and a salt
// persisted alongside the data. The salt is written on first startup and reused after,
// so the same password keeps old data readable.
func wrapEncryptedStorage(s storage.ServiceStorage, password string) (storage.ServiceStorage, error) {
	ctx := context.Background()
	salt, err := s.Read(ctx, metaNamespace, saltKey)
	if err != nil {
		return nil, errors.Wrap(err, "reading storage encryption salt")
	}
	if len(salt) == 0 {
		salt, err = util.GenerateSalt(util.Argon2SaltSize)
		if err != nil {
			return nil, errors.Wrap(err, "generating storage encryption salt")
		}
		if err = s.Write(ctx, metaNamespace, saltKey, salt); err != nil {
			return nil, errors.Wrap(err, "persisting storage encryption salt")
		}
	}

	key, err := encryption.DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	encrypter := encryption.NewXChaCha20Poly1305EncrypterWithKey(key)
	return storage.NewEncryptedWrapper(s, encrypter, encrypter), nil
}

// didInventoryAdapter exposes the did service as the offer coordinator's inventory
// collaborator
type didInventoryAdapter struct {
	did *did.Service
}

func (a didInventoryAdapter) ListExistingDIDs(ctx context.Context) ([]offer.ExistingDID, error) {
	listed, err := a.did.ListDIDs(ctx)
	if err != nil {
		return nil, err
	}
	existing := make([]offer.ExistingDID, 0, len(listed.DIDs))
	for _, stored := range listed.DIDs {
		existing = append(existing, offer.ExistingDID{DID: stored.DID, Alias: stored.Alias})
	}
	return existing, nil
}
