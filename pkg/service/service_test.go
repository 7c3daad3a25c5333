package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/janskor-cz/identuslabel-sub001/config"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/offer"
)

type noopAgent struct{}

func (noopAgent) AcceptOffer(context.Context, offer.PendingOffer, offer.DIDChoice) error {
	return nil
}

func (noopAgent) RejectOffer(context.Context, offer.PendingOffer) error {
	return nil
}

type noopMessageStore struct{}

func (noopMessageStore) DeleteMessage(context.Context, string) error {
	return nil
}

func testServicesConfig() config.ServicesConfig {
	return config.ServicesConfig{
		StorageProvider: "memory",
		CredentialConfig: config.CredentialServiceConfig{
			BaseServiceConfig: &config.BaseServiceConfig{Name: "credential"},
		},
		DisclosureConfig: config.DisclosureServiceConfig{
			BaseServiceConfig: &config.BaseServiceConfig{Name: "disclosure"},
		},
		DIDConfig: config.DIDServiceConfig{
			BaseServiceConfig: &config.BaseServiceConfig{Name: "did"},
		},
		OfferConfig: config.OfferServiceConfig{
			BaseServiceConfig: &config.BaseServiceConfig{Name: "offer"},
		},
	}
}

func TestInstantiateWalletService(t *testing.T) {
	walletService, err := InstantiateWalletService(testServicesConfig(), noopAgent{}, noopMessageStore{}, offer.Callbacks{})
	assert.NoError(t, err)
	assert.NotEmpty(t, walletService)

	services := walletService.GetServices()
	assert.Len(t, services, 4)
	for _, s := range services {
		assert.True(t, s.Status().IsReady(), "service %s not ready", s.Type())
	}
}

func TestInstantiateWalletServiceRejectsBadConfig(t *testing.T) {
	badStorage := testServicesConfig()
	badStorage.StorageProvider = "etcd"
	_, err := InstantiateWalletService(badStorage, noopAgent{}, noopMessageStore{}, offer.Callbacks{})
	assert.Error(t, err)

	missingService := testServicesConfig()
	missingService.OfferConfig = config.OfferServiceConfig{}
	_, err = InstantiateWalletService(missingService, noopAgent{}, noopMessageStore{}, offer.Callbacks{})
	assert.Error(t, err)
}

func TestInstantiateWalletServiceDefaultsMessageStore(t *testing.T) {
	walletService, err := InstantiateWalletService(testServicesConfig(), noopAgent{}, nil, offer.Callbacks{})
	assert.NoError(t, err)
	assert.True(t, walletService.Offer.Status().IsReady())
}

func TestInstantiateWalletServiceWithEncryptedStorage(t *testing.T) {
	encrypted := testServicesConfig()
	encrypted.StorageEncryptionPassword = "wallet-passphrase"

	walletService, err := InstantiateWalletService(encrypted, noopAgent{}, noopMessageStore{}, offer.Callbacks{})
	assert.NoError(t, err)

	// a round trip through the wrapped storage works end to end
	err = walletService.GetStorage().Write(context.Background(), "test", "key", []byte("value"))
	assert.NoError(t, err)
	read, err := walletService.GetStorage().Read(context.Background(), "test", "key")
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), read)
}

func TestDIDInventoryAdapter(t *testing.T) {
	walletService, err := InstantiateWalletService(testServicesConfig(), noopAgent{}, noopMessageStore{}, offer.Callbacks{})
	assert.NoError(t, err)

	adapter := didInventoryAdapter{walletService.DID}
	existing, err := adapter.ListExistingDIDs(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, existing)
}
