package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janskor-cz/identuslabel-sub001/config"
	"github.com/janskor-cz/identuslabel-sub001/pkg/server/router"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/credential"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/disclosure"
	svcframework "github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/offer"
)

const testServerCredential = `{
	"@context": ["https://www.w3.org/2018/credentials/v1"],
	"id": "cred-grace",
	"type": ["VerifiableCredential"],
	"issuer": "did:prism:issuer",
	"issuanceDate": "2023-01-01T00:00:00Z",
	"expirationDate": "2033-01-01T00:00:00Z",
	"credentialSubject": {
		"id": "did:key:holder",
		"firstName": "Grace",
		"lastName": "Hopper",
		"nationality": "US"
	}
}`

type acceptAllAgent struct{}

func (acceptAllAgent) AcceptOffer(_ context.Context, _ offer.PendingOffer, _ offer.DIDChoice) error {
	return nil
}

func (acceptAllAgent) RejectOffer(_ context.Context, _ offer.PendingOffer) error {
	return nil
}

func newTestServer(t *testing.T) *WalletServer {
	shutdown := make(chan os.Signal, 1)
	cfg := config.WalletCoreConfig{
		Server: config.ServerConfig{
			Environment: config.EnvironmentTest,
			APIHost:     "0.0.0.0:0",
		},
		Services: config.ServicesConfig{
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
		},
	}
	server, err := NewWalletServer(shutdown, cfg, acceptAllAgent{}, nil, offer.Callbacks{})
	require.NoError(t, err)
	require.NotEmpty(t, server)
	return server
}

func doRequest(t *testing.T, server *WalletServer, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		requestBytes, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(requestBytes)
	}
	req := httptest.NewRequest(method, "https://wallet-core.com"+path, reader)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)
	return w
}

func decodeResponse[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var resp T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealthCheckAPI(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(t, server, http.MethodGet, HealthPrefix, nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode)

	resp := decodeResponse[router.GetHealthCheckResponse](t, w)
	assert.Equal(t, router.HealthOK, resp.Status)
	assert.Equal(t, config.ServiceName, resp.Service)
	assert.Equal(t, config.ServiceVersion, resp.Version)
	assert.NotEmpty(t, resp.Description)
}

func TestReadinessAPI(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(t, server, http.MethodGet, ReadinessPrefix, nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode)

	resp := decodeResponse[router.GetReadinessResponse](t, w)
	assert.Equal(t, svcframework.StatusReady, resp.Status.Status)
	assert.Len(t, resp.ServiceStatuses, 4)
	for _, status := range resp.ServiceStatuses {
		assert.True(t, status.IsReady())
	}
}

func TestCredentialAPI(t *testing.T) {
	t.Run("store, get, and delete a credential", func(tt *testing.T) {
		server := newTestServer(tt)

		w := doRequest(tt, server, http.MethodPut, "/v1/credentials", testServerCredential)
		assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)

		stored := decodeResponse[router.StoredCredentialResponse](tt, w)
		assert.Equal(tt, "cred-grace", stored.ID)
		assert.Equal(tt, "did:prism:issuer", stored.Normalized.Issuer)

		w = doRequest(tt, server, http.MethodGet, "/v1/credentials/cred-grace", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)

		got := decodeResponse[router.GetCredentialResponse](tt, w)
		assert.Equal(tt, "Grace", got.Normalized.Subject["firstName"])
		assert.NotContains(tt, got.Normalized.Subject, "id")
		assert.Equal(tt, "Grace", got.DisplaySubject["First Name"])

		w = doRequest(tt, server, http.MethodDelete, "/v1/credentials/cred-grace", nil)
		assert.Equal(tt, http.StatusNoContent, w.Result().StatusCode)

		w = doRequest(tt, server, http.MethodGet, "/v1/credentials/cred-grace", nil)
		assert.Equal(tt, http.StatusNotFound, w.Result().StatusCode)
	})

	t.Run("getting an unknown credential is a 404", func(tt *testing.T) {
		server := newTestServer(tt)

		w := doRequest(tt, server, http.MethodGet, "/v1/credentials/missing", nil)
		assert.Equal(tt, http.StatusNotFound, w.Result().StatusCode)
	})

	t.Run("validate an inbound credential", func(tt *testing.T) {
		server := newTestServer(tt)

		request := router.ValidateCredentialRequest{Credential: json.RawMessage(testServerCredential)}
		w := doRequest(tt, server, http.MethodPut, "/v1/credentials/validation", request)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)

		resp := decodeResponse[router.ValidateCredentialResponse](tt, w)
		assert.True(tt, resp.Validation.IsValid)
		assert.Empty(tt, resp.Validation.Errors)
	})

	t.Run("a failing validation is still a 200", func(tt *testing.T) {
		server := newTestServer(tt)

		request := router.ValidateCredentialRequest{Credential: json.RawMessage(`{"credentialSubject": {}}`)}
		w := doRequest(tt, server, http.MethodPut, "/v1/credentials/validation", request)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)

		resp := decodeResponse[router.ValidateCredentialResponse](tt, w)
		assert.False(tt, resp.Validation.IsValid)
		assert.NotEmpty(tt, resp.Validation.Errors)
	})

	t.Run("credential status lifecycle", func(tt *testing.T) {
		server := newTestServer(tt)

		w := doRequest(tt, server, http.MethodPut, "/v1/credentials", testServerCredential)
		assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)

		w = doRequest(tt, server, http.MethodGet, "/v1/credentials/status/cred-grace", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
		status := decodeResponse[router.GetCredentialStatusResponse](tt, w)
		assert.Equal(tt, credential.StatusValid, status.Status)

		w = doRequest(tt, server, http.MethodPut, "/v1/credentials/status/cred-grace", router.UpdateCredentialStatusRequest{Revoked: true})
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)

		w = doRequest(tt, server, http.MethodGet, "/v1/credentials/status/cred-grace", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
		status = decodeResponse[router.GetCredentialStatusResponse](tt, w)
		assert.Equal(tt, credential.StatusRevoked, status.Status)
	})
}

func TestDisclosureAPI(t *testing.T) {
	t.Run("disclose with a preset level", func(tt *testing.T) {
		server := newTestServer(tt)

		w := doRequest(tt, server, http.MethodPut, "/v1/credentials", testServerCredential)
		assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)

		request := router.CreateDisclosureRequest{CredentialID: "cred-grace", Level: disclosure.Minimal}
		w = doRequest(tt, server, http.MethodPut, "/v1/disclosures", request)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)

		resp := decodeResponse[router.CreateDisclosureResponse](tt, w)
		assert.Equal(tt, disclosure.Minimal, resp.Disclosure.Level)
		assert.Equal(tt, map[string]any{"firstName": "Grace"}, resp.Disclosure.RedactedView)
	})

	t.Run("disclosing with an unknown level is a 400", func(tt *testing.T) {
		server := newTestServer(tt)

		w := doRequest(tt, server, http.MethodPut, "/v1/credentials", testServerCredential)
		assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)

		request := router.CreateDisclosureRequest{CredentialID: "cred-grace", Level: "paranoid"}
		w = doRequest(tt, server, http.MethodPut, "/v1/disclosures", request)
		assert.Equal(tt, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("get fields for a level", func(tt *testing.T) {
		server := newTestServer(tt)

		w := doRequest(tt, server, http.MethodGet, "/v1/disclosures/levels/standard", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)

		resp := decodeResponse[router.GetLevelFieldsResponse](tt, w)
		assert.Equal(tt, disclosure.Standard, resp.Level)
		assert.Equal(tt, []string{"firstName", "lastName"}, resp.Fields)

		w = doRequest(tt, server, http.MethodGet, "/v1/disclosures/levels/custom", nil)
		assert.Equal(tt, http.StatusBadRequest, w.Result().StatusCode)
	})
}

func TestDIDAPI(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(t, server, http.MethodPut, "/v1/dids", router.CreateDIDRequest{Alias: "primary"})
	assert.Equal(t, http.StatusCreated, w.Result().StatusCode)

	created := decodeResponse[router.CreateDIDResponse](t, w)
	assert.Contains(t, created.DID.DID, "did:key:")
	assert.Equal(t, "primary", created.DID.Alias)
	assert.NotEmpty(t, created.PrivateKeyBase58)

	w = doRequest(t, server, http.MethodGet, "/v1/dids", nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	listed := decodeResponse[router.ListDIDsResponse](t, w)
	assert.Len(t, listed.DIDs, 1)

	w = doRequest(t, server, http.MethodDelete, "/v1/dids/"+created.DID.DID, nil)
	assert.Equal(t, http.StatusNoContent, w.Result().StatusCode)

	w = doRequest(t, server, http.MethodGet, "/v1/dids/"+created.DID.DID, nil)
	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestOfferAPI(t *testing.T) {
	t.Run("accept the current offer with an empty did inventory", func(tt *testing.T) {
		server := newTestServer(tt)

		request := router.CreateOfferRequest{
			ID:         "offer-1",
			From:       "did:prism:issuer",
			RawMessage: json.RawMessage(`{"credential_preview": {}}`),
		}
		w := doRequest(tt, server, http.MethodPut, "/v1/offers", request)
		assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)

		w = doRequest(tt, server, http.MethodGet, "/v1/offers/current", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
		current := decodeResponse[router.CurrentOfferResponse](tt, w)
		require.NotNil(tt, current.Offer)
		assert.Equal(tt, "offer-1", current.Offer.Offer.ID)
		assert.Equal(tt, offer.StatePending, current.Offer.State)

		w = doRequest(tt, server, http.MethodPut, "/v1/offers/offer-1/accept", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
		accepted := decodeResponse[router.AcceptOfferResponse](tt, w)
		assert.Equal(tt, offer.StateAccepted, accepted.State)
		assert.Empty(tt, accepted.ExistingDIDs)

		// terminal offers leave the queue
		w = doRequest(tt, server, http.MethodGet, "/v1/offers/current", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
		current = decodeResponse[router.CurrentOfferResponse](tt, w)
		assert.Nil(tt, current.Offer)
	})

	t.Run("accept pauses for a did choice when dids exist", func(tt *testing.T) {
		server := newTestServer(tt)

		w := doRequest(tt, server, http.MethodPut, "/v1/dids", router.CreateDIDRequest{Alias: "existing"})
		assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)

		request := router.CreateOfferRequest{ID: "offer-2", From: "did:prism:issuer"}
		w = doRequest(tt, server, http.MethodPut, "/v1/offers", request)
		assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)

		w = doRequest(tt, server, http.MethodPut, "/v1/offers/offer-2/accept", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
		accepted := decodeResponse[router.AcceptOfferResponse](tt, w)
		assert.Equal(tt, offer.StateNeedsDIDChoice, accepted.State)
		assert.Len(tt, accepted.ExistingDIDs, 1)

		// accepting again while parked conflicts
		w = doRequest(tt, server, http.MethodPut, "/v1/offers/offer-2/accept", nil)
		assert.Equal(tt, http.StatusConflict, w.Result().StatusCode)

		choice := router.ChooseDIDRequest{DID: offer.DIDChoice(accepted.ExistingDIDs[0].DID)}
		w = doRequest(tt, server, http.MethodPut, "/v1/offers/offer-2/did", choice)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
		chosen := decodeResponse[router.AcceptOfferResponse](tt, w)
		assert.Equal(tt, offer.StateAccepted, chosen.State)
	})

	t.Run("cancel a did choice", func(tt *testing.T) {
		server := newTestServer(tt)

		w := doRequest(tt, server, http.MethodPut, "/v1/dids", router.CreateDIDRequest{Alias: "existing"})
		assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)

		request := router.CreateOfferRequest{ID: "offer-3", From: "did:prism:issuer"}
		w = doRequest(tt, server, http.MethodPut, "/v1/offers", request)
		assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)

		w = doRequest(tt, server, http.MethodPut, "/v1/offers/offer-3/accept", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)

		w = doRequest(tt, server, http.MethodPut, "/v1/offers/offer-3/cancel", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
		cancelled := decodeResponse[router.CancelDIDChoiceResponse](tt, w)
		assert.Equal(tt, offer.StatePending, cancelled.State)

		// cancelling a pending offer conflicts
		w = doRequest(tt, server, http.MethodPut, "/v1/offers/offer-3/cancel", nil)
		assert.Equal(tt, http.StatusConflict, w.Result().StatusCode)
	})

	t.Run("reject the current offer", func(tt *testing.T) {
		server := newTestServer(tt)

		request := router.CreateOfferRequest{ID: "offer-4", From: "did:prism:issuer"}
		w := doRequest(tt, server, http.MethodPut, "/v1/offers", request)
		assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)

		w = doRequest(tt, server, http.MethodPut, "/v1/offers/offer-4/reject", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
		rejected := decodeResponse[router.RejectOfferResponse](tt, w)
		assert.Equal(tt, offer.StateRejected, rejected.State)

		w = doRequest(tt, server, http.MethodGet, "/v1/offers", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
		listed := decodeResponse[router.ListOffersResponse](tt, w)
		assert.Empty(tt, listed.Offers)
	})

	t.Run("only the queue head can be processed", func(tt *testing.T) {
		server := newTestServer(tt)

		for _, id := range []string{"offer-5", "offer-6"} {
			w := doRequest(tt, server, http.MethodPut, "/v1/offers", router.CreateOfferRequest{ID: id, From: "did:prism:issuer"})
			assert.Equal(tt, http.StatusCreated, w.Result().StatusCode)
		}

		w := doRequest(tt, server, http.MethodPut, "/v1/offers/offer-6/accept", nil)
		assert.Equal(tt, http.StatusConflict, w.Result().StatusCode)

		w = doRequest(tt, server, http.MethodPut, "/v1/offers/offer-5/accept", nil)
		assert.Equal(tt, http.StatusOK, w.Result().StatusCode)
	})
}
