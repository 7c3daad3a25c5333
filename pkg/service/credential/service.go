package credential

import (
	"context"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/janskor-cz/identuslabel-sub001/config"
	credint "github.com/janskor-cz/identuslabel-sub001/internal/credential"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/storage"
)

type Service struct {
	config  config.CredentialServiceConfig
	storage *Storage

	normalizer *credint.Normalizer
	validator  *Validator
	registry   RevocationRegistry
	clock      clock.Clock
}

func (s Service) Type() framework.Type {
	return framework.Credential
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

func (s Service) Config() config.CredentialServiceConfig {
	return s.config
}

func NewCredentialService(config config.CredentialServiceConfig, s storage.ServiceStorage) (*Service, error) {
	return NewCredentialServiceWithClock(config, s, clock.New())
}

func NewCredentialServiceWithClock(config config.CredentialServiceConfig, s storage.ServiceStorage, c clock.Clock) (*Service, error) {
	credentialStorage, err := NewCredentialStorage(s)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate storage for the credential service")
	}
	service := Service{
		config:     config,
		storage:    credentialStorage,
		normalizer: credint.NewNormalizerWithClock(c),
		validator:  NewValidatorWithClock(c),
		clock:      c,
	}
	// the storage is also the default revocation registry
	service.registry = credentialStorage
	if !service.Status().IsReady() {
		return nil, sdkutil.LoggingNewError(service.Status().Message)
	}
	return &service, nil
}

func (s Service) StoreCredential(ctx context.Context, request StoreCredentialRequest) (*StoreCredentialResponse, error) {
	logrus.Debugf("storing credential: %+v", request.ID)

	normalized := s.normalizer.Normalize(request.Raw)
	id := request.ID
	if id == "" {
		id = normalized.ID
	}
	if id == "" {
		id = uuid.NewString()
	}
	stored := StoredCredential{
		ID:         id,
		Raw:        request.RawJSON,
		Normalized: normalized,
		StoredAt:   s.clock.Now().UTC(),
	}
	if err := s.storage.StoreCredential(ctx, stored); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not store credential")
	}
	return &StoreCredentialResponse{Credential: stored}, nil
}

func (s Service) GetCredential(ctx context.Context, request GetCredentialRequest) (*GetCredentialResponse, error) {
	logrus.Debugf("getting credential: %s", request.ID)

	stored, err := s.storage.GetCredential(ctx, request.ID)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get credential: %s", request.ID)
	}
	return &GetCredentialResponse{
		Credential:     *stored,
		DisplaySubject: credint.DisplaySubject(stored.Normalized.Subject),
	}, nil
}

func (s Service) ListCredentials(ctx context.Context) (*ListCredentialsResponse, error) {
	logrus.Debug("listing credentials")

	stored, err := s.storage.ListCredentials(ctx)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not list credentials")
	}
	return &ListCredentialsResponse{Credentials: stored}, nil
}

func (s Service) DeleteCredential(ctx context.Context, request DeleteCredentialRequest) error {
	logrus.Debugf("deleting credential: %s", request.ID)

	if err := s.storage.DeleteCredential(ctx, request.ID); err != nil {
		return sdkutil.LoggingErrorMsgf(err, "could not delete credential: %s", request.ID)
	}
	return nil
}

// ValidateCredential runs the trust and structural checks over either a stored
// credential or an inbound raw one. Validation never rejects the credential; a
// failing result is still returned so the holder can inspect every problem.
func (s Service) ValidateCredential(ctx context.Context, request ValidateCredentialRequest) (*ValidateCredentialResponse, error) {
	logrus.Debugf("validating credential: %s", request.ID)

	var normalized credint.Normalized
	switch {
	case request.Raw != nil:
		normalized = s.normalizer.Normalize(*request.Raw)
	case request.ID != "":
		stored, err := s.storage.GetCredential(ctx, request.ID)
		if err != nil {
			return nil, sdkutil.LoggingErrorMsgf(err, "could not get credential to validate: %s", request.ID)
		}
		normalized = stored.Normalized
	default:
		return nil, sdkutil.LoggingNewError("validation request needs a credential id or a raw credential")
	}
	return &ValidateCredentialResponse{Validation: s.validator.Validate(normalized)}, nil
}

func (s Service) GetCredentialStatus(ctx context.Context, request GetCredentialStatusRequest) (*GetCredentialStatusResponse, error) {
	logrus.Debugf("getting credential status: %s", request.ID)

	stored, err := s.storage.GetCredential(ctx, request.ID)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get credential: %s", request.ID)
	}
	revoked, err := s.registry.IsRevoked(ctx, request.ID)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not resolve revocation for credential: %s", request.ID)
	}
	return &GetCredentialStatusResponse{
		Status: ResolveStatus(stored.Normalized, revoked, s.clock.Now()),
	}, nil
}

// UpdateCredentialStatus records an externally reported revocation fact. The wallet
// never computes revocation on its own.
func (s Service) UpdateCredentialStatus(ctx context.Context, request UpdateCredentialStatusRequest) (*UpdateCredentialStatusResponse, error) {
	logrus.Debugf("updating credential status: %s", request.ID)

	if _, err := s.storage.GetCredential(ctx, request.ID); err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get credential: %s", request.ID)
	}
	if err := s.storage.SetRevoked(ctx, request.ID, request.Revoked); err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not record revocation for credential: %s", request.ID)
	}
	return &UpdateCredentialStatusResponse{Revoked: request.Revoked}, nil
}
