package disclosure

import (
	"context"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/sirupsen/logrus"

	"github.com/janskor-cz/identuslabel-sub001/config"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/credential"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
)

type Service struct {
	config config.DisclosureServiceConfig

	// the disclosure engine reads subjects from stored credentials
	credential *credential.Service
}

func (s Service) Type() framework.Type {
	return framework.Disclosure
}

func (s Service) Status() framework.Status {
	if s.credential == nil {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: "no credential service configured",
		}
	}
	return framework.Status{Status: framework.StatusReady}
}

func (s Service) Config() config.DisclosureServiceConfig {
	return s.config
}

func NewDisclosureService(config config.DisclosureServiceConfig, credentialService *credential.Service) (*Service, error) {
	service := Service{
		config:     config,
		credential: credentialService,
	}
	if !service.Status().IsReady() {
		return nil, sdkutil.LoggingNewError(service.Status().Message)
	}
	return &service, nil
}

// DiscloseCredential computes the redacted view of a stored credential for a level
// or an explicit field selection.
func (s Service) DiscloseCredential(ctx context.Context, request DiscloseCredentialRequest) (*DiscloseCredentialResponse, error) {
	logrus.Debugf("disclosing credential: %s at level: %s", request.CredentialID, request.Level)

	credResponse, err := s.credential.GetCredential(ctx, credential.GetCredentialRequest{ID: request.CredentialID})
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get credential to disclose: %s", request.CredentialID)
	}
	result, err := Disclose(credResponse.Credential.Normalized.Subject, request.Level, request.Fields)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not compute disclosure for credential: %s", request.CredentialID)
	}
	return &DiscloseCredentialResponse{
		CredentialID: request.CredentialID,
		Disclosure:   *result,
	}, nil
}

// GetLevelFields returns the preset field list for a level. Custom is rejected since
// it carries no preset.
func (s Service) GetLevelFields(_ context.Context, request GetLevelFieldsRequest) (*GetLevelFieldsResponse, error) {
	logrus.Debugf("getting fields for disclosure level: %s", request.Level)

	fields, err := FieldsForLevel(request.Level)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get fields for level: %s", request.Level)
	}
	return &GetLevelFieldsResponse{Level: request.Level, Fields: fields}, nil
}
