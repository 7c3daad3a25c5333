package router

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	credint "github.com/janskor-cz/identuslabel-sub001/internal/credential"
	"github.com/janskor-cz/identuslabel-sub001/internal/util"
	"github.com/janskor-cz/identuslabel-sub001/pkg/server/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/credential"
	svcframework "github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
)

type CredentialRouter struct {
	service *credential.Service
}

func NewCredentialRouter(s svcframework.Service) (*CredentialRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	credService, ok := s.(*credential.Service)
	if !ok {
		return nil, fmt.Errorf("could not create credential router with service type: %s", s.Type())
	}
	return &CredentialRouter{service: credService}, nil
}

type StoredCredentialResponse struct {
	ID         string             `json:"id"`
	Normalized credint.Normalized `json:"normalized"`
	StoredAt   time.Time          `json:"storedAt"`
}

// StoreCredential stores a raw credential in any of the supported encodings. The
// request body is the credential document itself; its shape is probed once and it
// is normalized on ingestion.
func (cr CredentialRouter) StoreCredential(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		framework.LoggingRespondErrMsg(c, "could not read credential body", http.StatusBadRequest)
		return
	}
	raw, err := credint.ParseRaw(body)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "invalid credential payload", http.StatusBadRequest)
		return
	}

	stored, err := cr.service.StoreCredential(c, credential.StoreCredentialRequest{
		Raw:     *raw,
		RawJSON: json.RawMessage(body),
	})
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not store credential", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, StoredCredentialResponse{
		ID:         stored.Credential.ID,
		Normalized: stored.Credential.Normalized,
		StoredAt:   stored.Credential.StoredAt,
	}, http.StatusCreated)
}

type GetCredentialResponse struct {
	ID             string             `json:"id"`
	Normalized     credint.Normalized `json:"normalized"`
	DisplaySubject map[string]any     `json:"displaySubject,omitempty"`
}

// GetCredential gets a credential by id
func (cr CredentialRouter) GetCredential(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot get credential without ID parameter", http.StatusBadRequest)
		return
	}

	gotCredential, err := cr.service.GetCredential(c, credential.GetCredentialRequest{ID: *id})
	if err != nil {
		errMsg := fmt.Sprintf("could not get credential with id: %s", util.SanitizeLog(*id))
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusNotFound)
		return
	}
	framework.Respond(c, GetCredentialResponse{
		ID:             gotCredential.Credential.ID,
		Normalized:     gotCredential.Credential.Normalized,
		DisplaySubject: gotCredential.DisplaySubject,
	}, http.StatusOK)
}

type ListCredentialsResponse struct {
	Credentials []credential.StoredCredential `json:"credentials"`
}

// ListCredentials lists all stored credentials
func (cr CredentialRouter) ListCredentials(c *gin.Context) {
	listed, err := cr.service.ListCredentials(c)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not list credentials", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, ListCredentialsResponse{Credentials: listed.Credentials}, http.StatusOK)
}

// DeleteCredential deletes a credential by id
func (cr CredentialRouter) DeleteCredential(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot delete credential without ID parameter", http.StatusBadRequest)
		return
	}

	if err := cr.service.DeleteCredential(c, credential.DeleteCredentialRequest{ID: *id}); err != nil {
		errMsg := fmt.Sprintf("could not delete credential with id: %s", util.SanitizeLog(*id))
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
		return
	}
	framework.Respond(c, nil, http.StatusNoContent)
}

type ValidateCredentialRequest struct {
	// CredentialID names a stored credential to validate
	CredentialID string `json:"credentialId,omitempty"`

	// Credential is an inbound raw credential to validate without storing it
	Credential json.RawMessage `json:"credential,omitempty"`
}

type ValidateCredentialResponse struct {
	Validation credential.ValidationResult `json:"validation"`
}

// ValidateCredential runs the trust and structural checks over a stored or inbound
// credential. A failing validation is still a 200; the result is data.
func (cr CredentialRouter) ValidateCredential(c *gin.Context) {
	var request ValidateCredentialRequest
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "invalid validate credential request", http.StatusBadRequest)
		return
	}

	serviceRequest := credential.ValidateCredentialRequest{ID: request.CredentialID}
	if len(request.Credential) > 0 {
		raw, err := credint.ParseRaw(request.Credential)
		if err != nil {
			framework.LoggingRespondErrWithMsg(c, err, "invalid credential payload", http.StatusBadRequest)
			return
		}
		serviceRequest.Raw = raw
	}

	validated, err := cr.service.ValidateCredential(c, serviceRequest)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not validate credential", http.StatusBadRequest)
		return
	}
	framework.Respond(c, ValidateCredentialResponse{Validation: validated.Validation}, http.StatusOK)
}

type GetCredentialStatusResponse struct {
	Status credential.Status `json:"status"`
}

// GetCredentialStatus resolves the lifecycle status of a credential by id
func (cr CredentialRouter) GetCredentialStatus(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot get credential status without ID parameter", http.StatusBadRequest)
		return
	}

	status, err := cr.service.GetCredentialStatus(c, credential.GetCredentialStatusRequest{ID: *id})
	if err != nil {
		errMsg := fmt.Sprintf("could not get status for credential with id: %s", util.SanitizeLog(*id))
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusNotFound)
		return
	}
	framework.Respond(c, GetCredentialStatusResponse{Status: status.Status}, http.StatusOK)
}

type UpdateCredentialStatusRequest struct {
	// Revoked records the externally supplied revocation fact
	Revoked bool `json:"revoked"`
}

type UpdateCredentialStatusResponse struct {
	Revoked bool `json:"revoked"`
}

// UpdateCredentialStatus records an externally reported revocation fact for a
// credential by id
func (cr CredentialRouter) UpdateCredentialStatus(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot update credential status without ID parameter", http.StatusBadRequest)
		return
	}
	var request UpdateCredentialStatusRequest
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "invalid update credential status request", http.StatusBadRequest)
		return
	}

	updated, err := cr.service.UpdateCredentialStatus(c, credential.UpdateCredentialStatusRequest{
		ID:      *id,
		Revoked: request.Revoked,
	})
	if err != nil {
		errMsg := fmt.Sprintf("could not update status for credential with id: %s", util.SanitizeLog(*id))
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
		return
	}
	framework.Respond(c, UpdateCredentialStatusResponse{Revoked: updated.Revoked}, http.StatusOK)
}
