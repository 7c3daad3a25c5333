package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/janskor-cz/identuslabel-sub001/internal/util"
	"github.com/janskor-cz/identuslabel-sub001/pkg/server/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/disclosure"
	svcframework "github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
)

type DisclosureRouter struct {
	service *disclosure.Service
}

func NewDisclosureRouter(s svcframework.Service) (*DisclosureRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	disclosureService, ok := s.(*disclosure.Service)
	if !ok {
		return nil, fmt.Errorf("could not create disclosure router with service type: %s", s.Type())
	}
	return &DisclosureRouter{service: disclosureService}, nil
}

type CreateDisclosureRequest struct {
	// CredentialID names the stored credential whose subject is disclosed
	CredentialID string `json:"credentialId" validate:"required"`

	// Level is a preset level or custom; empty implies custom
	Level disclosure.Level `json:"level,omitempty"`

	// Fields is the explicit selection for a custom disclosure
	Fields []string `json:"fields,omitempty"`
}

type CreateDisclosureResponse struct {
	CredentialID string            `json:"credentialId"`
	Disclosure   disclosure.Result `json:"disclosure"`
}

// CreateDisclosure computes the redacted view of a stored credential for a preset
// level or an explicit field selection
func (dr DisclosureRouter) CreateDisclosure(c *gin.Context) {
	var request CreateDisclosureRequest
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "invalid disclosure request", http.StatusBadRequest)
		return
	}

	disclosed, err := dr.service.DiscloseCredential(c, disclosure.DiscloseCredentialRequest{
		CredentialID: request.CredentialID,
		Level:        request.Level,
		Fields:       request.Fields,
	})
	if err != nil {
		if errors.Is(err, disclosure.ErrInvalidLevel) {
			framework.LoggingRespondErrWithMsg(c, err, "invalid disclosure level", http.StatusBadRequest)
			return
		}
		errMsg := fmt.Sprintf("could not compute disclosure for credential: %s", util.SanitizeLog(request.CredentialID))
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
		return
	}
	framework.Respond(c, CreateDisclosureResponse{
		CredentialID: disclosed.CredentialID,
		Disclosure:   disclosed.Disclosure,
	}, http.StatusOK)
}

type GetLevelFieldsResponse struct {
	Level  disclosure.Level `json:"level"`
	Fields []string         `json:"fields"`
}

// GetLevelFields returns the preset field list for a disclosure level
func (dr DisclosureRouter) GetLevelFields(c *gin.Context) {
	level := framework.GetParam(c, LevelParam)
	if level == nil {
		framework.LoggingRespondErrMsg(c, "cannot get fields without a level parameter", http.StatusBadRequest)
		return
	}

	fields, err := dr.service.GetLevelFields(c, disclosure.GetLevelFieldsRequest{Level: disclosure.Level(*level)})
	if err != nil {
		errMsg := fmt.Sprintf("could not get fields for level: %s", util.SanitizeLog(*level))
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusBadRequest)
		return
	}
	framework.Respond(c, GetLevelFieldsResponse{Level: fields.Level, Fields: fields.Fields}, http.StatusOK)
}
