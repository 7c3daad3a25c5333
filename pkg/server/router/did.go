package router

import (
	"fmt"
	"net/http"

	"github.com/TBD54566975/ssi-sdk/crypto"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/janskor-cz/identuslabel-sub001/internal/util"
	"github.com/janskor-cz/identuslabel-sub001/pkg/server/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/did"
	svcframework "github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
)

type DIDRouter struct {
	service *did.Service
}

func NewDIDRouter(s svcframework.Service) (*DIDRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	didService, ok := s.(*did.Service)
	if !ok {
		return nil, fmt.Errorf("could not create did router with service type: %s", s.Type())
	}
	return &DIDRouter{service: didService}, nil
}

type CreateDIDRequest struct {
	// KeyType defaults to Ed25519 when absent
	KeyType crypto.KeyType `json:"keyType,omitempty"`
	Alias   string         `json:"alias,omitempty"`
}

type CreateDIDResponse struct {
	DID              did.StoredDID `json:"did"`
	PrivateKeyBase58 string        `json:"privateKeyBase58"`
}

// CreateDID mints a new did:key entry for the wallet's inventory
func (dr DIDRouter) CreateDID(c *gin.Context) {
	var request CreateDIDRequest
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "invalid create did request", http.StatusBadRequest)
		return
	}

	created, err := dr.service.CreateDID(c, did.CreateDIDRequest{KeyType: request.KeyType, Alias: request.Alias})
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not create did", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, CreateDIDResponse{
		DID:              created.DID,
		PrivateKeyBase58: created.PrivateKeyBase58,
	}, http.StatusCreated)
}

type ListDIDsResponse struct {
	DIDs []did.StoredDID `json:"dids"`
}

// ListDIDs lists the inventory, oldest first
func (dr DIDRouter) ListDIDs(c *gin.Context) {
	listed, err := dr.service.ListDIDs(c)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not list dids", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, ListDIDsResponse{DIDs: listed.DIDs}, http.StatusOK)
}

type GetDIDResponse struct {
	DID did.StoredDID `json:"did"`
}

// GetDID gets an inventory entry by identifier
func (dr DIDRouter) GetDID(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot get did without ID parameter", http.StatusBadRequest)
		return
	}

	got, err := dr.service.GetDID(c, did.GetDIDRequest{DID: *id})
	if err != nil {
		errMsg := fmt.Sprintf("could not get did: %s", util.SanitizeLog(*id))
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusNotFound)
		return
	}
	framework.Respond(c, GetDIDResponse{DID: got.DID}, http.StatusOK)
}

// DeleteDID removes an inventory entry by identifier
func (dr DIDRouter) DeleteDID(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot delete did without ID parameter", http.StatusBadRequest)
		return
	}

	if err := dr.service.DeleteDID(c, did.DeleteDIDRequest{DID: *id}); err != nil {
		errMsg := fmt.Sprintf("could not delete did: %s", util.SanitizeLog(*id))
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
		return
	}
	framework.Respond(c, nil, http.StatusNoContent)
}
