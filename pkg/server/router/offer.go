package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	credint "github.com/janskor-cz/identuslabel-sub001/internal/credential"
	"github.com/janskor-cz/identuslabel-sub001/internal/util"
	"github.com/janskor-cz/identuslabel-sub001/pkg/server/framework"
	svcframework "github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/offer"
)

type OfferRouter struct {
	service *offer.Service
}

func NewOfferRouter(s svcframework.Service) (*OfferRouter, error) {
	if s == nil {
		return nil, errors.New("service cannot be nil")
	}
	offerService, ok := s.(*offer.Service)
	if !ok {
		return nil, fmt.Errorf("could not create offer router with service type: %s", s.Type())
	}
	return &OfferRouter{service: offerService}, nil
}

type CreateOfferRequest struct {
	ID         string                     `json:"id,omitempty"`
	RawMessage json.RawMessage            `json:"rawMessage,omitempty"`
	From       string                     `json:"from,omitempty"`
	ReceivedAt time.Time                  `json:"receivedAt,omitempty"`
	Preview    []credint.PreviewAttribute `json:"preview,omitempty"`
}

type CreateOfferResponse struct {
	Offer offer.OfferView `json:"offer"`
}

// CreateOffer enqueues an inbound credential offer message
func (or OfferRouter) CreateOffer(c *gin.Context) {
	var request CreateOfferRequest
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "invalid create offer request", http.StatusBadRequest)
		return
	}

	created, err := or.service.CreateOffer(c, offer.CreateOfferRequest{
		ID:         request.ID,
		RawMessage: request.RawMessage,
		From:       request.From,
		ReceivedAt: request.ReceivedAt,
		Preview:    request.Preview,
	})
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not create offer", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, CreateOfferResponse{Offer: created.Offer}, http.StatusCreated)
}

type ListOffersResponse struct {
	Offers []offer.OfferView `json:"offers"`
}

// ListOffers returns the queue snapshot, oldest first
func (or OfferRouter) ListOffers(c *gin.Context) {
	listed, err := or.service.ListOffers(c)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not list offers", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, ListOffersResponse{Offers: listed.Offers}, http.StatusOK)
}

type CurrentOfferResponse struct {
	Offer *offer.OfferView `json:"offer,omitempty"`
}

// CurrentOffer surfaces the queue head, if any
func (or OfferRouter) CurrentOffer(c *gin.Context) {
	current, err := or.service.CurrentOffer(c)
	if err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "could not read the offer queue", http.StatusInternalServerError)
		return
	}
	framework.Respond(c, CurrentOfferResponse{Offer: current.Offer}, http.StatusOK)
}

type GetOfferResponse struct {
	Offer offer.OfferView `json:"offer"`
}

// GetOffer gets an offer by id
func (or OfferRouter) GetOffer(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot get offer without ID parameter", http.StatusBadRequest)
		return
	}

	got, err := or.service.GetOffer(c, offer.GetOfferRequest{ID: *id})
	if err != nil {
		errMsg := fmt.Sprintf("could not get offer: %s", util.SanitizeLog(*id))
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusNotFound)
		return
	}
	framework.Respond(c, GetOfferResponse{Offer: got.Offer}, http.StatusOK)
}

type AcceptOfferResponse struct {
	State        offer.State         `json:"state"`
	ExistingDIDs []offer.ExistingDID `json:"existingDids,omitempty"`
}

// AcceptOffer starts acceptance of the queue head. The response either reports the
// terminal outcome or asks for a DID choice.
func (or OfferRouter) AcceptOffer(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot accept offer without ID parameter", http.StatusBadRequest)
		return
	}

	accepted, err := or.service.AcceptOffer(c, offer.AcceptOfferRequest{ID: *id})
	if err != nil {
		or.respondProcessingError(c, err, fmt.Sprintf("could not accept offer: %s", util.SanitizeLog(*id)))
		return
	}
	framework.Respond(c, AcceptOfferResponse{State: accepted.State, ExistingDIDs: accepted.ExistingDIDs}, http.StatusOK)
}

type ChooseDIDRequest struct {
	// DID is an existing inventory DID, or create-new
	DID offer.DIDChoice `json:"did" validate:"required"`
}

// ChooseDID resumes an acceptance parked on a DID choice
func (or OfferRouter) ChooseDID(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot choose did without offer ID parameter", http.StatusBadRequest)
		return
	}
	var request ChooseDIDRequest
	if err := framework.Decode(c.Request, &request); err != nil {
		framework.LoggingRespondErrWithMsg(c, err, "invalid did choice request", http.StatusBadRequest)
		return
	}

	chosen, err := or.service.ChooseDID(c, offer.ChooseDIDRequest{ID: *id, Choice: request.DID})
	if err != nil {
		or.respondProcessingError(c, err, fmt.Sprintf("could not accept offer: %s", util.SanitizeLog(*id)))
		return
	}
	framework.Respond(c, AcceptOfferResponse{State: chosen.State}, http.StatusOK)
}

type CancelDIDChoiceResponse struct {
	State offer.State `json:"state"`
}

// CancelDIDChoice returns a parked offer to the queue
func (or OfferRouter) CancelDIDChoice(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot cancel without offer ID parameter", http.StatusBadRequest)
		return
	}

	cancelled, err := or.service.CancelDIDChoice(c, offer.CancelDIDChoiceRequest{ID: *id})
	if err != nil {
		or.respondProcessingError(c, err, fmt.Sprintf("could not cancel offer: %s", util.SanitizeLog(*id)))
		return
	}
	framework.Respond(c, CancelDIDChoiceResponse{State: cancelled.State}, http.StatusOK)
}

type RejectOfferResponse struct {
	State offer.State `json:"state"`
}

// RejectOffer rejects the queue head
func (or OfferRouter) RejectOffer(c *gin.Context) {
	id := framework.GetParam(c, IDParam)
	if id == nil {
		framework.LoggingRespondErrMsg(c, "cannot reject offer without ID parameter", http.StatusBadRequest)
		return
	}

	rejected, err := or.service.RejectOffer(c, offer.RejectOfferRequest{ID: *id})
	if err != nil {
		or.respondProcessingError(c, err, fmt.Sprintf("could not reject offer: %s", util.SanitizeLog(*id)))
		return
	}
	framework.Respond(c, RejectOfferResponse{State: rejected.State}, http.StatusOK)
}

// respondProcessingError maps coordinator failures to conflict for state machine
// violations and internal error for collaborator failures
func (or OfferRouter) respondProcessingError(c *gin.Context, err error, errMsg string) {
	if errors.Is(err, offer.ErrInvalidTransition) {
		framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusConflict)
		return
	}
	framework.LoggingRespondErrWithMsg(c, err, errMsg, http.StatusInternalServerError)
}
