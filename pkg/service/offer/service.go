package offer

import (
	"context"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/janskor-cz/identuslabel-sub001/config"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/storage"
)

// ErrInvalidTransition is returned when an operation does not apply to the offer's
// current state, e.g. a second accept while one is already outstanding.
var ErrInvalidTransition = errors.New("invalid offer state transition")

// Service coordinates the acceptance of inbound credential offers. Offers form a
// FIFO queue by receipt time; only the queue head is ever processed, and every offer
// walks the state machine Pending, optionally NeedsDIDChoice, then Accepting or
// Rejecting, then a terminal state. Concurrent operations on the same offer are
// guarded by the persisted state, not a lock: an operation that does not match the
// offer's current state fails with ErrInvalidTransition.
type Service struct {
	config  config.OfferServiceConfig
	storage *Storage

	agent     Agent
	messages  MessageStore
	dids      DIDInventory
	callbacks Callbacks
	clock     clock.Clock
}

func (s Service) Type() framework.Type {
	return framework.Offer
}

func (s Service) Status() framework.Status {
	if s.storage == nil {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: "no storage configured",
		}
	}
	if s.agent == nil {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: "no agent configured",
		}
	}
	if s.messages == nil {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: "no message store configured",
		}
	}
	if s.dids == nil {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: "no did inventory configured",
		}
	}
	return framework.Status{Status: framework.StatusReady}
}

func (s Service) Config() config.OfferServiceConfig {
	return s.config
}

func NewOfferService(config config.OfferServiceConfig, db storage.ServiceStorage, agent Agent, messages MessageStore, dids DIDInventory, callbacks Callbacks) (*Service, error) {
	return NewOfferServiceWithClock(config, db, agent, messages, dids, callbacks, clock.New())
}

func NewOfferServiceWithClock(config config.OfferServiceConfig, db storage.ServiceStorage, agent Agent, messages MessageStore, dids DIDInventory, callbacks Callbacks, c clock.Clock) (*Service, error) {
	offerStorage, err := NewOfferStorage(db)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not instantiate storage for the offer service")
	}
	service := Service{
		config:    config,
		storage:   offerStorage,
		agent:     agent,
		messages:  messages,
		dids:      dids,
		callbacks: callbacks,
		clock:     c,
	}
	if !service.Status().IsReady() {
		return nil, sdkutil.LoggingNewError(service.Status().Message)
	}
	return &service, nil
}

// CreateOffer queues an inbound offer message. New offers always enter as pending,
// even while another offer is mid-acceptance; they surface once the queue reaches them.
func (s Service) CreateOffer(ctx context.Context, request CreateOfferRequest) (*CreateOfferResponse, error) {
	logrus.Debugf("creating offer: %s", request.ID)

	id := request.ID
	if id == "" {
		id = uuid.NewString()
	}
	receivedAt := request.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.clock.Now().UTC()
	}
	stored := storedOffer{
		Offer: PendingOffer{
			ID:         id,
			RawMessage: request.RawMessage,
			From:       request.From,
			ReceivedAt: receivedAt,
			Preview:    request.Preview,
		},
		State: StatePending,
	}
	if err := s.storage.StoreOffer(ctx, stored); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not store offer")
	}
	s.notifyQueueChanged(ctx)
	return &CreateOfferResponse{Offer: OfferView{Offer: stored.Offer, State: stored.State}}, nil
}

func (s Service) GetOffer(ctx context.Context, request GetOfferRequest) (*GetOfferResponse, error) {
	logrus.Debugf("getting offer: %s", request.ID)

	stored, err := s.storage.GetOffer(ctx, request.ID)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get offer: %s", request.ID)
	}
	return &GetOfferResponse{Offer: OfferView{Offer: stored.Offer, State: stored.State}}, nil
}

func (s Service) ListOffers(ctx context.Context) (*ListOffersResponse, error) {
	logrus.Debug("listing offers")

	stored, err := s.storage.ListOffers(ctx)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not list offers")
	}
	views := make([]OfferView, 0, len(stored))
	for _, offer := range stored {
		views = append(views, OfferView{Offer: offer.Offer, State: offer.State})
	}
	return &ListOffersResponse{Offers: views}, nil
}

// CurrentOffer surfaces the queue head: the offer with the earliest receipt time,
// regardless of the order offers were written to the store.
func (s Service) CurrentOffer(ctx context.Context) (*CurrentOfferResponse, error) {
	stored, err := s.storage.ListOffers(ctx)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not read the offer queue")
	}
	if len(stored) == 0 {
		return &CurrentOfferResponse{}, nil
	}
	head := stored[0]
	return &CurrentOfferResponse{Offer: &OfferView{Offer: head.Offer, State: head.State}}, nil
}

// AcceptOffer starts acceptance of the queue head. When the DID inventory is
// non-empty the offer parks in needs-did-choice until the holder picks a DID via
// ChooseDID; otherwise acceptance proceeds immediately with a fresh DID.
func (s Service) AcceptOffer(ctx context.Context, request AcceptOfferRequest) (*AcceptOfferResponse, error) {
	logrus.Debugf("accepting offer: %s", request.ID)

	stored, err := s.headForProcessing(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	existing, err := s.dids.ListExistingDIDs(ctx)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not list existing dids")
	}
	if len(existing) > 0 {
		stored.State = StateNeedsDIDChoice
		if err = s.storage.StoreOffer(ctx, *stored); err != nil {
			return nil, sdkutil.LoggingErrorMsg(err, "could not update offer state")
		}
		return &AcceptOfferResponse{State: StateNeedsDIDChoice, ExistingDIDs: existing}, nil
	}
	return s.runAccept(ctx, stored, CreateNewDID)
}

// ChooseDID resumes an acceptance parked on a DID choice
func (s Service) ChooseDID(ctx context.Context, request ChooseDIDRequest) (*AcceptOfferResponse, error) {
	logrus.Debugf("choosing did for offer: %s", request.ID)

	if request.Choice == "" {
		return nil, sdkutil.LoggingNewError("a did choice is required")
	}
	stored, err := s.storage.GetOffer(ctx, request.ID)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get offer: %s", request.ID)
	}
	if stored.State != StateNeedsDIDChoice {
		return nil, sdkutil.LoggingErrorMsgf(ErrInvalidTransition, "offer<%s> is %s, not awaiting a did choice", request.ID, stored.State)
	}
	return s.runAccept(ctx, stored, request.Choice)
}

// CancelDIDChoice returns a parked offer to the queue untouched. This is the only
// cancellable point; once a collaborator call is outstanding the operation runs to
// completion.
func (s Service) CancelDIDChoice(ctx context.Context, request CancelDIDChoiceRequest) (*CancelDIDChoiceResponse, error) {
	logrus.Debugf("cancelling did choice for offer: %s", request.ID)

	stored, err := s.storage.GetOffer(ctx, request.ID)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get offer: %s", request.ID)
	}
	if stored.State != StateNeedsDIDChoice {
		return nil, sdkutil.LoggingErrorMsgf(ErrInvalidTransition, "offer<%s> is %s, not awaiting a did choice", request.ID, stored.State)
	}
	stored.State = StatePending
	if err = s.storage.StoreOffer(ctx, *stored); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not update offer state")
	}
	return &CancelDIDChoiceResponse{State: StatePending}, nil
}

// RejectOffer rejects the queue head. Rejection is itself the terminal collaborator
// call, so no compensating message purge is needed.
func (s Service) RejectOffer(ctx context.Context, request RejectOfferRequest) (*RejectOfferResponse, error) {
	logrus.Debugf("rejecting offer: %s", request.ID)

	stored, err := s.headForProcessing(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	stored.State = StateRejecting
	if err = s.storage.StoreOffer(ctx, *stored); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not update offer state")
	}

	if err = s.agent.RejectOffer(ctx, stored.Offer); err != nil {
		s.finalize(ctx, stored.Offer.ID, StateFailed)
		return nil, sdkutil.LoggingErrorMsgf(err, "rejecting offer<%s> failed", stored.Offer.ID)
	}
	s.finalize(ctx, stored.Offer.ID, StateRejected)
	return &RejectOfferResponse{State: StateRejected}, nil
}

// headForProcessing loads an offer and checks it may start processing: it must be
// pending and must be the queue head, since only one offer is processed at a time.
func (s Service) headForProcessing(ctx context.Context, id string) (*storedOffer, error) {
	stored, err := s.storage.GetOffer(ctx, id)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsgf(err, "could not get offer: %s", id)
	}
	if stored.State != StatePending {
		return nil, sdkutil.LoggingErrorMsgf(ErrInvalidTransition, "offer<%s> is already %s", id, stored.State)
	}
	queued, err := s.storage.ListOffers(ctx)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not read the offer queue")
	}
	if len(queued) == 0 || queued[0].Offer.ID != id {
		return nil, sdkutil.LoggingErrorMsgf(ErrInvalidTransition, "offer<%s> is not at the head of the queue", id)
	}
	return stored, nil
}

// runAccept drives the accepting leg of the state machine. On collaborator failure
// the offer's stored message is purged exactly once as a compensating action; a
// purge failure is only logged so it never masks the original failure. In every
// outcome the offer leaves the queue before control returns to the caller.
func (s Service) runAccept(ctx context.Context, stored *storedOffer, choice DIDChoice) (*AcceptOfferResponse, error) {
	stored.State = StateAccepting
	if err := s.storage.StoreOffer(ctx, *stored); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "could not update offer state")
	}

	if err := s.agent.AcceptOffer(ctx, stored.Offer, choice); err != nil {
		if purgeErr := s.messages.DeleteMessage(ctx, stored.Offer.ID); purgeErr != nil {
			logrus.WithError(purgeErr).Warnf("could not purge message for failed offer: %s", stored.Offer.ID)
		}
		s.finalize(ctx, stored.Offer.ID, StateFailed)
		return nil, sdkutil.LoggingErrorMsgf(err, "accepting offer<%s> failed", stored.Offer.ID)
	}
	s.finalize(ctx, stored.Offer.ID, StateAccepted)
	return &AcceptOfferResponse{State: StateAccepted}, nil
}

// finalize removes a terminal offer from the queue and fires the callbacks. Removal
// failures are logged only; the queue state callbacks still fire so the presentation
// layer converges.
func (s Service) finalize(ctx context.Context, id string, outcome State) {
	if err := s.storage.DeleteOffer(ctx, id); err != nil {
		logrus.WithError(err).Warnf("could not remove terminal offer from the queue: %s", id)
	}
	if s.callbacks.OnOfferTerminal != nil {
		s.callbacks.OnOfferTerminal(id, outcome)
	}
	s.notifyQueueChanged(ctx)
}

func (s Service) notifyQueueChanged(ctx context.Context) {
	if s.callbacks.OnQueueChanged == nil {
		return
	}
	queued, err := s.storage.ListOffers(ctx)
	if err != nil {
		logrus.WithError(err).Warn("could not read the offer queue for notification")
		return
	}
	s.callbacks.OnQueueChanged(len(queued))
}
