package offer

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/janskor-cz/identuslabel-sub001/config"
	"github.com/janskor-cz/identuslabel-sub001/pkg/storage"
)

type fakeAgent struct {
	acceptErr   error
	rejectErr   error
	acceptCalls int
	rejectCalls int
	lastChoice  DIDChoice
}

func (f *fakeAgent) AcceptOffer(_ context.Context, _ PendingOffer, choice DIDChoice) error {
	f.acceptCalls++
	f.lastChoice = choice
	return f.acceptErr
}

func (f *fakeAgent) RejectOffer(_ context.Context, _ PendingOffer) error {
	f.rejectCalls++
	return f.rejectErr
}

type fakeMessageStore struct {
	deleteErr   error
	deleteCalls int
	deletedIDs  []string
}

func (f *fakeMessageStore) DeleteMessage(_ context.Context, id string) error {
	f.deleteCalls++
	f.deletedIDs = append(f.deletedIDs, id)
	return f.deleteErr
}

type fakeInventory struct {
	dids []ExistingDID
	err  error
}

func (f *fakeInventory) ListExistingDIDs(_ context.Context) ([]ExistingDID, error) {
	return f.dids, f.err
}

type recorder struct {
	queueSizes []int
	terminal   []string
	outcomes   []State
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnQueueChanged: func(queued int) {
			r.queueSizes = append(r.queueSizes, queued)
		},
		OnOfferTerminal: func(offerID string, outcome State) {
			r.terminal = append(r.terminal, offerID)
			r.outcomes = append(r.outcomes, outcome)
		},
	}
}

func newTestOfferService(t *testing.T, agent *fakeAgent, messages *fakeMessageStore, dids *fakeInventory, callbacks Callbacks) *Service {
	db, err := storage.NewStorage(storage.Memory)
	assert.NoError(t, err)
	service, err := NewOfferService(
		config.OfferServiceConfig{BaseServiceConfig: &config.BaseServiceConfig{Name: "offer"}},
		db, agent, messages, dids, callbacks)
	assert.NoError(t, err)
	assert.True(t, service.Status().IsReady())
	return service
}

func queueOffer(t *testing.T, service *Service, id string, receivedAt time.Time) {
	_, err := service.CreateOffer(context.Background(), CreateOfferRequest{ID: id, ReceivedAt: receivedAt})
	assert.NoError(t, err)
}

func TestOfferServiceRequiresCollaborators(t *testing.T) {
	db, err := storage.NewStorage(storage.Memory)
	assert.NoError(t, err)

	_, err = NewOfferService(config.OfferServiceConfig{}, db, nil, &fakeMessageStore{}, &fakeInventory{}, Callbacks{})
	assert.Error(t, err)

	_, err = NewOfferService(config.OfferServiceConfig{}, db, &fakeAgent{}, nil, &fakeInventory{}, Callbacks{})
	assert.Error(t, err)

	_, err = NewOfferService(config.OfferServiceConfig{}, db, &fakeAgent{}, &fakeMessageStore{}, nil, Callbacks{})
	assert.Error(t, err)
}

func TestOfferQueueIsFIFOByReceiptTime(t *testing.T) {
	service := newTestOfferService(t, &fakeAgent{}, &fakeMessageStore{}, &fakeInventory{}, Callbacks{})

	t1 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t1.Add(2 * time.Minute)

	// insertion order deliberately differs from receipt order
	queueOffer(t, service, "offer-2", t2)
	queueOffer(t, service, "offer-3", t3)
	queueOffer(t, service, "offer-1", t1)

	listed, err := service.ListOffers(context.Background())
	assert.NoError(t, err)
	assert.Len(t, listed.Offers, 3)
	assert.Equal(t, "offer-1", listed.Offers[0].Offer.ID)
	assert.Equal(t, "offer-2", listed.Offers[1].Offer.ID)
	assert.Equal(t, "offer-3", listed.Offers[2].Offer.ID)

	current, err := service.CurrentOffer(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, current.Offer)
	assert.Equal(t, "offer-1", current.Offer.Offer.ID)
}

func TestAcceptWithEmptyInventoryCreatesNewDID(t *testing.T) {
	agent := &fakeAgent{}
	events := &recorder{}
	service := newTestOfferService(t, agent, &fakeMessageStore{}, &fakeInventory{}, events.callbacks())

	queueOffer(t, service, "offer-1", time.Now())

	accepted, err := service.AcceptOffer(context.Background(), AcceptOfferRequest{ID: "offer-1"})
	assert.NoError(t, err)
	assert.Equal(t, StateAccepted, accepted.State)
	assert.Equal(t, 1, agent.acceptCalls)
	assert.Equal(t, CreateNewDID, agent.lastChoice)

	// the accepted offer left the queue
	listed, err := service.ListOffers(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, listed.Offers)

	assert.Equal(t, []string{"offer-1"}, events.terminal)
	assert.Equal(t, []State{StateAccepted}, events.outcomes)
	assert.Equal(t, []int{1, 0}, events.queueSizes)
}

func TestAcceptWithInventoryParksOnDIDChoice(t *testing.T) {
	agent := &fakeAgent{}
	inventory := &fakeInventory{dids: []ExistingDID{{DID: "did:key:abc", Alias: "personal"}}}
	service := newTestOfferService(t, agent, &fakeMessageStore{}, inventory, Callbacks{})

	queueOffer(t, service, "offer-1", time.Now())

	accepted, err := service.AcceptOffer(context.Background(), AcceptOfferRequest{ID: "offer-1"})
	assert.NoError(t, err)
	assert.Equal(t, StateNeedsDIDChoice, accepted.State)
	assert.Equal(t, inventory.dids, accepted.ExistingDIDs)
	assert.Zero(t, agent.acceptCalls)

	// a second accept while parked is an invalid transition
	_, err = service.AcceptOffer(context.Background(), AcceptOfferRequest{ID: "offer-1"})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	chosen, err := service.ChooseDID(context.Background(), ChooseDIDRequest{ID: "offer-1", Choice: "did:key:abc"})
	assert.NoError(t, err)
	assert.Equal(t, StateAccepted, chosen.State)
	assert.Equal(t, DIDChoice("did:key:abc"), agent.lastChoice)
}

func TestCancelDIDChoiceReturnsOfferToQueue(t *testing.T) {
	inventory := &fakeInventory{dids: []ExistingDID{{DID: "did:key:abc"}}}
	service := newTestOfferService(t, &fakeAgent{}, &fakeMessageStore{}, inventory, Callbacks{})

	queueOffer(t, service, "offer-1", time.Now())

	_, err := service.AcceptOffer(context.Background(), AcceptOfferRequest{ID: "offer-1"})
	assert.NoError(t, err)

	cancelled, err := service.CancelDIDChoice(context.Background(), CancelDIDChoiceRequest{ID: "offer-1"})
	assert.NoError(t, err)
	assert.Equal(t, StatePending, cancelled.State)

	// the offer is pending again and can restart acceptance
	got, err := service.GetOffer(context.Background(), GetOfferRequest{ID: "offer-1"})
	assert.NoError(t, err)
	assert.Equal(t, StatePending, got.Offer.State)

	// cancelling twice is an invalid transition
	_, err = service.CancelDIDChoice(context.Background(), CancelDIDChoiceRequest{ID: "offer-1"})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestAcceptFailurePurgesMessageExactlyOnce(t *testing.T) {
	agent := &fakeAgent{acceptErr: errors.New("agent unavailable")}
	messages := &fakeMessageStore{}
	events := &recorder{}
	service := newTestOfferService(t, agent, messages, &fakeInventory{}, events.callbacks())

	queueOffer(t, service, "offer-1", time.Now())

	_, err := service.AcceptOffer(context.Background(), AcceptOfferRequest{ID: "offer-1"})
	assert.Error(t, err)

	// the stored message was purged exactly once and the offer left the queue
	assert.Equal(t, 1, messages.deleteCalls)
	assert.Equal(t, []string{"offer-1"}, messages.deletedIDs)

	listed, err := service.ListOffers(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, listed.Offers)

	assert.Equal(t, []State{StateFailed}, events.outcomes)
}

func TestAcceptFailureSurvivesPurgeFailure(t *testing.T) {
	agent := &fakeAgent{acceptErr: errors.New("agent unavailable")}
	messages := &fakeMessageStore{deleteErr: errors.New("message store unavailable")}
	service := newTestOfferService(t, agent, messages, &fakeInventory{}, Callbacks{})

	queueOffer(t, service, "offer-1", time.Now())

	// the purge failure is logged, never escalated; the original failure surfaces
	_, err := service.AcceptOffer(context.Background(), AcceptOfferRequest{ID: "offer-1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "agent unavailable")
	assert.Equal(t, 1, messages.deleteCalls)

	listed, err := service.ListOffers(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, listed.Offers)
}

func TestOnlyTheQueueHeadCanBeProcessed(t *testing.T) {
	service := newTestOfferService(t, &fakeAgent{}, &fakeMessageStore{}, &fakeInventory{}, Callbacks{})

	t1 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	queueOffer(t, service, "offer-1", t1)
	queueOffer(t, service, "offer-2", t1.Add(time.Minute))

	_, err := service.AcceptOffer(context.Background(), AcceptOfferRequest{ID: "offer-2"})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = service.RejectOffer(context.Background(), RejectOfferRequest{ID: "offer-2"})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	// the head itself processes fine, after which the next offer surfaces
	_, err = service.AcceptOffer(context.Background(), AcceptOfferRequest{ID: "offer-1"})
	assert.NoError(t, err)

	current, err := service.CurrentOffer(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, current.Offer)
	assert.Equal(t, "offer-2", current.Offer.Offer.ID)
}

func TestRejectOffer(t *testing.T) {
	agent := &fakeAgent{}
	messages := &fakeMessageStore{}
	events := &recorder{}
	service := newTestOfferService(t, agent, messages, &fakeInventory{}, events.callbacks())

	queueOffer(t, service, "offer-1", time.Now())

	rejected, err := service.RejectOffer(context.Background(), RejectOfferRequest{ID: "offer-1"})
	assert.NoError(t, err)
	assert.Equal(t, StateRejected, rejected.State)
	assert.Equal(t, 1, agent.rejectCalls)

	// rejection needs no compensating purge
	assert.Zero(t, messages.deleteCalls)

	listed, err := service.ListOffers(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, listed.Offers)
	assert.Equal(t, []State{StateRejected}, events.outcomes)
}

func TestRejectFailureDropsOfferWithoutPurge(t *testing.T) {
	agent := &fakeAgent{rejectErr: errors.New("agent unavailable")}
	messages := &fakeMessageStore{}
	events := &recorder{}
	service := newTestOfferService(t, agent, messages, &fakeInventory{}, events.callbacks())

	queueOffer(t, service, "offer-1", time.Now())

	_, err := service.RejectOffer(context.Background(), RejectOfferRequest{ID: "offer-1"})
	assert.Error(t, err)
	assert.Zero(t, messages.deleteCalls)

	listed, err := service.ListOffers(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, listed.Offers)
	assert.Equal(t, []State{StateFailed}, events.outcomes)
}

func TestCurrentOfferOnEmptyQueue(t *testing.T) {
	service := newTestOfferService(t, &fakeAgent{}, &fakeMessageStore{}, &fakeInventory{}, Callbacks{})

	current, err := service.CurrentOffer(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, current.Offer)
}
