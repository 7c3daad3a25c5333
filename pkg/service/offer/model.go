package offer

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	credint "github.com/janskor-cz/identuslabel-sub001/internal/credential"
)

// State is the per-offer position in the acceptance state machine. Pending offers
// sit in the queue; NeedsDIDChoice waits on the holder; Accepting and Rejecting have
// an outstanding collaborator call; Accepted, Rejected and Failed are terminal.
type State string

const (
	StatePending        State = "pending"
	StateNeedsDIDChoice State = "needs-did-choice"
	StateAccepting      State = "accepting"
	StateRejecting      State = "rejecting"
	StateAccepted       State = "accepted"
	StateRejected       State = "rejected"
	StateFailed         State = "failed"
)

// IsTerminal reports whether an offer in this state has left the queue for good
func (s State) IsTerminal() bool {
	return s == StateAccepted || s == StateRejected || s == StateFailed
}

// DIDChoice names the DID a credential from an accepted offer is bound to: either
// an existing inventory DID or the CreateNewDID sentinel.
type DIDChoice string

// CreateNewDID asks the agent to mint a fresh DID during acceptance
const CreateNewDID DIDChoice = "create-new"

// PendingOffer is one inbound credential offer awaiting a holder decision
type PendingOffer struct {
	ID         string                     `json:"id"`
	RawMessage json.RawMessage            `json:"rawMessage,omitempty"`
	From       string                     `json:"from,omitempty"`
	ReceivedAt time.Time                  `json:"receivedAt"`
	Preview    []credint.PreviewAttribute `json:"preview,omitempty"`
}

func (p PendingOffer) IsValid() bool {
	return p.ID != ""
}

// Agent performs the credential accept and reject operations against the issuer
type Agent interface {
	AcceptOffer(ctx context.Context, offer PendingOffer, choice DIDChoice) error
	RejectOffer(ctx context.Context, offer PendingOffer) error
}

// MessageStore purges the stored message underlying a failed offer so it cannot
// resurface on the next read
type MessageStore interface {
	DeleteMessage(ctx context.Context, id string) error
}

// ExistingDID is one inventory entry offered to the holder during acceptance
type ExistingDID struct {
	DID   string `json:"did"`
	Alias string `json:"alias,omitempty"`
}

// DIDInventory lists the DIDs the holder may bind an accepted credential to
type DIDInventory interface {
	ListExistingDIDs(ctx context.Context) ([]ExistingDID, error)
}

// Callbacks surface coordinator events to the presentation layer. Either field may
// be nil.
type Callbacks struct {
	// OnQueueChanged fires whenever the set of queued offers changes
	OnQueueChanged func(queued int)

	// OnOfferTerminal fires once per offer, when it reaches a terminal state
	OnOfferTerminal func(offerID string, outcome State)
}

type CreateOfferRequest struct {
	// ID is optional; one is generated when absent
	ID         string
	RawMessage json.RawMessage
	From       string
	ReceivedAt time.Time
	Preview    []credint.PreviewAttribute
}

type OfferView struct {
	Offer PendingOffer `json:"offer"`
	State State        `json:"state"`
}

type CreateOfferResponse struct {
	Offer OfferView `json:"offer"`
}

type GetOfferRequest struct {
	ID string
}

type GetOfferResponse struct {
	Offer OfferView `json:"offer"`
}

type ListOffersResponse struct {
	Offers []OfferView `json:"offers"`
}

// CurrentOfferResponse carries the queue head, or nothing when the queue is empty
type CurrentOfferResponse struct {
	Offer *OfferView `json:"offer,omitempty"`
}

type AcceptOfferRequest struct {
	ID string
}

// AcceptOfferResponse either reports the terminal outcome or, when the inventory is
// non-empty, asks the holder to choose a DID first
type AcceptOfferResponse struct {
	State State `json:"state"`

	// ExistingDIDs is populated when State is needs-did-choice
	ExistingDIDs []ExistingDID `json:"existingDids,omitempty"`
}

type ChooseDIDRequest struct {
	ID     string
	Choice DIDChoice
}

type CancelDIDChoiceRequest struct {
	ID string
}

type CancelDIDChoiceResponse struct {
	State State `json:"state"`
}

type RejectOfferRequest struct {
	ID string
}

type RejectOfferResponse struct {
	State State `json:"state"`
}
