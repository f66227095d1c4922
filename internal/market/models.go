package market

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Identity names an authenticated principal. The engine never authenticates;
// the hosting environment supplies the caller identity with every operation.
type Identity string

// State is the presentation-level lifecycle of a track derived from its
// sale and dispute flags.
type State string

const (
	StateOpen     State = "open"
	StateSold     State = "sold"
	StateDisputed State = "disputed"
)

var allStates = []State{StateOpen, StateSold, StateDisputed}

// AllStates returns the ordered list of known track states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StateOpen, StateSold, StateDisputed:
		return normalized, true
	default:
		return "", false
	}
}

// Track is the sellable item. It owns its escrow balance exclusively and
// carries the lifecycle flags the settlement engine transitions.
type Track struct {
	ID          string
	Owner       Identity
	Name        string
	Description string
	StatusNote  string
	Genre       string
	Price       uint64
	Escrow      Escrow
	Sold        bool
	Disputed    bool
	Rating      *uint8
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// State derives the lifecycle state from the track's flags. A disputed
// track reports disputed regardless of the sold flag.
func (t *Track) State() State {
	switch {
	case t.Disputed:
		return StateDisputed
	case t.Sold:
		return StateSold
	default:
		return StateOpen
	}
}

// Capability is the unforgeable credential bound to one track at creation.
// Holder tracks who may present it; the binding to TrackID never changes.
type Capability struct {
	ID      string
	TrackID string
	Holder  Identity
}

// Authorizes reports whether the capability satisfies the dual check for a
// mutation on the given track by the given actor. Both checks are
// mandatory; neither is sufficient alone.
func (c *Capability) Authorizes(actor Identity, t *Track) error {
	if c == nil || t == nil || c.TrackID != t.ID {
		return Wrap(ErrInvalidCapability, "", "capability not minted for this track")
	}
	if actor != t.Owner {
		return Wrap(ErrUnauthorized, "", "caller is not the track owner")
	}
	return nil
}

// Claim records one buyer's intent to purchase a specific track. Claims are
// immutable once created and are referenced by id in every settlement call.
type Claim struct {
	ID        string
	Claimant  Identity
	TrackID   string
	CreatedAt time.Time
}

// SaleRecord is the immutable audit artifact minted on a successful payment
// release.
type SaleRecord struct {
	ID        string
	Owner     Identity
	TrackID   string
	Amount    uint64
	CreatedAt time.Time
}

func newID() string {
	return uuid.NewString()
}
