package market

import (
	"strings"
	"time"
)

// TrackSpec carries the caller-supplied fields for a new track listing.
type TrackSpec struct {
	Name        string
	Description string
	Genre       string
	StatusNote  string
	Price       uint64
}

// CreateTrack lists a new track and mints the one capability that will ever
// exist for it, handing both to the creator. No authorization is required;
// creation is the only mint path.
func CreateTrack(creator Identity, spec TrackSpec) (*Track, *Capability, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, nil, Wrap(nil, "create track", "name is required")
	}
	if creator == "" {
		return nil, nil, Wrap(nil, "create track", "creator identity is required")
	}

	now := time.Now().UTC()
	track := &Track{
		ID:          newID(),
		Owner:       creator,
		Name:        name,
		Description: spec.Description,
		StatusNote:  spec.StatusNote,
		Genre:       spec.Genre,
		Price:       spec.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	cap := &Capability{
		ID:      newID(),
		TrackID: track.ID,
		Holder:  creator,
	}
	return track, cap, nil
}

// FileBid records a buyer's claim against an unsold track. Nothing limits
// the number of outstanding claims per track; only a completed sale closes
// the door on new ones.
func FileBid(actor Identity, t *Track) (*Claim, error) {
	if t.Sold {
		return nil, Wrap(ErrAlreadySold, "file bid", "track has an accepted sale")
	}
	return &Claim{
		ID:        newID(),
		Claimant:  actor,
		TrackID:   t.ID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// AcceptBid is the seller-side confirmation: the owner accepts a claim and
// the track becomes sold. Calling it again with any matching claim is a
// no-op after the first.
func AcceptBid(actor Identity, t *Track, c *Claim) error {
	if actor != t.Owner {
		return Wrap(ErrUnauthorized, "accept bid", "caller is not the track owner")
	}
	if c.TrackID != t.ID {
		return Wrap(ErrClaimMismatch, "accept bid", "claim targets a different track")
	}
	t.Sold = true
	return nil
}

// MarkSold is the buyer-side twin of AcceptBid. Either party alone flips
// the sold flag; two-sided confirmation is modeled but not required.
func MarkSold(actor Identity, t *Track, c *Claim) error {
	if actor != c.Claimant {
		return Wrap(ErrUnauthorized, "mark sold", "caller is not the claimant")
	}
	if c.TrackID != t.ID {
		return Wrap(ErrClaimMismatch, "mark sold", "claim targets a different track")
	}
	t.Sold = true
	return nil
}

// DisputeTrack raises a dispute. There is deliberately no precondition on
// the sold flag; an owner may dispute an unsold track.
func DisputeTrack(actor Identity, t *Track) error {
	if actor != t.Owner {
		return Wrap(ErrUnauthorized, "dispute", "caller is not the track owner")
	}
	t.Disputed = true
	return nil
}

// ResolveDispute settles an open dispute all-or-nothing: the entire escrow
// goes to the claimant when resolved in the client's favor, otherwise back
// to the owner. The track returns to the open state.
func ResolveDispute(actor Identity, t *Track, c *Claim, inFavorOfClient bool) ([]Transfer, error) {
	if actor != t.Owner {
		return nil, Wrap(ErrUnauthorized, "resolve dispute", "caller is not the track owner")
	}
	if !t.Disputed {
		return nil, Wrap(ErrAlreadyResolved, "resolve dispute", "track has no open dispute")
	}
	if c.TrackID != t.ID {
		return nil, Wrap(ErrClaimMismatch, "resolve dispute", "claim targets a different track")
	}

	recipient := t.Owner
	if inFavorOfClient {
		recipient = c.Claimant
	}

	var transfers []Transfer
	if total := t.Escrow.Value(); total > 0 {
		payment, err := t.Escrow.TakeExact(total)
		if err != nil {
			return nil, err
		}
		transfer, err := payment.PayTo(recipient)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, transfer)
	}

	t.Sold = false
	t.Disputed = false
	return transfers, nil
}

// PartialRefund settles an open dispute with an exact split: refund to the
// claimant, remainder to the owner, escrow exhausted in one operation. The
// track returns to the open state.
func PartialRefund(actor Identity, t *Track, c *Claim, refund uint64) ([]Transfer, error) {
	if actor != t.Owner {
		return nil, Wrap(ErrUnauthorized, "partial refund", "caller is not the track owner")
	}
	if !t.Disputed {
		return nil, Wrap(ErrAlreadyResolved, "partial refund", "track has no open dispute")
	}
	if c.TrackID != t.ID {
		return nil, Wrap(ErrClaimMismatch, "partial refund", "claim targets a different track")
	}
	total := t.Escrow.Value()
	if refund > total {
		return nil, Wrap(ErrInsufficientEscrow, "partial refund", "refund exceeds escrow balance")
	}

	var transfers []Transfer
	if total > 0 {
		payment, err := t.Escrow.TakeExact(total)
		if err != nil {
			return nil, err
		}
		clientShare, err := payment.Split(refund)
		if err != nil {
			return nil, err
		}
		if clientShare.Amount() > 0 {
			transfer, err := clientShare.PayTo(c.Claimant)
			if err != nil {
				return nil, err
			}
			transfers = append(transfers, transfer)
		}
		if payment.Amount() > 0 {
			transfer, err := payment.PayTo(t.Owner)
			if err != nil {
				return nil, err
			}
			transfers = append(transfers, transfer)
		}
	}

	t.Sold = false
	t.Disputed = false
	return transfers, nil
}

// ReleasePayment drains the escrow to the owner on an undisputed sale and
// mints the immutable sale record. The sold flag stays true with an empty
// escrow, ready for a fresh deposit and claim cycle.
func ReleasePayment(actor Identity, t *Track, c *Claim) (*SaleRecord, []Transfer, error) {
	if actor != t.Owner {
		return nil, nil, Wrap(ErrUnauthorized, "release payment", "caller is not the track owner")
	}
	if !t.Sold || t.Disputed {
		return nil, nil, Wrap(ErrNotReleasable, "release payment", "track must be sold and undisputed")
	}
	if c.TrackID != t.ID {
		return nil, nil, Wrap(ErrClaimMismatch, "release payment", "claim targets a different track")
	}
	total := t.Escrow.Value()
	if total == 0 {
		return nil, nil, Wrap(ErrInsufficientEscrow, "release payment", "escrow is empty")
	}

	payment, err := t.Escrow.TakeExact(total)
	if err != nil {
		return nil, nil, err
	}
	transfer, err := payment.PayTo(t.Owner)
	if err != nil {
		return nil, nil, err
	}

	record := &SaleRecord{
		ID:        newID(),
		Owner:     t.Owner,
		TrackID:   t.ID,
		Amount:    total,
		CreatedAt: time.Now().UTC(),
	}
	t.Sold = true
	t.Disputed = false
	return record, []Transfer{transfer}, nil
}

// AddToEscrow deposits into the track's escrow. Owner only; the only other
// failure is balance overflow.
func AddToEscrow(actor Identity, t *Track, amount uint64) error {
	if actor != t.Owner {
		return Wrap(ErrUnauthorized, "add to escrow", "caller is not the track owner")
	}
	return t.Escrow.Deposit(amount)
}

// WithdrawFromEscrow pulls uncommitted funds back to the owner. Funds on a
// sold track are committed to the sale and cannot be withdrawn.
func WithdrawFromEscrow(actor Identity, cap *Capability, t *Track, amount uint64) ([]Transfer, error) {
	if err := cap.Authorizes(actor, t); err != nil {
		return nil, err
	}
	if t.Sold {
		return nil, Wrap(ErrInvalidWithdrawal, "withdraw", "escrow is committed to an accepted sale")
	}
	if amount > t.Escrow.Value() {
		return nil, Wrap(ErrInsufficientEscrow, "withdraw", "amount exceeds escrow balance")
	}

	payment, err := t.Escrow.TakeExact(amount)
	if err != nil {
		return nil, err
	}
	transfer, err := payment.PayTo(t.Owner)
	if err != nil {
		return nil, err
	}
	return []Transfer{transfer}, nil
}

// TransferOwnership re-homes the track and its capability to a new owner.
// This is the only way a capability changes hands.
func TransferOwnership(actor Identity, cap *Capability, t *Track, newOwner Identity) error {
	if err := cap.Authorizes(actor, t); err != nil {
		return err
	}
	if newOwner == "" {
		return Wrap(nil, "transfer ownership", "new owner identity is required")
	}
	t.Owner = newOwner
	cap.Holder = newOwner
	return nil
}

// RateTrack lets the buyer of record rate the track once. Ratings run 1-5
// and are immutable after the first write.
func RateTrack(actor Identity, t *Track, c *Claim, rating uint8) error {
	if actor != c.Claimant {
		return Wrap(ErrUnauthorized, "rate track", "caller is not the claimant")
	}
	if c.TrackID != t.ID {
		return Wrap(ErrClaimMismatch, "rate track", "claim targets a different track")
	}
	if t.Rating != nil {
		return Wrap(ErrAlreadyRated, "rate track", "rating may be set only once")
	}
	if rating < 1 || rating > 5 {
		return Wrap(nil, "rate track", "rating must be between 1 and 5")
	}
	value := rating
	t.Rating = &value
	return nil
}

// UpdateGenre replaces the genre tag. Capability-gated, single field.
func UpdateGenre(actor Identity, cap *Capability, t *Track, genre string) error {
	if err := cap.Authorizes(actor, t); err != nil {
		return err
	}
	t.Genre = genre
	return nil
}

// UpdateDescription replaces the description. Capability-gated, single field.
func UpdateDescription(actor Identity, cap *Capability, t *Track, description string) error {
	if err := cap.Authorizes(actor, t); err != nil {
		return err
	}
	t.Description = description
	return nil
}

// UpdatePrice replaces the unit price. Capability-gated, single field.
func UpdatePrice(actor Identity, cap *Capability, t *Track, price uint64) error {
	if err := cap.Authorizes(actor, t); err != nil {
		return err
	}
	t.Price = price
	return nil
}

// UpdateStatusNote replaces the free-form status byte-string.
// Capability-gated, single field.
func UpdateStatusNote(actor Identity, cap *Capability, t *Track, note string) error {
	if err := cap.Authorizes(actor, t); err != nil {
		return err
	}
	t.StatusNote = note
	return nil
}

// UpdateProfile replaces the display name and description together.
// Capability-gated.
func UpdateProfile(actor Identity, cap *Capability, t *Track, name, description string) error {
	if err := cap.Authorizes(actor, t); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Wrap(nil, "update profile", "name is required")
	}
	t.Name = name
	t.Description = description
	return nil
}
