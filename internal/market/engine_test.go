package market_test

import (
	"errors"
	"testing"

	"resonate/internal/market"
)

func newListing(t *testing.T, owner market.Identity) (*market.Track, *market.Capability) {
	t.Helper()
	track, cap, err := market.CreateTrack(owner, market.TrackSpec{
		Name:        "Night Drive",
		Description: "synthwave single",
		Genre:       "electronic",
		Price:       100,
	})
	if err != nil {
		t.Fatalf("CreateTrack failed: %v", err)
	}
	return track, cap
}

func acceptedSale(t *testing.T, owner, buyer market.Identity, escrow uint64) (*market.Track, *market.Capability, *market.Claim) {
	t.Helper()
	track, cap := newListing(t, owner)
	if err := market.AddToEscrow(owner, track, escrow); err != nil {
		t.Fatalf("AddToEscrow failed: %v", err)
	}
	claim, err := market.FileBid(buyer, track)
	if err != nil {
		t.Fatalf("FileBid failed: %v", err)
	}
	if err := market.AcceptBid(owner, track, claim); err != nil {
		t.Fatalf("AcceptBid failed: %v", err)
	}
	return track, cap, claim
}

func sumTo(transfers []market.Transfer, to market.Identity) uint64 {
	var total uint64
	for _, transfer := range transfers {
		if transfer.To == to {
			total += transfer.Amount
		}
	}
	return total
}

func TestCreateTrackMintsBoundCapability(t *testing.T) {
	track, cap := newListing(t, "seller")
	if track.Sold || track.Disputed || track.Escrow.Value() != 0 || track.Rating != nil {
		t.Fatalf("new track must start open and empty: %+v", track)
	}
	if cap.TrackID != track.ID {
		t.Fatalf("capability bound to %q, want %q", cap.TrackID, track.ID)
	}
	if cap.Holder != "seller" {
		t.Fatalf("capability holder %q, want seller", cap.Holder)
	}
}

func TestCreateTrackRequiresName(t *testing.T) {
	if _, _, err := market.CreateTrack("seller", market.TrackSpec{Name: "   "}); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestFileBidRejectsSoldTrack(t *testing.T) {
	track, _, _ := acceptedSale(t, "seller", "buyer", 0)
	if _, err := market.FileBid("late-buyer", track); !errors.Is(err, market.ErrAlreadySold) {
		t.Fatalf("expected ErrAlreadySold, got %v", err)
	}
}

func TestFileBidAllowsCompetingClaims(t *testing.T) {
	track, _ := newListing(t, "seller")
	first, err := market.FileBid("buyer-a", track)
	if err != nil {
		t.Fatalf("first FileBid failed: %v", err)
	}
	second, err := market.FileBid("buyer-b", track)
	if err != nil {
		t.Fatalf("second FileBid failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("claims must have distinct ids")
	}
}

func TestAcceptBidAuthorization(t *testing.T) {
	track, _ := newListing(t, "seller")
	claim, err := market.FileBid("buyer", track)
	if err != nil {
		t.Fatalf("FileBid failed: %v", err)
	}
	if err := market.AcceptBid("stranger", track, claim); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	other, _ := newListing(t, "seller")
	otherClaim, err := market.FileBid("buyer", other)
	if err != nil {
		t.Fatalf("FileBid failed: %v", err)
	}
	if err := market.AcceptBid("seller", track, otherClaim); !errors.Is(err, market.ErrClaimMismatch) {
		t.Fatalf("expected ErrClaimMismatch, got %v", err)
	}

	if err := market.AcceptBid("seller", track, claim); err != nil {
		t.Fatalf("AcceptBid failed: %v", err)
	}
	if !track.Sold {
		t.Fatal("expected track sold after accept")
	}
	// Repeat accepts are no-ops, not errors.
	if err := market.AcceptBid("seller", track, claim); err != nil {
		t.Fatalf("repeat AcceptBid failed: %v", err)
	}
}

func TestMarkSoldRequiresClaimant(t *testing.T) {
	track, _ := newListing(t, "seller")
	claim, err := market.FileBid("buyer", track)
	if err != nil {
		t.Fatalf("FileBid failed: %v", err)
	}
	if err := market.MarkSold("seller", track, claim); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := market.MarkSold("buyer", track, claim); err != nil {
		t.Fatalf("MarkSold failed: %v", err)
	}
	if !track.Sold {
		t.Fatal("expected track sold after buyer confirmation")
	}
}

func TestDisputeNeedsNoSoldPrecondition(t *testing.T) {
	track, _ := newListing(t, "seller")
	if err := market.DisputeTrack("stranger", track); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := market.DisputeTrack("seller", track); err != nil {
		t.Fatalf("DisputeTrack failed: %v", err)
	}
	if !track.Disputed {
		t.Fatal("expected dispute flag set on unsold track")
	}
}

func TestResolveDisputeInFavorOfClient(t *testing.T) {
	track, _, claim := acceptedSale(t, "seller", "buyer", 100)
	if err := market.DisputeTrack("seller", track); err != nil {
		t.Fatalf("DisputeTrack failed: %v", err)
	}
	transfers, err := market.ResolveDispute("seller", track, claim, true)
	if err != nil {
		t.Fatalf("ResolveDispute failed: %v", err)
	}
	if got := sumTo(transfers, "buyer"); got != 100 {
		t.Fatalf("expected full escrow to buyer, got %d", got)
	}
	if track.Sold || track.Disputed {
		t.Fatalf("expected track reset to open, got sold=%v disputed=%v", track.Sold, track.Disputed)
	}
	if track.Escrow.Value() != 0 {
		t.Fatalf("expected escrow drained, got %d", track.Escrow.Value())
	}
}

func TestResolveDisputeInFavorOfOwner(t *testing.T) {
	track, _, claim := acceptedSale(t, "seller", "buyer", 75)
	if err := market.DisputeTrack("seller", track); err != nil {
		t.Fatalf("DisputeTrack failed: %v", err)
	}
	transfers, err := market.ResolveDispute("seller", track, claim, false)
	if err != nil {
		t.Fatalf("ResolveDispute failed: %v", err)
	}
	if got := sumTo(transfers, "seller"); got != 75 {
		t.Fatalf("expected full escrow back to seller, got %d", got)
	}
}

func TestResolveDisputeRequiresOpenDispute(t *testing.T) {
	track, _, claim := acceptedSale(t, "seller", "buyer", 100)
	if _, err := market.ResolveDispute("seller", track, claim, true); !errors.Is(err, market.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestPartialRefundSplitsExactly(t *testing.T) {
	track, _, claim := acceptedSale(t, "seller", "buyer", 100)
	if err := market.DisputeTrack("seller", track); err != nil {
		t.Fatalf("DisputeTrack failed: %v", err)
	}
	transfers, err := market.PartialRefund("seller", track, claim, 30)
	if err != nil {
		t.Fatalf("PartialRefund failed: %v", err)
	}
	if got := sumTo(transfers, "buyer"); got != 30 {
		t.Fatalf("expected 30 to buyer, got %d", got)
	}
	if got := sumTo(transfers, "seller"); got != 70 {
		t.Fatalf("expected 70 to seller, got %d", got)
	}
	if track.Escrow.Value() != 0 {
		t.Fatalf("expected escrow exhausted, got %d", track.Escrow.Value())
	}
	if track.Sold || track.Disputed {
		t.Fatalf("expected track reset to open, got sold=%v disputed=%v", track.Sold, track.Disputed)
	}
}

func TestPartialRefundRejectsOverdraw(t *testing.T) {
	track, _, claim := acceptedSale(t, "seller", "buyer", 50)
	if err := market.DisputeTrack("seller", track); err != nil {
		t.Fatalf("DisputeTrack failed: %v", err)
	}
	if _, err := market.PartialRefund("seller", track, claim, 51); !errors.Is(err, market.ErrInsufficientEscrow) {
		t.Fatalf("expected ErrInsufficientEscrow, got %v", err)
	}
	if track.Escrow.Value() != 50 {
		t.Fatalf("failed refund must not touch escrow, got %d", track.Escrow.Value())
	}
	if !track.Disputed {
		t.Fatal("failed refund must leave the dispute open")
	}
}

func TestPartialRefundFullAmountToClient(t *testing.T) {
	track, _, claim := acceptedSale(t, "seller", "buyer", 40)
	if err := market.DisputeTrack("seller", track); err != nil {
		t.Fatalf("DisputeTrack failed: %v", err)
	}
	transfers, err := market.PartialRefund("seller", track, claim, 40)
	if err != nil {
		t.Fatalf("PartialRefund failed: %v", err)
	}
	if len(transfers) != 1 || transfers[0].To != "buyer" || transfers[0].Amount != 40 {
		t.Fatalf("expected single 40 transfer to buyer, got %+v", transfers)
	}
}

func TestReleasePayment(t *testing.T) {
	track, _, claim := acceptedSale(t, "seller", "buyer", 100)
	record, transfers, err := market.ReleasePayment("seller", track, claim)
	if err != nil {
		t.Fatalf("ReleasePayment failed: %v", err)
	}
	if got := sumTo(transfers, "seller"); got != 100 {
		t.Fatalf("expected 100 released to seller, got %d", got)
	}
	if record == nil || record.Amount != 100 || record.Owner != "seller" || record.TrackID != track.ID {
		t.Fatalf("unexpected sale record: %+v", record)
	}
	if !track.Sold || track.Disputed {
		t.Fatalf("release must leave sold=true disputed=false, got sold=%v disputed=%v", track.Sold, track.Disputed)
	}
	if track.Escrow.Value() != 0 {
		t.Fatalf("expected escrow drained, got %d", track.Escrow.Value())
	}
}

func TestReleasePaymentPreconditions(t *testing.T) {
	track, _ := newListing(t, "seller")
	claim, err := market.FileBid("buyer", track)
	if err != nil {
		t.Fatalf("FileBid failed: %v", err)
	}
	if _, _, err := market.ReleasePayment("seller", track, claim); !errors.Is(err, market.ErrNotReleasable) {
		t.Fatalf("expected ErrNotReleasable on unsold track, got %v", err)
	}

	if err := market.AcceptBid("seller", track, claim); err != nil {
		t.Fatalf("AcceptBid failed: %v", err)
	}
	if err := market.DisputeTrack("seller", track); err != nil {
		t.Fatalf("DisputeTrack failed: %v", err)
	}
	if _, _, err := market.ReleasePayment("seller", track, claim); !errors.Is(err, market.ErrNotReleasable) {
		t.Fatalf("expected ErrNotReleasable on disputed track, got %v", err)
	}

	resolved, err := market.ResolveDispute("seller", track, claim, false)
	if err != nil {
		t.Fatalf("ResolveDispute failed: %v", err)
	}
	if len(resolved) != 0 {
		t.Fatalf("empty escrow must produce no transfers, got %+v", resolved)
	}
	if err := market.AcceptBid("seller", track, claim); err != nil {
		t.Fatalf("AcceptBid failed: %v", err)
	}
	if _, _, err := market.ReleasePayment("seller", track, claim); !errors.Is(err, market.ErrInsufficientEscrow) {
		t.Fatalf("expected ErrInsufficientEscrow on empty escrow, got %v", err)
	}
}

func TestWithdrawRules(t *testing.T) {
	track, cap := newListing(t, "seller")
	if err := market.AddToEscrow("seller", track, 80); err != nil {
		t.Fatalf("AddToEscrow failed: %v", err)
	}

	transfers, err := market.WithdrawFromEscrow("seller", cap, track, 30)
	if err != nil {
		t.Fatalf("WithdrawFromEscrow failed: %v", err)
	}
	if got := sumTo(transfers, "seller"); got != 30 {
		t.Fatalf("expected 30 to seller, got %d", got)
	}
	if track.Escrow.Value() != 50 {
		t.Fatalf("expected 50 remaining, got %d", track.Escrow.Value())
	}

	if _, err := market.WithdrawFromEscrow("seller", cap, track, 51); !errors.Is(err, market.ErrInsufficientEscrow) {
		t.Fatalf("expected ErrInsufficientEscrow, got %v", err)
	}

	claim, err := market.FileBid("buyer", track)
	if err != nil {
		t.Fatalf("FileBid failed: %v", err)
	}
	if err := market.AcceptBid("seller", track, claim); err != nil {
		t.Fatalf("AcceptBid failed: %v", err)
	}
	if _, err := market.WithdrawFromEscrow("seller", cap, track, 10); !errors.Is(err, market.ErrInvalidWithdrawal) {
		t.Fatalf("expected ErrInvalidWithdrawal on sold track, got %v", err)
	}
}

func TestWithdrawCapabilityChecks(t *testing.T) {
	track, _ := newListing(t, "seller")
	_, foreignCap := newListing(t, "seller")
	if err := market.AddToEscrow("seller", track, 10); err != nil {
		t.Fatalf("AddToEscrow failed: %v", err)
	}

	if _, err := market.WithdrawFromEscrow("seller", foreignCap, track, 5); !errors.Is(err, market.ErrInvalidCapability) {
		t.Fatalf("expected ErrInvalidCapability for foreign capability, got %v", err)
	}
}

func TestCapabilityDualCheck(t *testing.T) {
	track, cap := newListing(t, "seller")
	// Valid capability, wrong caller: Unauthorized, not InvalidCapability.
	if err := market.UpdatePrice("stranger", cap, track, 5); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	// Right caller, capability bound elsewhere: InvalidCapability.
	_, foreignCap := newListing(t, "seller")
	if err := market.UpdatePrice("seller", foreignCap, track, 5); !errors.Is(err, market.ErrInvalidCapability) {
		t.Fatalf("expected ErrInvalidCapability, got %v", err)
	}
}

func TestMetadataUpdates(t *testing.T) {
	track, cap := newListing(t, "seller")
	if err := market.UpdateGenre("seller", cap, track, "ambient"); err != nil {
		t.Fatalf("UpdateGenre failed: %v", err)
	}
	if err := market.UpdateDescription("seller", cap, track, "b-side"); err != nil {
		t.Fatalf("UpdateDescription failed: %v", err)
	}
	if err := market.UpdatePrice("seller", cap, track, 250); err != nil {
		t.Fatalf("UpdatePrice failed: %v", err)
	}
	if err := market.UpdateStatusNote("seller", cap, track, "remastered"); err != nil {
		t.Fatalf("UpdateStatusNote failed: %v", err)
	}
	if err := market.UpdateProfile("seller", cap, track, "Night Drive (Remaster)", "2026 master"); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if track.Genre != "ambient" || track.Price != 250 || track.StatusNote != "remastered" {
		t.Fatalf("unexpected track after updates: %+v", track)
	}
	if track.Name != "Night Drive (Remaster)" || track.Description != "2026 master" {
		t.Fatalf("unexpected profile after update: %+v", track)
	}
}

func TestTransferOwnershipRehomesCapability(t *testing.T) {
	track, cap := newListing(t, "seller")
	if err := market.TransferOwnership("seller", cap, track, "heir"); err != nil {
		t.Fatalf("TransferOwnership failed: %v", err)
	}
	if track.Owner != "heir" || cap.Holder != "heir" {
		t.Fatalf("expected owner and holder re-homed, got %q / %q", track.Owner, cap.Holder)
	}
	// The previous owner lost authority along with the token.
	if err := market.UpdatePrice("seller", cap, track, 1); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for previous owner, got %v", err)
	}
}

func TestRateTrackSetOnce(t *testing.T) {
	track, _, claim := acceptedSale(t, "seller", "buyer", 0)
	if err := market.RateTrack("seller", track, claim, 5); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-claimant, got %v", err)
	}
	if err := market.RateTrack("buyer", track, claim, 0); err == nil {
		t.Fatal("expected error for out-of-range rating")
	}
	if err := market.RateTrack("buyer", track, claim, 4); err != nil {
		t.Fatalf("RateTrack failed: %v", err)
	}
	if track.Rating == nil || *track.Rating != 4 {
		t.Fatalf("unexpected rating: %v", track.Rating)
	}
	if err := market.RateTrack("buyer", track, claim, 5); !errors.Is(err, market.ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got %v", err)
	}
}

func TestValueConservationAcrossLifecycle(t *testing.T) {
	const deposited = 100
	track, _, claim := acceptedSale(t, "seller", "buyer", deposited)
	if err := market.DisputeTrack("seller", track); err != nil {
		t.Fatalf("DisputeTrack failed: %v", err)
	}
	transfers, err := market.PartialRefund("seller", track, claim, 33)
	if err != nil {
		t.Fatalf("PartialRefund failed: %v", err)
	}
	var out uint64
	for _, transfer := range transfers {
		out += transfer.Amount
	}
	if out+track.Escrow.Value() != deposited {
		t.Fatalf("conservation violated: out=%d resident=%d deposited=%d", out, track.Escrow.Value(), deposited)
	}
}

func TestErrorCodes(t *testing.T) {
	track, _ := newListing(t, "seller")
	err := market.DisputeTrack("stranger", track)
	if code := market.Code(err); code != "unauthorized" {
		t.Fatalf("expected code unauthorized, got %q", code)
	}
	if code := market.Code(errors.New("unrelated")); code != "" {
		t.Fatalf("expected empty code for foreign error, got %q", code)
	}
}
