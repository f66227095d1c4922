package api

import (
	"resonate/internal/market"
)

// FromTrack converts a domain track to its API representation.
func FromTrack(track *market.Track) TrackView {
	if track == nil {
		return TrackView{}
	}
	view := TrackView{
		ID:          track.ID,
		Owner:       string(track.Owner),
		Name:        track.Name,
		Description: track.Description,
		StatusNote:  track.StatusNote,
		Genre:       track.Genre,
		Price:       track.Price,
		Escrow:      track.Escrow.Value(),
		State:       string(track.State()),
	}
	if track.Rating != nil {
		rating := *track.Rating
		view.Rating = &rating
	}
	if !track.CreatedAt.IsZero() {
		view.CreatedAt = track.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !track.UpdatedAt.IsZero() {
		view.UpdatedAt = track.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromTracks converts a slice of domain tracks into API views.
func FromTracks(tracks []*market.Track) []TrackView {
	if len(tracks) == 0 {
		return nil
	}
	out := make([]TrackView, 0, len(tracks))
	for _, track := range tracks {
		out = append(out, FromTrack(track))
	}
	return out
}

// FromCapability converts a domain capability to its API representation.
func FromCapability(cap *market.Capability) CapabilityView {
	if cap == nil {
		return CapabilityView{}
	}
	return CapabilityView{
		ID:      cap.ID,
		TrackID: cap.TrackID,
		Holder:  string(cap.Holder),
	}
}

// FromClaim converts a domain claim to its API representation.
func FromClaim(claim *market.Claim) ClaimView {
	if claim == nil {
		return ClaimView{}
	}
	view := ClaimView{
		ID:       claim.ID,
		TrackID:  claim.TrackID,
		Claimant: string(claim.Claimant),
	}
	if !claim.CreatedAt.IsZero() {
		view.CreatedAt = claim.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromClaims converts a slice of domain claims into API views.
func FromClaims(claims []*market.Claim) []ClaimView {
	if len(claims) == 0 {
		return nil
	}
	out := make([]ClaimView, 0, len(claims))
	for _, claim := range claims {
		out = append(out, FromClaim(claim))
	}
	return out
}

// FromSale converts a sale record to its API representation.
func FromSale(record *market.SaleRecord) SaleView {
	if record == nil {
		return SaleView{}
	}
	view := SaleView{
		ID:      record.ID,
		TrackID: record.TrackID,
		Owner:   string(record.Owner),
		Amount:  record.Amount,
	}
	if !record.CreatedAt.IsZero() {
		view.CreatedAt = record.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromSales converts a slice of sale records into API views.
func FromSales(records []*market.SaleRecord) []SaleView {
	if len(records) == 0 {
		return nil
	}
	out := make([]SaleView, 0, len(records))
	for _, record := range records {
		out = append(out, FromSale(record))
	}
	return out
}

// FromTransfers converts settlement transfers into API views.
func FromTransfers(transfers []market.Transfer) []TransferView {
	if len(transfers) == 0 {
		return nil
	}
	out := make([]TransferView, 0, len(transfers))
	for _, transfer := range transfers {
		out = append(out, TransferView{To: string(transfer.To), Amount: transfer.Amount})
	}
	return out
}
