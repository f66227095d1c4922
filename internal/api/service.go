package api

import (
	"context"
	"fmt"
	"log/slog"

	"resonate/internal/catalog"
	"resonate/internal/identity"
	"resonate/internal/logging"
	"resonate/internal/market"
)

// Service exposes marketplace operations returning API views. Every mutation
// runs through the catalog store's transactional settlement layer.
type Service struct {
	store  *catalog.Store
	logger *slog.Logger
}

// NewService constructs a Service around the provided store.
func NewService(store *catalog.Store, logger *slog.Logger) *Service {
	if store == nil {
		return nil
	}
	return &Service{
		store:  store,
		logger: logging.NewComponentLogger(logger, "api"),
	}
}

// CreateTrack lists a new track and returns it with its capability.
func (s *Service) CreateTrack(ctx context.Context, actor market.Identity, spec market.TrackSpec) (*ListingView, error) {
	track, cap, err := s.store.CreateTrack(ctx, actor, spec)
	if err != nil {
		return nil, s.fail(ctx, "create track", actor, "", err)
	}
	s.logger.InfoContext(ctx, "track listed",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, track.ID))
	return &ListingView{Track: FromTrack(track), Capability: FromCapability(cap)}, nil
}

// ListTracks returns tracks filtered by the provided state names.
func (s *Service) ListTracks(ctx context.Context, stateNames ...string) ([]TrackView, error) {
	states := make([]market.State, 0, len(stateNames))
	for _, name := range stateNames {
		state, ok := market.ParseState(name)
		if !ok {
			return nil, fmt.Errorf("unknown track state %q", name)
		}
		states = append(states, state)
	}
	tracks, err := s.store.ListTracks(ctx, states...)
	if err != nil {
		return nil, err
	}
	return FromTracks(tracks), nil
}

// DescribeTrack returns a single track with its claims and sale history.
func (s *Service) DescribeTrack(ctx context.Context, trackID string) (*TrackDetail, error) {
	track, err := s.store.GetTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	claims, err := s.store.ClaimsForTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	sales, err := s.store.SaleRecordsForTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	return &TrackDetail{
		Track:  FromTrack(track),
		Claims: FromClaims(claims),
		Sales:  FromSales(sales),
	}, nil
}

// TrackDetail aggregates a track with its claims and sale history.
type TrackDetail struct {
	Track  TrackView   `json:"track"`
	Claims []ClaimView `json:"claims,omitempty"`
	Sales  []SaleView  `json:"sales,omitempty"`
}

// FileBid records a claim by the actor against a track.
func (s *Service) FileBid(ctx context.Context, actor market.Identity, trackID string) (*ClaimView, error) {
	claim, err := s.store.FileBid(ctx, actor, trackID)
	if err != nil {
		return nil, s.fail(ctx, "file bid", actor, trackID, err)
	}
	s.logger.InfoContext(ctx, "bid filed",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.String(logging.FieldClaimID, claim.ID))
	view := FromClaim(claim)
	return &view, nil
}

// AcceptBid confirms a sale from the seller side.
func (s *Service) AcceptBid(ctx context.Context, actor market.Identity, trackID, claimID string) (*TrackView, error) {
	track, err := s.store.AcceptBid(ctx, actor, trackID, claimID)
	if err != nil {
		return nil, s.fail(ctx, "accept bid", actor, trackID, err)
	}
	s.logger.InfoContext(ctx, "bid accepted",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.String(logging.FieldClaimID, claimID))
	view := FromTrack(track)
	return &view, nil
}

// MarkSold confirms a sale from the buyer side.
func (s *Service) MarkSold(ctx context.Context, actor market.Identity, trackID, claimID string) (*TrackView, error) {
	track, err := s.store.MarkSold(ctx, actor, trackID, claimID)
	if err != nil {
		return nil, s.fail(ctx, "mark sold", actor, trackID, err)
	}
	s.logger.InfoContext(ctx, "track marked sold",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.String(logging.FieldClaimID, claimID))
	view := FromTrack(track)
	return &view, nil
}

// Dispute raises a dispute on a track.
func (s *Service) Dispute(ctx context.Context, actor market.Identity, trackID string) (*TrackView, error) {
	track, err := s.store.Dispute(ctx, actor, trackID)
	if err != nil {
		return nil, s.fail(ctx, "dispute", actor, trackID, err)
	}
	s.logger.WarnContext(ctx, "dispute raised",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID))
	view := FromTrack(track)
	return &view, nil
}

// Resolve settles an open dispute all-or-nothing.
func (s *Service) Resolve(ctx context.Context, actor market.Identity, trackID, claimID string, inFavorOfClient bool) (*SettlementView, error) {
	track, transfers, err := s.store.Resolve(ctx, actor, trackID, claimID, inFavorOfClient)
	if err != nil {
		return nil, s.fail(ctx, "resolve dispute", actor, trackID, err)
	}
	s.logger.InfoContext(ctx, "dispute resolved",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.Bool("in_favor_of_client", inFavorOfClient))
	return &SettlementView{Track: FromTrack(track), Transfers: FromTransfers(transfers)}, nil
}

// PartialRefund settles an open dispute with an exact split.
func (s *Service) PartialRefund(ctx context.Context, actor market.Identity, trackID, claimID string, refund uint64) (*SettlementView, error) {
	track, transfers, err := s.store.PartialRefund(ctx, actor, trackID, claimID, refund)
	if err != nil {
		return nil, s.fail(ctx, "partial refund", actor, trackID, err)
	}
	s.logger.InfoContext(ctx, "partial refund settled",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.Uint64(logging.FieldAmount, refund))
	return &SettlementView{Track: FromTrack(track), Transfers: FromTransfers(transfers)}, nil
}

// Release drains the escrow to the owner and mints a sale record.
func (s *Service) Release(ctx context.Context, actor market.Identity, trackID, claimID string) (*SettlementView, error) {
	record, transfers, err := s.store.Release(ctx, actor, trackID, claimID)
	if err != nil {
		return nil, s.fail(ctx, "release payment", actor, trackID, err)
	}
	track, err := s.store.GetTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "payment released",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.Uint64(logging.FieldAmount, record.Amount))
	sale := FromSale(record)
	return &SettlementView{Track: FromTrack(track), Sale: &sale, Transfers: FromTransfers(transfers)}, nil
}

// Deposit adds funds to a track's escrow.
func (s *Service) Deposit(ctx context.Context, actor market.Identity, trackID string, amount uint64) (*TrackView, error) {
	track, err := s.store.Deposit(ctx, actor, trackID, amount)
	if err != nil {
		return nil, s.fail(ctx, "deposit", actor, trackID, err)
	}
	s.logger.InfoContext(ctx, "escrow deposit",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.Uint64(logging.FieldAmount, amount))
	view := FromTrack(track)
	return &view, nil
}

// Withdraw pulls uncommitted escrow back to the owner.
func (s *Service) Withdraw(ctx context.Context, actor market.Identity, trackID, capabilityID string, amount uint64) (*SettlementView, error) {
	track, transfers, err := s.store.Withdraw(ctx, actor, trackID, capabilityID, amount)
	if err != nil {
		return nil, s.fail(ctx, "withdraw", actor, trackID, err)
	}
	s.logger.InfoContext(ctx, "escrow withdrawal",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.Uint64(logging.FieldAmount, amount))
	return &SettlementView{Track: FromTrack(track), Transfers: FromTransfers(transfers)}, nil
}

// TransferOwnership re-homes a track and its capability to a new owner.
func (s *Service) TransferOwnership(ctx context.Context, actor market.Identity, trackID, capabilityID string, newOwner market.Identity) (*TrackView, error) {
	track, err := s.store.TransferOwnership(ctx, actor, trackID, capabilityID, newOwner)
	if err != nil {
		return nil, s.fail(ctx, "transfer ownership", actor, trackID, err)
	}
	s.logger.InfoContext(ctx, "ownership transferred",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.String("new_owner", string(newOwner)))
	view := FromTrack(track)
	return &view, nil
}

// Rate sets the buyer-of-record's one-time rating.
func (s *Service) Rate(ctx context.Context, actor market.Identity, trackID, claimID string, rating uint8) (*TrackView, error) {
	track, err := s.store.Rate(ctx, actor, trackID, claimID, rating)
	if err != nil {
		return nil, s.fail(ctx, "rate track", actor, trackID, err)
	}
	s.logger.InfoContext(ctx, "track rated",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.Int("rating", int(rating)))
	view := FromTrack(track)
	return &view, nil
}

// UpdateGenre replaces the track's genre tag.
func (s *Service) UpdateGenre(ctx context.Context, actor market.Identity, trackID, capabilityID, genre string) (*TrackView, error) {
	return s.metadataUpdate(ctx, actor, trackID, "genre", func() (*market.Track, error) {
		return s.store.UpdateGenre(ctx, actor, trackID, capabilityID, genre)
	})
}

// UpdateDescription replaces the track's description.
func (s *Service) UpdateDescription(ctx context.Context, actor market.Identity, trackID, capabilityID, description string) (*TrackView, error) {
	return s.metadataUpdate(ctx, actor, trackID, "description", func() (*market.Track, error) {
		return s.store.UpdateDescription(ctx, actor, trackID, capabilityID, description)
	})
}

// UpdatePrice replaces the track's unit price.
func (s *Service) UpdatePrice(ctx context.Context, actor market.Identity, trackID, capabilityID string, price uint64) (*TrackView, error) {
	return s.metadataUpdate(ctx, actor, trackID, "price", func() (*market.Track, error) {
		return s.store.UpdatePrice(ctx, actor, trackID, capabilityID, price)
	})
}

// UpdateStatusNote replaces the track's free-form status note.
func (s *Service) UpdateStatusNote(ctx context.Context, actor market.Identity, trackID, capabilityID, note string) (*TrackView, error) {
	return s.metadataUpdate(ctx, actor, trackID, "status note", func() (*market.Track, error) {
		return s.store.UpdateStatusNote(ctx, actor, trackID, capabilityID, note)
	})
}

// UpdateProfile replaces the track's display name and description together.
func (s *Service) UpdateProfile(ctx context.Context, actor market.Identity, trackID, capabilityID, name, description string) (*TrackView, error) {
	return s.metadataUpdate(ctx, actor, trackID, "profile", func() (*market.Track, error) {
		return s.store.UpdateProfile(ctx, actor, trackID, capabilityID, name, description)
	})
}

// AccountBalance reports the accumulated balance for an identity.
func (s *Service) AccountBalance(ctx context.Context, id market.Identity) (uint64, error) {
	return s.store.AccountBalance(ctx, id)
}

// Health aggregates ledger counts and runs the conservation audit.
func (s *Service) Health(ctx context.Context) (*HealthView, error) {
	summary, err := s.store.Health(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.store.VerifyConservation(ctx)
	if err != nil {
		return nil, err
	}
	if !report.OK() {
		s.logger.ErrorContext(ctx, "value conservation violated",
			logging.Int("violations", len(report.Violations)))
	}
	return &HealthView{
		Total:    summary.Total,
		Open:     summary.Open,
		Sold:     summary.Sold,
		Disputed: summary.Disputed,
		Balanced: report.OK(),
	}, nil
}

func (s *Service) metadataUpdate(ctx context.Context, actor market.Identity, trackID, field string, update func() (*market.Track, error)) (*TrackView, error) {
	track, err := update()
	if err != nil {
		return nil, s.fail(ctx, "update "+field, actor, trackID, err)
	}
	s.logger.InfoContext(ctx, "track updated",
		logging.String(logging.FieldActor, string(actor)),
		logging.String(logging.FieldTrackID, trackID),
		logging.String("field", field))
	view := FromTrack(track)
	return &view, nil
}

func (s *Service) fail(ctx context.Context, operation string, actor market.Identity, trackID string, err error) error {
	attrs := []logging.Attr{
		logging.String("operation", operation),
		logging.String(logging.FieldActor, string(actor)),
		logging.Error(err),
	}
	if trackID != "" {
		attrs = append(attrs, logging.String(logging.FieldTrackID, trackID))
	}
	if code := market.Code(err); code != "" {
		attrs = append(attrs, logging.String("code", code))
	}
	if requestID, ok := identity.RequestIDFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldRequestID, requestID))
	}
	s.logger.WarnContext(ctx, "operation rejected", logging.Args(attrs...)...)
	return err
}
