package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"resonate/internal/market"
)

// Operation names journaled with every ledger entry.
const (
	opDeposit       = "deposit"
	opWithdraw      = "withdraw"
	opRelease       = "release"
	opResolve       = "resolve"
	opPartialRefund = "partial_refund"
)

// FileBid records a new claim against a track.
func (s *Store) FileBid(ctx context.Context, actor market.Identity, trackID string) (*market.Claim, error) {
	var claim *market.Claim
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		track, err := getTrackTx(ctx, tx, trackID)
		if err != nil {
			return err
		}
		claim, err = market.FileBid(actor, track)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO claims (id, track_id, claimant, created_at) VALUES (?, ?, ?, ?)`,
			claim.ID, claim.TrackID, string(claim.Claimant), formatTimestamp(claim.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// AcceptBid marks the track sold from the seller side.
func (s *Store) AcceptBid(ctx context.Context, actor market.Identity, trackID, claimID string) (*market.Track, error) {
	return s.mutateWithClaim(ctx, trackID, claimID, func(track *market.Track, claim *market.Claim) error {
		return market.AcceptBid(actor, track, claim)
	})
}

// MarkSold marks the track sold from the buyer side.
func (s *Store) MarkSold(ctx context.Context, actor market.Identity, trackID, claimID string) (*market.Track, error) {
	return s.mutateWithClaim(ctx, trackID, claimID, func(track *market.Track, claim *market.Claim) error {
		return market.MarkSold(actor, track, claim)
	})
}

// Dispute raises a dispute on a track.
func (s *Store) Dispute(ctx context.Context, actor market.Identity, trackID string) (*market.Track, error) {
	return s.mutateTrack(ctx, trackID, func(track *market.Track) error {
		return market.DisputeTrack(actor, track)
	})
}

// Resolve settles an open dispute all-or-nothing and credits the winning
// party's account.
func (s *Store) Resolve(ctx context.Context, actor market.Identity, trackID, claimID string, inFavorOfClient bool) (*market.Track, []market.Transfer, error) {
	var (
		track     *market.Track
		transfers []market.Transfer
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		track, err = getTrackTx(ctx, tx, trackID)
		if err != nil {
			return err
		}
		claim, err := getClaimTx(ctx, tx, claimID)
		if err != nil {
			return err
		}
		transfers, err = market.ResolveDispute(actor, track, claim, inFavorOfClient)
		if err != nil {
			return err
		}
		if err := saveTrackTx(ctx, tx, track); err != nil {
			return err
		}
		return applyTransfersTx(ctx, tx, track.ID, opResolve, transfers)
	})
	if err != nil {
		return nil, nil, err
	}
	return track, transfers, nil
}

// PartialRefund settles an open dispute with an exact split between claimant
// and owner.
func (s *Store) PartialRefund(ctx context.Context, actor market.Identity, trackID, claimID string, refund uint64) (*market.Track, []market.Transfer, error) {
	var (
		track     *market.Track
		transfers []market.Transfer
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		track, err = getTrackTx(ctx, tx, trackID)
		if err != nil {
			return err
		}
		claim, err := getClaimTx(ctx, tx, claimID)
		if err != nil {
			return err
		}
		transfers, err = market.PartialRefund(actor, track, claim, refund)
		if err != nil {
			return err
		}
		if err := saveTrackTx(ctx, tx, track); err != nil {
			return err
		}
		return applyTransfersTx(ctx, tx, track.ID, opPartialRefund, transfers)
	})
	if err != nil {
		return nil, nil, err
	}
	return track, transfers, nil
}

// Release drains the escrow to the owner on an undisputed sale and mints the
// sale record, all in one transaction.
func (s *Store) Release(ctx context.Context, actor market.Identity, trackID, claimID string) (*market.SaleRecord, []market.Transfer, error) {
	var (
		record    *market.SaleRecord
		transfers []market.Transfer
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		track, err := getTrackTx(ctx, tx, trackID)
		if err != nil {
			return err
		}
		claim, err := getClaimTx(ctx, tx, claimID)
		if err != nil {
			return err
		}
		record, transfers, err = market.ReleasePayment(actor, track, claim)
		if err != nil {
			return err
		}
		if err := saveTrackTx(ctx, tx, track); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sale_records (id, track_id, owner, amount, created_at) VALUES (?, ?, ?, ?, ?)`,
			record.ID, record.TrackID, string(record.Owner), int64(record.Amount), formatTimestamp(record.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert sale record: %w", err)
		}
		return applyTransfersTx(ctx, tx, track.ID, opRelease, transfers)
	})
	if err != nil {
		return nil, nil, err
	}
	return record, transfers, nil
}

// Deposit adds funds to a track's escrow and journals the inflow.
func (s *Store) Deposit(ctx context.Context, actor market.Identity, trackID string, amount uint64) (*market.Track, error) {
	var track *market.Track
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		track, err = getTrackTx(ctx, tx, trackID)
		if err != nil {
			return err
		}
		if err := market.AddToEscrow(actor, track, amount); err != nil {
			return err
		}
		if err := saveTrackTx(ctx, tx, track); err != nil {
			return err
		}
		return recordDepositTx(ctx, tx, track.ID, opDeposit, amount)
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

// Withdraw pulls uncommitted escrow back to the owner's account. Requires
// presenting the track's capability.
func (s *Store) Withdraw(ctx context.Context, actor market.Identity, trackID, capabilityID string, amount uint64) (*market.Track, []market.Transfer, error) {
	var (
		track     *market.Track
		transfers []market.Transfer
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		track, err = getTrackTx(ctx, tx, trackID)
		if err != nil {
			return err
		}
		cap, err := getCapabilityTx(ctx, tx, capabilityID)
		if err != nil {
			return err
		}
		transfers, err = market.WithdrawFromEscrow(actor, cap, track, amount)
		if err != nil {
			return err
		}
		if err := saveTrackTx(ctx, tx, track); err != nil {
			return err
		}
		return applyTransfersTx(ctx, tx, track.ID, opWithdraw, transfers)
	})
	if err != nil {
		return nil, nil, err
	}
	return track, transfers, nil
}

// TransferOwnership re-homes a track and its capability to a new owner.
func (s *Store) TransferOwnership(ctx context.Context, actor market.Identity, trackID, capabilityID string, newOwner market.Identity) (*market.Track, error) {
	return s.mutateWithCapability(ctx, trackID, capabilityID, func(track *market.Track, cap *market.Capability) error {
		return market.TransferOwnership(actor, cap, track, newOwner)
	})
}

// Rate sets the buyer-of-record's one-time rating on a track.
func (s *Store) Rate(ctx context.Context, actor market.Identity, trackID, claimID string, rating uint8) (*market.Track, error) {
	return s.mutateWithClaim(ctx, trackID, claimID, func(track *market.Track, claim *market.Claim) error {
		return market.RateTrack(actor, track, claim, rating)
	})
}

// UpdateGenre replaces the track's genre tag.
func (s *Store) UpdateGenre(ctx context.Context, actor market.Identity, trackID, capabilityID, genre string) (*market.Track, error) {
	return s.mutateWithCapability(ctx, trackID, capabilityID, func(track *market.Track, cap *market.Capability) error {
		return market.UpdateGenre(actor, cap, track, genre)
	})
}

// UpdateDescription replaces the track's description.
func (s *Store) UpdateDescription(ctx context.Context, actor market.Identity, trackID, capabilityID, description string) (*market.Track, error) {
	return s.mutateWithCapability(ctx, trackID, capabilityID, func(track *market.Track, cap *market.Capability) error {
		return market.UpdateDescription(actor, cap, track, description)
	})
}

// UpdatePrice replaces the track's unit price.
func (s *Store) UpdatePrice(ctx context.Context, actor market.Identity, trackID, capabilityID string, price uint64) (*market.Track, error) {
	return s.mutateWithCapability(ctx, trackID, capabilityID, func(track *market.Track, cap *market.Capability) error {
		return market.UpdatePrice(actor, cap, track, price)
	})
}

// UpdateStatusNote replaces the track's free-form status note.
func (s *Store) UpdateStatusNote(ctx context.Context, actor market.Identity, trackID, capabilityID, note string) (*market.Track, error) {
	return s.mutateWithCapability(ctx, trackID, capabilityID, func(track *market.Track, cap *market.Capability) error {
		return market.UpdateStatusNote(actor, cap, track, note)
	})
}

// UpdateProfile replaces the track's display name and description together.
func (s *Store) UpdateProfile(ctx context.Context, actor market.Identity, trackID, capabilityID, name, description string) (*market.Track, error) {
	return s.mutateWithCapability(ctx, trackID, capabilityID, func(track *market.Track, cap *market.Capability) error {
		return market.UpdateProfile(actor, cap, track, name, description)
	})
}

func (s *Store) mutateTrack(ctx context.Context, trackID string, mutate func(*market.Track) error) (*market.Track, error) {
	var track *market.Track
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		track, err = getTrackTx(ctx, tx, trackID)
		if err != nil {
			return err
		}
		if err := mutate(track); err != nil {
			return err
		}
		return saveTrackTx(ctx, tx, track)
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

func (s *Store) mutateWithClaim(ctx context.Context, trackID, claimID string, mutate func(*market.Track, *market.Claim) error) (*market.Track, error) {
	var track *market.Track
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		track, err = getTrackTx(ctx, tx, trackID)
		if err != nil {
			return err
		}
		claim, err := getClaimTx(ctx, tx, claimID)
		if err != nil {
			return err
		}
		if err := mutate(track, claim); err != nil {
			return err
		}
		return saveTrackTx(ctx, tx, track)
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

func (s *Store) mutateWithCapability(ctx context.Context, trackID, capabilityID string, mutate func(*market.Track, *market.Capability) error) (*market.Track, error) {
	var track *market.Track
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		track, err = getTrackTx(ctx, tx, trackID)
		if err != nil {
			return err
		}
		cap, err := getCapabilityTx(ctx, tx, capabilityID)
		if err != nil {
			return err
		}
		if err := mutate(track, cap); err != nil {
			return err
		}
		if err := saveTrackTx(ctx, tx, track); err != nil {
			return err
		}
		return saveCapabilityTx(ctx, tx, cap)
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}
