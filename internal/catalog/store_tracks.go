package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"resonate/internal/market"
)

// CreateTrack lists a new track and persists the capability minted for it.
func (s *Store) CreateTrack(ctx context.Context, creator market.Identity, spec market.TrackSpec) (*market.Track, *market.Capability, error) {
	track, cap, err := market.CreateTrack(creator, spec)
	if err != nil {
		return nil, nil, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tracks (`+trackColumns+`)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			track.ID,
			string(track.Owner),
			track.Name,
			track.Description,
			track.StatusNote,
			track.Genre,
			int64(track.Price),
			int64(track.Escrow.Value()),
			boolToInt(track.Sold),
			boolToInt(track.Disputed),
			nullableRating(track.Rating),
			formatTimestamp(track.CreatedAt),
			formatTimestamp(track.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert track: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO capabilities (id, track_id, holder) VALUES (?, ?, ?)`,
			cap.ID, cap.TrackID, string(cap.Holder),
		); err != nil {
			return fmt.Errorf("insert capability: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return track, cap, nil
}

// GetTrack fetches a track by identifier.
func (s *Store) GetTrack(ctx context.Context, id string) (*market.Track, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return track, nil
}

// ListTracks returns tracks filtered by lifecycle state (or all tracks when
// no state is provided), ordered by creation time.
func (s *Store) ListTracks(ctx context.Context, states ...market.State) ([]*market.Track, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	wanted := make(map[market.State]struct{}, len(states))
	for _, state := range states {
		wanted[state] = struct{}{}
	}

	var tracks []*market.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		if len(wanted) > 0 {
			if _, ok := wanted[track.State()]; !ok {
				continue
			}
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// GetClaim fetches a claim by identifier.
func (s *Store) GetClaim(ctx context.Context, id string) (*market.Claim, error) {
	ctx = ensureContext(ctx)
	var (
		claim     market.Claim
		claimant  string
		createdAt string
	)
	row := s.db.QueryRowContext(ctx, `SELECT id, track_id, claimant, created_at FROM claims WHERE id = ?`, id)
	err := row.Scan(&claim.ID, &claim.TrackID, &claimant, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrClaimNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	claim.Claimant = market.Identity(claimant)
	claim.CreatedAt = parseTimestamp(createdAt)
	return &claim, nil
}

// ClaimsForTrack returns all claims filed against a track, oldest first.
func (s *Store) ClaimsForTrack(ctx context.Context, trackID string) ([]*market.Claim, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, track_id, claimant, created_at FROM claims WHERE track_id = ? ORDER BY created_at`, trackID)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var claims []*market.Claim
	for rows.Next() {
		var (
			claim     market.Claim
			claimant  string
			createdAt string
		)
		if err := rows.Scan(&claim.ID, &claim.TrackID, &claimant, &createdAt); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claim.Claimant = market.Identity(claimant)
		claim.CreatedAt = parseTimestamp(createdAt)
		claims = append(claims, &claim)
	}
	return claims, rows.Err()
}

// CapabilityForTrack returns the capability bound to a track.
func (s *Store) CapabilityForTrack(ctx context.Context, trackID string) (*market.Capability, error) {
	ctx = ensureContext(ctx)
	var (
		cap    market.Capability
		holder string
	)
	row := s.db.QueryRowContext(ctx, `SELECT id, track_id, holder FROM capabilities WHERE track_id = ?`, trackID)
	err := row.Scan(&cap.ID, &cap.TrackID, &holder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: track %s", ErrCapabilityNotFound, trackID)
	}
	if err != nil {
		return nil, fmt.Errorf("get capability: %w", err)
	}
	cap.Holder = market.Identity(holder)
	return &cap, nil
}

// SaleRecordsForTrack returns the immutable sale records minted for a track.
func (s *Store) SaleRecordsForTrack(ctx context.Context, trackID string) ([]*market.SaleRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, track_id, owner, amount, created_at FROM sale_records WHERE track_id = ? ORDER BY created_at`, trackID)
	if err != nil {
		return nil, fmt.Errorf("list sale records: %w", err)
	}
	defer rows.Close()
	return scanSaleRecords(rows)
}

// SaleRecords returns every sale record in the ledger, oldest first.
func (s *Store) SaleRecords(ctx context.Context) ([]*market.SaleRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, track_id, owner, amount, created_at FROM sale_records ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list sale records: %w", err)
	}
	defer rows.Close()
	return scanSaleRecords(rows)
}

func scanSaleRecords(rows *sql.Rows) ([]*market.SaleRecord, error) {
	var records []*market.SaleRecord
	for rows.Next() {
		var (
			record    market.SaleRecord
			owner     string
			amount    int64
			createdAt string
		)
		if err := rows.Scan(&record.ID, &record.TrackID, &owner, &amount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan sale record: %w", err)
		}
		record.Owner = market.Identity(owner)
		record.Amount = uint64(amount)
		record.CreatedAt = parseTimestamp(createdAt)
		records = append(records, &record)
	}
	return records, rows.Err()
}

// AccountBalance returns the accumulated balance for an identity. Unknown
// identities report zero.
func (s *Store) AccountBalance(ctx context.Context, id market.Identity) (uint64, error) {
	ctx = ensureContext(ctx)
	var balance int64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE identity = ?`, string(id)).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get account balance: %w", err)
	}
	return uint64(balance), nil
}
