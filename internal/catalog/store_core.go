package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"resonate/internal/market"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// withTx runs fn inside one transaction, retrying the whole unit when the
// database reports busy. This is the all-or-nothing commit every settlement
// operation relies on.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

const trackColumns = `id, owner, name, description, status_note, genre, price, escrow, sold, disputed, rating, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (*market.Track, error) {
	var (
		track     market.Track
		owner     string
		escrow    int64
		sold      int64
		disputed  int64
		rating    sql.NullInt64
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&track.ID, &owner, &track.Name, &track.Description, &track.StatusNote,
		&track.Genre, &track.Price, &escrow, &sold, &disputed, &rating,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	track.Owner = market.Identity(owner)
	track.Escrow = market.NewEscrow(uint64(escrow))
	track.Sold = sold != 0
	track.Disputed = disputed != 0
	if rating.Valid {
		value := uint8(rating.Int64)
		track.Rating = &value
	}
	track.CreatedAt = parseTimestamp(createdAt)
	track.UpdatedAt = parseTimestamp(updatedAt)
	return &track, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}

func nullableRating(rating *uint8) any {
	if rating == nil {
		return nil
	}
	return int64(*rating)
}

func getTrackTx(ctx context.Context, tx *sql.Tx, id string) (*market.Track, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return track, nil
}

func getClaimTx(ctx context.Context, tx *sql.Tx, id string) (*market.Claim, error) {
	var (
		claim     market.Claim
		claimant  string
		createdAt string
	)
	row := tx.QueryRowContext(ctx, `SELECT id, track_id, claimant, created_at FROM claims WHERE id = ?`, id)
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

func getCapabilityTx(ctx context.Context, tx *sql.Tx, id string) (*market.Capability, error) {
	var (
		cap    market.Capability
		holder string
	)
	row := tx.QueryRowContext(ctx, `SELECT id, track_id, holder FROM capabilities WHERE id = ?`, id)
	err := row.Scan(&cap.ID, &cap.TrackID, &holder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCapabilityNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get capability: %w", err)
	}
	cap.Holder = market.Identity(holder)
	return &cap, nil
}

func saveTrackTx(ctx context.Context, tx *sql.Tx, track *market.Track) error {
	track.UpdatedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE tracks
         SET owner = ?, name = ?, description = ?, status_note = ?, genre = ?,
             price = ?, escrow = ?, sold = ?, disputed = ?, rating = ?, updated_at = ?
         WHERE id = ?`,
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
		formatTimestamp(track.UpdatedAt),
		track.ID,
	)
	if err != nil {
		return fmt.Errorf("update track: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, track.ID)
	}
	return nil
}

func saveCapabilityTx(ctx context.Context, tx *sql.Tx, cap *market.Capability) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE capabilities SET holder = ? WHERE id = ?`,
		string(cap.Holder), cap.ID,
	); err != nil {
		return fmt.Errorf("update capability: %w", err)
	}
	return nil
}

// recordDepositTx journals value entering a track's escrow.
func recordDepositTx(ctx context.Context, tx *sql.Tx, trackID, operation string, amount uint64) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (track_id, entry_type, account, amount, operation, created_at)
         VALUES (?, 'deposit', NULL, ?, ?, ?)`,
		trackID, int64(amount), operation, formatTimestamp(time.Now().UTC()),
	); err != nil {
		return fmt.Errorf("record deposit: %w", err)
	}
	return nil
}

// applyTransfersTx credits recipient accounts and journals value leaving a
// track's escrow. Runs inside the same transaction as the state change that
// produced the transfers.
func applyTransfersTx(ctx context.Context, tx *sql.Tx, trackID, operation string, transfers []market.Transfer) error {
	now := formatTimestamp(time.Now().UTC())
	for _, transfer := range transfers {
		if transfer.Amount == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (identity, balance) VALUES (?, ?)
             ON CONFLICT(identity) DO UPDATE SET balance = balance + excluded.balance`,
			string(transfer.To), int64(transfer.Amount),
		); err != nil {
			return fmt.Errorf("credit account: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_entries (track_id, entry_type, account, amount, operation, created_at)
             VALUES (?, 'transfer', ?, ?, ?, ?)`,
			trackID, string(transfer.To), int64(transfer.Amount), operation, now,
		); err != nil {
			return fmt.Errorf("record transfer: %w", err)
		}
	}
	return nil
}
