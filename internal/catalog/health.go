package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// HealthSummary describes aggregated track counts per lifecycle state.
type HealthSummary struct {
	Total    int
	Open     int
	Sold     int
	Disputed int
}

// DatabaseHealth captures diagnostic information about the ledger database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    bool
	TrackCount       int
	Error            string
}

// ConservationReport compares journaled flows against live balances. For
// every track, deposits must equal its current escrow plus everything
// transferred out of it.
type ConservationReport struct {
	Tracks     int
	Violations []ConservationViolation
}

// OK reports whether every track's value is accounted for.
func (r ConservationReport) OK() bool {
	return len(r.Violations) == 0
}

// ConservationViolation names one track whose flows do not balance.
type ConservationViolation struct {
	TrackID   string
	Deposits  uint64
	Transfers uint64
	Escrow    uint64
}

// Health aggregates track state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT sold, disputed, COUNT(1) FROM tracks GROUP BY sold, disputed`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("track stats: %w", err)
	}
	defer rows.Close()

	health := HealthSummary{}
	for rows.Next() {
		var sold, disputed int64
		var count int
		if err := rows.Scan(&sold, &disputed, &count); err != nil {
			return HealthSummary{}, err
		}
		health.Total += count
		switch {
		case disputed != 0:
			health.Disputed += count
		case sold != 0:
			health.Sold += count
		default:
			health.Open += count
		}
	}
	return health, rows.Err()
}

// CheckHealth returns diagnostic information about the ledger database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("ledger database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat ledger database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("ledger database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("ledger database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping ledger database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'tracks'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TablesPresent = false
			return health, nil
		}
		health.Error = err.Error()
		return health, fmt.Errorf("query table info: %w", err)
	}
	health.TablesPresent = true

	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM tracks").Scan(&health.TrackCount); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count tracks: %w", err)
	}

	return health, nil
}

// VerifyConservation audits every track's value flows against the journal:
// total deposits must equal current escrow plus total outbound transfers.
func (s *Store) VerifyConservation(ctx context.Context) (ConservationReport, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `
        SELECT t.id,
               t.escrow,
               COALESCE(SUM(CASE WHEN le.entry_type = 'deposit'  THEN le.amount ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN le.entry_type = 'transfer' THEN le.amount ELSE 0 END), 0)
        FROM tracks t
        LEFT JOIN ledger_entries le ON le.track_id = t.id
        GROUP BY t.id`)
	if err != nil {
		return ConservationReport{}, fmt.Errorf("conservation query: %w", err)
	}
	defer rows.Close()

	report := ConservationReport{}
	for rows.Next() {
		var (
			trackID   string
			escrow    int64
			deposits  int64
			transfers int64
		)
		if err := rows.Scan(&trackID, &escrow, &deposits, &transfers); err != nil {
			return ConservationReport{}, err
		}
		report.Tracks++
		if deposits != escrow+transfers {
			report.Violations = append(report.Violations, ConservationViolation{
				TrackID:   trackID,
				Deposits:  uint64(deposits),
				Transfers: uint64(transfers),
				Escrow:    uint64(escrow),
			})
		}
	}
	return report, rows.Err()
}
