// Package daemon coordinates the long-running ledger process: it owns the
// catalog store, enforces single-instance execution via a lock file, and
// authenticates IPC callers against the configured token.
package daemon
