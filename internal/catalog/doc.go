// Package catalog persists the marketplace entities and executes settlement
// operations atomically.
//
// Key responsibilities:
//   - SQLite-backed storage of tracks, claims, capabilities, sale records,
//     and recipient accounts, with an embedded schema and a recorded schema
//     version that refuses mismatched databases.
//   - Running each settlement operation inside one transaction: load the
//     entities, invoke the pure engine function from internal/market,
//     persist the mutated rows, credit recipient accounts, and append audit
//     ledger entries. A precondition failure rolls back with no observable
//     effect.
//   - The conservation audit: every deposit and transfer is journaled so
//     the invariant (deposits = transfers out + resident escrow) can be
//     verified at any time.
//
// The store is the serialization point the engine relies on. Operations on
// the same database are totally ordered by the transaction boundary; the
// engine itself takes no locks.
package catalog
