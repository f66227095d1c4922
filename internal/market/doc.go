// Package market holds the marketplace domain model and the settlement
// engine that moves tracks through their sale lifecycle.
//
// Key responsibilities:
//   - The Track entity with its per-track escrow balance, sale and dispute
//     flags, and set-once buyer rating.
//   - The Capability token minted at track creation that gates every
//     economic or metadata mutation.
//   - The Claim entity recording a buyer's purchase intent.
//   - Settlement operations (bid, accept, dispute, resolve, refund,
//     release, withdraw) expressed as pure functions over in-memory
//     entities. Each operation checks every precondition before mutating
//     anything and returns the value transfers it produced.
//
// The package never touches persistence. Callers (the catalog store) load
// entities, invoke an operation, and persist the mutated entities together
// with the returned transfers in one atomic commit.
package market
