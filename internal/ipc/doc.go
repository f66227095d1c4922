// Package ipc exposes ledger operations over JSON-RPC on a Unix domain
// socket. The CLI is the only intended client; every mutating request
// carries the caller identity and the shared API token.
package ipc
