// Command resonate is the operator CLI for the marketplace ledger daemon.
// It talks to resonated over the Unix domain socket and renders results as
// tables or JSON.
package main
