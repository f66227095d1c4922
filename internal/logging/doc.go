// Package logging builds the slog loggers used across the daemon and CLI.
//
// Two handler formats are supported: a human-oriented console handler that
// prefixes messages with a component label and renders attrs as key=value
// pairs, and a JSON handler for machine ingestion. Construction flows from
// config so the daemon log file and stdout receive the same records.
package logging
