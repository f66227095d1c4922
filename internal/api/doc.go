// Package api exposes marketplace operations in a transport-friendly form.
// It wraps the catalog store, converts domain entities into JSON-tagged
// views, and attaches stable error codes so CLI and IPC consumers never
// depend on domain internals.
package api
