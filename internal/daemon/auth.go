package daemon

import (
	"crypto/subtle"
	"errors"
)

// ErrBadToken rejects IPC callers presenting a wrong API token.
var ErrBadToken = errors.New("invalid api token")

// Authorize validates a caller-supplied token against the configured one.
// An empty configured token disables authentication entirely.
func (d *Daemon) Authorize(token string) error {
	expected := d.cfg.Market.APIToken
	if expected == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		return ErrBadToken
	}
	return nil
}
