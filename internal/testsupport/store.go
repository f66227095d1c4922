package testsupport

import (
	"context"
	"testing"

	"resonate/internal/catalog"
	"resonate/internal/config"
	"resonate/internal/market"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTrack lists a track for tests using the provided store and returns the
// track with its capability.
func NewTrack(t testing.TB, store *catalog.Store, owner market.Identity, spec market.TrackSpec) (*market.Track, *market.Capability) {
	t.Helper()

	track, cap, err := store.CreateTrack(context.Background(), owner, spec)
	if err != nil {
		t.Fatalf("store.CreateTrack: %v", err)
	}
	return track, cap
}
