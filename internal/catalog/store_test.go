package catalog_test

import (
	"context"
	"errors"
	"testing"

	"resonate/internal/catalog"
	"resonate/internal/market"
	"resonate/internal/testsupport"
)

func TestOpenCreatesSchemaAndRoundTripsTrack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	track, cap := testsupport.NewTrack(t, store, "alice", market.TrackSpec{
		Name:        "Night Drive",
		Description: "synthwave single",
		Genre:       "electronic",
		Price:       500,
	})
	if track.ID == "" || cap.ID == "" {
		t.Fatal("expected generated identifiers")
	}

	fetched, err := store.GetTrack(ctx, track.ID)
	if err != nil {
		t.Fatalf("GetTrack failed: %v", err)
	}
	if fetched.Name != "Night Drive" || fetched.Owner != "alice" || fetched.Price != 500 {
		t.Fatalf("unexpected fetched track: %#v", fetched)
	}
	if fetched.State() != market.StateOpen {
		t.Fatalf("expected open state, got %s", fetched.State())
	}

	gotCap, err := store.CapabilityForTrack(ctx, track.ID)
	if err != nil {
		t.Fatalf("CapabilityForTrack failed: %v", err)
	}
	if gotCap.ID != cap.ID || gotCap.Holder != "alice" {
		t.Fatalf("unexpected capability: %#v", gotCap)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	track, _ := testsupport.NewTrack(t, store, "alice", market.TrackSpec{Name: "Persisted"})
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	fetched, err := reopened.GetTrack(context.Background(), track.ID)
	if err != nil {
		t.Fatalf("GetTrack after reopen failed: %v", err)
	}
	if fetched.Name != "Persisted" {
		t.Fatalf("unexpected track after reopen: %#v", fetched)
	}
}

func TestGetTrackNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.GetTrack(context.Background(), "missing"); !errors.Is(err, catalog.ErrTrackNotFound) {
		t.Fatalf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestListTracksFiltersByState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	open, _ := testsupport.NewTrack(t, store, "alice", market.TrackSpec{Name: "Open"})
	sold, _ := testsupport.NewTrack(t, store, "alice", market.TrackSpec{Name: "Sold"})
	disputed, _ := testsupport.NewTrack(t, store, "alice", market.TrackSpec{Name: "Disputed"})

	claim, err := store.FileBid(ctx, "bob", sold.ID)
	if err != nil {
		t.Fatalf("FileBid failed: %v", err)
	}
	if _, err := store.AcceptBid(ctx, "alice", sold.ID, claim.ID); err != nil {
		t.Fatalf("AcceptBid failed: %v", err)
	}
	if _, err := store.Dispute(ctx, "alice", disputed.ID); err != nil {
		t.Fatalf("Dispute failed: %v", err)
	}

	all, err := store.ListTracks(ctx)
	if err != nil {
		t.Fatalf("ListTracks failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(all))
	}

	openOnly, err := store.ListTracks(ctx, market.StateOpen)
	if err != nil {
		t.Fatalf("ListTracks(open) failed: %v", err)
	}
	if len(openOnly) != 1 || openOnly[0].ID != open.ID {
		t.Fatalf("unexpected open tracks: %#v", openOnly)
	}

	soldOrDisputed, err := store.ListTracks(ctx, market.StateSold, market.StateDisputed)
	if err != nil {
		t.Fatalf("ListTracks(sold, disputed) failed: %v", err)
	}
	if len(soldOrDisputed) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(soldOrDisputed))
	}
}

func TestClaimsForTrackReturnsAllClaims(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	track, _ := testsupport.NewTrack(t, store, "alice", market.TrackSpec{Name: "Contested"})
	for _, claimant := range []market.Identity{"bob", "carol", "dave"} {
		if _, err := store.FileBid(ctx, claimant, track.ID); err != nil {
			t.Fatalf("FileBid(%s) failed: %v", claimant, err)
		}
	}

	claims, err := store.ClaimsForTrack(ctx, track.ID)
	if err != nil {
		t.Fatalf("ClaimsForTrack failed: %v", err)
	}
	if len(claims) != 3 {
		t.Fatalf("expected 3 claims, got %d", len(claims))
	}
}

func TestAccountBalanceDefaultsToZero(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	balance, err := store.AccountBalance(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("AccountBalance failed: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero balance, got %d", balance)
	}
}

func TestHealthCountsByState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewTrack(t, store, "alice", market.TrackSpec{Name: "One"})
	track, _ := testsupport.NewTrack(t, store, "alice", market.TrackSpec{Name: "Two"})
	if _, err := store.Dispute(ctx, "alice", track.ID); err != nil {
		t.Fatalf("Dispute failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Open != 1 || health.Disputed != 1 || health.Sold != 0 {
		t.Fatalf("unexpected health summary: %#v", health)
	}
}

func TestCheckHealthReportsReadableDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.NewTrack(t, store, "alice", market.TrackSpec{Name: "Diag"})

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TablesPresent {
		t.Fatalf("unexpected database health: %#v", health)
	}
	if health.TrackCount != 1 {
		t.Fatalf("expected 1 track, got %d", health.TrackCount)
	}
}
