package daemon_test

import (
	"context"
	"errors"
	"testing"

	"resonate/internal/daemon"
	"resonate/internal/logging"
	"resonate/internal/market"
	"resonate/internal/testsupport"
)

func newDaemon(t *testing.T, opts ...testsupport.ConfigOption) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestDaemonStartStopLifecycle(t *testing.T) {
	d := newDaemon(t)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}

	status := d.Status(ctx)
	if !status.Running || status.PID == 0 {
		t.Fatalf("unexpected status: %#v", status)
	}
	if !status.Balanced {
		t.Fatal("expected empty ledger to be balanced")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to report stopped")
	}
	select {
	case <-d.Done():
	default:
		t.Fatal("expected Done to fire after Stop")
	}
	if !d.Stopping() {
		t.Fatal("expected Stopping to report true after Stop")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected Start after Stop to fail")
	}
}

func TestDaemonStatusCountsTracks(t *testing.T) {
	d := newDaemon(t)
	ctx := context.Background()

	if _, err := d.Service().CreateTrack(ctx, "alice", market.TrackSpec{Name: "One"}); err != nil {
		t.Fatalf("CreateTrack failed: %v", err)
	}

	status := d.Status(ctx)
	if status.Ledger.Total != 1 || status.Ledger.Open != 1 {
		t.Fatalf("unexpected ledger summary: %#v", status.Ledger)
	}
}

func TestAuthorize(t *testing.T) {
	open := newDaemon(t)
	if err := open.Authorize("anything"); err != nil {
		t.Fatalf("expected open daemon to accept any token, got %v", err)
	}

	guarded := newDaemon(t, testsupport.WithAPIToken("secret"))
	if err := guarded.Authorize("secret"); err != nil {
		t.Fatalf("expected matching token to pass, got %v", err)
	}
	if err := guarded.Authorize("wrong"); !errors.Is(err, daemon.ErrBadToken) {
		t.Fatalf("expected ErrBadToken, got %v", err)
	}
}
