package identity_test

import (
	"context"
	"testing"

	"resonate/internal/identity"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = identity.WithActor(ctx, "alice")
	ctx = identity.WithRequestID(ctx, "req-1")
	ctx = identity.WithOperation(ctx, "release_payment")

	if actor, ok := identity.ActorFromContext(ctx); !ok || actor != "alice" {
		t.Fatalf("unexpected actor: %v %v", actor, ok)
	}
	if id, ok := identity.RequestIDFromContext(ctx); !ok || id != "req-1" {
		t.Fatalf("unexpected request id: %v %v", id, ok)
	}
	if op, ok := identity.OperationFromContext(ctx); !ok || op != "release_payment" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := identity.WithActor(context.Background(), "")
	if _, ok := identity.ActorFromContext(ctx); ok {
		t.Fatal("expected no actor value")
	}
}

func TestNewRequestIDUnique(t *testing.T) {
	if identity.NewRequestID() == identity.NewRequestID() {
		t.Fatal("expected unique request ids")
	}
}
