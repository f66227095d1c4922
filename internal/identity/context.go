// Package identity carries the authenticated caller identity through
// context for logging and auditing. The daemon never authenticates on its
// own; it trusts the identity the hosting environment supplies per request.
package identity

import (
	"context"

	"github.com/google/uuid"

	"resonate/internal/market"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
	operationKey contextKey = "operation"
)

// WithActor annotates context with the authenticated caller identity.
func WithActor(ctx context.Context, actor market.Identity) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the caller identity if present.
func ActorFromContext(ctx context.Context) (market.Identity, bool) {
	if actor, ok := ctx.Value(actorKey).(market.Identity); ok && actor != "" {
		return actor, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// WithOperation annotates context with the settlement operation name.
func WithOperation(ctx context.Context, operation string) context.Context {
	if operation == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	if operation, ok := ctx.Value(operationKey).(string); ok && operation != "" {
		return operation, true
	}
	return "", false
}

// NewRequestID mints a fresh correlation identifier.
func NewRequestID() string {
	return uuid.NewString()
}
