package context

import (
	"context"
	"strings"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	dealerIDKey  ctxKey = "dealer_id"
	actorRoleKey ctxKey = "actor_role"
	actorIDKey   ctxKey = "actor_id"
	clientIPKey  ctxKey = "client_ip"
	userAgentKey ctxKey = "user_agent"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, requestIDKey)
}

func WithDealerID(ctx context.Context, dealerID string) context.Context {
	return withString(ctx, dealerIDKey, dealerID)
}

func DealerIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, dealerIDKey)
}

// WithActor records who is acting on the request for log enrichment.
func WithActor(ctx context.Context, role, id string) context.Context {
	ctx = withString(ctx, actorRoleKey, role)
	return withString(ctx, actorIDKey, id)
}

func ActorFromContext(ctx context.Context) (string, string) {
	return stringFrom(ctx, actorRoleKey), stringFrom(ctx, actorIDKey)
}

func WithClient(ctx context.Context, ipAddress, userAgent string) context.Context {
	ctx = withString(ctx, clientIPKey, ipAddress)
	return withString(ctx, userAgentKey, userAgent)
}

func ClientFromContext(ctx context.Context) (string, string) {
	return stringFrom(ctx, clientIPKey), stringFrom(ctx, userAgentKey)
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(key).(string); ok {
		return value
	}
	return ""
}
