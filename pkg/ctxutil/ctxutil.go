package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	actorKey     ctxKey = "actor"
	requestIDKey ctxKey = "request_id"
	ipAddressKey ctxKey = "ip_address"
	userAgentKey ctxKey = "user_agent"
)

// Actor is the authenticated principal carried through a request.
type Actor struct {
	UserID   uuid.UUID
	Username string
}

// WithActor stores the acting user in the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromCtx extracts the acting user from the context.
// Returns false if the value is missing, has a nil UUID, or is the wrong type.
func ActorFromCtx(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	if !ok || a.UserID == uuid.Nil {
		return Actor{}, false
	}
	return a, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithClientInfo stores the caller's IP address and user agent.
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ipAddressKey, ip)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

// IPAddressFromCtx extracts the caller's IP address.
// Returns an empty string if absent.
func IPAddressFromCtx(ctx context.Context) string {
	ip, _ := ctx.Value(ipAddressKey).(string)
	return ip
}

// UserAgentFromCtx extracts the caller's user agent.
// Returns an empty string if absent.
func UserAgentFromCtx(ctx context.Context) string {
	ua, _ := ctx.Value(userAgentKey).(string)
	return ua
}
