// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the values; services and stores read them without pulling
// in net/http. Tests inject values directly:
//
//	ctx = requestcontext.WithRequestID(ctx, "req-123")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "finaudit/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	requesterIDKey struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Requester retrieves the authenticated requester id from the context.
// Returns the zero value if not set.
func Requester(ctx context.Context) id.RequesterID {
	if r, ok := ctx.Value(requesterIDKey{}).(id.RequesterID); ok {
		return r
	}
	return ""
}

// WithRequester injects a requester id into the context.
func WithRequester(ctx context.Context, requester id.RequesterID) context.Context {
	return context.WithValue(ctx, requesterIDKey{}, requester)
}

// RequestID retrieves the correlation id from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts such as the CLI and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for tests and for
// keeping one consistent timestamp across a pipeline run.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
