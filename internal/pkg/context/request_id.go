// Package context carries the request id across layer boundaries so
// transport, services and the outbox can stamp the same trace id
// without widening every signature.
package context

import "context"

type ctxKeyRequestID struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

// GetRequestID returns the request id or "" when none was set, e.g. on
// background work that didn't start from an HTTP request.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID{}).(string); ok {
		return s
	}
	return ""
}

// GetRequestIDOr is GetRequestID with a fallback for surfaces that must
// always show something, like the error envelope.
func GetRequestIDOr(ctx context.Context, fallback string) string {
	if id := GetRequestID(ctx); id != "" {
		return id
	}
	return fallback
}
