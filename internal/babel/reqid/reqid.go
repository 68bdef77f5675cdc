// Package reqid carries a request correlation ID through a context.Context
// so it survives from the HTTP layer, where it originates, down into the
// pipeline's own log lines, without the pipeline importing httpapi.
package reqid

import "context"

type contextKey struct{}

var key = contextKey{}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key, id)
}

// FromContext returns the request ID carried by ctx, or "" if none was set.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(key).(string)
	return id
}
