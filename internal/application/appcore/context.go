package appcore

import "context"

type correlationKey struct{}

// WithCorrelationID stores the request correlation ID; middleware sets it
// from X-Request-ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// GetCorrelationID returns "" when none was set.
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
