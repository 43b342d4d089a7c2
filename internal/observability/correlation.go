package observability

import (
	"context"
	"strings"
)

type correlationKey struct{}

// WithCorrelation returns ctx carrying the request correlation identifier. Blank ids leave
// ctx untouched.
func WithCorrelation(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationFromContext returns the identifier stored by WithCorrelation, or "".
func CorrelationFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
