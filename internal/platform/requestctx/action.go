// Package requestctx carries console action metadata through request contexts.
package requestctx

import "context"

// actionContextKey is the context key for the running console action label.
type actionContextKey struct{}

// WithAction stores the console action label in context.
func WithAction(ctx context.Context, label string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actionContextKey{}, label)
}

// ActionFromContext returns the console action label stored in context.
func ActionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(actionContextKey{}).(string)
	return value
}
