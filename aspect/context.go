package aspect

import "context"

type userIDContextKey struct{}

// WithUserID scopes default cache keys derived under ctx to userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext returns the user attached with WithUserID, if any.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(userIDContextKey{}).(string); ok {
		return id
	}
	return ""
}
