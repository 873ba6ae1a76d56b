package auth

import (
	"context"

	"github.com/inkpost/inkpost/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal adds the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext retrieves the principal from the context.
// Returns nil if the request is not authenticated.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, ok := ctx.Value(principalContextKey).(*model.Principal)
	if !ok {
		return nil
	}
	return p
}

// AccountIDFromContext returns the authenticated account ID, or 0.
func AccountIDFromContext(ctx context.Context) int64 {
	p := PrincipalFromContext(ctx)
	if p == nil {
		return 0
	}
	return p.AccountID
}
