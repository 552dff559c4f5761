package auth

import "context"

type contextKey string

const claimsContextKey contextKey = "bookloreClaims"

// LocalUser is the user id assumed when auth is disabled.
const LocalUser = "local"

// WithClaims attaches JWT claims to the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext retrieves JWT claims from context if present.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// UserID returns the authenticated user id, or LocalUser when the request
// carries no claims.
func UserID(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok && claims.UserID != "" {
		return claims.UserID
	}
	return LocalUser
}
