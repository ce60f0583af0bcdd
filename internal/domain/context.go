package domain

import "context"

type principalKey struct{}

// Principal is the authenticated caller attached to each request.
type Principal struct {
	UserID string
	Role   Role
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
