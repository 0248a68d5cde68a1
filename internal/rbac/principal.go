package rbac

import "context"

// Principal is the per-request snapshot of an authenticated session token.
// It is built once by a token provider and never mutated afterwards.
type Principal struct {
	UserID   int64
	Email    string
	Role     Role
	IsActive bool
	// Source names the provider that produced the principal ("session" or "jwt").
	Source string
}

// HasAnyRole reports whether the principal's role is part of allowed.
func (p *Principal) HasAnyRole(allowed RoleSet) bool {
	if p == nil {
		return false
	}
	return allowed.Contains(p.Role)
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
