package domain

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Principal is an authenticated caller with claims remapped into the
// gateway's own vocabulary. Downstream code never sees the issuer's
// native claim names.
type Principal struct {
	UserID   uuid.UUID  `json:"user_id"`
	UserName string     `json:"user_name"`
	Email    string     `json:"email,omitempty"`
	Roles    []string   `json:"roles,omitempty"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
	Scopes   []string   `json:"scopes,omitempty"`
}

// HasScope reports whether the token granted the named scope.
func (p *Principal) HasScope(scope string) bool {
	return slices.Contains(p.Scopes, scope)
}

// HasRole reports whether the principal carries the named role claim.
func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

type principalKey struct{}

// WithPrincipal attaches the authenticated principal to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal set by the auth middleware, or nil
// for anonymous requests.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
