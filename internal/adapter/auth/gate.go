package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/domain"
)

// ClaimMapping translates the issuer's native claim names into the
// gateway's own vocabulary. It is fixed at construction and never
// mutated afterwards.
type ClaimMapping struct {
	UserID   string // default "sub"
	UserName string // default "name"
	Email    string // default "email"
	Role     string // default "role"
	Tenant   string // default "tenant_id"
	Scope    string // default "scope"
}

// DefaultClaimMapping matches common identity-server claim names.
func DefaultClaimMapping() ClaimMapping {
	return ClaimMapping{
		UserID:   "sub",
		UserName: "name",
		Email:    "email",
		Role:     "role",
		Tenant:   "tenant_id",
		Scope:    "scope",
	}
}

// Gate validates bearer tokens against a trusted issuer and audience and
// produces a domain.Principal. Every validation failure collapses to
// domain.ErrUnauthenticated so internals never leak to the caller.
type Gate struct {
	issuer   string
	audience string
	skew     time.Duration
	mapping  ClaimMapping
	keys     KeyProvider
	parser   *jwt.Parser
	logger   *slog.Logger
}

// NewGate creates a Gate. The clock-skew tolerance applies to exp/nbf
// checks on every token.
func NewGate(issuer, audience string, skew time.Duration, mapping ClaimMapping, keys KeyProvider, logger *slog.Logger) *Gate {
	return &Gate{
		issuer:   issuer,
		audience: audience,
		skew:     skew,
		mapping:  mapping,
		keys:     keys,
		parser: jwt.NewParser(
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithLeeway(skew),
			jwt.WithExpirationRequired(),
			jwt.WithValidMethods(keys.Methods()),
		),
		logger: logger.With("component", "auth_gate"),
	}
}

// Authenticate validates the raw bearer token and returns the remapped
// principal.
func (g *Gate) Authenticate(ctx context.Context, rawToken string) (*domain.Principal, error) {
	if rawToken == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims := jwt.MapClaims{}
	token, err := g.parser.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return g.keys.Key(ctx, kid)
	})
	if err != nil {
		g.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthenticated
	}
	if !token.Valid {
		return nil, domain.ErrUnauthenticated
	}

	return g.principalFrom(claims)
}

func (g *Gate) principalFrom(claims jwt.MapClaims) (*domain.Principal, error) {
	sub, _ := claims[g.mapping.UserID].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", domain.ErrUnauthenticated)
	}

	p := &domain.Principal{
		UserID:   userID,
		UserName: stringClaim(claims, g.mapping.UserName),
		Email:    stringClaim(claims, g.mapping.Email),
		Roles:    sliceClaim(claims, g.mapping.Role),
	}

	if raw := stringClaim(claims, g.mapping.Tenant); raw != "" {
		tid, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed tenant claim", domain.ErrUnauthenticated)
		}
		p.TenantID = &tid
	}

	// Scopes appear either as a space-delimited string (RFC 8693 style)
	// or as an array, depending on the issuer.
	if raw, ok := claims[g.mapping.Scope].(string); ok {
		p.Scopes = strings.Fields(raw)
	} else {
		p.Scopes = sliceClaim(claims, g.mapping.Scope)
	}

	return p, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}

// sliceClaim reads a claim that may be a single string or an array of
// strings.
func sliceClaim(claims jwt.MapClaims, name string) []string {
	switch v := claims[name].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
