package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/user/tenant-gateway/internal/domain"
)

// KeyProvider supplies the verification key for a token. Implementations
// are safe for concurrent use.
type KeyProvider interface {
	// Key returns the verification key for the given key id. kid is empty
	// for tokens without a kid header.
	Key(ctx context.Context, kid string) (interface{}, error)

	// Methods lists the signing algorithms tokens may use.
	Methods() []string
}

// StaticKeyProvider verifies HS256 tokens with a shared secret.
type StaticKeyProvider struct {
	secret []byte
}

func NewStaticKeyProvider(secret string) *StaticKeyProvider {
	return &StaticKeyProvider{secret: []byte(secret)}
}

func (p *StaticKeyProvider) Key(ctx context.Context, kid string) (interface{}, error) {
	return p.secret, nil
}

func (p *StaticKeyProvider) Methods() []string {
	return []string{"HS256"}
}

// discoveryDocument is the subset of the issuer metadata the gateway needs.
type discoveryDocument struct {
	Issuer                string `json:"issuer"`
	JWKSURI               string `json:"jwks_uri"`
	TokenEndpoint         string `json:"token_endpoint"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// RemoteKeyProvider verifies RS256 tokens with keys discovered from the
// issuer's metadata endpoint. Keys are cached with a TTL and refreshed
// lazily on expiry; a miss falls through to the issuer synchronously.
type RemoteKeyProvider struct {
	issuer string
	client *http.Client
	ttl    time.Duration
	logger *slog.Logger

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	doc       *discoveryDocument
	expiresAt time.Time
}

func NewRemoteKeyProvider(issuer string, ttl time.Duration, logger *slog.Logger) *RemoteKeyProvider {
	return &RemoteKeyProvider{
		issuer: strings.TrimSuffix(issuer, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    ttl,
		logger: logger.With("component", "key_provider"),
		keys:   make(map[string]*rsa.PublicKey),
	}
}

func (p *RemoteKeyProvider) Methods() []string {
	return []string{"RS256"}
}

// Discovery returns the issuer metadata, fetching it if the cache has
// expired. The token/authorization endpoints feed the operation catalog.
func (p *RemoteKeyProvider) Discovery(ctx context.Context) (tokenURL, authURL string, err error) {
	p.mu.RLock()
	doc := p.doc
	fresh := time.Now().Before(p.expiresAt)
	p.mu.RUnlock()

	if doc == nil || !fresh {
		if err := p.refresh(ctx); err != nil {
			return "", "", err
		}
		p.mu.RLock()
		doc = p.doc
		p.mu.RUnlock()
	}
	return doc.TokenEndpoint, doc.AuthorizationEndpoint, nil
}

func (p *RemoteKeyProvider) Key(ctx context.Context, kid string) (interface{}, error) {
	p.mu.RLock()
	key, found := p.keys[kid]
	fresh := time.Now().Before(p.expiresAt)
	p.mu.RUnlock()

	if found && fresh {
		return key, nil
	}

	if err := p.refresh(ctx); err != nil {
		// A stale key beats an outage if we have one.
		if found {
			p.logger.Warn("serving stale signing key after refresh failure", "kid", kid, "error", err)
			return key, nil
		}
		return nil, err
	}

	p.mu.RLock()
	key, found = p.keys[kid]
	p.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

// refresh re-reads the discovery document and JWKS under a write lock,
// double-checking in case another goroutine refreshed first.
func (p *RemoteKeyProvider) refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.doc != nil && time.Now().Before(p.expiresAt) {
		return nil
	}

	doc, err := p.fetchDiscovery(ctx)
	if err != nil {
		return fmt.Errorf("%w: issuer metadata: %v", domain.ErrUnavailable, err)
	}

	keys, err := p.fetchJWKS(ctx, doc.JWKSURI)
	if err != nil {
		return fmt.Errorf("%w: jwks: %v", domain.ErrUnavailable, err)
	}

	p.doc = doc
	p.keys = keys
	p.expiresAt = time.Now().Add(p.ttl)
	p.logger.Info("signing keys refreshed", "count", len(keys))
	return nil
}

func (p *RemoteKeyProvider) fetchDiscovery(ctx context.Context) (*discoveryDocument, error) {
	url := p.issuer + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery returned %d", resp.StatusCode)
	}

	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (p *RemoteKeyProvider) fetchJWKS(ctx context.Context, url string) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks returned %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := rsaKeyFrom(k)
		if err != nil {
			p.logger.Warn("skipping unparsable jwks key", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no usable signing keys")
	}
	return keys, nil
}

func rsaKeyFrom(k jwksKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
