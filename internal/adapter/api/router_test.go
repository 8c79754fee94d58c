package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/domain"
	"github.com/user/tenant-gateway/internal/pkg/config"
	"github.com/user/tenant-gateway/internal/usecase"
)

type stubGate struct {
	principal *domain.Principal
	err       error
}

func (s *stubGate) Authenticate(ctx context.Context, rawToken string) (*domain.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.principal, nil
}

type stubResolver struct {
	scope domain.TenantScope
	err   error
}

func (s *stubResolver) Resolve(ctx context.Context, explicit string, principal *domain.Principal) (domain.TenantScope, error) {
	if s.err != nil {
		return domain.TenantScope{}, s.err
	}
	return s.scope, nil
}

type stubDemoUseCase struct {
	demo *domain.Demo
}

func (s *stubDemoUseCase) Create(ctx context.Context, input usecase.CreateDemoInput) (*domain.Demo, error) {
	return s.demo, nil
}

func (s *stubDemoUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Demo, error) {
	if s.demo == nil || s.demo.ID != id {
		return nil, domain.ErrNotFound
	}
	return s.demo, nil
}

func (s *stubDemoUseCase) List(ctx context.Context, filter domain.DemoFilter, page domain.Page) ([]*domain.Demo, error) {
	if s.demo == nil {
		return nil, nil
	}
	return []*domain.Demo{s.demo}, nil
}

func (s *stubDemoUseCase) Update(ctx context.Context, id uuid.UUID, input usecase.UpdateDemoInput) (*domain.Demo, error) {
	return s.demo, nil
}

func (s *stubDemoUseCase) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubAuditRecorder struct {
	mu      sync.Mutex
	records []*domain.AuditRecord
}

func (s *stubAuditRecorder) Record(ctx context.Context, rec *domain.AuditRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *stubAuditRecorder) Recorded() []*domain.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.AuditRecord, len(s.records))
	copy(out, s.records)
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:         "development",
		PathBase:            "/gateway",
		AuthRequiredScope:   "gateway.all",
		MultitenancyEnabled: true,
		TenantHeader:        "X-Tenant-Id",
		CORSAllowedOrigins:  "https://*.example.com",
		Languages:           "en,zh-Hans",
		RequestTimeout:      5 * time.Second,
		RateLimitRPS:        1000,
		RateLimitBurst:      1000,
	}
}

type pipelineFixture struct {
	gate     *stubGate
	resolver *stubResolver
	demos    *stubDemoUseCase
	audit    *stubAuditRecorder
	handler  http.Handler
}

func newPipeline(t *testing.T) *pipelineFixture {
	t.Helper()

	tenantID := uuid.New()
	demo := &domain.Demo{ID: uuid.New(), Name: "Alpha", TenantID: &tenantID, CreationTime: time.Now().UTC()}

	f := &pipelineFixture{
		gate:     &stubGate{principal: &domain.Principal{UserID: uuid.New(), Scopes: []string{"gateway.all"}}},
		resolver: &stubResolver{scope: domain.ScopeFor(tenantID)},
		demos:    &stubDemoUseCase{demo: demo},
		audit:    &stubAuditRecorder{},
	}

	cfg := testConfig()
	f.handler = NewRouter(RouterDeps{
		Cfg:      cfg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Gate:     f.gate,
		Resolver: f.resolver,
		Demos:    f.demos,
		Audit:    f.audit,
		Schema: SchemaConfig{
			Title:         "Tenant Gateway API",
			Version:       "v1",
			PathBase:      cfg.PathBase,
			Issuer:        "https://auth.example.com",
			RequiredScope: cfg.AuthRequiredScope,
		},
	})
	return f
}

func (f *pipelineFixture) do(method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealth(t *testing.T) {
	f := newPipeline(t)
	rr := f.do(http.MethodGet, "/gateway/health", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRouterUnmappedPath(t *testing.T) {
	f := newPipeline(t)

	tests := []struct {
		name   string
		target string
	}{
		{"outside path base", "/api/demos"},
		{"unmapped beneath path base", "/gateway/api/nothing"},
		{"root", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(http.MethodGet, tt.target, "valid")
			if rr.Code != http.StatusNotFound {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
			}
			var body struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("404 body is not JSON: %v", err)
			}
			if body.Code != "not_found" {
				t.Errorf("code = %q", body.Code)
			}
		})
	}
}

func TestRouterRejectsAnonymousResourceAccess(t *testing.T) {
	f := newPipeline(t)
	rr := f.do(http.MethodGet, "/gateway/api/demos", "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if got := f.audit.Recorded(); len(got) != 0 {
		t.Errorf("rejected request must not be audited, got %d records", len(got))
	}
}

func TestRouterRejectsInsufficientScope(t *testing.T) {
	f := newPipeline(t)
	f.gate.principal = &domain.Principal{UserID: uuid.New(), Scopes: []string{"other.scope"}}

	rr := f.do(http.MethodGet, "/gateway/api/demos", "valid")
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRouterUnknownTenant(t *testing.T) {
	f := newPipeline(t)
	f.resolver.err = domain.ErrTenantNotFound

	rr := f.do(http.MethodGet, "/gateway/api/demos", "valid")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRouterAuthorizedRequestIsAudited(t *testing.T) {
	f := newPipeline(t)

	rr := f.do(http.MethodGet, "/gateway/api/demos/"+f.demos.demo.ID.String(), "valid")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-Correlation-Id"); got == "" {
		t.Error("correlation id header missing from response")
	}

	records := f.audit.Recorded()
	if len(records) != 1 {
		t.Fatalf("audit records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.StatusCode != http.StatusOK {
		t.Errorf("audited status = %d", rec.StatusCode)
	}
	if rec.UserID == nil || *rec.UserID != f.gate.principal.UserID {
		t.Errorf("audited user = %v, want %v", rec.UserID, f.gate.principal.UserID)
	}
	if rec.TenantID == nil || *rec.TenantID != *f.resolver.scope.TenantID {
		t.Errorf("audited tenant = %v, want %v", rec.TenantID, f.resolver.scope.TenantID)
	}
	if rec.CorrelationID == "" {
		t.Error("audited correlation id is empty")
	}
}

func TestRouterLocaleNegotiatedAfterAuthentication(t *testing.T) {
	f := newPipeline(t)

	req := httptest.NewRequest(http.MethodGet, "/gateway/api/demos", nil)
	req.Header.Set("Authorization", "Bearer valid")
	req.Header.Set("Accept-Language", "zh-Hans")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Language"); got != "zh-Hans" {
		t.Errorf("Content-Language = %q, want %q", got, "zh-Hans")
	}

	// A request short-circuited by authentication never reaches the
	// locale stage.
	req = httptest.NewRequest(http.MethodGet, "/gateway/api/demos", nil)
	req.Header.Set("Accept-Language", "zh-Hans")
	rr = httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if got := rr.Header().Get("Content-Language"); got != "" {
		t.Errorf("Content-Language = %q on rejected request, want empty", got)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	f := newPipeline(t)

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed subdomain", "https://acme.example.com", "https://acme.example.com"},
		{"disallowed origin", "https://evil.io", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/gateway/api/demos", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rr := httptest.NewRecorder()
			f.handler.ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouterSchemaDocument(t *testing.T) {
	f := newPipeline(t)

	rr := f.do(http.MethodGet, "/gateway/swagger/v1/swagger.json", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var doc struct {
		OpenAPI string                            `json:"openapi"`
		Paths   map[string]map[string]interface{} `json:"paths"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Components struct {
			SecuritySchemes map[string]struct {
				Type  string `json:"type"`
				Flows map[string]struct {
					TokenURL string            `json:"tokenUrl"`
					Scopes   map[string]string `json:"scopes"`
				} `json:"flows"`
			} `json:"securitySchemes"`
		} `json:"components"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}

	if doc.OpenAPI != "3.0.1" {
		t.Errorf("openapi = %q", doc.OpenAPI)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "/gateway" {
		t.Errorf("servers = %+v", doc.Servers)
	}

	for _, want := range []struct{ path, method string }{
		{"/api/demos", "post"},
		{"/api/demos", "get"},
		{"/api/demos/{id}", "get"},
		{"/api/demos/{id}", "put"},
		{"/api/demos/{id}", "delete"},
		{"/health", "get"},
	} {
		entry, ok := doc.Paths[want.path]
		if !ok {
			t.Errorf("path %q missing from catalog", want.path)
			continue
		}
		if _, ok := entry[want.method]; !ok {
			t.Errorf("method %s missing for %q", want.method, want.path)
		}
	}

	scheme, ok := doc.Components.SecuritySchemes["oauth2"]
	if !ok {
		t.Fatal("oauth2 security scheme missing")
	}
	flow, ok := scheme.Flows["clientCredentials"]
	if !ok {
		t.Fatal("clientCredentials flow missing")
	}
	if !strings.HasPrefix(flow.TokenURL, "https://auth.example.com") {
		t.Errorf("tokenUrl = %q", flow.TokenURL)
	}
	if _, ok := flow.Scopes["gateway.all"]; !ok {
		t.Errorf("scope gateway.all missing, got %v", flow.Scopes)
	}
}

func TestRouterHTTPSRedirectInProduction(t *testing.T) {
	f := &pipelineFixture{
		gate:     &stubGate{},
		resolver: &stubResolver{scope: domain.HostScope()},
		demos:    &stubDemoUseCase{},
		audit:    &stubAuditRecorder{},
	}
	cfg := testConfig()
	cfg.Environment = "production"
	f.handler = NewRouter(RouterDeps{
		Cfg:      cfg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Gate:     f.gate,
		Resolver: f.resolver,
		Demos:    f.demos,
		Audit:    f.audit,
	})

	req := httptest.NewRequest(http.MethodGet, "http://gw.example.com/gateway/health", nil)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusPermanentRedirect {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusPermanentRedirect)
	}
	if loc := rr.Header().Get("Location"); !strings.HasPrefix(loc, "https://") {
		t.Errorf("Location = %q", loc)
	}

	// Behind a terminating proxy the forwarded proto is honored.
	req = httptest.NewRequest(http.MethodGet, "http://gw.example.com/gateway/health", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("forwarded https status = %d, want %d", rr.Code, http.StatusOK)
	}
}
