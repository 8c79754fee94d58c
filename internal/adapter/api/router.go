package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/user/tenant-gateway/internal/adapter/api/handler"
	"github.com/user/tenant-gateway/internal/adapter/api/middleware"
	"github.com/user/tenant-gateway/internal/adapter/api/respond"
	"github.com/user/tenant-gateway/internal/adapter/metrics"
	"github.com/user/tenant-gateway/internal/domain"
	"github.com/user/tenant-gateway/internal/pkg/config"
	"github.com/user/tenant-gateway/internal/usecase"
)

// RouterDeps carries everything the request pipeline needs.
type RouterDeps struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.GatewayMetrics
	Gate     middleware.TokenAuthenticator
	Resolver usecase.TenantResolver
	Demos    usecase.DemoUseCase
	Audit    usecase.AuditUseCase
	Schema   SchemaConfig
}

// NewRouter builds the public request pipeline. Stage order is fixed:
// path-base strip, HTTPS enforcement, correlation id, recovery, logging,
// rate limit, timeout, routing, CORS, authentication, tenant resolution,
// localization, authorization, handler, audit. A stage that
// short-circuits terminates the request; later stages never run.
func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Cfg
	rw := respond.NewWriter(deps.Logger, cfg.IsDevelopment())

	root := chi.NewRouter()
	root.Use(middleware.RequireHTTPS(!cfg.IsDevelopment()))
	root.Use(middleware.CorrelationID)
	root.Use(middleware.Recovery(deps.Logger, rw))
	root.Use(middleware.Logging(deps.Logger, deps.Metrics))
	root.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, deps.Logger, deps.Metrics, rw))
	root.Use(middleware.Timeout(cfg.RequestTimeout))
	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rw.Error(w, r, domain.ErrNotFound)
	})

	root.Mount(pathBase(cfg.PathBase), newAPIRouter(deps, rw))

	return root
}

func newAPIRouter(deps RouterDeps, rw *respond.Writer) chi.Router {
	cfg := deps.Cfg

	origins := middleware.NewOriginMatcher(splitCSV(cfg.CORSAllowedOrigins))
	languages := splitCSV(cfg.Languages)

	api := chi.NewRouter()
	api.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  origins.Allow,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cfg.TenantHeader, respond.CorrelationHeader},
		ExposedHeaders:   []string{respond.CorrelationHeader, "Location"},
		AllowCredentials: true,
	}))
	api.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rw.Error(w, r, domain.ErrNotFound)
	})

	api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	api.Method(http.MethodGet, "/swagger/v1/swagger.json", NewSchemaHandler(deps.Schema, rw))

	demoHandler := handler.NewDemoHandler(deps.Demos, deps.Logger, rw)

	api.Route("/api/demos", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Gate, deps.Logger, deps.Metrics, rw))
		r.Use(middleware.ResolveTenant(deps.Resolver, cfg.TenantHeader, deps.Logger, rw))
		r.Use(middleware.NegotiateLocale(languages))
		r.Use(middleware.RequireScope(cfg.AuthRequiredScope, rw))
		r.Use(middleware.Audit(deps.Audit))

		r.Post("/", demoHandler.Create)
		r.Get("/", demoHandler.List)
		r.Get("/{id}", demoHandler.Get)
		r.Put("/{id}", demoHandler.Update)
		r.Delete("/{id}", demoHandler.Delete)
	})

	return api
}

func pathBase(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
