package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/tenant-gateway/internal/adapter/api/handler"
	"github.com/user/tenant-gateway/internal/adapter/api/middleware"
	"github.com/user/tenant-gateway/internal/adapter/api/respond"
	"github.com/user/tenant-gateway/internal/domain"
	"github.com/user/tenant-gateway/internal/usecase"
)

// NewAdminRouter builds the host-plane router served on the internal
// admin listener: tenant management and health. The /metrics endpoint is
// mounted by main next to this router.
func NewAdminRouter(tenants usecase.TenantAdminUseCase, logger *slog.Logger, development bool) http.Handler {
	rw := respond.NewWriter(logger, development)
	tenantHandler := handler.NewTenantAdminHandler(tenants, logger, rw)

	r := chi.NewRouter()
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Recovery(logger, rw))
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		rw.Error(w, req, domain.ErrNotFound)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/admin/tenants", func(r chi.Router) {
		r.Post("/", tenantHandler.Create)
		r.Get("/", tenantHandler.List)
		r.Get("/{id}", tenantHandler.Get)
	})

	return r
}
