package handler

import (
	"log/slog"
	"net/http"

	"github.com/user/tenant-gateway/internal/adapter/api/respond"
	"github.com/user/tenant-gateway/internal/domain"
	"github.com/user/tenant-gateway/internal/usecase"
)

// TenantAdminHandler exposes host-plane tenant management on the admin
// listener.
type TenantAdminHandler struct {
	useCase usecase.TenantAdminUseCase
	logger  *slog.Logger
	rw      *respond.Writer
}

func NewTenantAdminHandler(uc usecase.TenantAdminUseCase, logger *slog.Logger, rw *respond.Writer) *TenantAdminHandler {
	return &TenantAdminHandler{
		useCase: uc,
		logger:  logger,
		rw:      rw,
	}
}

type createTenantRequest struct {
	Name string `json:"name"`
}

func (h *TenantAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeBody(r, &req); err != nil {
		h.rw.Error(w, r, err)
		return
	}

	t, err := h.useCase.Create(r.Context(), req.Name)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}
	h.rw.JSON(w, http.StatusCreated, t)
}

func (h *TenantAdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}

	t, err := h.useCase.Get(r.Context(), id)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}
	h.rw.JSON(w, http.StatusOK, t)
}

func (h *TenantAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := domain.Page{
		Limit:  intParam(q.Get("limit"), 100),
		Offset: intParam(q.Get("offset"), 0),
	}

	tenants, err := h.useCase.List(r.Context(), page)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}
	if tenants == nil {
		tenants = []*domain.Tenant{}
	}
	h.rw.JSON(w, http.StatusOK, tenants)
}
