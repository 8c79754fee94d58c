package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/adapter/api/respond"
	"github.com/user/tenant-gateway/internal/domain"
	"github.com/user/tenant-gateway/internal/usecase"
)

// DemoHandler exposes the Demo resource over HTTP. Tenant scoping and
// the acting principal arrive on the request context; the handler only
// translates between the wire and the use case.
type DemoHandler struct {
	useCase usecase.DemoUseCase
	logger  *slog.Logger
	rw      *respond.Writer
}

func NewDemoHandler(uc usecase.DemoUseCase, logger *slog.Logger, rw *respond.Writer) *DemoHandler {
	return &DemoHandler{
		useCase: uc,
		logger:  logger,
		rw:      rw,
	}
}

// listResponse is the paged envelope for collection reads.
type listResponse struct {
	Items      []*domain.Demo `json:"items"`
	TotalShown int            `json:"total_shown"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

func (h *DemoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateDemoInput
	if err := decodeBody(r, &input); err != nil {
		h.rw.Error(w, r, err)
		return
	}

	created, err := h.useCase.Create(r.Context(), input)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+created.ID.String())
	h.rw.JSON(w, http.StatusCreated, created)
}

func (h *DemoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}

	d, err := h.useCase.Get(r.Context(), id)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}
	h.rw.JSON(w, http.StatusOK, d)
}

func (h *DemoHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.DemoFilter{
		Name:           q.Get("name"),
		IncludeDeleted: q.Get("include_deleted") == "true",
	}
	page := domain.Page{
		Limit:  intParam(q.Get("limit"), 100),
		Offset: intParam(q.Get("offset"), 0),
	}

	items, err := h.useCase.List(r.Context(), filter, page)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}
	if items == nil {
		items = []*domain.Demo{}
	}

	h.rw.JSON(w, http.StatusOK, listResponse{
		Items:      items,
		TotalShown: len(items),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
}

func (h *DemoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}

	var input usecase.UpdateDemoInput
	if err := decodeBody(r, &input); err != nil {
		h.rw.Error(w, r, err)
		return
	}

	updated, err := h.useCase.Update(r.Context(), id, input)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}
	h.rw.JSON(w, http.StatusOK, updated)
}

func (h *DemoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.rw.Error(w, r, err)
		return
	}

	if err := h.useCase.SoftDelete(r.Context(), id); err != nil {
		h.rw.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id %q", domain.ErrValidation, raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
