package department

import (
	"context"
	"net/http"

	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, search *string, p pagination.Params) (*pagination.Page[*Department], error)
	ListSimple(ctx context.Context) ([]SimpleDepartment, error)
	Statistics(ctx context.Context) (*StatisticsResponse, error)
	Get(ctx context.Context, id int64) (*Department, error)
	Create(ctx context.Context, dto *CreateDepartmentDTO) (*Department, error)
	Update(ctx context.Context, id int64, dto *UpdateDepartmentDTO) (*Department, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.List(r.Context(), transport.QueryString(r, "search"), pagination.FromRequest(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WritePaginated(w, page.Items, page.Meta)
}

func (h *Handler) ListSimple(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListSimple(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", items)
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Statistics(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", stats)
}

func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	dept, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", dept)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var dto CreateDepartmentDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	dept, err := h.Service.Create(r.Context(), &dto)
	if err != nil {
		h.Logger.Error("CreateDepartment: service error", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, "Department created successfully", dept)
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto UpdateDepartmentDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	dept, err := h.Service.Update(r.Context(), id, &dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Department updated successfully", dept)
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.Logger.Warn("DeleteDepartment: delete refused", "error", err, "department_id", id)
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Department deleted successfully", nil)
}
