package employee

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter, p pagination.Params) (*pagination.Page[*Employee], error)
	Search(ctx context.Context, query string, p pagination.Params) (*pagination.Page[*Employee], error)
	ListByDepartment(ctx context.Context, departmentID int64, p pagination.Params) (*pagination.Page[*Employee], error)
	Get(ctx context.Context, id int64) (*Employee, error)
	Create(ctx context.Context, dto *CreateEmployeeDTO) (*Employee, error)
	Update(ctx context.Context, id int64, dto *UpdateEmployeeDTO) (*Employee, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*Employee, error)
	SoftDelete(ctx context.Context, id int64) (*Employee, error)
	HardDelete(ctx context.Context, id int64) error
	Recent(ctx context.Context, limit int) ([]*Employee, error)
	UpcomingBirthdays(ctx context.Context, days int) ([]UpcomingEventResponse, error)
	UpcomingAnniversaries(ctx context.Context, days int) ([]UpcomingEventResponse, error)
	StatisticsByDepartment(ctx context.Context) ([]DepartmentStatisticsResponse, error)
	Overview(ctx context.Context) (*OverviewResponse, error)
	Now() time.Time
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

func (h *Handler) toResponses(items []*Employee) []EmployeeResponse {
	now := h.Service.Now()
	out := make([]EmployeeResponse, 0, len(items))
	for _, e := range items {
		out = append(out, e.ToResponse(now))
	}
	return out
}

func (h *Handler) writePage(w http.ResponseWriter, page *pagination.Page[*Employee]) {
	h.WritePaginated(w, h.toResponses(page.Items), page.Meta)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	departmentID, err := transport.QueryInt64(r, "departmentId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	filter := ListFilter{
		Search:           transport.QueryString(r, "search"),
		DepartmentID:     departmentID,
		EmploymentStatus: transport.QueryString(r, "employmentStatus"),
		Gender:           transport.QueryString(r, "gender"),
	}

	page, err := h.Service.List(r.Context(), filter, pagination.FromRequest(r))
	if err != nil {
		h.Logger.Error("ListEmployees: service error", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}
	h.writePage(w, page)
}

func (h *Handler) SearchEmployees(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.Search(r.Context(), r.URL.Query().Get("q"), pagination.FromRequest(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.writePage(w, page)
}

func (h *Handler) ListByDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, err := h.ParseIDParam(r, "departmentId")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	page, err := h.Service.ListByDepartment(r.Context(), departmentID, pagination.FromRequest(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.writePage(w, page)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	emp, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", emp.ToResponse(h.Service.Now()))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto CreateEmployeeDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	emp, err := h.Service.Create(r.Context(), &dto)
	if err != nil {
		h.Logger.Error("CreateEmployee: service error", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.Logger.Info("CreateEmployee: employee created successfully", "employee_id", emp.ID)
	h.WriteSuccess(w, http.StatusCreated, "Employee created successfully", emp.ToResponse(h.Service.Now()))
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto UpdateEmployeeDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	emp, err := h.Service.Update(r.Context(), id, &dto)
	if err != nil {
		h.Logger.Error("UpdateEmployee: service error", "error", err, "employee_id", id)
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Employee updated successfully", emp.ToResponse(h.Service.Now()))
}

func (h *Handler) UpdateEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto UpdateStatusDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	emp, err := h.Service.UpdateStatus(r.Context(), id, dto.EmploymentStatus)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Employee status updated successfully", emp.ToResponse(h.Service.Now()))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if _, err := h.Service.SoftDelete(r.Context(), id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Employee deleted successfully", nil)
}

func (h *Handler) PermanentlyDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.HardDelete(r.Context(), id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Employee permanently deleted", nil)
}

func (h *Handler) RecentEmployees(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Service.Recent(r.Context(), limit)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", h.toResponses(items))
}

func (h *Handler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	items, err := h.Service.UpcomingBirthdays(r.Context(), days)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", items)
}

func (h *Handler) WorkAnniversaries(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	items, err := h.Service.UpcomingAnniversaries(r.Context(), days)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", items)
}

func (h *Handler) StatisticsByDepartment(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.StatisticsByDepartment(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", stats)
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Service.Overview(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", overview)
}
