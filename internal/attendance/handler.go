package attendance

import (
	"context"
	"net/http"

	"github.com/frahmantamala/hr-management/internal"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/core/validation"
	"github.com/frahmantamala/hr-management/internal/transport"
)

type ServiceAPI interface {
	CheckIn(ctx context.Context, employeeID int64, dto ClockDTO) (*Attendance, error)
	CheckOut(ctx context.Context, employeeID int64, dto ClockDTO) (*Attendance, error)
	Today(ctx context.Context, employeeID int64) (*Attendance, error)
	ListMine(ctx context.Context, employeeID int64, filter ListFilter, p pagination.Params) (*pagination.Page[*Attendance], error)
	List(ctx context.Context, filter ListFilter, p pagination.Params) (*pagination.Page[*Attendance], error)
	Get(ctx context.Context, id int64) (*Attendance, error)
	Create(ctx context.Context, dto *CreateAttendanceDTO) (*Attendance, error)
	Update(ctx context.Context, id int64, dto *UpdateAttendanceDTO) (*Attendance, error)
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context, actor *internal.Identity, filter ListFilter) (*SummaryResponse, error)
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

// employeeOf resolves the caller's linked employee; accounts without one cannot clock in.
func employeeOf(r *http.Request) (*internal.Identity, int64, error) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		return nil, 0, internal.ErrNotAuthenticated
	}
	if identity.EmployeeID == nil {
		return identity, 0, internal.ErrNoEmployeeProfile
	}
	return identity, *identity.EmployeeID, nil
}

func parseFilter(r *http.Request) (ListFilter, error) {
	var f ListFilter
	employeeID, err := transport.QueryInt64(r, "employeeId")
	if err != nil {
		return f, err
	}
	f.EmployeeID = employeeID

	start, appErr := validation.ParseDate("startDate", transport.QueryString(r, "startDate"))
	if appErr != nil {
		return f, appErr
	}
	end, appErr := validation.ParseDate("endDate", transport.QueryString(r, "endDate"))
	if appErr != nil {
		return f, appErr
	}
	f.StartDate = start
	f.EndDate = end
	return f, nil
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	_, employeeID, err := employeeOf(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto ClockDTO
	if err := h.DecodeOptional(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	a, err := h.Service.CheckIn(r.Context(), employeeID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Checked in successfully", a.ToResponse())
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	_, employeeID, err := employeeOf(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto ClockDTO
	if err := h.DecodeOptional(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	a, err := h.Service.CheckOut(r.Context(), employeeID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Checked out successfully", a.ToResponse())
}

func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	_, employeeID, err := employeeOf(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	a, err := h.Service.Today(r.Context(), employeeID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if a == nil {
		h.WriteSuccess(w, http.StatusOK, "No attendance record for today", nil)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", a.ToResponse())
}

func (h *Handler) MyAttendances(w http.ResponseWriter, r *http.Request) {
	_, employeeID, err := employeeOf(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	page, err := h.Service.ListMine(r.Context(), employeeID, filter, pagination.FromRequest(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WritePaginated(w, ToResponses(page.Items), page.Meta)
}

func (h *Handler) ListAttendances(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	page, err := h.Service.List(r.Context(), filter, pagination.FromRequest(r))
	if err != nil {
		h.Logger.Error("ListAttendances: service error", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}
	h.WritePaginated(w, ToResponses(page.Items), page.Meta)
}

func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	a, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", a.ToResponse())
}

func (h *Handler) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	var dto CreateAttendanceDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	a, err := h.Service.Create(r.Context(), &dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, "Attendance record created successfully", a.ToResponse())
}

func (h *Handler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto UpdateAttendanceDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	a, err := h.Service.Update(r.Context(), id, &dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Attendance record updated successfully", a.ToResponse())
}

func (h *Handler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Attendance record deleted successfully", nil)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrNotAuthenticated)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	summary, err := h.Service.Summary(r.Context(), identity, filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", summary)
}
