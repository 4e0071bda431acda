package user

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/hr-management/internal"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter, p pagination.Params) (*pagination.Page[SafeUser], error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, dto *CreateUserDTO) (*User, error)
	Update(ctx context.Context, id int64, dto *UpdateUserDTO) (*User, error)
	Delete(ctx context.Context, actorID, id int64) error
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

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Role:   transport.QueryString(r, "role"),
		Search: transport.QueryString(r, "search"),
	}
	if raw := r.URL.Query().Get("isActive"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &v
		}
	}

	page, err := h.Service.List(r.Context(), filter, pagination.FromRequest(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WritePaginated(w, page.Items, page.Meta)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	u, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", u.ToSafe())
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	u, err := h.Service.Create(r.Context(), &dto)
	if err != nil {
		h.Logger.Error("CreateUser: service error", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, "User created successfully", u.ToSafe())
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	var dto UpdateUserDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	u, err := h.Service.Update(r.Context(), id, &dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "User updated successfully", u.ToSafe())
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrNotAuthenticated)
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), identity.UserID, id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "User deleted successfully", nil)
}
