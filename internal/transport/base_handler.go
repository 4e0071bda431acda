package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	appErrors "github.com/frahmantamala/hr-management/internal"
	"github.com/frahmantamala/hr-management/internal/core/pagination"
	"github.com/frahmantamala/hr-management/internal/core/validation"
	"github.com/frahmantamala/hr-management/pkg/logger"
)

const maxBodyBytes = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
	// Development adds a stack trace to 500 responses.
	Development bool
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

type SuccessResponse struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message,omitempty"`
	Data       interface{}      `json:"data,omitempty"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
}

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
	Stack   string      `json:"stack,omitempty"`
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *BaseHandler) WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	h.WriteJSON(w, status, SuccessResponse{Success: true, Message: message, Data: data})
}

func (h *BaseHandler) WritePaginated(w http.ResponseWriter, data interface{}, meta pagination.Meta) {
	h.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data, Pagination: &meta})
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	if status >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", status, "message", message)
	}
	h.WriteJSON(w, status, ErrorResponse{Success: false, Error: message})
}

// HandleServiceError is the single place errors become HTTP responses. Operational errors keep
// their status and message; anything else is logged and answered with a generic 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := appErrors.IsAppError(err); ok && appErr.StatusCode < http.StatusInternalServerError {
		resp := ErrorResponse{Success: false, Error: appErr.GetDetailedMessage()}
		if details, ok := appErr.Details.(appErrors.ValidationErrors); ok {
			resp.Details = details.Errors
		} else if appErr.Details != nil {
			resp.Details = appErr.Details
		}
		h.WriteJSON(w, appErr.StatusCode, resp)
		return
	}

	logger.From(r.Context()).Error("unhandled error",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path)

	resp := ErrorResponse{Success: false, Error: "Internal server error"}
	if h.Development {
		resp.Error = err.Error()
		resp.Stack = string(debug.Stack())
	}
	h.WriteJSON(w, http.StatusInternalServerError, resp)
}

// DecodeAndValidate decodes a JSON body into dst and runs the declarative validation rules once.
func (h *BaseHandler) DecodeAndValidate(r *http.Request, dst interface{}) error {
	return decode(r, dst, false)
}

// DecodeOptional is DecodeAndValidate for endpoints whose body may be omitted.
func (h *BaseHandler) DecodeOptional(r *http.Request, dst interface{}) error {
	return decode(r, dst, true)
}

func decode(r *http.Request, dst interface{}, optional bool) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return nil
			}
			return appErrors.NewValidationError("Request body is required", appErrors.ErrCodeInvalidBody)
		}
		return appErrors.NewValidationError("Invalid request body", appErrors.ErrCodeInvalidBody).WithCause(err)
	}
	if appErr := validation.Struct(dst); appErr != nil {
		return appErr
	}
	return nil
}

// ParseIDParam reads a positive integer chi URL parameter.
func (h *BaseHandler) ParseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.NewValidationFieldError(name, "Invalid "+name+" parameter", appErrors.ErrCodeInvalidID)
	}
	return id, nil
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}

	return strings.TrimSpace(authHeader[7:])
}

// QueryInt64 reads an optional positive integer query parameter.
func QueryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, appErrors.NewValidationFieldError(name, "Invalid "+name+" parameter", appErrors.ErrCodeInvalidID)
	}
	return &v, nil
}

// QueryString returns a trimmed optional query parameter.
func QueryString(r *http.Request, name string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	return &raw
}
