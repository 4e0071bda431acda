package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/hr-management/internal"
	"github.com/frahmantamala/hr-management/internal/transport"
	"github.com/frahmantamala/hr-management/internal/user"
	"github.com/frahmantamala/hr-management/pkg/logger"
)

const AccessTokenCookie = "access_token"

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	Logout(ctx context.Context, accessToken string) error
	Authenticate(ctx context.Context, accessToken string) (*internal.Identity, error)
	Me(ctx context.Context, userID int64) (*user.User, error)
	UpdateProfile(ctx context.Context, userID int64, dto UpdateProfileDTO) (*user.User, error)
	ChangePassword(ctx context.Context, userID int64, dto ChangePasswordDTO) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	CheckEmail(ctx context.Context, email string) (bool, error)
	CheckUsername(ctx context.Context, username string) (bool, error)
	Register(ctx context.Context, dto RegisterDTO) (*user.User, error)
	AccessTokenTTL() time.Duration
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	// CookieSecure marks the access token cookie Secure; off only for plain-http development.
	CookieSecure bool
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, cookieSecure bool) *Handler {
	return &Handler{
		BaseHandler:  baseHandler,
		Service:      svc,
		CookieSecure: cookieSecure,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	result, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    result.AccessToken,
		Path:     "/",
		MaxAge:   int(h.Service.AccessTokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	h.WriteSuccess(w, http.StatusOK, "Login successful", result)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.tokenFromRequest(r)
	if token == "" {
		h.HandleServiceError(w, r, internal.ErrNotAuthenticated)
		return
	}
	if err := h.Service.Logout(r.Context(), token); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	h.WriteSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrNotAuthenticated)
		return
	}
	u, err := h.Service.Me(r.Context(), identity.UserID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", u.ToSafe())
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrNotAuthenticated)
		return
	}
	var dto UpdateProfileDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	u, err := h.Service.UpdateProfile(r.Context(), identity.UserID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Profile updated successfully", u.ToSafe())
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrNotAuthenticated)
		return
	}
	var dto ChangePasswordDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.ChangePassword(r.Context(), identity.UserID, dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var dto EmailDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.ForgotPassword(r.Context(), dto.Email); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "If an account exists for that email, a reset link has been sent", nil)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto ResetPasswordDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.ResetPassword(r.Context(), chi.URLParam(r, "token"), dto.Password); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Password has been reset", nil)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	pair, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Token refreshed", pair)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "Email verified successfully", nil)
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var dto EmailDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if err := h.Service.ResendVerification(r.Context(), dto.Email); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "If the email needs verification, a new link has been sent", nil)
}

func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var dto EmailDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	available, err := h.Service.CheckEmail(r.Context(), dto.Email)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", AvailabilityResponse{Available: available})
}

func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	var dto UsernameDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	available, err := h.Service.CheckUsername(r.Context(), dto.Username)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, "", AvailabilityResponse{Available: available})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeAndValidate(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	u, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.Logger.Error("Register: service error", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, "Account registered successfully", u.ToSafe())
}

// Protect requires a valid access token from the Authorization header or the access_token cookie.
func (h *Handler) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.tokenFromRequest(r)
		if token == "" {
			h.HandleServiceError(w, r, internal.ErrNotAuthenticated)
			return
		}

		identity, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			logger.From(r.Context()).Warn("auth middleware: rejected token", "error", err)
			h.HandleServiceError(w, r, err)
			return
		}

		ctx := internal.ContextWithIdentity(r.Context(), identity)
		ctx = logger.With(ctx, "user_id", identity.UserID, "role", identity.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) tokenFromRequest(r *http.Request) string {
	if token := h.ExtractTokenFromHeader(r); token != "" {
		return token
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}
