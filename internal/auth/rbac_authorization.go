package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hr-management/internal"
	userDatamodel "github.com/frahmantamala/hr-management/internal/core/datamodel/user"
	"github.com/frahmantamala/hr-management/internal/transport"
)

// RBACAuthorization gates routes on the role attached by Protect.
type RBACAuthorization struct {
	base   *transport.BaseHandler
	logger *slog.Logger
}

func NewRBACAuthorization(base *transport.BaseHandler, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		base:   base,
		logger: logger,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := internal.IdentityFromContext(r.Context())
		if !ok {
			ra.logger.Warn("authorization check failed: identity not found in context")
			ra.base.HandleServiceError(w, r, internal.ErrNotAuthenticated)
			return
		}

		if !identity.HasRole(roles...) {
			ra.logger.WarnContext(r.Context(), "access denied: insufficient role",
				"user_id", identity.UserID,
				"role", identity.Role,
				"required_roles", roles)
			ra.base.HandleServiceError(w, r, internal.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// Authorize admits callers holding any of roles.
func (ra *RBACAuthorization) Authorize(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, roles...)
	}
}

func (ra *RBACAuthorization) AdminOnly() func(http.Handler) http.Handler {
	return ra.Authorize(userDatamodel.RoleAdmin)
}

func (ra *RBACAuthorization) HRStaff() func(http.Handler) http.Handler {
	return ra.Authorize(userDatamodel.RoleAdmin, userDatamodel.RoleHRManager)
}

func (ra *RBACAuthorization) Managers() func(http.Handler) http.Handler {
	return ra.Authorize(userDatamodel.RoleAdmin, userDatamodel.RoleHRManager, userDatamodel.RoleManager)
}
