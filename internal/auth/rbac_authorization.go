package auth

import (
	"log/slog"
	"net/http"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

// RBACAuthorization gates routes on the role carried by the bearer token.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := internal.PrincipalFromContext(r.Context())
		if !ok || principal.UserID == "" {
			ra.Logger.WarnContext(r.Context(), "authorization check failed: principal not found in context")
			ra.WriteError(w, http.StatusUnauthorized, "Missing authorization token")
			return
		}

		for _, role := range roles {
			if principal.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}

		ra.Logger.WarnContext(r.Context(), "access denied: insufficient role",
			"user_id", principal.UserID,
			"role", principal.Role,
			"required_roles", roles)
		ra.HandleServiceError(w, internal.ErrInsufficientRole)
	}
}

func (ra *RBACAuthorization) Middleware(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, roles...)
	}
}

// RequireAdmin admits admins and legacy company accounts.
func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.Middleware(user.RoleAdmin, user.RoleCompany)
}
