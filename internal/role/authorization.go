package role

import (
	"log/slog"
	"net/http"

	"github.com/authkit/authkit/internal/auth"
)

// Authorization is the permission-checking middleware factory. When the role
// feature is disabled it degrades to authenticated-only: every check passes
// for a logged-in user, so consumers can wire Require calls unconditionally.
type Authorization struct {
	checker PermissionChecker
	enabled bool
	logger  *slog.Logger
}

func NewAuthorization(checker PermissionChecker, enabled bool, logger *slog.Logger) *Authorization {
	return &Authorization{
		checker: checker,
		enabled: enabled,
		logger:  logger,
	}
}

func (a *Authorization) Enabled() bool {
	return a.enabled
}

// Require builds a middleware that refuses requests from users lacking the
// permission.
func (a *Authorization) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				a.logger.Warn("authorization check failed: user not found in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !a.enabled {
				next.ServeHTTP(w, r)
				return
			}

			if !a.checker.HasPermission(user.Permissions, permission) {
				a.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"required_permission", permission,
					"user_permissions", user.Permissions)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin refuses requests from non-admin users.
func (a *Authorization) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !a.enabled {
				next.ServeHTTP(w, r)
				return
			}

			if !a.checker.IsAdmin(user.Permissions) {
				a.logger.WarnContext(r.Context(), "access denied: admin permissions required", "user_id", user.ID)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny refuses requests from users holding none of the permissions.
func (a *Authorization) RequireAny(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !a.enabled {
				next.ServeHTTP(w, r)
				return
			}

			required := append([]string{AdminPermission}, permissions...)
			if !a.checker.HasAnyPermission(user.Permissions, required) {
				a.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"required_permissions", permissions,
					"user_permissions", user.Permissions)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
