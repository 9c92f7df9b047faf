package middleware

import (
	"net/http"

	"github.com/dfcarvalho/radiostock-backend/api/responses"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
	"github.com/dfcarvalho/radiostock-backend/pkg/logger"
)

// RequirePermission rejects requests whose actor lacks the named capability.
// Admins pass every check.
func RequirePermission(perm enums.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enums.Satisfies(PermissionsFromContext(r.Context()), perm) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "permission required").
					WithDetails(map[string]any{"permission": string(perm)}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
