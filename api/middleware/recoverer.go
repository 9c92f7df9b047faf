package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dfcarvalho/radiostock-backend/api/responses"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
	"github.com/dfcarvalho/radiostock-backend/pkg/logger"
)

// Recoverer converts handler panics into a 500 envelope so a bad request
// never takes the API down with it.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic": fmt.Sprintf("%v", rec),
						"path":  r.URL.Path,
						"stack": string(debug.Stack()),
					})
					logg.Error(ctx, "panic.recovered", fmt.Errorf("panic: %v", rec))
				}
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeInternal, "internal error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
