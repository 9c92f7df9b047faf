package controllers

import (
	"net/http"
	"strings"

	"github.com/dfcarvalho/radiostock-backend/api/responses"
	"github.com/dfcarvalho/radiostock-backend/api/validators"
	authsvc "github.com/dfcarvalho/radiostock-backend/internal/auth"
	pkgAuth "github.com/dfcarvalho/radiostock-backend/pkg/auth"
	"github.com/dfcarvalho/radiostock-backend/pkg/config"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
	"github.com/dfcarvalho/radiostock-backend/pkg/logger"
)

// AuthLogin exchanges credentials for an access token.
func AuthLogin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AuthLogout revokes the session carried by the bearer token.
func AuthLogout(svc authsvc.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer token"))
			return
		}

		claims, err := pkgAuth.ParseAccessToken(jwtCfg, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}

		if err := svc.Logout(r.Context(), claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
