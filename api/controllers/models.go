package controllers

import (
	"net/http"

	"github.com/dfcarvalho/radiostock-backend/api/middleware"
	"github.com/dfcarvalho/radiostock-backend/api/responses"
	"github.com/dfcarvalho/radiostock-backend/api/validators"
	"github.com/dfcarvalho/radiostock-backend/internal/catalog"
	"github.com/dfcarvalho/radiostock-backend/pkg/logger"
)

type createModelRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateModel registers a radio model in the catalog.
func CreateModel(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createModelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.IdentityFromContext(r.Context())
		model, err := svc.Create(r.Context(), payload.Name, actor.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, model)
	}
}

// ListModels returns the catalog sorted by name.
func ListModels(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, models)
	}
}
