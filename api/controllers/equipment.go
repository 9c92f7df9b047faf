package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dfcarvalho/radiostock-backend/api/middleware"
	"github.com/dfcarvalho/radiostock-backend/api/responses"
	"github.com/dfcarvalho/radiostock-backend/api/validators"
	"github.com/dfcarvalho/radiostock-backend/internal/equipment"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
	"github.com/dfcarvalho/radiostock-backend/pkg/logger"
	"github.com/dfcarvalho/radiostock-backend/pkg/types"
)

type registerEquipmentRequest struct {
	Serial    string `json:"serial" validate:"required"`
	ModelName string `json:"model_name" validate:"required"`
	AssetTag  string `json:"asset_tag,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// RegisterEquipment adds a unit to the registry.
func RegisterEquipment(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerEquipmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := svc.Register(r.Context(), equipment.RegisterInput{
			Serial:    payload.Serial,
			ModelName: payload.ModelName,
			AssetTag:  payload.AssetTag,
			Frequency: payload.Frequency,
		}, middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, unit)
	}
}

// ListEquipment returns active units, optionally filtered by status, current
// invoice or a free-text search over serial, model, and asset tag.
func ListEquipment(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := equipment.ListFilter{
			CurrentInvoice: validators.SanitizeString(r.URL.Query().Get("invoice"), 60),
			Search:         validators.SanitizeString(r.URL.Query().Get("search"), 120),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseEquipmentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		units, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, units)
	}
}

// GetEquipment fetches one unit by serial. Pass include_inactive=true to
// reach decommissioned records.
func GetEquipment(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serial := chi.URLParam(r, "serial")
		includeInactive := r.URL.Query().Get("include_inactive") == "true"

		unit, err := svc.FindBySerial(r.Context(), serial, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unit)
	}
}

type updateAssetTagRequest struct {
	AssetTag types.NullableString `json:"asset_tag"`
}

// UpdateEquipmentAssetTag changes the only mutable registry field. Sending
// null clears the tag; omitting the field is rejected.
func UpdateEquipmentAssetTag(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateAssetTagRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !payload.AssetTag.Valid {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "asset_tag is required").
					WithDetails(map[string]string{"asset_tag": "is required"}))
			return
		}
		assetTag := ""
		if payload.AssetTag.Value != nil {
			assetTag = *payload.AssetTag.Value
		}

		unit, err := svc.UpdateAssetTag(r.Context(), chi.URLParam(r, "serial"), assetTag,
			middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unit)
	}
}

type decommissionRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// DecommissionEquipment retires an available unit from the registry.
func DecommissionEquipment(svc equipment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload decommissionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := svc.Decommission(r.Context(), chi.URLParam(r, "serial"), payload.Reason,
			middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unit)
	}
}
