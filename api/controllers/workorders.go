package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dfcarvalho/radiostock-backend/api/middleware"
	"github.com/dfcarvalho/radiostock-backend/api/responses"
	"github.com/dfcarvalho/radiostock-backend/api/validators"
	"github.com/dfcarvalho/radiostock-backend/internal/maintenance"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
	"github.com/dfcarvalho/radiostock-backend/pkg/logger"
)

type workOrderRadioRequest struct {
	Serial  string `json:"serial" validate:"required"`
	Problem string `json:"problem" validate:"required"`
}

type createWorkOrderRequest struct {
	Priority string                  `json:"priority,omitempty"`
	Radios   []workOrderRadioRequest `json:"radios" validate:"required,min=1,dive"`
	Notes    string                  `json:"notes,omitempty"`
}

// CreateWorkOrder opens a maintenance request.
func CreateWorkOrder(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createWorkOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := maintenance.CreateRequestInput{Notes: payload.Notes}
		if raw := strings.TrimSpace(payload.Priority); raw != "" {
			priority, err := enums.ParseWorkOrderPriority(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
				return
			}
			input.Priority = priority
		}
		for _, radio := range payload.Radios {
			input.Radios = append(input.Radios, maintenance.RequestRadioInput{
				Serial:  radio.Serial,
				Problem: radio.Problem,
			})
		}

		order, err := svc.CreateRequest(r.Context(), input, middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListWorkOrders returns work orders, filtered by status. Requesters without
// the management permission only see their own.
func ListWorkOrders(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.WorkOrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseWorkOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		orders, err := svc.List(r.Context(), status, middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// GetWorkOrder fetches one work order by code.
func GetWorkOrder(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.GetByCode(r.Context(), chi.URLParam(r, "code"), middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdvanceWorkOrder moves an open order to aguardando_manutencao.
func AdvanceWorkOrder(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.Advance(r.Context(), chi.URLParam(r, "code"), middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type startWorkOrderRequest struct {
	Technician string `json:"technician" validate:"required"`
}

// StartWorkOrder assigns a technician and begins the repair.
func StartWorkOrder(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload startWorkOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Start(r.Context(), chi.URLParam(r, "code"), payload.Technician,
			middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type completeWorkOrderRequest struct {
	TechnicalNotes   string   `json:"technical_notes,omitempty"`
	CondemnedSerials []string `json:"condemned_serials,omitempty"`
}

// CompleteWorkOrder finalizes the order and settles its units.
func CompleteWorkOrder(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload completeWorkOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Complete(r.Context(), chi.URLParam(r, "code"), maintenance.CompleteInput{
			TechnicalNotes:   payload.TechnicalNotes,
			CondemnedSerials: payload.CondemnedSerials,
		}, middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// InMaintenanceStock lists units currently under maintenance with the order
// holding each.
func InMaintenanceStock(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.InMaintenanceStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
