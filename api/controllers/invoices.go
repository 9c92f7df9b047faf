package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dfcarvalho/radiostock-backend/api/middleware"
	"github.com/dfcarvalho/radiostock-backend/api/responses"
	"github.com/dfcarvalho/radiostock-backend/api/validators"
	"github.com/dfcarvalho/radiostock-backend/internal/invoices"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
	"github.com/dfcarvalho/radiostock-backend/pkg/logger"
)

type createOutboundRequest struct {
	Number             string          `json:"number" validate:"required"`
	Client             string          `json:"client" validate:"required"`
	CheckoutDate       *time.Time      `json:"checkout_date,omitempty"`
	ExpectedReturnDate *time.Time      `json:"expected_return_date,omitempty"`
	RentalType         string          `json:"rental_type" validate:"required"`
	RentalValue        decimal.Decimal `json:"rental_value"`
	Serials            []string        `json:"serials" validate:"required,min=1,dive,required"`
	Observation        string          `json:"observation,omitempty"`
}

// CreateOutboundInvoice checks equipment out to a client (NF-Saída).
func CreateOutboundInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOutboundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rentalType, err := enums.ParseRentalType(payload.RentalType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rental type"))
			return
		}

		input := invoices.CreateOutboundInput{
			Number:             payload.Number,
			Client:             payload.Client,
			ExpectedReturnDate: payload.ExpectedReturnDate,
			RentalType:         rentalType,
			RentalValue:        payload.RentalValue,
			Serials:            payload.Serials,
			Observation:        payload.Observation,
		}
		if payload.CheckoutDate != nil {
			input.CheckoutDate = *payload.CheckoutDate
		}

		dto, err := svc.CreateOutbound(r.Context(), input, middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type inboundItemRequest struct {
	Serial    string `json:"serial" validate:"required"`
	Condition string `json:"condition" validate:"required"`
	Problem   string `json:"problem,omitempty"`
}

type createInboundRequest struct {
	Number         string               `json:"number,omitempty"`
	OutboundNumber string               `json:"outbound_number" validate:"required"`
	Items          []inboundItemRequest `json:"items" validate:"required,min=1,dive"`
	Observation    string               `json:"observation,omitempty"`
}

// CreateInboundInvoice records a check-in event (NF-Entrada).
func CreateInboundInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createInboundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := invoices.CreateInboundInput{
			Number:         payload.Number,
			OutboundNumber: payload.OutboundNumber,
			Observation:    payload.Observation,
		}
		for _, item := range payload.Items {
			condition, err := enums.ParseReturnCondition(item.Condition)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return condition"))
				return
			}
			input.Items = append(input.Items, invoices.InboundItemInput{
				Serial:    item.Serial,
				Condition: condition,
				Problem:   item.Problem,
			})
		}

		dto, err := svc.CreateInbound(r.Context(), input, middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type amendInvoiceRequest struct {
	AddSerial   string `json:"add_serial,omitempty"`
	Observation string `json:"observation,omitempty"`
}

// AmendInvoice adds a radio and/or appends an observation to an open
// outbound invoice.
func AmendInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseInvoiceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload amendInvoiceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.AmendOutbound(r.Context(), id, invoices.AmendOutboundInput{
			AddSerial:   payload.AddSerial,
			Observation: payload.Observation,
		}, middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ListInvoices returns summaries of both invoice types, newest first.
func ListInvoices(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var invoiceType *enums.InvoiceType
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			parsed, err := enums.ParseInvoiceType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice type"))
				return
			}
			invoiceType = &parsed
		}

		summaries, err := svc.List(r.Context(), invoiceType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summaries)
	}
}

// RecentInvoices returns the newest invoices across both types.
func RecentInvoices(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summaries, err := svc.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summaries)
	}
}

// GetInvoiceByNumber returns an outbound invoice with its check-in history.
func GetInvoiceByNumber(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := svc.GetOutboundByNumber(r.Context(), chi.URLParam(r, "number"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

// GetInvoice resolves an invoice of either type by id.
func GetInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseInvoiceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// InvoiceMovements lists the audit trail recorded under the invoice.
func InvoiceMovements(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseInvoiceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.MovementsByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func parseInvoiceID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "invoiceId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id")
	}
	return id, nil
}
