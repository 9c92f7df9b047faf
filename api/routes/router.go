package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dfcarvalho/radiostock-backend/api/controllers"
	"github.com/dfcarvalho/radiostock-backend/api/middleware"
	authsvc "github.com/dfcarvalho/radiostock-backend/internal/auth"
	"github.com/dfcarvalho/radiostock-backend/internal/catalog"
	"github.com/dfcarvalho/radiostock-backend/internal/equipment"
	"github.com/dfcarvalho/radiostock-backend/internal/invoices"
	"github.com/dfcarvalho/radiostock-backend/internal/maintenance"
	"github.com/dfcarvalho/radiostock-backend/pkg/auth/session"
	"github.com/dfcarvalho/radiostock-backend/pkg/config"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	"github.com/dfcarvalho/radiostock-backend/pkg/logger"
	"github.com/dfcarvalho/radiostock-backend/pkg/metrics"
)

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Sessions    session.Checker
	HTTPMetrics *metrics.HTTPMetrics
	MetricsH    http.Handler

	Auth        authsvc.Service
	Catalog     catalog.Service
	Equipment   equipment.Service
	Invoices    invoices.Service
	Maintenance maintenance.Service

	ReadyChecks map[string]controllers.Pinger
}

// NewRouter assembles the HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks))
	})

	metricsHandler := deps.MetricsH
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/models", func(r chi.Router) {
			r.With(middleware.RequirePermission(enums.PermissionRegistry, logg)).
				Post("/", controllers.CreateModel(deps.Catalog, logg))
			r.Get("/", controllers.ListModels(deps.Catalog, logg))
		})

		r.Route("/equipment", func(r chi.Router) {
			r.With(middleware.RequirePermission(enums.PermissionRegistry, logg)).
				Post("/", controllers.RegisterEquipment(deps.Equipment, logg))
			r.Get("/", controllers.ListEquipment(deps.Equipment, logg))
			r.Get("/{serial}", controllers.GetEquipment(deps.Equipment, logg))
			r.With(middleware.RequirePermission(enums.PermissionRegistry, logg)).
				Patch("/{serial}/asset-tag", controllers.UpdateEquipmentAssetTag(deps.Equipment, logg))
			r.With(middleware.RequirePermission(enums.PermissionAdmin, logg)).
				Post("/{serial}/decommission", controllers.DecommissionEquipment(deps.Equipment, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.With(middleware.RequirePermission(enums.PermissionOutbound, logg)).
				Post("/outbound", controllers.CreateOutboundInvoice(deps.Invoices, logg))
			r.With(middleware.RequirePermission(enums.PermissionInbound, logg)).
				Post("/inbound", controllers.CreateInboundInvoice(deps.Invoices, logg))
			r.Get("/", controllers.ListInvoices(deps.Invoices, logg))
			r.Get("/recent", controllers.RecentInvoices(deps.Invoices, logg))
			r.Get("/number/{number}", controllers.GetInvoiceByNumber(deps.Invoices, logg))
			r.Get("/{invoiceId}", controllers.GetInvoice(deps.Invoices, logg))
			r.Get("/{invoiceId}/movements", controllers.InvoiceMovements(deps.Invoices, logg))
			r.With(middleware.RequirePermission(enums.PermissionOutbound, logg)).
				Patch("/{invoiceId}", controllers.AmendInvoice(deps.Invoices, logg))
		})

		r.Route("/work-orders", func(r chi.Router) {
			r.With(middleware.RequirePermission(enums.PermissionRequestMaintenance, logg)).
				Post("/", controllers.CreateWorkOrder(deps.Maintenance, logg))
			r.Get("/", controllers.ListWorkOrders(deps.Maintenance, logg))
			r.With(middleware.RequirePermission(enums.PermissionManageMaintenance, logg)).
				Get("/stock/in-maintenance", controllers.InMaintenanceStock(deps.Maintenance, logg))
			r.Get("/{code}", controllers.GetWorkOrder(deps.Maintenance, logg))
			r.With(middleware.RequirePermission(enums.PermissionManageMaintenance, logg)).
				Post("/{code}/advance", controllers.AdvanceWorkOrder(deps.Maintenance, logg))
			r.With(middleware.RequirePermission(enums.PermissionManageMaintenance, logg)).
				Post("/{code}/start", controllers.StartWorkOrder(deps.Maintenance, logg))
			r.With(middleware.RequirePermission(enums.PermissionManageMaintenance, logg)).
				Post("/{code}/complete", controllers.CompleteWorkOrder(deps.Maintenance, logg))
		})
	})

	return r
}
