package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/taxes"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/units"
	"github.com/meridian-erp/meridian-erp/internal/procurement"
	"github.com/meridian-erp/meridian-erp/internal/sales/creditnotes"
	"github.com/meridian-erp/meridian-erp/internal/sales/customers"
	"github.com/meridian-erp/meridian-erp/internal/sales/invoices"
	"github.com/meridian-erp/meridian-erp/internal/sales/orders"
	"github.com/meridian-erp/meridian-erp/internal/settings"
	"github.com/meridian-erp/meridian-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	ProductsHandler    *products.Handler
	TaxesHandler       *taxes.Handler
	UnitsHandler       *units.Handler
	SuppliersHandler   *suppliers.Handler
	CustomersHandler   *customers.Handler
	ProcurementHandler *procurement.Handler
	OrdersHandler      *orders.Handler
	InvoicesHandler    *invoices.Handler
	CreditNotesHandler *creditnotes.Handler
	InventoryHandler   *inventory.Handler
	SettingsHandler    *settings.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/products", params.ProductsHandler.MountRoutes)
	r.Route("/taxes", params.TaxesHandler.MountRoutes)
	r.Route("/units", params.UnitsHandler.MountRoutes)
	r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
	params.CustomersHandler.MountRoutes(r)

	params.ProcurementHandler.MountRoutes(r)
	params.OrdersHandler.MountRoutes(r)
	params.InvoicesHandler.MountRoutes(r)
	params.CreditNotesHandler.MountRoutes(r)

	r.Route("/inventory", params.InventoryHandler.MountRoutes)
	r.Route("/settings", params.SettingsHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
