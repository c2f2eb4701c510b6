package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lazani-bestileo/bestileo-erp/internal/auth"
	"github.com/lazani-bestileo/bestileo-erp/internal/cellar"
	"github.com/lazani-bestileo/bestileo-erp/internal/clients"
	"github.com/lazani-bestileo/bestileo-erp/internal/deliveries"
	"github.com/lazani-bestileo/bestileo-erp/internal/invoices"
	"github.com/lazani-bestileo/bestileo-erp/internal/observability"
	"github.com/lazani-bestileo/bestileo-erp/internal/orders"
	"github.com/lazani-bestileo/bestileo-erp/internal/payments"
	"github.com/lazani-bestileo/bestileo-erp/internal/platform/httpx"
	"github.com/lazani-bestileo/bestileo-erp/internal/products"
	"github.com/lazani-bestileo/bestileo-erp/internal/users"
	"github.com/lazani-bestileo/bestileo-erp/internal/vineyard"
)

// RouterParams aggregates every handler mounted on the API.
type RouterParams struct {
	Middleware []func(http.Handler) http.Handler
	Metrics    *observability.Metrics

	Auth       *auth.Handler
	Users      *users.Handler
	Clients    *clients.Handler
	Products   *products.Handler
	Orders     *orders.Handler
	Deliveries *deliveries.Handler
	Invoices   *invoices.Handler
	Payments   *payments.Handler
	Vineyard   *vineyard.Handler
	Cellar     *cellar.Handler
}

// NewRouter assembles the HTTP surface of the application.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range p.Middleware {
		r.Use(mw)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health)
		r.Route("/auth", p.Auth.MountRoutes)
		r.Route("/users", p.Users.MountRoutes)
		r.Route("/clients", p.Clients.MountRoutes)
		r.Route("/produits", p.Products.MountRoutes)
		r.Route("/commandes", p.Orders.MountRoutes)
		r.Route("/bons-livraison", p.Deliveries.MountRoutes)
		r.Route("/factures", p.Invoices.MountRoutes)
		r.Route("/paiements", p.Payments.MountRoutes)
		r.Route("/parcelles", p.Vineyard.MountParcelRoutes)
		r.Route("/recoltes", p.Vineyard.MountHarvestRoutes)
		r.Route("/bassins", p.Cellar.MountVatRoutes)
		r.Route("/lots", p.Cellar.MountLotRoutes)
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Error(w, http.StatusNotFound, "Route non trouvée")
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":   "API Lazan'i Bestileo opérationnelle",
		"status":    "OK",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
