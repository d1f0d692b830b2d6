package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kartvelo/kartvelo-backend/api/controllers"
	webhookcontrollers "github.com/kartvelo/kartvelo-backend/api/controllers/webhooks"
	"github.com/kartvelo/kartvelo-backend/api/middleware"
	"github.com/kartvelo/kartvelo-backend/internal/accounts"
	"github.com/kartvelo/kartvelo-backend/internal/catalog"
	"github.com/kartvelo/kartvelo-backend/internal/orders"
	"github.com/kartvelo/kartvelo-backend/internal/payments"
	"github.com/kartvelo/kartvelo-backend/pkg/config"
	"github.com/kartvelo/kartvelo-backend/pkg/db"
	"github.com/kartvelo/kartvelo-backend/pkg/ipay"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
	"github.com/kartvelo/kartvelo-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Verifier *ipay.Verifier
	Gatherer prometheus.Gatherer

	Accounts accounts.Service
	Catalog  catalog.Service
	Orders   orders.Service
	Payments payments.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// the callback is signature-authenticated; it never passes token auth
	r.Post("/api/v1/payments/callback", webhookcontrollers.IPayCallback(deps.Payments, deps.Verifier, logg))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.Register(deps.Accounts, logg))
		r.Post("/login", controllers.Login(deps.Accounts, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.MaybeAuth(cfg.JWT, logg))

		r.Route("/tours", func(r chi.Router) {
			r.Get("/", controllers.ListTours(deps.Catalog, logg))
			r.Get("/{tourId}", controllers.GetTour(deps.Catalog, logg))
			r.Get("/{tourId}/discounts", controllers.ListTourDiscounts(deps.Catalog, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/{orderNumber}", controllers.GetOrder(deps.Orders, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Get("/", controllers.ListOrders(deps.Orders, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/initiate", controllers.InitiatePayment(deps.Payments, logg))
			r.Get("/status/{orderNumber}", controllers.PaymentStatus(deps.Payments, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireBackoffice(logg))

		r.Route("/tours", func(r chi.Router) {
			r.Get("/", controllers.ListTours(deps.Catalog, logg))
			r.Post("/", controllers.CreateTour(deps.Catalog, logg))
			r.Get("/{tourId}", controllers.GetTour(deps.Catalog, logg))
			r.Patch("/{tourId}", controllers.UpdateTour(deps.Catalog, logg))
			r.Delete("/{tourId}", controllers.DeactivateTour(deps.Catalog, logg))
			r.Post("/{tourId}/discounts", controllers.CreateDiscount(deps.Catalog, logg))
			r.Get("/{tourId}/discounts", controllers.ListTourDiscounts(deps.Catalog, logg))
		})
		r.Patch("/discounts/{discountId}", controllers.UpdateDiscount(deps.Catalog, logg))

		r.Get("/orders", controllers.ListOrders(deps.Orders, logg))
		r.Get("/orders/{orderNumber}", controllers.GetOrder(deps.Orders, logg))
		r.Get("/orders/{orderNumber}/payment/receipt", controllers.PaymentReceipt(deps.Payments, logg))

		r.Route("/companies", func(r chi.Router) {
			// staff can read their own company; everything else is admin only
			r.Get("/{companyId}", controllers.GetCompany(deps.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Get("/", controllers.ListCompanies(deps.Catalog, logg))
				r.Post("/", controllers.CreateCompany(deps.Catalog, logg))
				r.Patch("/{companyId}", controllers.UpdateCompany(deps.Catalog, logg))
			})
		})
	})

	return r
}
