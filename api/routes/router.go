package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/florezcook/orders-backend/api/controllers"
	customercontrollers "github.com/florezcook/orders-backend/api/controllers/customers"
	ordercontrollers "github.com/florezcook/orders-backend/api/controllers/orders"
	productcontrollers "github.com/florezcook/orders-backend/api/controllers/products"
	reportcontrollers "github.com/florezcook/orders-backend/api/controllers/reports"
	"github.com/florezcook/orders-backend/api/middleware"
	"github.com/florezcook/orders-backend/internal/customers"
	"github.com/florezcook/orders-backend/internal/orders"
	"github.com/florezcook/orders-backend/internal/products"
	"github.com/florezcook/orders-backend/internal/reports"
	"github.com/florezcook/orders-backend/pkg/config"
	"github.com/florezcook/orders-backend/pkg/db"
	"github.com/florezcook/orders-backend/pkg/logger"
	"github.com/florezcook/orders-backend/pkg/redis"
)

// NewRouter wires every HTTP route. redisClient may be nil when no Redis
// endpoint is configured; idempotency replay and the Redis readiness check
// are then skipped.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	customerService customers.Service,
	productService products.Service,
	ordersService orders.Service,
	reportsService reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	var cachePinger controllers.Pinger
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		cachePinger = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cachePinger))
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Idempotency is attached per route so chi has resolved the pattern.
	idempotent := middleware.Idempotency(idempotencyStore, cfg.Orders.SubmitIdempotencyTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customercontrollers.List(customerService, logg))
			r.With(idempotent).Post("/", customercontrollers.Create(customerService, logg))
			r.Get("/lookup", customercontrollers.Lookup(customerService, logg))
			r.Get("/{customerId}", customercontrollers.Get(customerService, logg))
			r.Put("/{customerId}", customercontrollers.Update(customerService, logg))
			r.Delete("/{customerId}", customercontrollers.Delete(customerService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productcontrollers.List(productService, logg))
			r.With(idempotent).Post("/", productcontrollers.Create(productService, logg))
			r.Get("/catalog", productcontrollers.Catalog(productService, logg))
			r.With(idempotent).Post("/import", productcontrollers.Import(productService, logg))
			r.Get("/{productId}", productcontrollers.Get(productService, logg))
			r.Put("/{productId}", productcontrollers.Update(productService, logg))
			r.Delete("/{productId}", productcontrollers.Delete(productService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.With(idempotent).Post("/", ordercontrollers.Submit(ordersService, logg))
			r.Get("/form", ordercontrollers.Form(ordersService, productService, logg))
			r.Post("/resolve-customer", ordercontrollers.ResolveCustomer(ordersService, logg))
			r.Post("/lines/recompute", ordercontrollers.RecomputeLine(ordersService, logg))
			r.Post("/validate", ordercontrollers.Validate(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Put("/{orderId}", ordercontrollers.Update(ordersService, logg))
			r.Delete("/{orderId}", ordercontrollers.Delete(ordersService, logg))
			r.Patch("/{orderId}/status", ordercontrollers.ChangeStatus(ordersService, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/orders", reportcontrollers.Orders(reportsService, logg))
			r.Get("/orders.xlsx", reportcontrollers.ExportOrders(reportsService, logg))
			r.Get("/consolidated", reportcontrollers.Consolidated(reportsService, logg))
			r.Get("/consolidated.xlsx", reportcontrollers.ExportConsolidated(reportsService, logg))
		})
	})

	return r
}
