package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tokosehat/kasir/api/controllers"
	"github.com/tokosehat/kasir/api/middleware"
	"github.com/tokosehat/kasir/internal/auth"
	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/internal/reports"
	"github.com/tokosehat/kasir/internal/transactions"
	"github.com/tokosehat/kasir/internal/users"
	"github.com/tokosehat/kasir/pkg/config"
	"github.com/tokosehat/kasir/pkg/enums"
	"github.com/tokosehat/kasir/pkg/logger"
	"github.com/tokosehat/kasir/pkg/redis"
)

// registerCounter is the register handle plus receipt reprinting for history.
type registerCounter interface {
	controllers.Counter
	controllers.ReceiptPrinter
}

// rateLimitStore backs login throttling and checkout idempotency. Only redis
// provides both; without it login is not throttled.
type rateLimitStore interface {
	redis.Pinger
	middleware.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps is everything the local register API routes to.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Session middleware.SessionReader

	// Redis is optional; IdempotencyStore falls back to it when unset.
	Redis            rateLimitStore
	IdempotencyStore middleware.IdempotencyStore
	Breaker          controllers.BreakerReporter
	Gatherer         prometheus.Gatherer

	Register     registerCounter
	Auth         auth.Service
	Catalog      catalog.Service
	Users        users.Service
	Transactions transactions.Service
	Reports      reports.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		pinger    redis.Pinger
		limiter   middleware.RateLimiter
		idemStore = d.IdempotencyStore
	)
	if d.Redis != nil {
		pinger, limiter = d.Redis, d.Redis
		if idemStore == nil {
			idemStore = d.Redis
		}
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pinger, d.Breaker))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginUserLimit,
	)

	if d.Auth != nil {
		r.Route("/api/auth", func(r chi.Router) {
			r.With(middleware.LoginRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(d.Auth, logg))
			r.Get("/me", controllers.AuthMe(d.Auth, logg))
		})
	}

	manage := middleware.RequireRole(logg, enums.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireSession(d.Session, logg))

		if d.Register != nil {
			r.Route("/register", registerRoutes(d.Register, idemStore, cfg, logg))
		}

		// Admin proxies are mounted only when their service is wired.
		if d.Catalog != nil {
			r.Route("/products", controllers.ProductRoutes(d.Catalog, cfg.API.SearchLimit, manage, logg))
			r.Route("/categories", controllers.CategoryRoutes(d.Catalog, manage, logg))
			r.Route("/units", controllers.UnitRoutes(d.Catalog, manage, logg))
		}
		if d.Users != nil {
			r.Route("/users", controllers.UserRoutes(d.Users, manage, logg))
		}
		if d.Transactions != nil {
			r.Route("/transactions", controllers.TransactionRoutes(d.Transactions, d.Register, manage, logg))
		}
		if d.Reports != nil {
			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin, enums.RolePemilik))
				controllers.ReportRoutes(d.Reports, logg)(r)
			})
		}
	})

	return r
}

func registerRoutes(counter registerCounter, idemStore middleware.IdempotencyStore, cfg *config.Config, logg *logger.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin, enums.RoleKasir))

		r.Get("/", controllers.RegisterView(counter))
		r.Get("/search", controllers.RegisterSearchResults(counter))
		r.Put("/search", controllers.RegisterSearch(counter, logg))
		r.Post("/cart/items", controllers.RegisterAddItem(counter, logg))
		r.Put("/cart/items/{productId}", controllers.RegisterSetQuantity(counter, logg))
		r.Delete("/cart/items/{productId}", controllers.RegisterRemoveItem(counter, logg))
		r.Put("/payment", controllers.RegisterSetPayment(counter, logg))
		r.With(middleware.Idempotency(idemStore, cfg.Idempotency.TTL, logg, controllers.CheckoutFingerprint(counter))).
			Post("/checkout", controllers.RegisterCheckout(counter, logg))
		r.Post("/acknowledge", controllers.RegisterAcknowledge(counter, logg))
		r.Post("/dismiss", controllers.RegisterDismiss(counter, logg))
		r.Post("/reset", controllers.RegisterReset(counter, logg))
		r.Get("/receipt", controllers.RegisterReceipt(counter, logg))
	}
}
