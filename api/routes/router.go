package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/feria-cr/feria-backend/api/controllers"
	"github.com/feria-cr/feria-backend/api/middleware"
	addresssvc "github.com/feria-cr/feria-backend/internal/addresses"
	analyticssvc "github.com/feria-cr/feria-backend/internal/analytics"
	authsvc "github.com/feria-cr/feria-backend/internal/auth"
	cartsvc "github.com/feria-cr/feria-backend/internal/cart"
	checkoutsvc "github.com/feria-cr/feria-backend/internal/checkout"
	favoritesvc "github.com/feria-cr/feria-backend/internal/favorites"
	ordersvc "github.com/feria-cr/feria-backend/internal/orders"
	productsvc "github.com/feria-cr/feria-backend/internal/products"
	reviewsvc "github.com/feria-cr/feria-backend/internal/reviews"
	storesvc "github.com/feria-cr/feria-backend/internal/stores"
	usersvc "github.com/feria-cr/feria-backend/internal/users"
	"github.com/feria-cr/feria-backend/pkg/auth/session"
	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/db"
	"github.com/feria-cr/feria-backend/pkg/enums"
	"github.com/feria-cr/feria-backend/pkg/logger"
	pkgredis "github.com/feria-cr/feria-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Sessions      session.AccessSessionChecker
	Auth          authsvc.Service
	Register      authsvc.RegisterService
	PasswordReset authsvc.PasswordResetService
	Users         usersvc.Service
	Addresses     addresssvc.Service
	Stores        storesvc.Service
	Products      productsvc.Service
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        ordersvc.Service
	Favorites     favoritesvc.Service
	Reviews       reviewsvc.Service
	Analytics     analyticssvc.Service
}

// NewRouter assembles the full marketplace HTTP surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbc *db.Client,
	redisClient *pkgredis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	// A nil client must become a nil interface so the middleware's
	// pass-through checks see it as absent.
	var idemStore pkgredis.IdempotencyStore
	var rateStore middleware.RateLimiterStore
	if redisClient != nil {
		idemStore = redisClient
		rateStore = redisClient
	}

	checkoutTTL := time.Duration(cfg.Checkout.IdempotencyTTLMinutes) * time.Minute
	idempotency := middleware.Idempotency(idemStore, logg, checkoutTTL)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbc, logg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/products", controllers.PublicListProducts(svcs.Products, logg))
		r.Get("/products/{id}", controllers.PublicGetProduct(svcs.Products, logg))
		r.Get("/products/{id}/reviews", controllers.ListProductReviews(svcs.Reviews, logg))
		r.Get("/stores/{slug}", controllers.PublicGetStore(svcs.Stores, logg))
		r.Get("/stores/{slug}/products", controllers.PublicStoreProducts(svcs.Stores, svcs.Products, logg))
		r.Get("/stores/{slug}/reviews", controllers.PublicStoreReviews(svcs.Stores, svcs.Reviews, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).
			Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, rateStore, logg), idempotency).
			Post("/register", controllers.AuthRegister(svcs.Register, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/password/forgot", controllers.AuthForgotPassword(svcs.PasswordReset, logg))
		r.Post("/password/reset", controllers.AuthResetPassword(svcs.PasswordReset, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, svcs.Sessions, logg))
		r.Use(idempotency)

		r.Get("/me", controllers.Me(svcs.Users, logg))
		r.Put("/me", controllers.UpdateMe(svcs.Users, logg))

		r.Route("/me/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(svcs.Addresses, logg))
			r.Post("/", controllers.AddressCreate(svcs.Addresses, logg))
			r.Put("/{id}", controllers.AddressUpdate(svcs.Addresses, logg))
			r.Delete("/{id}", controllers.AddressDelete(svcs.Addresses, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Put("/", controllers.CartReplace(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Post("/checkout", controllers.CheckoutPlaceOrder(svcs.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.BuyerListOrders(svcs.Orders, logg))
			r.Get("/{id}", controllers.BuyerGetOrder(svcs.Orders, logg))
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(svcs.Favorites, logg))
			r.Post("/{id}", controllers.FavoriteAdd(svcs.Favorites, logg))
			r.Delete("/{id}", controllers.FavoriteRemove(svcs.Favorites, logg))
		})

		r.Post("/products/{id}/reviews", controllers.SubmitProductReview(svcs.Reviews, logg))
		r.Get("/products/{id}/reviews", controllers.ListProductReviews(svcs.Reviews, logg))
		r.Post("/stores/{id}/reviews", controllers.SubmitStoreReview(svcs.Reviews, logg))

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleSeller.String(), enums.UserRoleAdmin.String()))

			r.Get("/store", controllers.SellerGetStore(svcs.Stores, logg))
			r.Put("/store", controllers.SellerUpdateStore(svcs.Stores, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.SellerListProducts(svcs.Products, logg))
				r.Post("/", controllers.SellerCreateProduct(svcs.Products, logg))
				r.Patch("/{id}", controllers.SellerUpdateProduct(svcs.Products, logg))
				r.Delete("/{id}", controllers.SellerDeleteProduct(svcs.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.SellerListOrders(svcs.Orders, logg))
				r.Get("/stats", controllers.SellerOrderStats(svcs.Analytics, logg))
				r.Get("/{id}", controllers.SellerGetOrder(svcs.Orders, logg))
				r.Patch("/{id}/status", controllers.SellerUpdateOrderStatus(svcs.Orders, logg))
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/summary", controllers.AnalyticsSummary(svcs.Analytics, logg))
				r.Get("/revenue", controllers.AnalyticsRevenue(svcs.Analytics, logg))
				r.Get("/status-breakdown", controllers.AnalyticsStatusBreakdown(svcs.Analytics, logg))
				r.Get("/top-products", controllers.AnalyticsTopProducts(svcs.Analytics, logg))
			})
		})
	})

	return r
}
