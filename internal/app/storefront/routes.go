package storefront

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/fashion-storefront/docs"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/handlers/auth"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/handlers/cart"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/handlers/favorites"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/handlers/health"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/handlers/newsletter"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/handlers/products"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fashion-storefront/internal/metrics"
	authservice "github.com/magabrotheeeer/fashion-storefront/internal/services/auth"
	catalogservice "github.com/magabrotheeeer/fashion-storefront/internal/services/catalog"
	newsletterservice "github.com/magabrotheeeer/fashion-storefront/internal/services/newsletter"
)

// Dependencies сервисы, которые обслуживают маршруты.
type Dependencies struct {
	Devices    middlewarectx.DeviceRegistry
	Limiter    *middlewarectx.RateLimiter
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Catalog    *catalogservice.Service
	Auth       *authservice.AuthService
	Newsletter *newsletterservice.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Dependencies) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware(d.Metrics.HTTPDuration),
	)

	productsHandler := products.New(logger, d.Catalog, d.Auth)
	cartHandler := cart.New(logger, d.Catalog)
	favoritesHandler := favorites.New(logger, d.Catalog)
	newsletterHandler := newsletter.New(logger, d.Newsletter)
	authHandler := auth.New(logger, d.Auth)

	jwtAuth := middlewarectx.JWTMiddleware(d.Auth, logger)
	adminOnly := middlewarectx.RequireAdmin(logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New(logger).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(d.Limiter, logger))
			r.Use(middlewarectx.DeviceMiddleware(d.Devices, logger))

			// Открытые конечные точки
			r.Get("/products", productsHandler.List)
			r.Get("/products/categories", productsHandler.Categories)
			r.Get("/products/{id}", productsHandler.Get)

			r.Get("/cart", cartHandler.Get)
			r.Delete("/cart", cartHandler.Clear)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Put("/cart/items/{id}", cartHandler.UpdateItem)
			r.Delete("/cart/items/{id}", cartHandler.RemoveItem)
			r.Post("/cart/checkout", cartHandler.Checkout)

			r.Get("/favorites", favoritesHandler.List)
			r.Post("/favorites/{id}/toggle", favoritesHandler.Toggle)
			r.Put("/favorites/{id}", favoritesHandler.Add)
			r.Delete("/favorites/{id}", favoritesHandler.Remove)

			r.Post("/newsletter/subscribe", newsletterHandler.Subscribe)
			r.Post("/newsletter/unsubscribe", newsletterHandler.Unsubscribe)

			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/logout", authHandler.Logout)
			r.With(jwtAuth).Get("/auth/me", authHandler.Me)

			// Только для администратора
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth, adminOnly)
				r.Post("/products", productsHandler.Create)
				r.Put("/products/{id}", productsHandler.Update)
				r.Delete("/products/{id}", productsHandler.Delete)

				r.Get("/admin/newsletter/subscribers", newsletterHandler.Subscribers)
				r.Get("/admin/newsletter/subscribers.csv", newsletterHandler.Export)
				r.Delete("/admin/newsletter/subscribers/{email}", newsletterHandler.Remove)
				r.Get("/admin/newsletter/stats", newsletterHandler.Stats)
			})
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
