package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/internal/service"
	"github.com/shawnhank/nomnomlog-sub000/pkg/health"
	"github.com/shawnhank/nomnomlog-sub000/pkg/middleware"
)

// ServiceName labels metrics and traces emitted by the API.
const ServiceName = "nomnomlog-api"

// RouterConfig carries everything the router mounts. Photos and Search may
// be nil when their backends are not configured.
type RouterConfig struct {
	Users       *service.UserService
	Restaurants *service.RestaurantService
	Meals       *service.MealService
	Tags        *service.TagService
	Photos      *service.PhotoService
	Search      *service.SearchService

	Resolver     middleware.Resolver
	Health       *health.Handler
	CORS         middleware.CORSConfig
	LoginLimiter *middleware.RateLimiter
	PprofCIDRs   []string
	Logger       *slog.Logger
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Authenticate(cfg.Resolver, logger))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	users := NewUserHandler(cfg.Users, logger)
	restaurants := NewRestaurantHandler(cfg.Restaurants, logger)
	meals := NewMealHandler(cfg.Meals, logger)
	tags := NewTagHandler(cfg.Tags, logger)
	photos := NewPhotoHandler(cfg.Photos, logger)
	search := NewSearchHandler(cfg.Search, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Group(func(r chi.Router) {
				if cfg.LoginLimiter != nil {
					r.Use(cfg.LoginLimiter.Middleware)
				}
				r.Post("/signup", users.Signup)
				r.Post("/login", users.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLogin)
				r.Get("/me", users.Me)
				r.Put("/profile", users.UpdateProfile)
				r.Put("/password", users.ChangePassword)
				r.Post("/logout", users.Logout)
			})
		})

		// Public so photos can be embedded as plain image links.
		r.With(middleware.PrivateCache(domain.PhotoURLLifetime/2)).Get("/photos/*", photos.Download)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin)

			r.Route("/restaurants", func(r chi.Router) {
				r.Get("/", restaurants.List)
				r.Post("/", restaurants.Create)
				r.Get("/{id}", restaurants.Get)
				r.Put("/{id}", restaurants.Update)
				r.Delete("/{id}", restaurants.Delete)
			})

			r.Route("/meals", func(r chi.Router) {
				r.Get("/", meals.List)
				r.Post("/", meals.Create)
				r.Get("/{id}", meals.Get)
				r.Put("/{id}", meals.Update)
				r.Delete("/{id}", meals.Delete)
			})

			r.Get("/tags", tags.List)
			r.Post("/photos/presign", photos.Presign)

			r.Get("/search/businesses", search.Search)
			r.Get("/search/businesses/{id}", search.Get)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/users", users.ListUsers)
		})
	})

	return r
}
