package api

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/daap14/blueprints/internal/api/handler"
	"github.com/daap14/blueprints/internal/api/middleware"
	"github.com/daap14/blueprints/internal/auth"
	"github.com/daap14/blueprints/internal/blueprint"
	"github.com/daap14/blueprints/internal/metrics"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Service        *blueprint.Service
	AuthService    *auth.Service
	StorePinger    handler.StorePinger
	StoreBackend   string
	Version        string
	Metrics        *metrics.Metrics
	OpenAPISpec    []byte
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "X-API-Key"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	filterName := ""
	if deps.Service != nil {
		filterName = deps.Service.Filter().String()
	}
	healthHandler := handler.NewHealthHandler(deps.StorePinger, deps.StoreBackend, filterName, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.JSON)
		r.Get("/openapi.yaml", openapiHandler.YAML)
	}

	if deps.Service != nil {
		bpHandler := handler.NewBlueprintHandler(deps.Service)
		r.Route("/api/v1/blueprints", func(r chi.Router) {
			r.Use(middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst))
			if deps.AuthService != nil {
				r.Use(middleware.Auth(deps.AuthService))
			}
			scoped := func(scope auth.Scope) chi.Router {
				if deps.AuthService == nil {
					return r
				}
				return r.With(middleware.RequireScope(scope))
			}

			scoped(auth.ScopeRead).Get("/", bpHandler.List)
			scoped(auth.ScopeWrite).Post("/", bpHandler.Create)
			scoped(auth.ScopeRead).Get("/{author}", bpHandler.ListByAuthor)
			scoped(auth.ScopeRead).Get("/{author}/{name}", bpHandler.Get)
			scoped(auth.ScopeAddPoint).Put("/{author}/{name}/points", bpHandler.AddPoint)
		})
	}

	return r
}
