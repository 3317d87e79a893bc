package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/apiclient"
	"github.com/cebeepredict/admin/internal/cms"
	"github.com/cebeepredict/admin/internal/config"
	"github.com/cebeepredict/admin/internal/definition"
	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/internal/session"
	"github.com/cebeepredict/admin/internal/ui"
	"github.com/cebeepredict/admin/model"
)

// APIPrefix is the mount point of the JSON admin API.
const APIPrefix = "/ui/api"

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config    *config.Config
	Registry  *definition.Registry
	Resources *resource.Provider
	Content   *cms.Service
	Auth      *session.Authenticator
	Cookies   *session.Cookies
	Client    *apiclient.Client
	Pages     *ui.Handler
	Metrics   *observability.Metrics
	Logger    *zap.Logger

	HealthHandler  http.Handler
	ReadyHandler   http.Handler
	MetricsHandler http.Handler
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints are public;
// the JSON API and the admin pages require a signed-in session except for
// their login endpoints.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery)
	r.Use(observability.TracingMiddleware)
	r.Use(RequestID)
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(SecurityHeaders)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.MetricsMiddleware)
	}

	// Public routes.
	r.Get("/ui/health", orDefault(deps.HealthHandler, observability.HandleHealth()).ServeHTTP)
	r.Get("/ui/ready", orDefault(deps.ReadyHandler, observability.HandleReady(observability.ReadinessChecks{
		DefinitionsLoaded: func() bool { return deps.Registry.Count() > 0 },
	})).ServeHTTP)
	if mc := deps.Config.Observability.Metrics; mc.Enabled {
		r.Get(mc.Path, orDefault(deps.MetricsHandler, observability.Handler()).ServeHTTP)
	}

	// Session-scoped routes.
	r.Group(func(r chi.Router) {
		r.Use(deps.Cookies.Middleware)
		r.Use(BuildRequestContext)
		r.Use(RequestLogging)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))

		r.Route(APIPrefix, func(r chi.Router) {
			if rl := deps.Config.Server.RateLimit; rl.Enabled {
				r.Use(rateLimit(rl))
			}
			r.Use(RequireJSON)
			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				WriteNotFound(w, r, "no such API route")
			})
			r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
				WriteJSON(w, http.StatusMethodNotAllowed, errorResponse{
					Error: model.NewBadRequestError("method not allowed"),
				})
			})

			r.Post("/auth/login", handleLogin(deps.Auth, deps.Cookies, deps.Client, logger))

			r.Group(func(r chi.Router) {
				r.Use(RequireAPISession)

				r.Post("/auth/logout", handleLogout(deps.Auth, deps.Cookies))
				r.Get("/auth/me", handleMe)

				r.Get("/navigation", handleNavigation(deps.Registry))
				r.Get("/dashboard", handleDashboard(deps.Resources, deps.Client))

				r.Get("/resources/{resourceID}", handleGetDescriptor(deps.Resources))
				r.Get("/resources/{resourceID}/data", handleGetData(deps.Resources, deps.Client))
				r.Post("/resources/{resourceID}/records", handleCreateRecord(deps.Resources, deps.Client))
				r.Get("/resources/{resourceID}/records/{recordID}", handleGetRecord(deps.Resources, deps.Client))
				r.Put("/resources/{resourceID}/records/{recordID}", handleUpdateRecord(deps.Resources, deps.Client))
				r.Delete("/resources/{resourceID}/records/{recordID}", handleDeleteRecord(deps.Resources, deps.Client))
				r.Patch("/resources/{resourceID}/records/{recordID}/status", handleSetStatus(deps.Resources, deps.Client))
				r.Post("/resources/{resourceID}/records/{recordID}/actions/{actionID}", handleRunAction(deps.Resources, deps.Client))

				r.Get("/content", handleListContent(deps.Content))
				r.Get("/content/{contentID}", handleGetContent(deps.Content, deps.Client))
				r.Put("/content/{contentID}", handleSaveContent(deps.Content, deps.Client))
				r.Post("/content/{contentID}/items", handleUpsertItem(deps.Content, deps.Client))
				r.Put("/content/{contentID}/items/{itemID}", handleUpsertItem(deps.Content, deps.Client))
				r.Delete("/content/{contentID}/items/{itemID}", handleDeleteItem(deps.Content, deps.Client))
			})
		})

		if deps.Pages != nil {
			ui.MountRoutes(r, deps.Pages)
		}
	})

	return r
}

// rateLimit throttles the JSON API per client IP and answers with a
// RATE_LIMITED envelope.
func rateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, r, model.NewRateLimitedError(""))
		}),
	)
}

func orDefault(h, fallback http.Handler) http.Handler {
	if h != nil {
		return h
	}
	return fallback
}
