// Package httpapi is the REST transport of the API server: a chi router
// exposing the auth and user endpoints under /api/v1, plus the middleware
// chain (request id, CORS, timing, rate limiting, bearer and API-key
// authentication). It is the only place where errors become HTTP statuses.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/qaapi/internal/logging"
	"github.com/dmitrijs2005/qaapi/internal/server/auth"
	"github.com/dmitrijs2005/qaapi/internal/server/ratelimit"
	"github.com/dmitrijs2005/qaapi/internal/server/services"
)

const (
	APIPrefix  = "/api/v1"
	APIVersion = "1.0.0"
	APITitle   = "QA API Testing Framework"
)

// Deps are the collaborators of the REST API. Limiter may be nil, which
// disables rate limiting.
type Deps struct {
	Auth        *services.AuthService
	Users       *services.UserService
	APIKeys     *auth.APIKeyRegistry
	Limiter     ratelimit.Limiter
	CORSOrigins []string
	Store       string
	Logger      logging.Logger
}

type API struct {
	auth        *services.AuthService
	users       *services.UserService
	apiKeys     *auth.APIKeyRegistry
	limiter     ratelimit.Limiter
	corsOrigins []string
	store       string
	logger      logging.Logger
	now         func() time.Time
}

func NewAPI(d Deps) *API {
	keys := d.APIKeys
	if keys == nil {
		keys = auth.NewAPIKeyRegistry(nil)
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &API{
		auth:        d.Auth,
		users:       d.Users,
		apiKeys:     keys,
		limiter:     d.Limiter,
		corsOrigins: origins,
		store:       d.Store,
		logger:      d.Logger.With("module", "http_api"),
		now:         time.Now,
	}
}

// Handler builds the router with every route and middleware mounted.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(a.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Request-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(a.requestLogger)
	if a.limiter != nil {
		r.Use(a.rateLimit)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeHTTPError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeHTTPError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", a.root)
	r.Get("/health", a.health)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/status", a.status)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", a.register)
			r.Post("/login", a.login)
			r.Post("/refresh", a.refresh)
			r.Post("/logout", a.logout)
			r.With(a.requireUser(auth.PredicateActive)).Get("/verify-token", a.verifyToken)
		})

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(a.requireUser(auth.PredicateActive))
				r.Get("/", a.listUsers)
				r.Get("/me", a.me)
				r.Put("/me", a.updateMe)
				r.Get("/count", a.countUsers)
				r.Get("/{id}", a.getUser)
			})
			r.Group(func(r chi.Router) {
				r.Use(a.requireUser(auth.PredicateActive, auth.PredicateSuperuser))
				r.Put("/{id}", a.updateUser)
				r.Delete("/{id}", a.deleteUser)
				r.Post("/{id}/deactivate", a.deactivateUser)
				r.Post("/{id}/activate", a.activateUser)
			})
		})

		r.Route("/service", func(r chi.Router) {
			r.Use(a.requireAPIKey)
			r.Get("/whoami", a.serviceWhoAmI)
		})
	})

	return r
}
