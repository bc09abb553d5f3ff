package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/schoolhub/school-directory-service/internal/health"
	"github.com/schoolhub/school-directory-service/internal/http/handler"
	"github.com/schoolhub/school-directory-service/internal/http/middleware"
	"github.com/schoolhub/school-directory-service/internal/http/response"
	"github.com/schoolhub/school-directory-service/internal/security"
)

// School image uploads ride a multipart body, so mutating school routes get
// a larger body cap than the JSON-only default.
const (
	defaultBodyLimit = 1 << 20
	uploadBodyLimit  = 6 << 20
)

type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	SchoolHandler     *handler.SchoolHandler
	Sessions          *security.SessionManager
	SessionCookieName string

	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int

	// When nil, local in-process fixed windows stand in.
	GlobalRateLimiter func(http.Handler) http.Handler
	AuthRateLimiter   func(http.Handler) http.Handler

	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(defaultBodyLimit))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}

	sessionGate := middleware.SessionMiddleware(dep.Sessions, dep.SessionCookieName)
	sessionOptional := middleware.OptionalSessionMiddleware(dep.Sessions, dep.SessionCookieName)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/otp/request", dep.AuthHandler.RequestOTP)
			r.With(authLimiter).Post("/otp/verify", dep.AuthHandler.VerifyOTP)
			r.With(sessionOptional).Get("/me", dep.AuthHandler.Me)
			r.With(sessionOptional).Post("/logout", dep.AuthHandler.Logout)
		})

		r.Route("/schools", func(r chi.Router) {
			// Browsing the directory needs no account.
			r.Get("/", dep.SchoolHandler.List)
			r.Get("/{id}", dep.SchoolHandler.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(sessionGate)
				r.With(middleware.BodyLimit(uploadBodyLimit)).Post("/", dep.SchoolHandler.Create)
				r.With(middleware.BodyLimit(uploadBodyLimit)).Patch("/{id}", dep.SchoolHandler.Update)
				r.With(middleware.BodyLimit(uploadBodyLimit)).Put("/{id}", dep.SchoolHandler.Update)
				r.Delete("/{id}", dep.SchoolHandler.Delete)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
