package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/auth"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/leave"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/observability/metrics"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/observability/tracing"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport/middleware"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport/swagger"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	User       *user.Handler
	Attendance *attendance.Handler
	Leave      *leave.Handler
	Health     *HealthHandler
}

type Options struct {
	AllowedOrigins []string
	AuthLimiter    *middleware.RateLimiter
	MetricsPath    string
	Tracing        bool
	ServiceName    string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TraceID)
	router.Use(middleware.RecoveryMiddleware(logger))
	if opts.Tracing {
		router.Use(tracing.Middleware(opts.ServiceName))
	}
	router.Use(metrics.HTTPMetricsMiddleware)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":404,"message":"Route not found"}`))
	})

	if opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, promhttp.Handler())
	}

	// Serve OpenAPI document at root (outside API prefix)
	router.Get(swagger.DocumentPath, swagger.DocumentHandler)
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.LoggingMiddleware(logger))

		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		// Public auth routes
		r.Group(func(pub chi.Router) {
			if opts.AuthLimiter != nil {
				pub.Use(opts.AuthLimiter.Limit)
			}
			pub.Post("/signup", h.Auth.Signup)
			pub.Post("/signin", h.Auth.Signin)
			pub.Post("/reset-password", h.Auth.ResetPassword)
		})

		// Bearer protected routes
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/{id}", h.User.GetUser)
			pr.Get("/users/organization/{organization}", h.User.GetAllUsers)
			pr.Put("/users", h.User.UpdateUser)

			pr.Post("/clock", h.Attendance.ClockInOut)
			pr.Get("/attendence/today/{id}", h.Attendance.Today)
			pr.Get("/attendence/month-year/{id}", h.Attendance.GroupByMonthYear)
			pr.Post("/attendence/date-range", h.Attendance.ListByDateRange)
			pr.Post("/attendence/csv/month", h.Attendance.ExportMonth)
			pr.Get("/attendence/{id}", h.Attendance.ListByUser)

			pr.Post("/leave", h.Leave.Submit)
			pr.Get("/leave/{id}", h.Leave.List)

			// Admin routes
			pr.Group(func(ar chi.Router) {
				ar.Use(h.RBAC.RequireAdmin())

				ar.Post("/users", h.User.AddUser)
				ar.Put("/leave/decide", h.Leave.Decide)
				ar.Get("/attendence/csv/{id}", h.Attendance.ExportOrganization)
				ar.Put("/attendence", h.Attendance.Update)
				ar.Put("/attendence/bulk", h.Attendance.BulkUpdate)
			})
		})
	})
}
