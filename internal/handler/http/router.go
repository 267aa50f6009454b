package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions carry the deployment settings the router needs.
type RouterOptions struct {
	Env                string
	Version            string
	LogLevel           slog.Level
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	// UploadsDir is served read-only under /uploads when set.
	UploadsDir string
}

type Handlers struct {
	Attendance   AttendanceHandler
	Break        BreakHandler
	Leave        LeaveHandler
	Notification NotificationHandler
}

func NewRouter(JWTService jwt.Service, h Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-cmlabs"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(chiMiddleware.Heartbeat("/"))

	if opts.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadsDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if opts.MaxBodyBytes > 0 {
			r.Use(chiMiddleware.RequestSize(opts.MaxBodyBytes))
		}

		authenticated := func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
		}

		r.Group(func(r chi.Router) {
			authenticated(r)

			r.Get("/home", h.Attendance.Home)
			r.Post("/checkin", h.Attendance.CheckIn)
			r.Post("/checkout", h.Attendance.CheckOut)

			r.Route("/break", func(r chi.Router) {
				r.Post("/start", h.Break.Start)
				r.Post("/end", h.Break.End)
				r.Get("/history", h.Break.History)
			})

			r.Post("/leave-apply", h.Leave.Apply)
			r.Get("/leave-list", h.Leave.List)
			r.Get("/leave-dashboard", h.Leave.Dashboard)
			r.Get("/leave-balance", h.Leave.Balance)

			r.Route("/leaves/{id}", func(r chi.Router) {
				r.Get("/", h.Leave.Get)
				r.Post("/cancel", h.Leave.Cancel)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(employee.PermissionLeaveApprove))
					r.Post("/approve", h.Leave.Approve)
					r.Post("/reject", h.Leave.Reject)
				})
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			// EventSource cannot send an Authorization header.
			r.Get("/stream", h.Notification.Stream)

			r.Group(func(r chi.Router) {
				authenticated(r)
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Post("/read-all", h.Notification.MarkAllAsRead)
				r.Post("/{id}/read", h.Notification.MarkAsRead)
				r.Get("/sse-token", h.Notification.GetSSEToken)
			})
		})
	})
	return r
}
