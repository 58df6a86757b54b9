package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jaekwang-park/homework-api/internal/http/handler"
	"github.com/jaekwang-park/homework-api/internal/middleware"
	"github.com/jaekwang-park/homework-api/internal/service"
)

// RouterDeps collects what the routes are served from. Auth may be nil, in
// which case the sign-up, sign-in and /me routes are not mounted.
type RouterDeps struct {
	Logger         *slog.Logger
	Assignments    *service.AssignmentService
	Auth           *service.AuthService
	Feed           handler.Subscriber
	DB             handler.Pinger
	Authenticate   func(http.Handler) http.Handler
	AllowedOrigins []string
	Now            func() time.Time
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check - intentionally outside /api/v1 for ALB health check compatibility
	r.Method(http.MethodGet, "/health", handler.NewHealthHandler(deps.DB))

	assignments := handler.NewAssignmentHandler(deps.Assignments, deps.Now)
	live := handler.NewLiveHandler(deps.Feed, deps.Assignments, deps.AllowedOrigins, deps.Now)

	r.Route("/api/v1", func(r chi.Router) {
		var auth *handler.AuthHandler
		if deps.Auth != nil {
			auth = handler.NewAuthHandler(deps.Auth)
			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", auth.SignUp)
				r.Post("/confirm-signup", auth.ConfirmSignUp)
				r.Post("/resend-code", auth.ResendCode)
				r.Post("/login", auth.Login)
				r.Post("/refresh", auth.Refresh)
				r.Post("/logout", auth.Logout)
				r.Post("/password-strength", auth.PasswordStrength)
			})
		}

		r.Group(func(r chi.Router) {
			if deps.Authenticate != nil {
				r.Use(deps.Authenticate)
			}

			if auth != nil {
				r.Get("/me", auth.Me)
			}

			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", assignments.List)
				r.Post("/", assignments.Create)
				r.Get("/classify", assignments.Classify)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", assignments.Get)
					r.Put("/", assignments.Update)
					r.Delete("/", assignments.Delete)
					r.Patch("/completed", assignments.SetCompleted)
				})
			})

			r.Method(http.MethodGet, "/live", live)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	return r
}
