package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/secure-forum-backend/internal/health"
	"github.com/sandeepkv93/secure-forum-backend/internal/http/handler"
	"github.com/sandeepkv93/secure-forum-backend/internal/http/middleware"
	"github.com/sandeepkv93/secure-forum-backend/internal/http/response"
)

type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	ConversationHandler *handler.ConversationHandler
	MessageHandler      *handler.MessageHandler
	UserHandler         *handler.UserHandler
	Sessions            middleware.SessionResolver
	SessionCookieName   string
	MaxBodyBytes        int64
	Readiness           *health.CheckRunner
	EnableOTelHTTP      bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(dep.MaxBodyBytes))

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
		response.JSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "unready", "error": "dependencies are not ready", "checks": results})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(dep.Sessions, dep.SessionCookieName))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", dep.AuthHandler.SignUp)
			r.Post("/sign-in", dep.AuthHandler.SignIn)
			r.Post("/signout", dep.AuthHandler.SignOut)
			r.With(middleware.RequirePrincipal).Get("/sessions", dep.AuthHandler.Sessions)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", dep.ConversationHandler.List)
			r.Get("/{id}", dep.ConversationHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePrincipal)
				r.Post("/", dep.ConversationHandler.Create)
				r.Patch("/{id}", dep.ConversationHandler.UpdateTitle)
				r.Delete("/{id}", dep.ConversationHandler.Delete)
			})
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/{id}", dep.MessageHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePrincipal)
				r.Post("/", dep.MessageHandler.Create)
				r.Patch("/{id}", dep.MessageHandler.Update)
				r.Delete("/{id}", dep.MessageHandler.Delete)
			})
		})

		r.Get("/users/{id}/contributions", dep.UserHandler.Contributions)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
