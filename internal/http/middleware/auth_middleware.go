package middleware

import (
	"context"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sandeepkv93/secure-forum-backend/internal/http/response"
	"github.com/sandeepkv93/secure-forum-backend/internal/security"
	"github.com/sandeepkv93/secure-forum-backend/internal/service"
)

type contextKey string

const (
	PrincipalContextKey contextKey = "principal"
)

// SessionResolver is the part of the session manager the middleware needs.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (service.Principal, bool, error)
}

// SessionMiddleware attaches the principal behind the session cookie, if any. It never
// rejects a request; routes that need a caller use RequirePrincipal.
func SessionMiddleware(resolver SessionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.GetCookie(r, cookieName)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok, err := resolver.Resolve(r.Context(), raw)
			if err != nil {
				slog.WarnContext(r.Context(), "session resolution failed, continuing anonymously",
					"request_id", chimiddleware.GetReqID(r.Context()),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequirePrincipal answers 401 unless SessionMiddleware attached a principal.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			response.Error(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithPrincipal(ctx context.Context, p service.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

func PrincipalFromContext(ctx context.Context) (service.Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(service.Principal)
	return p, ok && p.UserID != ""
}
