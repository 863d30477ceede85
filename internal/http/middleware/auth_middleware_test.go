package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sandeepkv93/secure-forum-backend/internal/service"
)

type stubResolver struct {
	principals map[string]service.Principal
	err        error
	calls      int
}

func (s *stubResolver) Resolve(_ context.Context, token string) (service.Principal, bool, error) {
	s.calls++
	if s.err != nil {
		return service.Principal{}, false, s.err
	}
	p, ok := s.principals[token]
	return p, ok, nil
}

func principalEcho(t *testing.T, want string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if want == "" && ok {
			t.Fatalf("expected anonymous request, got principal %q", p.UserID)
		}
		if want != "" && (!ok || p.UserID != want) {
			t.Fatalf("expected principal %q, got %q (ok=%v)", want, p.UserID, ok)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestSessionMiddlewareAttachesPrincipal(t *testing.T) {
	resolver := &stubResolver{principals: map[string]service.Principal{
		"good": {UserID: "u-1", SessionID: "s-1", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	cases := []struct {
		name      string
		cookie    string
		want      string
		wantCalls int
	}{
		{name: "no cookie", cookie: "", want: "", wantCalls: 0},
		{name: "unknown token", cookie: "bad", want: "", wantCalls: 1},
		{name: "active token", cookie: "good", want: "u-1", wantCalls: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver.calls = 0
			h := SessionMiddleware(resolver, "session_token")(principalEcho(t, tc.want))
			req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session_token", Value: tc.cookie})
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != http.StatusNoContent {
				t.Fatalf("expected 204, got %d", rr.Code)
			}
			if resolver.calls != tc.wantCalls {
				t.Fatalf("expected %d resolver calls, got %d", tc.wantCalls, resolver.calls)
			}
		})
	}
}

func TestSessionMiddlewareStoreFailureIsAnonymous(t *testing.T) {
	resolver := &stubResolver{err: errors.New("db down")}
	h := SessionMiddleware(resolver, "session_token")(principalEcho(t, ""))
	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "anything"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected request to continue anonymously, got %d", rr.Code)
	}
}

func TestRequirePrincipal(t *testing.T) {
	h := RequirePrincipal(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/conversations", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != "{\"error\":\"authentication required\"}\n" {
		t.Fatalf("unexpected body %q", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/conversations", nil)
	req = req.WithContext(WithPrincipal(req.Context(), service.Principal{UserID: "u-1"}))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with principal, got %d", rr.Code)
	}
}

func TestPrincipalFromContextRejectsEmptyUser(t *testing.T) {
	ctx := WithPrincipal(context.Background(), service.Principal{})
	if _, ok := PrincipalFromContext(ctx); ok {
		t.Fatal("expected empty principal to be treated as anonymous")
	}
}
