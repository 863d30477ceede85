package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func TestSecurityHeadersAreSet(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/conversations", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	} {
		if got := rr.Header().Get(header); got != want {
			t.Fatalf("%s=%q want %q", header, got, want)
		}
	}
}

func TestBodyLimitRejectsDeclaredOversizeBody(t *testing.T) {
	h := BodyLimit(8)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("expected oversize body to be rejected before the handler")
	}))
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(`{"content":"far too long"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestBodyLimitCapsStreamingBody(t *testing.T) {
	var readErr error
	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/messages", io.NopCloser(strings.NewReader("0123456789")))
	req.ContentLength = -1
	h.ServeHTTP(httptest.NewRecorder(), req)
	if readErr == nil {
		t.Fatal("expected read past the limit to fail")
	}
}

func TestRouteGroup(t *testing.T) {
	cases := map[string]string{
		"/":                             "root",
		"/auth/sign-in":                 "auth",
		"/conversations/0190-abc":       "conversations",
		"/messages/0190-abc":            "messages",
		"/users/0190-abc/contributions": "users",
		"/health/ready":                 "health",
		"/favicon.ico":                  "other",
	}
	for input, expected := range cases {
		if got := routeGroup(input); got != expected {
			t.Fatalf("routeGroup(%q)=%q want %q", input, got, expected)
		}
	}
}

func TestStructuredRequestLoggerWritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := chimiddleware.RequestID(StructuredRequestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/conversations/x", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["status"] != float64(http.StatusTeapot) || line["route_group"] != "conversations" || line["bytes"] != float64(2) {
		t.Fatalf("unexpected access log %v", line)
	}
	if id, _ := line["request_id"].(string); id == "" {
		t.Fatalf("expected request id in access log, got %v", line)
	}
}
