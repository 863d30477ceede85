package loadgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestClassifyStatusClass(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		302: "3xx",
		404: "4xx",
		500: "5xx",
		100: "other",
	}
	for status, want := range cases {
		if got := classifyStatusClass(status); got != want {
			t.Fatalf("classifyStatusClass(%d)=%q want %q", status, got, want)
		}
	}
}

func TestNormalizeProfile(t *testing.T) {
	if got := normalizeProfile(""); got != "mixed" {
		t.Fatalf("normalizeProfile empty=%q want mixed", got)
	}
	if got := normalizeProfile("  AUTH  "); got != "auth" {
		t.Fatalf("normalizeProfile auth=%q want auth", got)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{BaseURL: "http://x", Profile: "chaos", Duration: time.Second, RPS: 1, Concurrency: 1},
		{BaseURL: "", Duration: time.Second, RPS: 1, Concurrency: 1},
		{BaseURL: "http://x", Duration: time.Second, RPS: 0, Concurrency: 1},
		{BaseURL: "http://x", Duration: time.Second, RPS: maxRPS + 1, Concurrency: 1},
		{BaseURL: "http://x", Duration: time.Second, RPS: 2_000_000_000, Concurrency: 1},
	}
	for i, cfg := range cases {
		if _, err := Run(t.Context(), cfg); err == nil {
			t.Fatalf("case %d: expected config error", i)
		}
	}
}

// fakeForum answers just enough of the API for workers to make progress.
func fakeForum(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	var seq atomic.Int64
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"message": "account created"})
	})
	mux.HandleFunc("POST /auth/sign-in", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session_token", Value: "t", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": fmt.Sprint(seq.Add(1))}})
	})
	mux.HandleFunc("POST /auth/signout", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /conversations", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("session_token"); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"conversationId": fmt.Sprint(seq.Add(1))})
	})
	mux.HandleFunc("POST /messages", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{"messageId": fmt.Sprint(seq.Add(1))})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunAgainstFakeForum(t *testing.T) {
	var hits atomic.Int64
	srv := fakeForum(t, &hits)

	res, err := Run(t.Context(), Config{
		BaseURL:     srv.URL,
		Profile:     "mixed",
		Duration:    300 * time.Millisecond,
		RPS:         100,
		Concurrency: 2,
		Seed:        7,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Actions["sign_up"] != 2 {
		t.Fatalf("expected one sign up per worker, got %+v", res.Actions)
	}
	if res.TotalRequests <= 6 || res.Failures != 0 {
		t.Fatalf("expected traffic without failures, got %+v", res)
	}
	if res.StatusClasses["2xx"] != res.TotalRequests {
		t.Fatalf("expected only 2xx from fake forum, got %+v", res.StatusClasses)
	}
}

func TestCommandCIOutput(t *testing.T) {
	var hits atomic.Int64
	srv := fakeForum(t, &hits)

	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--base-url", srv.URL, "--profile", "read", "--duration", "200ms", "--rps", "50", "--concurrency", "1", "--ci"})
	if err := cmd.ExecuteContext(t.Context()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var payload struct {
		OK     bool   `json:"ok"`
		Result Result `json:"result"`
	}
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("decode ci output %q: %v", out.String(), err)
	}
	if !payload.OK || payload.Result.TotalRequests == 0 {
		t.Fatalf("unexpected ci payload %+v", payload)
	}
	if strings.Contains(out.String(), "create_message") {
		t.Fatalf("read profile must not write, got %s", out.String())
	}
}
