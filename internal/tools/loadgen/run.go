package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const workerPassword = "Loadgen123!"

// maxRPS bounds the ticker interval well above zero.
const maxRPS = 100_000

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int            `json:"totalRequests"`
	Failures      int            `json:"failures"`
	StatusClasses map[string]int `json:"statusClasses"`
	Actions       map[string]int `json:"actions"`
	Elapsed       time.Duration  `json:"elapsed"`
}

var profileActions = map[string][]string{
	"read":  {"list_conversations", "get_conversation", "get_contributions"},
	"write": {"create_message", "edit_message", "create_conversation"},
	"auth":  {"sign_in", "sign_out_and_in"},
	"mixed": {"list_conversations", "get_conversation", "get_contributions", "create_message", "edit_message", "create_conversation", "sign_in"},
}

func normalizeProfile(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return "mixed"
	}
	return p
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}

type recorder struct {
	mu  sync.Mutex
	res Result
}

func (r *recorder) record(action string, status int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.TotalRequests++
	r.res.Actions[action]++
	class := "error"
	if err == nil {
		class = classifyStatusClass(status)
	}
	r.res.StatusClasses[class]++
	if err != nil || status >= 500 {
		r.res.Failures++
	}
}

// Run signs up one account per worker and then issues requests from the profile at an
// overall rate of cfg.RPS until cfg.Duration elapses. Setup failures abort the run.
func Run(ctx context.Context, cfg Config) (Result, error) {
	cfg.Profile = normalizeProfile(cfg.Profile)
	actions, ok := profileActions[cfg.Profile]
	if !ok {
		return Result{}, fmt.Errorf("unknown profile %q", cfg.Profile)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return Result{}, errors.New("base url is required")
	}
	if cfg.RPS < 1 || cfg.Concurrency < 1 || cfg.Duration <= 0 {
		return Result{}, errors.New("rps, concurrency and duration must be positive")
	}
	if cfg.RPS > maxRPS {
		return Result{}, fmt.Errorf("rps must be at most %d", maxRPS)
	}

	rec := &recorder{res: Result{StatusClasses: map[string]int{}, Actions: map[string]int{}}}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	tokens := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case tokens <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for i := range cfg.Concurrency {
		g.Go(func() error {
			w, err := newWorker(gctx, cfg, i, rec)
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("worker %d setup: %w", i, err)
			}
			w.loop(gctx, tokens, actions)
			return nil
		})
	}
	err := g.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.res.Elapsed = time.Since(start)
	return rec.res, err
}

type worker struct {
	baseURL        string
	client         *http.Client
	rng            *rand.Rand
	rec            *recorder
	email          string
	userID         string
	conversationID string
	messageID      string
}

func newWorker(ctx context.Context, cfg Config, index int, rec *recorder) (*worker, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	w := &worker{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Jar: jar, Timeout: 10 * time.Second},
		rng:     rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(index))),
		rec:     rec,
		email:   fmt.Sprintf("loadgen-%d-%d-%d@example.com", cfg.Seed, index, time.Now().UnixNano()),
	}

	status, err := w.do(ctx, "sign_up", http.MethodPost, "/auth/signup", map[string]string{
		"email": w.email, "password": workerPassword, "name": fmt.Sprintf("loadgen %d", index),
	}, nil)
	if err != nil || status != http.StatusCreated {
		return nil, fmt.Errorf("sign up: status=%d err=%v", status, err)
	}
	if err := w.signIn(ctx); err != nil {
		return nil, err
	}
	if err := w.createConversation(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *worker) loop(ctx context.Context, tokens <-chan struct{}, actions []string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tokens:
			w.act(ctx, actions[w.rng.IntN(len(actions))])
		}
	}
}

func (w *worker) act(ctx context.Context, action string) {
	switch action {
	case "list_conversations":
		_, _ = w.do(ctx, action, http.MethodGet, "/conversations", nil, nil)
	case "get_conversation":
		_, _ = w.do(ctx, action, http.MethodGet, "/conversations/"+w.conversationID, nil, nil)
	case "get_contributions":
		_, _ = w.do(ctx, action, http.MethodGet, "/users/"+w.userID+"/contributions", nil, nil)
	case "create_message":
		var out struct {
			MessageID string `json:"messageId"`
		}
		status, err := w.do(ctx, action, http.MethodPost, "/messages", map[string]string{
			"conversationId": w.conversationID,
			"content":        fmt.Sprintf("message %d", w.rng.IntN(1_000_000)),
		}, &out)
		if err == nil && status == http.StatusCreated {
			w.messageID = out.MessageID
		}
	case "edit_message":
		if w.messageID == "" {
			w.act(ctx, "create_message")
			return
		}
		_, _ = w.do(ctx, action, http.MethodPatch, "/messages/"+w.messageID, map[string]string{
			"content": fmt.Sprintf("edited %d", w.rng.IntN(1_000_000)),
		}, nil)
	case "create_conversation":
		_ = w.createConversation(ctx)
	case "sign_in":
		_ = w.signIn(ctx)
	case "sign_out_and_in":
		_, _ = w.do(ctx, "sign_out", http.MethodPost, "/auth/signout", nil, nil)
		_ = w.signIn(ctx)
	}
}

func (w *worker) signIn(ctx context.Context) error {
	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	status, err := w.do(ctx, "sign_in", http.MethodPost, "/auth/sign-in", map[string]string{
		"email": w.email, "password": workerPassword,
	}, &out)
	if err != nil || status != http.StatusOK {
		return fmt.Errorf("sign in: status=%d err=%v", status, err)
	}
	w.userID = out.User.ID
	return nil
}

func (w *worker) createConversation(ctx context.Context) error {
	var out struct {
		ConversationID string `json:"conversationId"`
	}
	status, err := w.do(ctx, "create_conversation", http.MethodPost, "/conversations", map[string]string{
		"title":   fmt.Sprintf("loadgen thread %d", w.rng.IntN(1_000_000)),
		"content": "opening message",
	}, &out)
	if err != nil || status != http.StatusCreated {
		return fmt.Errorf("create conversation: status=%d err=%v", status, err)
	}
	w.conversationID = out.ConversationID
	return nil
}

func (w *worker) do(ctx context.Context, action, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, w.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := w.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			w.rec.record(action, 0, err)
		}
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	w.rec.record(action, resp.StatusCode, nil)
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", action, err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}
