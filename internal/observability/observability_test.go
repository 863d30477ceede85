package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sandeepkv93/secure-forum-backend/internal/config"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordRepositoryOperationCounts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	metricsMu.Lock()
	prev := appMetrics
	appMetrics = m
	metricsMu.Unlock()
	t.Cleanup(func() {
		metricsMu.Lock()
		appMetrics = prev
		metricsMu.Unlock()
	})

	ctx := context.Background()
	RecordRepositoryOperation(ctx, "session", "create", "success")
	RecordRepositoryOperation(ctx, "session", "create", "success")
	RecordSignIn(ctx, "failure")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[metric.Name] += dp.Value
			}
		}
	}
	if totals["repository.operations"] != 2 {
		t.Fatalf("expected 2 repository operations, got %d", totals["repository.operations"])
	}
	if totals["auth.signin.attempts"] != 1 {
		t.Fatalf("expected 1 signin attempt, got %d", totals["auth.signin.attempts"])
	}
}

func TestRecordWithoutInitIsNoop(t *testing.T) {
	metricsMu.Lock()
	prev := appMetrics
	appMetrics = nil
	metricsMu.Unlock()
	defer func() {
		metricsMu.Lock()
		appMetrics = prev
		metricsMu.Unlock()
	}()
	RecordContentMutation(context.Background(), "message", "create", "success")
	RecordSessionResolution(context.Background(), "anonymous")
}

func TestInitRuntimeDisabledSignals(t *testing.T) {
	cfg := &config.Config{OTELServiceName: "forum-test", OTELEnvironment: "test"}
	var buf bytes.Buffer
	rt, err := InitRuntime(context.Background(), cfg, NewLogger(&buf, "info"))
	if err != nil {
		t.Fatalf("init runtime: %v", err)
	}
	if rt.LoggerProvider != nil {
		t.Fatal("log provider should be nil when OTLP logs are disabled")
	}
	if err := rt.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "otel metrics disabled") {
		t.Fatalf("expected disabled metrics log, got %s", buf.String())
	}
}

func TestFanoutHandlerWritesToAll(t *testing.T) {
	var a, b bytes.Buffer
	h := fanoutHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	logger := slog.New(h).With("component", "test")
	logger.Info("info line")
	logger.Warn("warn line")

	if strings.Count(a.String(), "\n") != 2 {
		t.Fatalf("expected two lines in first handler, got %q", a.String())
	}
	if strings.Count(b.String(), "\n") != 1 || !strings.Contains(b.String(), `"component":"test"`) {
		t.Fatalf("unexpected second handler output %q", b.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, " WARN ": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "bogus": slog.LevelInfo}
	for raw, want := range cases {
		if got := ParseLogLevel(raw); got != want {
			t.Fatalf("ParseLogLevel(%q)=%v want %v", raw, got, want)
		}
	}
}

func TestAuditIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	req := httptest.NewRequest("POST", "/auth/sign-in", nil)
	ctx := context.WithValue(req.Context(), chimiddleware.RequestIDKey, "req-1")
	Audit(req.WithContext(ctx), "auth.signin", "outcome", "success")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode audit line: %v", err)
	}
	if entry["event"] != "auth.signin" || entry["request_id"] != "req-1" || entry["outcome"] != "success" {
		t.Fatalf("unexpected audit entry: %v", entry)
	}
}
