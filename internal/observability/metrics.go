package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sandeepkv93/secure-forum-backend/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "secure-forum-backend"

type AppMetrics struct {
	signInCounter       metric.Int64Counter
	signUpCounter       metric.Int64Counter
	signOutCounter      metric.Int64Counter
	sessionResolveCount metric.Int64Counter
	contentMutation     metric.Int64Counter
	repositoryOps       metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	var mp *sdkmetric.MeterProvider
	if !cfg.OTELMetricsEnabled {
		mp = sdkmetric.NewMeterProvider()
		logger.Info("otel metrics disabled")
	} else {
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
		if cfg.OTELExporterOTLPInsecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp metric exporter: %w", err)
		}
		res, err := newResource(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create metric resource: %w", err)
		}
		reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
		mp = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
		logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	}
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var (
		m   AppMetrics
		err error
	)
	counters := []struct {
		name   string
		target *metric.Int64Counter
	}{
		{"auth.signin.attempts", &m.signInCounter},
		{"auth.signup.attempts", &m.signUpCounter},
		{"auth.signout.attempts", &m.signOutCounter},
		{"session.resolutions", &m.sessionResolveCount},
		{"content.mutations", &m.contentMutation},
		{"repository.operations", &m.repositoryOps},
	}
	for _, c := range counters {
		*c.target, err = meter.Int64Counter(c.name)
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", c.name, err)
		}
	}
	return &m, nil
}

func loadMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordSignIn(ctx context.Context, status string) {
	if m := loadMetrics(); m != nil {
		m.signInCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordSignUp(ctx context.Context, status string) {
	if m := loadMetrics(); m != nil {
		m.signUpCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordSignOut(ctx context.Context, status string) {
	if m := loadMetrics(); m != nil {
		m.signOutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

// RecordSessionResolution counts cookie resolutions by outcome: active, anonymous, unknown,
// revoked, expired or error.
func RecordSessionResolution(ctx context.Context, outcome string) {
	if m := loadMetrics(); m != nil {
		m.sessionResolveCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordContentMutation(ctx context.Context, entity, action, status string) {
	if m := loadMetrics(); m != nil {
		m.contentMutation.Add(ctx, 1, metric.WithAttributes(
			attribute.String("entity", entity),
			attribute.String("action", action),
			attribute.String("status", status),
		))
	}
}

func RecordRepositoryOperation(ctx context.Context, repo, op, outcome string) {
	if m := loadMetrics(); m != nil {
		m.repositoryOps.Add(ctx, 1, metric.WithAttributes(
			attribute.String("repository", repo),
			attribute.String("operation", op),
			attribute.String("outcome", outcome),
		))
	}
}
