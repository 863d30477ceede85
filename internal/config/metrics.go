package config

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	loadCounterOnce sync.Once
	loadCounter     metric.Int64Counter
)

// recordConfigValidationEvent counts one Load call. The global meter delegates to the real
// provider once observability is initialised, so early calls are not lost.
func recordConfigValidationEvent(ctx context.Context, profile, outcome, errorClass string) {
	loadCounterOnce.Do(func() {
		c, err := otel.Meter("secure-forum-backend/config").Int64Counter(
			"config.validation.events",
			metric.WithDescription("Configuration load attempts by profile and failure class"),
		)
		if err == nil {
			loadCounter = c
		}
	})
	if loadCounter == nil {
		return
	}
	loadCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("profile", normalizeConfigProfile(profile)),
		attribute.String("outcome", outcome),
		attribute.String("error_class", errorClass),
	))
}

func normalizeConfigProfile(profile string) string {
	v := strings.TrimSpace(strings.ToLower(profile))
	switch v {
	case "":
		return "unknown"
	case "dev":
		return "development"
	case "prod":
		return "production"
	}
	return v
}

// classifyConfigLoadError buckets a Load error by the stage that produced it.
func classifyConfigLoadError(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.HasPrefix(msg, "validate config:") && strings.Contains(msg, "in production"):
		return "production_policy"
	case strings.HasPrefix(msg, "validate config:"):
		return "validation"
	case strings.HasPrefix(msg, "parse config file"):
		return "parse_file"
	case strings.HasPrefix(msg, "parse environment"):
		return "parse_env"
	default:
		return "load"
	}
}
