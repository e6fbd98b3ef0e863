package observability

import (
	"time"

	"recruitagent/internal/config"
)

const defaultServiceName = "recruitagent"

// ResolveConfig returns the observability section of cfg with the service
// version and empty fields filled in. A nil cfg yields console-free defaults
// with Prometheus enabled.
func ResolveConfig(cfg *config.Config, version string) config.ObservabilityConfig {
	if cfg == nil {
		return config.ObservabilityConfig{
			Enabled:        true,
			ServiceName:    defaultServiceName,
			ServiceVersion: version,
			Tracing:        config.TracingConfig{Enabled: true, SampleRate: 1.0},
			Metrics:        config.MetricsConfig{Enabled: true, CollectionInterval: 15 * time.Second},
			Prometheus:     config.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		}
	}

	obs := cfg.Observability
	if obs.ServiceName == "" {
		obs.ServiceName = defaultServiceName
	}
	// Use app version if service version not specified
	if obs.ServiceVersion == "" {
		obs.ServiceVersion = version
	}
	if obs.Metrics.CollectionInterval <= 0 {
		obs.Metrics.CollectionInterval = 15 * time.Second
	}
	if obs.Prometheus.Endpoint == "" {
		obs.Prometheus.Endpoint = "/metrics"
	}
	if obs.Tracing.SampleRate < 0 || obs.Tracing.SampleRate > 1 {
		obs.Tracing.SampleRate = 1.0
	}
	return obs
}
