package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ScrapeEndpoint serves the instruments of Meter in the Prometheus text
// format. Every endpoint owns its registry.
type ScrapeEndpoint struct {
	Handler http.Handler
	Meter   metric.Meter

	provider *sdkmetric.MeterProvider
}

// NewScrapeEndpoint creates an endpoint backed by a fresh registry.
func NewScrapeEndpoint() (*ScrapeEndpoint, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return &ScrapeEndpoint{
		Handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Meter:    provider.Meter(meterName),
		provider: provider,
	}, nil
}

// Shutdown stops the meter provider; later recordings are dropped.
func (e *ScrapeEndpoint) Shutdown(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
