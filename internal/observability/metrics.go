package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics tracks the attachment lifecycle. All record methods are nil-safe
// so call sites never have to branch on whether metrics are enabled.
type Metrics struct {
	uploadsStarted   metric.Int64Counter
	uploadsSucceeded metric.Int64Counter
	uploadsFailed    metric.Int64Counter
	intakeRejected   metric.Int64Counter
	uploadDuration   metric.Float64Histogram
	itemsSelected    metric.Int64UpDownCounter

	prometheusServer *http.Server
}

// MetricsConfig configures the metrics collector.
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled" yaml:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port" yaml:"prometheus_port"`
}

// NewMetrics creates the collector and, when enabled, serves a Prometheus
// scrape endpoint on the configured port.
func NewMetrics(config MetricsConfig) (*Metrics, error) {
	if !config.Enabled {
		return nil, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter("satchel")

	m := &Metrics{}

	if m.uploadsStarted, err = meter.Int64Counter(
		"satchel.uploads.started.total",
		metric.WithDescription("Uploads entered into the selection"),
		metric.WithUnit("{upload}"),
	); err != nil {
		return nil, fmt.Errorf("create uploads_started counter: %w", err)
	}

	if m.uploadsSucceeded, err = meter.Int64Counter(
		"satchel.uploads.succeeded.total",
		metric.WithDescription("Uploads that reached uploaded status"),
		metric.WithUnit("{upload}"),
	); err != nil {
		return nil, fmt.Errorf("create uploads_succeeded counter: %w", err)
	}

	if m.uploadsFailed, err = meter.Int64Counter(
		"satchel.uploads.failed.total",
		metric.WithDescription("Uploads that failed or returned nothing usable"),
		metric.WithUnit("{upload}"),
	); err != nil {
		return nil, fmt.Errorf("create uploads_failed counter: %w", err)
	}

	if m.intakeRejected, err = meter.Int64Counter(
		"satchel.intake.rejected.total",
		metric.WithDescription("Files rejected before any upload began"),
		metric.WithUnit("{file}"),
	); err != nil {
		return nil, fmt.Errorf("create intake_rejected counter: %w", err)
	}

	if m.uploadDuration, err = meter.Float64Histogram(
		"satchel.upload.duration",
		metric.WithDescription("Upload round-trip duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create upload_duration histogram: %w", err)
	}

	if m.itemsSelected, err = meter.Int64UpDownCounter(
		"satchel.items.selected",
		metric.WithDescription("Attachment items currently selected"),
		metric.WithUnit("{item}"),
	); err != nil {
		return nil, fmt.Errorf("create items_selected gauge: %w", err)
	}

	if config.PrometheusPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promclient.Handler())
		m.prometheusServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", config.PrometheusPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			_ = m.prometheusServer.ListenAndServe()
		}()
	}

	return m, nil
}

// Shutdown stops the scrape endpoint.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.prometheusServer == nil {
		return nil
	}
	return m.prometheusServer.Shutdown(ctx)
}

// UploadStarted records an optimistic insertion.
func (m *Metrics) UploadStarted(ctx context.Context) {
	if m != nil && m.uploadsStarted != nil {
		m.uploadsStarted.Add(ctx, 1)
	}
}

// UploadSucceeded records a completed upload and its duration.
func (m *Metrics) UploadSucceeded(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	if m.uploadsSucceeded != nil {
		m.uploadsSucceeded.Add(ctx, 1)
	}
	if m.uploadDuration != nil {
		m.uploadDuration.Record(ctx, seconds)
	}
}

// UploadFailed records a failed upload, labelled by failure code.
func (m *Metrics) UploadFailed(ctx context.Context, code string) {
	if m != nil && m.uploadsFailed != nil {
		m.uploadsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
	}
}

// IntakeRejected records a file refused before upload, labelled by code.
func (m *Metrics) IntakeRejected(ctx context.Context, code string) {
	if m != nil && m.intakeRejected != nil {
		m.intakeRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
	}
}

// ItemsSelected moves the selected-item gauge by delta.
func (m *Metrics) ItemsSelected(ctx context.Context, delta int64) {
	if m != nil && m.itemsSelected != nil {
		m.itemsSelected.Add(ctx, delta)
	}
}
