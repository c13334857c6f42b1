package otel

import (
	"context"
	"testing"

	"github.com/cruxauth/authsvc/metrics"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("authsvc-test")

	m := metrics.New(metrics.Config{Enabled: true, EnableLatencyHistograms: true})
	m.Inc(metrics.MetricSignUpSuccess)
	m.Inc(metrics.MetricSignUpSuccess)
	m.Inc(metrics.MetricSignInFailure)

	exp, err := NewExporter(meter, m)
	if err != nil {
		t.Fatalf("NewExporter error: %v", err)
	}
	defer exp.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected at least one scope of metrics")
	}
	if len(rm.ScopeMetrics[0].Metrics) == 0 {
		t.Fatal("expected at least one exported metric")
	}
}

func TestNewExporterRejectsNilArgs(t *testing.T) {
	if _, err := NewExporter(nil, metrics.New(metrics.Config{Enabled: true})); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	if _, err := NewExporter(provider.Meter("authsvc-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}
