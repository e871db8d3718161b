package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector
	gatherer      promclient.Gatherer

	// OTel meters and instruments
	meter            metric.Meter
	booksStoredGauge metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format.
// A nil registry means the Prometheus default registry.
func NewOTelExporter(collector Collector, reg *promclient.Registry) (*OTelExporter, error) {
	var registerer promclient.Registerer = promclient.DefaultRegisterer
	var gatherer promclient.Gatherer = promclient.DefaultGatherer
	if reg != nil {
		registerer = reg
		gatherer = reg
	}

	// Create Prometheus exporter
	exporter, err := prometheus.New(prometheus.WithRegisterer(registerer))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"library-api",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		gatherer:      gatherer,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.booksStoredGauge, err = oe.meter.Int64ObservableGauge(
		"books.stored",
		metric.WithDescription("Number of books persisted in the store"),
		metric.WithUnit("{books}"),
		metric.WithInt64Callback(oe.observeBooksStored),
	)
	if err != nil {
		return fmt.Errorf("creating books stored gauge: %w", err)
	}

	return nil
}

// observeBooksStored is a callback that reports the stored book count
func (oe *OTelExporter) observeBooksStored(ctx context.Context, observer metric.Int64Observer) error {
	count, err := oe.collector.CountBooks(ctx)
	if err != nil {
		return err
	}

	observer.Observe(count, metric.WithAttributes(
		attribute.String("store.driver", oe.collector.Driver()),
	))

	return nil
}

// Handler serves Prometheus-formatted metrics
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.HandlerFor(oe.gatherer, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
