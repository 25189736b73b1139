package otel

import (
	"context"
	"errors"
	"fmt"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter    = errors.New("nil meter")
	ErrNilSource   = errors.New("nil metrics source")
	ErrNilRegistry = errors.New("nil registry")
)

type metricsSource interface {
	MetricsSnapshot() goFlags.MetricsSnapshot
}

type registrySource struct {
	reg *goFlags.Registry
}

func (s registrySource) MetricsSnapshot() goFlags.MetricsSnapshot {
	return s.reg.Metrics().Snapshot()
}

type observedCounter struct {
	id         goFlags.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      goFlags.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes goFlags metrics through observable instruments.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram

	reg      *goFlags.Registry
	width    metric.Int64ObservableGauge
	regAttrs metric.MeasurementOption
}

// NewOTelExporter reads the metrics of reg and reports its width as the
// goflags_registry_flags gauge.
func NewOTelExporter(meter metric.Meter, reg *goFlags.Registry) (*OTelExporter, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	return newExporter(meter, registrySource{reg: reg}, reg)
}

// NewOTelExporterFromSource creates an exporter from any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	return newExporter(meter, source, nil)
}

func newExporter(meter metric.Meter, source metricsSource, reg *goFlags.Registry) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
		reg:        reg,
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*9+1)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i := 0; i < len(internaldefs.HistogramBoundSuffix); i++ {
			name := def.Name + "_bucket_le_" + internaldefs.HistogramBoundSuffix[i]
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		countIns, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = countIns
		observables = append(observables, countIns)
		exporter.histograms = append(exporter.histograms, h)
	}

	if reg != nil {
		width, err := meter.Int64ObservableGauge(
			"goflags_registry_flags",
			metric.WithDescription("Bit positions declared by the registry."),
		)
		if err != nil {
			return nil, fmt.Errorf("create registry width gauge: %w", err)
		}
		exporter.width = width
		exporter.regAttrs = metric.WithAttributes(
			attribute.String("fingerprint", reg.Fingerprint().String()),
			attribute.String("sentinel", reg.Sentinel()),
		)
		observables = append(observables, width)
	}

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[h.id])
		cumulative := internaldefs.CumulativeBuckets(nonCumulative)
		for i := 0; i < len(cumulative); i++ {
			observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	if e.reg != nil {
		observer.ObserveInt64(e.width, int64(e.reg.Width()), e.regAttrs)
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
