package otel

import (
	"context"
	"sync"
	"testing"

	goFlags "github.com/MrEthical07/goFlags"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goFlags.MetricsSnapshot
}

func (f *fakeSource) MetricsSnapshot() goFlags.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goFlags.MetricsSnapshot{
		Counters:   make(map[goFlags.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goFlags.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func newTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, provider
}

func findSum(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			}
		}
	}
	return 0, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newTestMeter()
	meter := provider.Meter("goflags-test")

	src := &fakeSource{
		snapshot: goFlags.MetricsSnapshot{
			Counters: map[goFlags.MetricID]uint64{
				goFlags.MetricParseSuccess: 3,
			},
			Histograms: map[goFlags.MetricID][]uint64{
				goFlags.MetricParseLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if v, ok := findSum(rm, "goflags_parse_success_total"); !ok || v != 3 {
		t.Fatalf("expected parse success 3, got %d (found=%v)", v, ok)
	}
	if v, ok := findSum(rm, "goflags_parse_latency_seconds_count"); !ok || v != 8 {
		t.Fatalf("expected histogram count 8, got %d (found=%v)", v, ok)
	}
}

func TestExporterFromRegistry(t *testing.T) {
	reader, provider := newTestMeter()
	reg, err := goFlags.New().WithMetricsEnabled(true).Primitive("None", "A", "B", "C").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, _ = reg.TryParse("A, B")

	exp, err := NewOTelExporter(provider.Meter("goflags-test"), reg)
	if err != nil {
		t.Fatalf("NewOTelExporter failed: %v", err)
	}
	defer exp.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if v, ok := findSum(rm, "goflags_registry_flags"); !ok || v != 3 {
		t.Fatalf("expected width 3, got %d (found=%v)", v, ok)
	}
	if v, ok := findSum(rm, "goflags_parse_success_total"); !ok || v != 1 {
		t.Fatalf("expected parse success 1, got %d (found=%v)", v, ok)
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newTestMeter()
	meter := provider.Meter("goflags-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
	if _, err := NewOTelExporter(meter, nil); err == nil {
		t.Fatal("expected error for nil registry")
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err == nil {
		t.Fatal("expected error for nil meter")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newTestMeter()
	meter := provider.Meter("goflags-test")

	src := &fakeSource{
		snapshot: goFlags.MetricsSnapshot{
			Counters: map[goFlags.MetricID]uint64{
				goFlags.MetricParseSuccess: 1,
			},
			Histograms: map[goFlags.MetricID][]uint64{
				goFlags.MetricParseLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goFlags.MetricParseSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
