package goFlags

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter in [Metrics].
type MetricID uint16

const (
	// MetricParseSuccess counts successful TryParse calls.
	MetricParseSuccess MetricID = iota
	// MetricParseFailure counts TryParse calls rejected with a ParseError.
	MetricParseFailure
	// MetricFormat counts Set.String calls.
	MetricFormat
	// MetricStoreSave counts flag sets written by the store package.
	MetricStoreSave
	// MetricStoreLoad counts flag sets read by the store package.
	MetricStoreLoad
	// MetricStoreMiss counts store reads of absent keys.
	MetricStoreMiss
	// MetricStoreCorrupt counts stored values that failed to parse or carried
	// a foreign registry fingerprint.
	MetricStoreCorrupt
	// MetricClaimsIssued counts tokens signed by the claims package.
	MetricClaimsIssued
	// MetricClaimsVerified counts tokens accepted by the claims package.
	MetricClaimsVerified
	// MetricClaimsRejected counts tokens rejected by the claims package.
	MetricClaimsRejected
	// MetricParseLatency is the TryParse latency histogram.
	MetricParseLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters for registry, store, and claims
// operations. All methods accept a nil receiver and do nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of [Metrics].
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the parse latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only [MetricParseLatency] has a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricParseLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricParseLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricParseLatency].buckets[i])
		}
		s.Histograms[MetricParseLatency] = buckets
	}

	return s
}

// MetricsSnapshot lets a *Metrics serve directly as an exporter source.
func (m *Metrics) MetricsSnapshot() MetricsSnapshot {
	return m.Snapshot()
}

// Bucket upper bounds in microseconds: 1, 2, 5, 10, 25, 50, 100, +Inf.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 1:
		return 0
	case us <= 2:
		return 1
	case us <= 5:
		return 2
	case us <= 10:
		return 3
	case us <= 25:
		return 4
	case us <= 50:
		return 5
	case us <= 100:
		return 6
	default:
		return 7
	}
}
