package internaldefs

import (
	goFlags "github.com/MrEthical07/goFlags"
)

// CounterDef names one goFlags counter.
type CounterDef struct {
	ID   goFlags.MetricID
	Name string
	Help string
}

// HistogramDef names one goFlags histogram.
type HistogramDef struct {
	ID   goFlags.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in rendering order.
var CounterDefs = []CounterDef{
	{ID: goFlags.MetricParseSuccess, Name: "goflags_parse_success_total", Help: "Flag name lists parsed successfully."},
	{ID: goFlags.MetricParseFailure, Name: "goflags_parse_failure_total", Help: "Flag name lists rejected by the parser."},
	{ID: goFlags.MetricFormat, Name: "goflags_format_total", Help: "Flag sets formatted as name lists."},
	{ID: goFlags.MetricStoreSave, Name: "goflags_store_save_total", Help: "Flag sets written to the store."},
	{ID: goFlags.MetricStoreLoad, Name: "goflags_store_load_total", Help: "Flag sets read from the store."},
	{ID: goFlags.MetricStoreMiss, Name: "goflags_store_miss_total", Help: "Store reads of absent entries."},
	{ID: goFlags.MetricStoreCorrupt, Name: "goflags_store_corrupt_total", Help: "Stored entries that were malformed or written by another registry."},
	{ID: goFlags.MetricClaimsIssued, Name: "goflags_claims_issued_total", Help: "Flag tokens issued."},
	{ID: goFlags.MetricClaimsVerified, Name: "goflags_claims_verified_total", Help: "Flag tokens accepted."},
	{ID: goFlags.MetricClaimsRejected, Name: "goflags_claims_rejected_total", Help: "Flag tokens rejected."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goFlags.MetricParseLatency, Name: "goflags_parse_latency_seconds", Help: "Flag name list parse latency histogram."},
}

// HistogramBounds are the bucket upper bounds in seconds, matching the
// microsecond buckets recorded by goFlags.Metrics.
var HistogramBounds = []string{
	"0.000001",
	"0.000002",
	"0.000005",
	"0.00001",
	"0.000025",
	"0.00005",
	"0.0001",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in a form usable inside
// instrument names.
var HistogramBoundSuffix = []string{
	"0_000001",
	"0_000002",
	"0_000005",
	"0_00001",
	"0_000025",
	"0_00005",
	"0_0001",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing
// buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
