package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goFlags.MetricsSnapshot
}

// registrySource reads the counters of a Registry.
type registrySource struct {
	reg *goFlags.Registry
}

func (s registrySource) MetricsSnapshot() goFlags.MetricsSnapshot {
	return s.reg.Metrics().Snapshot()
}

// PrometheusExporter renders goFlags metrics in Prometheus text exposition
// format.
type PrometheusExporter struct {
	source metricsSource
	reg    *goFlags.Registry
}

// NewPrometheusExporter reads the metrics of reg and also reports its width
// and fingerprint.
func NewPrometheusExporter(reg *goFlags.Registry) *PrometheusExporter {
	return &PrometheusExporter{source: registrySource{reg: reg}, reg: reg}
}

// NewPrometheusExporterFromSource creates an exporter from any snapshot
// source, such as a *goFlags.Metrics shared by several registries.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler that serves Render.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics. It is empty when metrics are disabled.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		cumulative := internaldefs.CumulativeBuckets(nonCumulative)
		writeHistogram(&b, def.Name, def.Help, cumulative)
	}

	if p.reg != nil {
		writeRegistryInfo(&b, p.reg)
	}

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	writeHeader(b, name, help, "counter")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")

	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	count := cumulative[len(cumulative)-1]
	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(count, 10))
	b.WriteByte('\n')

	// Snapshots carry no sum.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func writeRegistryInfo(b *strings.Builder, reg *goFlags.Registry) {
	const name = "goflags_registry_flags"
	writeHeader(b, name, "Bit positions declared by the registry.", "gauge")
	b.WriteString(name)
	b.WriteString("{fingerprint=\"")
	b.WriteString(reg.Fingerprint().String())
	b.WriteString("\",sentinel=\"")
	b.WriteString(escapeLabel(reg.Sentinel()))
	b.WriteString("\"} ")
	b.WriteString(strconv.Itoa(reg.Width()))
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}

func escapeLabel(v string) string {
	v = escapeHelp(v)
	return strings.ReplaceAll(v, "\"", "\\\"")
}
