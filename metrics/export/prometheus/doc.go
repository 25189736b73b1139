// Package prometheus renders goFlags metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] reads a registry's [goFlags.Metrics] and exposes an
// [http.Handler]. Counter names are goflags_*_total; the parse latency
// histogram is goflags_parse_latency_seconds; goflags_registry_flags reports
// the registry width labelled with its fingerprint.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate registry state.
package prometheus
