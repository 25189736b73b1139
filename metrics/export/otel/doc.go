// Package otel binds goFlags counters and histograms to OpenTelemetry
// observable instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per goFlags counter
// and an Int64ObservableGauge per histogram bucket. A single callback reads a
// metrics snapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate registry state.
package otel
