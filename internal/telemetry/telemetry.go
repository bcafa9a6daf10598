// internal/telemetry/telemetry.go

// Package telemetry owns the record counters shared by readers and writers.
// The counters are built from the global MeterProvider; nothing is recorded
// until the process installs one (see Install).
package telemetry

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const scope = "seqfile"

// Counter names.
const (
	RecordsRead     = "seqfile.records.read"
	RecordsSkipped  = "seqfile.records.skipped"
	RecordsWritten  = "seqfile.records.written"
	RecordsExcluded = "seqfile.records.excluded"
)

type counters struct {
	read, skipped, written, excluded metric.Int64Counter
}

var current atomic.Pointer[counters]

// Init rebuilds the counters from the global MeterProvider. Call it after
// otel.SetMeterProvider.
func Init() {
	current.Store(newCounters(otel.Meter(scope)))
}

func newCounters(m metric.Meter) *counters {
	return &counters{
		read:     mustCounter(m, RecordsRead, "Records parsed successfully"),
		skipped:  mustCounter(m, RecordsSkipped, "Records dropped because of parse errors"),
		written:  mustCounter(m, RecordsWritten, "Records written by a sink"),
		excluded: mustCounter(m, RecordsExcluded, "Records a sink refused to write"),
	}
}

func mustCounter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{record}"))
	if err != nil {
		panic(err)
	}
	return c
}

func load() *counters {
	if c := current.Load(); c != nil {
		return c
	}
	current.CompareAndSwap(nil, newCounters(otel.Meter(scope)))
	return current.Load()
}

func add(c metric.Int64Counter, component string) {
	c.Add(context.Background(), 1, metric.WithAttributes(attribute.String("component", component)))
}

func RecordRead(component string)     { add(load().read, component) }
func RecordSkipped(component string)  { add(load().skipped, component) }
func RecordWritten(component string)  { add(load().written, component) }
func RecordExcluded(component string) { add(load().excluded, component) }
