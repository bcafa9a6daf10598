// internal/telemetry/collector.go
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Collector keeps the counters of the running process in memory.
type Collector struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	prev     metric.MeterProvider
}

// Install makes an in-memory MeterProvider global and rebuilds the
// counters on it. Shutdown restores the previous provider.
func Install() *Collector {
	reader := sdkmetric.NewManualReader()
	c := &Collector{
		reader:   reader,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		prev:     otel.GetMeterProvider(),
	}
	otel.SetMeterProvider(c.provider)
	Init()
	return c
}

// Counts returns every counter summed over all components, keyed by
// counter name. Counters never touched are absent.
func (c *Collector) Counts(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := c.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				out[m.Name] += dp.Value
			}
		}
	}
	return out, nil
}

func (c *Collector) Shutdown(ctx context.Context) error {
	otel.SetMeterProvider(c.prev)
	Init()
	return c.provider.Shutdown(ctx)
}
