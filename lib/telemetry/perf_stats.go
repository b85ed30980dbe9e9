package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("clipharvest.perf")
var cpuGauge, _ = meter.Float64Gauge("cpu_percent")
var memoryGauge, _ = meter.Float64Gauge("memory_used_percent")
var heapGauge, _ = meter.Int64Gauge("heap_alloc_mb")
var goroutineGauge, _ = meter.Int64Gauge("goroutines")

// InstrumentPerfStats samples process and host load in the background
// for the lifetime of ctx. Long batches are the point: a browser plus
// badger plus sqlite add up on the small machines collections live on.
func InstrumentPerfStats(ctx context.Context) {
	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)
				heapGauge.Record(ctx, int64(memStats.HeapAlloc/1_000_000))
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))

				// interval 0 measures since the previous sample instead
				// of blocking the loop
				usage, err := cpu.PercentWithContext(ctx, 0, false)
				if err != nil {
					slog.DebugContext(ctx, "failed to read cpu usage", "error", err)
				} else if len(usage) > 0 {
					cpuGauge.Record(ctx, usage[0])
				}

				vm, err := mem.VirtualMemoryWithContext(ctx)
				if err != nil {
					slog.DebugContext(ctx, "failed to read memory usage", "error", err)
				} else {
					memoryGauge.Record(ctx, vm.UsedPercent)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
