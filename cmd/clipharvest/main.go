package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"clipharvest/lib/osutil"
	"clipharvest/lib/telemetry"
)

func main() {
	telemetry.InitSlog(os.Getenv("CLIPHARVEST_DEBUG") != "")

	ctx := osutil.SignalContext()
	err := telemetry.SetupFromEnv(ctx, "clipharvest")
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without it", "error", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	err = Execute(ctx)
	telemetry.Shutdown(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
