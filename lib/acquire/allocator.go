package acquire

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"clipharvest/lib/clipledger"

	"go.opentelemetry.io/otel/attribute"
)

// NextId returns the smallest id strictly greater than the maximum
// observed across both the ledger and the clip directory's filenames.
// After a crash either store can be ahead of the other (file relocated
// but the ledger append never ran, or the reverse was attempted), so
// reconciling against the union is what keeps resumed runs from handing
// out colliding ids. Unparsable rows and filenames are treated as absent:
// refusing to allocate would halt all future progress.
//
// Single-process, single-writer only. Multi-process use would need an
// atomic counter instead of read-and-max.
func NextId(ctx context.Context, ledger clipledger.Ledger, clipDir string) (int64, error) {
	ctx, span := tracer.Start(ctx, "NextId")
	defer span.End()

	max, err := ledger.MaxId(ctx)
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(clipDir)
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		stem := name[:len(name)-len(filepath.Ext(name))]
		id, err := strconv.ParseInt(stem, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if id > max {
			max = id
		}
	}

	span.SetAttributes(attribute.Int64("next_id", max+1))
	return max + 1, nil
}
