package acquire

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// partialExtensions mark in-progress downloads that various browsers
// write next to the final file. These never count as "new".
var partialExtensions = map[string]bool{
	".crdownload": true,
	".part":       true,
	".download":   true,
	".tmp":        true,
}

// DownloadWatcher detects the single new file an action is expected to
// drop into a directory. Callers must snapshot strictly before triggering
// the action, otherwise a fast download can complete unseen.
type DownloadWatcher struct {
	Dir string
	// Ext restricts matches to one final extension (".wav"). Empty
	// accepts any completed file.
	Ext      string
	Timeout  time.Duration
	Interval time.Duration
}

// Snapshot lists the file names currently present. A missing directory is
// an empty snapshot, not an error: the browser creates it lazily.
func (w DownloadWatcher) Snapshot() (map[string]bool, error) {
	entries, err := os.ReadDir(w.Dir)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]bool, len(entries))
	for _, e := range entries {
		snapshot[e.Name()] = true
	}
	return snapshot, nil
}

// AwaitNew polls until a completed file appears that was not in the
// snapshot, returning its full path. On deadline it returns
// ErrDownloadTimeout, which the orchestrator must treat as fatal for the
// current target: no id allocation, no ledger append.
func (w DownloadWatcher) AwaitNew(ctx context.Context, before map[string]bool) (string, error) {
	ctx, span := tracer.Start(ctx, "watcher:AwaitNew")
	defer span.End()
	span.SetAttributes(attribute.String("dir", w.Dir))

	var found string
	ok, err := waitUntil(ctx, w.Timeout, w.Interval, func(ctx context.Context) (bool, error) {
		entries, err := os.ReadDir(w.Dir)
		if os.IsNotExist(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		for _, e := range entries {
			if e.IsDir() || before[e.Name()] {
				continue
			}
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if partialExtensions[ext] {
				continue
			}
			if w.Ext != "" && ext != w.Ext {
				continue
			}
			found = filepath.Join(w.Dir, e.Name())
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed while polling download dir")
		return "", err
	}
	if !ok {
		span.RecordError(ErrDownloadTimeout)
		span.SetStatus(codes.Error, ErrDownloadTimeout.Error())
		return "", ErrDownloadTimeout
	}

	span.SetAttributes(attribute.String("file", found))
	return found, nil
}
