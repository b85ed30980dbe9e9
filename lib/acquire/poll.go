package acquire

import (
	"context"
	"time"
)

// waitUntil polls pred every interval until it reports true or the bound
// elapses. It returns false on deadline rather than an error so callers
// can attach their own failure semantics. pred errors abort immediately.
// This is the only blocking primitive in the pipeline: checks are
// non-blocking, separated by a fixed sleep, never a busy spin.
func waitUntil(ctx context.Context, timeout, interval time.Duration, pred func(context.Context) (bool, error)) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := pred(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(interval):
		}
	}
}
