package acquire

import (
	"errors"
	"fmt"
)

// ErrDownloadTimeout means the watched directory never produced a new
// completed file within the bound. The ledger must not be touched after
// seeing it.
var ErrDownloadTimeout = errors.New("timed out waiting for download")

// ErrSessionExpired is detected as the login prompt reappearing on a clip
// page. It is handled as a per-target failure, never an auto-relogin.
var ErrSessionExpired = errors.New("session expired: login prompt reappeared")

// InteractionError means an expected page control never became actionable.
type InteractionError struct {
	Control string
	Reason  error
}

func (e InteractionError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("control %q never became actionable: %s", e.Control, e.Reason)
	}
	return fmt.Sprintf("control %q never became actionable", e.Control)
}

func (e InteractionError) Unwrap() error {
	return e.Reason
}

// Stage identifies where in the per-target state machine a failure
// happened.
type Stage string

const (
	StageNavigate        Stage = "navigate"
	StageWaitContent     Stage = "wait_content"
	StageExtract         Stage = "extract"
	StageTriggerDownload Stage = "trigger_download"
	StageAwaitDownload   Stage = "await_download"
	StageAllocate        Stage = "allocate_id"
	StageRelocate        Stage = "relocate"
	StageAppendLedger    Stage = "append_ledger"
	StageDone            Stage = "done"
)

// TargetError wraps any failure with the target it belongs to and the
// stage that produced it. The batch loop catches these and moves on.
type TargetError struct {
	Target string
	Stage  Stage
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("target %s failed at %s: %s", e.Target, e.Stage, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

func failed(target string, stage Stage, err error) *TargetError {
	return &TargetError{Target: target, Stage: stage, Err: err}
}
