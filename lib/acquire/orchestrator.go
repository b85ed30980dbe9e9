// Package acquire is the clip acquisition core: it reconciles a remote
// page, a download directory and the append-only ledger into one
// crash-safe pipeline. One browser session, one worker, strictly
// sequential targets; per-target failures never abort the batch.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"clipharvest/lib/browser"
	"clipharvest/lib/clipledger"
	"clipharvest/lib/runjournal"
	"clipharvest/lib/scrapers/clipcafe"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ExtractFunc func(ctx context.Context, markup string) (clipcafe.Metadata, error)

type Timeouts struct {
	ContentReady time.Duration
	Download     time.Duration
	LoginGrace   time.Duration
	PollInterval time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.ContentReady <= 0 {
		t.ContentReady = 15 * time.Second
	}
	if t.Download <= 0 {
		t.Download = 15 * time.Second
	}
	if t.LoginGrace <= 0 {
		t.LoginGrace = 60 * time.Second
	}
	if t.PollInterval <= 0 {
		t.PollInterval = time.Second
	}
	return t
}

type Options struct {
	Browser  browser.Browser
	Ledger   clipledger.Ledger
	Sessions SessionStore
	// DownloadDir is where the browser drops completed downloads.
	DownloadDir string
	// ClipDir is the final home of id-named clip files.
	ClipDir    string
	LandingUrl string
	Selectors  clipcafe.Selectors
	Timeouts   Timeouts
	// Journal, when set, records every target outcome.
	Journal *runjournal.Store
	// Extract overrides the page extractor. Defaults to clipcafe.Extract.
	Extract ExtractFunc
}

type Orchestrator struct {
	opts    Options
	watcher DownloadWatcher
	state   SessionState
}

func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Browser == nil {
		return nil, fmt.Errorf("acquire: a browser is required")
	}
	if opts.DownloadDir == "" || opts.ClipDir == "" {
		return nil, fmt.Errorf("acquire: download dir and clip dir are required")
	}
	if opts.Selectors.ContentReady == "" {
		opts.Selectors = clipcafe.DefaultSelectors()
	}
	if opts.LandingUrl == "" {
		opts.LandingUrl = clipcafe.LandingUrl
	}
	if opts.Extract == nil {
		opts.Extract = clipcafe.Extract
	}
	opts.Timeouts = opts.Timeouts.withDefaults()

	return &Orchestrator{
		opts: opts,
		watcher: DownloadWatcher{
			Dir:      opts.DownloadDir,
			Ext:      ".wav",
			Timeout:  opts.Timeouts.Download,
			Interval: opts.Timeouts.PollInterval,
		},
		state: NoSession,
	}, nil
}

func (o *Orchestrator) SessionState() SessionState {
	return o.state
}

// EnsureSession restores the persisted session or, failing that, runs the
// one interactive login of the process. It is never re-triggered
// mid-batch: a session dying later surfaces as per-target failures.
func (o *Orchestrator) EnsureSession(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "EnsureSession")
	defer span.End()

	state, err := o.opts.Sessions.Restore(ctx, o.opts.Browser)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session restore failed")
		return err
	}
	if state == Authenticated {
		o.state = Authenticated
		slog.DebugContext(ctx, "restored persisted session")
		return nil
	}

	o.state = AwaitingInteractiveLogin
	err = o.opts.Sessions.InteractiveLogin(ctx, o.opts.Browser, o.opts.LandingUrl, o.opts.Timeouts.LoginGrace)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "interactive login failed")
		return err
	}
	o.state = Authenticated
	return nil
}

// AcquireOne runs the full state machine for a single target:
// Navigate, WaitForContentReady, Extract, TriggerDownload, AwaitDownload,
// Relocate, AppendLedger. Every failure comes back as a *TargetError
// naming the stage that produced it.
func (o *Orchestrator) AcquireOne(ctx context.Context, target string) (clipledger.Record, error) {
	ctx, span := tracer.Start(ctx, "AcquireOne")
	defer span.End()
	span.SetAttributes(attribute.String("target", target))

	b := o.opts.Browser
	sel := o.opts.Selectors
	timeouts := o.opts.Timeouts

	err := b.Navigate(ctx, target)
	if err != nil {
		return clipledger.Record{}, o.fail(span, target, StageNavigate, err)
	}

	ready, err := o.waitVisible(ctx, sel.ContentReady, timeouts.ContentReady)
	if err != nil {
		return clipledger.Record{}, o.fail(span, target, StageWaitContent, err)
	}
	if !ready {
		// a reappearing login prompt means the session died, which is
		// still just a per-target failure
		loggedOut, _ := b.ElementVisible(ctx, sel.LoginPrompt)
		reason := InteractionError{Control: sel.ContentReady}
		if loggedOut {
			reason.Reason = ErrSessionExpired
		}
		return clipledger.Record{}, o.fail(span, target, StageWaitContent, reason)
	}

	markup, err := b.CurrentMarkup(ctx)
	if err != nil {
		return clipledger.Record{}, o.fail(span, target, StageExtract, err)
	}
	meta, err := o.opts.Extract(ctx, markup)
	if err != nil {
		return clipledger.Record{}, o.fail(span, target, StageExtract, err)
	}

	// an obscured control swallows clicks without erroring, so overlays
	// are removed up front
	for _, overlay := range sel.Overlays {
		err := b.RunScript(ctx, clipcafe.ClearOverlayScript(overlay))
		if err != nil && !errors.Is(err, browser.ErrScriptUnsupported) {
			slog.WarnContext(ctx, "failed to clear overlay", "selector", overlay, "error", err)
		}
	}

	// snapshot strictly before the clicks that can start the download,
	// a fast completion must not slip past unseen
	before, err := o.watcher.Snapshot()
	if err != nil {
		return clipledger.Record{}, o.fail(span, target, StageTriggerDownload, err)
	}

	for _, control := range []string{sel.DownloadButton, sel.FormatOption, sel.ConfirmButton} {
		err := o.clickWhenReady(ctx, control)
		if err != nil {
			return clipledger.Record{}, o.fail(span, target, StageTriggerDownload, err)
		}
	}

	downloaded, err := o.watcher.AwaitNew(ctx, before)
	if err != nil {
		return clipledger.Record{}, o.fail(span, target, StageAwaitDownload, err)
	}

	// the file reaches its final id-named location before the ledger row
	// is written, so a crash in between leaves a state the union-based
	// allocator reconciles on the next run
	id, err := NextId(ctx, o.opts.Ledger, o.opts.ClipDir)
	if err != nil {
		return clipledger.Record{}, o.fail(span, target, StageAllocate, err)
	}
	final := filepath.Join(o.opts.ClipDir, fmt.Sprintf("%02d.wav", id))
	err = relocate(downloaded, final)
	if err != nil {
		return clipledger.Record{}, o.fail(span, target, StageRelocate, err)
	}

	rec := clipledger.Record{
		Id:       id,
		Actor:    meta.Actor,
		Movie:    meta.Work,
		Line:     meta.Line,
		Duration: meta.Duration,
	}
	err = o.opts.Ledger.Append(ctx, rec)
	if err != nil {
		return clipledger.Record{}, o.fail(span, target, StageAppendLedger, err)
	}

	span.SetAttributes(attribute.Int64("clip_id", id))
	return rec, nil
}

type Result struct {
	Target string
	Record clipledger.Record
	Err    error
}

// AcquireBatch processes targets strictly sequentially. One bad target
// never aborts the run or touches what earlier targets already wrote.
func (o *Orchestrator) AcquireBatch(ctx context.Context, targets []string) []Result {
	ctx, span := tracer.Start(ctx, "AcquireBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("targets", len(targets)))

	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		started := time.Now()
		rec, err := o.AcquireOne(ctx, target)
		if err != nil {
			slog.ErrorContext(ctx, "target failed", "target", target, "error", err)
		} else {
			slog.InfoContext(ctx, "acquired clip",
				"target", target,
				"clip_id", rec.Id,
				"actor", rec.Actor,
				"movie", rec.Movie,
			)
		}
		o.journal(ctx, target, rec, err, started)
		results = append(results, Result{Target: target, Record: rec, Err: err})
	}
	return results
}

func (o *Orchestrator) journal(ctx context.Context, target string, rec clipledger.Record, err error, started time.Time) {
	if o.opts.Journal == nil {
		return
	}
	outcome := runjournal.Outcome{
		Target:     target,
		Stage:      string(StageDone),
		ClipId:     rec.Id,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err != nil {
		outcome.Error = err.Error()
		var te *TargetError
		if errors.As(err, &te) {
			outcome.Stage = string(te.Stage)
		}
	}
	jerr := o.opts.Journal.Record(ctx, outcome)
	if jerr != nil {
		slog.WarnContext(ctx, "failed to journal outcome", "target", target, "error", jerr)
	}
}

func (o *Orchestrator) fail(span trace.Span, target string, stage Stage, err error) error {
	te := failed(target, stage, err)
	span.RecordError(te)
	span.SetStatus(codes.Error, string(stage))
	return te
}

func (o *Orchestrator) waitVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return waitUntil(ctx, timeout, o.opts.Timeouts.PollInterval, func(ctx context.Context) (bool, error) {
		return o.opts.Browser.ElementVisible(ctx, selector)
	})
}

// clickWhenReady positively detects the control being clickable before
// interacting. Merely attempting a click could "succeed" against an
// obscured element without doing anything.
func (o *Orchestrator) clickWhenReady(ctx context.Context, control string) error {
	clickable, err := waitUntil(ctx, o.opts.Timeouts.ContentReady, o.opts.Timeouts.PollInterval, func(ctx context.Context) (bool, error) {
		return o.opts.Browser.ElementClickable(ctx, control)
	})
	if err != nil {
		return InteractionError{Control: control, Reason: err}
	}
	if !clickable {
		return InteractionError{Control: control}
	}
	return o.opts.Browser.Click(ctx, control)
}

// relocate moves a finished download to its final location, surviving
// cross-device boundaries between the browser's temp dir and the clip dir.
func relocate(src, dst string) error {
	err := os.MkdirAll(filepath.Dir(dst), 0o755)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
