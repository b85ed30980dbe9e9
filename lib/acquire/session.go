package acquire

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"clipharvest/lib/browser"

	"github.com/google/renameio/v2"
	"go.opentelemetry.io/otel/codes"
)

type SessionState int

const (
	NoSession SessionState = iota
	AwaitingInteractiveLogin
	Authenticated
)

func (s SessionState) String() string {
	switch s {
	case NoSession:
		return "no_session"
	case AwaitingInteractiveLogin:
		return "awaiting_interactive_login"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// SessionStore persists the authentication blob between runs so the
// one-time interactive login is not repeated. The blob holds cookies and
// is sensitive: it is never logged and written 0600.
type SessionStore struct {
	path string
}

func NewSessionStore(path string) SessionStore {
	return SessionStore{path: path}
}

// Restore loads the persisted blob into a fresh browser context. A
// missing or unreadable blob is NoSession, not an error: the caller falls
// back to interactive login.
func (s SessionStore) Restore(ctx context.Context, b browser.Browser) (SessionState, error) {
	ctx, span := tracer.Start(ctx, "session:Restore")
	defer span.End()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return NoSession, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read session blob")
		return NoSession, err
	}

	var cookies []browser.Cookie
	err = json.Unmarshal(data, &cookies)
	if err != nil {
		slog.WarnContext(ctx, "session blob is unreadable, falling back to interactive login", "path", s.path)
		return NoSession, nil
	}

	err = b.SetCookies(ctx, cookies)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to apply cookies to browser")
		return NoSession, err
	}
	return Authenticated, nil
}

// Capture persists the browser's current session state atomically, so a
// crash mid-write cannot leave a truncated blob behind.
func (s SessionStore) Capture(ctx context.Context, b browser.Browser) error {
	ctx, span := tracer.Start(ctx, "session:Capture")
	defer span.End()

	cookies, err := b.Cookies(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read cookies from browser")
		return err
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	err = renameio.WriteFile(s.path, data, 0o600)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist session blob")
		return err
	}
	return nil
}

// InteractiveLogin navigates to the landing page and blocks for the grace
// window while a human completes authentication out-of-band, then
// captures whatever session resulted. It is only ever invoked before a
// batch, never in the middle of one.
func (s SessionStore) InteractiveLogin(ctx context.Context, b browser.Browser, landingUrl string, grace time.Duration) error {
	ctx, span := tracer.Start(ctx, "session:InteractiveLogin")
	defer span.End()

	err := b.Navigate(ctx, landingUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open landing page")
		return err
	}

	slog.InfoContext(ctx, "no stored session, complete the login in the browser window",
		"grace", grace.String())
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(grace):
	}

	return s.Capture(ctx, b)
}
