// Package browser defines the narrow browser-control contract the
// acquisition pipeline depends on. Two implementations ship with it: a
// chromedp-driven real browser and a resty-backed static fetcher for
// server-rendered pages. The pipeline never imports either directly.
package browser

import (
	"context"
	"errors"
)

var ErrScriptUnsupported = errors.New("engine does not support running scripts")

// Cookie is the engine-independent cookie shape persisted by the session
// manager. Values are sensitive and must never be logged.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Expires  int64  `json:"expires,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"http_only,omitempty"`
}

// Browser exposes non-blocking primitives only. Bounded waiting
// (poll-with-deadline) is owned by the caller so control flow stays
// testable without a real engine behind the interface.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	// ElementVisible reports whether the selector currently matches a
	// rendered element. It never blocks waiting for one to appear.
	ElementVisible(ctx context.Context, selector string) (bool, error)
	// ElementClickable reports whether the selector matches an element
	// that would actually receive a click: rendered, not disabled.
	ElementClickable(ctx context.Context, selector string) (bool, error)
	Click(ctx context.Context, selector string) error
	CurrentMarkup(ctx context.Context) (string, error)
	RunScript(ctx context.Context, js string) error
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
	Close(ctx context.Context) error
}
