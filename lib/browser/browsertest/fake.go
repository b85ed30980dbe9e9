// Package browsertest provides a scripted in-memory Browser for tests of
// the acquisition pipeline. Pages are plain markup strings, clicks run
// caller-supplied hooks (for example dropping a file into a download dir).
package browsertest

import (
	"bytes"
	"context"
	"fmt"

	"clipharvest/lib/browser"

	"github.com/PuerkitoBio/goquery"
)

type Fake struct {
	// Pages maps url -> markup served on Navigate.
	Pages map[string]string
	// ClickableWhen overrides clickability per selector. Selectors not
	// listed are clickable whenever they are present in the markup.
	ClickableWhen map[string]func() bool
	// OnClick runs after a successful click on the selector.
	OnClick map[string]func(f *Fake) error
	// NavigateErr fails navigation for specific urls.
	NavigateErr map[string]error

	Current string
	Clicks  []string
	Scripts []string

	cookies []browser.Cookie
	markup  string
	closed  bool
}

var _ browser.Browser = (*Fake)(nil)

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := f.NavigateErr[url]; err != nil {
		return err
	}
	markup, ok := f.Pages[url]
	if !ok {
		return fmt.Errorf("fake browser: no page registered for %q", url)
	}
	f.Current = url
	f.markup = markup
	return nil
}

// SetMarkup swaps the rendered markup of the current page, simulating a
// script-driven DOM change (a dialog opening, a button enabling).
func (f *Fake) SetMarkup(markup string) {
	f.markup = markup
}

func (f *Fake) document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBufferString(f.markup))
}

func (f *Fake) ElementVisible(ctx context.Context, selector string) (bool, error) {
	doc, err := f.document()
	if err != nil {
		return false, err
	}
	return doc.Find(selector).Length() > 0, nil
}

func (f *Fake) ElementClickable(ctx context.Context, selector string) (bool, error) {
	if cond, ok := f.ClickableWhen[selector]; ok {
		return cond(), nil
	}
	return f.ElementVisible(ctx, selector)
}

func (f *Fake) Click(ctx context.Context, selector string) error {
	clickable, err := f.ElementClickable(ctx, selector)
	if err != nil {
		return err
	}
	// an obscured or absent control swallows the click silently, the
	// same way a real page does
	if !clickable {
		return nil
	}
	f.Clicks = append(f.Clicks, selector)
	if hook, ok := f.OnClick[selector]; ok {
		return hook(f)
	}
	return nil
}

func (f *Fake) CurrentMarkup(ctx context.Context) (string, error) {
	return f.markup, nil
}

func (f *Fake) RunScript(ctx context.Context, js string) error {
	f.Scripts = append(f.Scripts, js)
	return nil
}

func (f *Fake) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	return f.cookies, nil
}

func (f *Fake) SetCookies(ctx context.Context, cookies []browser.Cookie) error {
	f.cookies = cookies
	return nil
}

func (f *Fake) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func (f *Fake) Closed() bool {
	return f.closed
}
