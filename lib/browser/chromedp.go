package browser

import (
	"context"
	"fmt"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("clipharvest.lib.browser")

type ChromeOptions struct {
	// DownloadDir receives files the page offers for download. Required.
	DownloadDir string
	Headless    bool
	UserAgent   string
}

// Chrome drives a real Chrome/Chromium instance over the devtools
// protocol. One Chrome equals one browser session.
type Chrome struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

func NewChrome(ctx context.Context, opts ChromeOptions) (*Chrome, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("chrome: download dir is required")
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	err := chromedp.Run(browserCtx,
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(opts.DownloadDir).
			WithEventsEnabled(true),
	)
	if err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("chrome: failed to start: %w", err)
	}

	return &Chrome{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}, nil
}

// run executes actions on the browser tab, bounded by the caller's ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(c.ctx, actions...)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	ctx, span := tracer.Start(ctx, "chrome:Navigate")
	defer span.End()

	err := c.run(ctx, chromedp.Navigate(url))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return err
	}
	return nil
}

func (c *Chrome) ElementVisible(ctx context.Context, selector string) (bool, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el !== null && el.offsetParent !== null;
	})()`, selector)

	var visible bool
	err := c.run(ctx, chromedp.Evaluate(js, &visible))
	if err != nil {
		return false, err
	}
	return visible, nil
}

func (c *Chrome) ElementClickable(ctx context.Context, selector string) (bool, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (el === null || el.offsetParent === null || el.disabled) {
			return false;
		}
		const r = el.getBoundingClientRect();
		const top = document.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
		return top !== null && (top === el || el.contains(top) || top.contains(el));
	})()`, selector)

	var clickable bool
	err := c.run(ctx, chromedp.Evaluate(js, &clickable))
	if err != nil {
		return false, err
	}
	return clickable, nil
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	ctx, span := tracer.Start(ctx, "chrome:Click")
	defer span.End()

	err := c.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "click failed")
		return err
	}
	return nil
}

func (c *Chrome) CurrentMarkup(ctx context.Context) (string, error) {
	var markup string
	err := c.run(ctx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery))
	if err != nil {
		return "", err
	}
	return markup, nil
}

func (c *Chrome) RunScript(ctx context.Context, js string) error {
	return c.run(ctx, chromedp.Evaluate(js, nil))
}

func (c *Chrome) Cookies(ctx context.Context) ([]Cookie, error) {
	var cookies []Cookie
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, rc := range raw {
			cookies = append(cookies, Cookie{
				Name:     rc.Name,
				Value:    rc.Value,
				Domain:   rc.Domain,
				Path:     rc.Path,
				Expires:  int64(rc.Expires),
				Secure:   rc.Secure,
				HTTPOnly: rc.HTTPOnly,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return cookies, nil
}

func (c *Chrome) SetCookies(ctx context.Context, cookies []Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, ck := range cookies {
		p := &network.CookieParam{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   ck.Domain,
			Path:     ck.Path,
			Secure:   ck.Secure,
			HTTPOnly: ck.HTTPOnly,
		}
		if ck.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(ck.Expires, 0))
			p.Expires = &expires
		}
		params = append(params, p)
	}
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
}

func (c *Chrome) Close(ctx context.Context) error {
	c.cancelCtx()
	c.cancelAlloc()
	return nil
}
