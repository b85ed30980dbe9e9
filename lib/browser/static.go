package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"clipharvest/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

type StaticOptions struct {
	BaseUrl string
	// Cache is optional. When set, fetched markup is kept in badger for
	// CacheLifetime so repeated runs over the same targets stay cheap.
	Cache         *badger.DB
	CacheLifetime time.Duration
}

// Static implements Browser over plain HTTP for pages that render
// server-side. It cannot run scripts and clicking is limited to anchors,
// which is enough for extraction-only runs and for tests against fixture
// servers.
type Static struct {
	baseUrl *url.URL
	http    *resty.Client
	jar     http.CookieJar
	cache   *pageCache

	current *url.URL
	markup  []byte
	doc     *goquery.Document
}

func NewStatic(ctx context.Context, opts StaticOptions) (*Static, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "browser/static")

	s := &Static{
		baseUrl: baseUrl,
		http:    client,
		jar:     jar,
	}
	if opts.Cache != nil {
		lifetime := opts.CacheLifetime
		if lifetime <= 0 {
			lifetime = time.Hour
		}
		s.cache = &pageCache{db: opts.Cache, lifetime: lifetime}
	}
	return s, nil
}

func (s *Static) Navigate(ctx context.Context, target string) error {
	ctx, span := tracer.Start(ctx, "static:Navigate")
	defer span.End()

	resolved, err := s.baseUrl.Parse(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve url")
		return err
	}

	if s.cache != nil {
		page, err := s.cache.get(ctx, resolved.String())
		if err == nil {
			span.SetStatus(codes.Ok, "CACHE HIT")
			s.setPage(resolved, page.Contents)
			return nil
		}
		if err != errPageNotFound {
			span.RecordError(err)
		}
	}

	res, err := s.http.R().
		SetContext(ctx).
		Get(resolved.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return err
	}
	if res.StatusCode() >= 400 {
		err := fmt.Errorf("fetch %s: status %d", resolved, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status")
		return err
	}

	if s.cache != nil {
		err = s.cache.set(ctx, resolved.String(), res.Body())
		if err != nil {
			span.RecordError(err)
		}
	}

	s.setPage(resolved, res.Body())
	return nil
}

func (s *Static) setPage(u *url.URL, markup []byte) {
	s.current = u
	s.markup = markup
	s.doc = nil
}

func (s *Static) document() (*goquery.Document, error) {
	if s.doc != nil {
		return s.doc, nil
	}
	if s.current == nil {
		return nil, fmt.Errorf("static: no page loaded")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(s.markup))
	if err != nil {
		return nil, err
	}
	s.doc = doc
	return doc, nil
}

func (s *Static) ElementVisible(ctx context.Context, selector string) (bool, error) {
	doc, err := s.document()
	if err != nil {
		return false, err
	}
	return doc.Find(selector).Length() > 0, nil
}

func (s *Static) ElementClickable(ctx context.Context, selector string) (bool, error) {
	doc, err := s.document()
	if err != nil {
		return false, err
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return false, nil
	}
	_, disabled := sel.First().Attr("disabled")
	return !disabled, nil
}

func (s *Static) Click(ctx context.Context, selector string) error {
	doc, err := s.document()
	if err != nil {
		return err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return fmt.Errorf("static: no element matches %q", selector)
	}
	href, ok := sel.Attr("href")
	if !ok {
		return fmt.Errorf("static: element %q is not an anchor, cannot click", selector)
	}
	return s.Navigate(ctx, href)
}

func (s *Static) CurrentMarkup(ctx context.Context) (string, error) {
	if s.current == nil {
		return "", fmt.Errorf("static: no page loaded")
	}
	return string(s.markup), nil
}

func (s *Static) RunScript(ctx context.Context, js string) error {
	return ErrScriptUnsupported
}

func (s *Static) Cookies(ctx context.Context) ([]Cookie, error) {
	raw := s.jar.Cookies(s.baseUrl)
	cookies := make([]Cookie, 0, len(raw))
	for _, rc := range raw {
		cookies = append(cookies, Cookie{
			Name:   rc.Name,
			Value:  rc.Value,
			Domain: s.baseUrl.Hostname(),
			Path:   "/",
		})
	}
	return cookies, nil
}

func (s *Static) SetCookies(ctx context.Context, cookies []Cookie) error {
	raw := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		raw = append(raw, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	s.jar.SetCookies(s.baseUrl, raw)
	return nil
}

func (s *Static) Close(ctx context.Context) error {
	return nil
}
