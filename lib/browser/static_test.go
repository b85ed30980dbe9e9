package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"clipharvest/lib/telemetry"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

const firstPage = `<html><body>
<div class="highlight-box">a line</div>
<a id="next" href="/two">next</a>
<button id="stuck" disabled>frozen</button>
</body></html>`

const secondPage = `<html><body><h1 id="arrived">two</h1></body></html>`

func newFixtureServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		fmt.Fprint(w, firstPage)
	})
	mux.HandleFunc("/two", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, secondPage)
	})
	return httptest.NewServer(mux)
}

func TestStaticNavigateAndInspect(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:browser")
	defer cleanup()

	server := newFixtureServer(t, nil)
	defer server.Close()
	ctx := context.Background()

	b, err := NewStatic(ctx, StaticOptions{BaseUrl: server.URL})
	require.NoError(t, err)
	require.NoError(t, b.Navigate(ctx, server.URL+"/"))

	{
		visible, err := b.ElementVisible(ctx, "div.highlight-box")
		require.NoError(t, err)
		require.True(t, visible)
	}
	{
		visible, err := b.ElementVisible(ctx, "form#loginform")
		require.NoError(t, err)
		require.False(t, visible)
	}
	{
		clickable, err := b.ElementClickable(ctx, "button#stuck")
		require.NoError(t, err)
		require.False(t, clickable)
	}

	markup, err := b.CurrentMarkup(ctx)
	require.NoError(t, err)
	require.Contains(t, markup, "highlight-box")
}

func TestStaticClickFollowsAnchor(t *testing.T) {
	server := newFixtureServer(t, nil)
	defer server.Close()
	ctx := context.Background()

	b, err := NewStatic(ctx, StaticOptions{BaseUrl: server.URL})
	require.NoError(t, err)
	require.NoError(t, b.Navigate(ctx, server.URL+"/"))
	require.NoError(t, b.Click(ctx, "a#next"))

	arrived, err := b.ElementVisible(ctx, "h1#arrived")
	require.NoError(t, err)
	require.True(t, arrived)

	// only anchors are clickable over plain http
	err = b.Click(ctx, "h1#arrived")
	require.Error(t, err)
}

func TestStaticScriptsUnsupported(t *testing.T) {
	server := newFixtureServer(t, nil)
	defer server.Close()
	ctx := context.Background()

	b, err := NewStatic(ctx, StaticOptions{BaseUrl: server.URL})
	require.NoError(t, err)
	require.True(t, errors.Is(b.RunScript(ctx, "1+1"), ErrScriptUnsupported))
}

func TestStaticBadStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()
	ctx := context.Background()

	b, err := NewStatic(ctx, StaticOptions{BaseUrl: server.URL})
	require.NoError(t, err)
	err = b.Navigate(ctx, server.URL+"/missing")
	require.ErrorContains(t, err, "status 404")
}

func TestStaticCookieRoundTrip(t *testing.T) {
	server := newFixtureServer(t, nil)
	defer server.Close()
	ctx := context.Background()

	b, err := NewStatic(ctx, StaticOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	err = b.SetCookies(ctx, []Cookie{{Name: "sid", Value: "abc", Path: "/"}})
	require.NoError(t, err)

	cookies, err := b.Cookies(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	require.Equal(t, "sid", cookies[0].Name)
	require.Equal(t, "abc", cookies[0].Value)
}

func TestStaticPageCacheSkipsRefetch(t *testing.T) {
	var hits atomic.Int64
	server := newFixtureServer(t, &hits)
	defer server.Close()
	ctx := context.Background()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	defer db.Close()

	b, err := NewStatic(ctx, StaticOptions{
		BaseUrl:       server.URL,
		Cache:         db,
		CacheLifetime: time.Minute,
	})
	require.NoError(t, err)

	require.NoError(t, b.Navigate(ctx, server.URL+"/"))
	require.NoError(t, b.Navigate(ctx, server.URL+"/"))
	require.Equal(t, int64(1), hits.Load())

	visible, err := b.ElementVisible(ctx, "div.highlight-box")
	require.NoError(t, err)
	require.True(t, visible)
}
