package main

import (
	"context"
	"fmt"

	"clipharvest/lib/browser"

	"github.com/dgraph-io/badger/v4"
)

// newEngine builds the configured page engine and a cleanup func that
// releases it on every exit path.
func newEngine(ctx context.Context, cfg Config, downloadDir string) (browser.Browser, func(), error) {
	switch cfg.Engine {
	case "chrome":
		chrome, err := browser.NewChrome(ctx, browser.ChromeOptions{
			DownloadDir: downloadDir,
			Headless:    cfg.Headless,
		})
		if err != nil {
			return nil, nil, err
		}
		return chrome, func() { chrome.Close(context.Background()) }, nil

	case "static":
		var cache *badger.DB
		if cfg.PageCacheDir != "" {
			var err error
			cache, err = badger.Open(badger.DefaultOptions(cfg.PageCacheDir))
			if err != nil {
				return nil, nil, fmt.Errorf("open page cache: %w", err)
			}
		}
		static, err := browser.NewStatic(ctx, browser.StaticOptions{
			BaseUrl: cfg.BaseUrl,
			Cache:   cache,
		})
		if err != nil {
			if cache != nil {
				cache.Close()
			}
			return nil, nil, err
		}
		return static, func() {
			static.Close(context.Background())
			if cache != nil {
				cache.Close()
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown engine %q (want \"chrome\" or \"static\")", cfg.Engine)
	}
}
