package main

import (
	"os"
	"time"

	"clipharvest/lib/clipledger"
	"clipharvest/lib/configuration"

	"dario.cat/mergo"
)

type TimeoutsConfig struct {
	ContentReadySecs int `json:"content_ready_secs"`
	DownloadSecs     int `json:"download_secs"`
	LoginGraceSecs   int `json:"login_grace_secs"`
	PollMillis       int `json:"poll_millis"`
}

type EvalConfig struct {
	Endpoint string `json:"endpoint"`
	ApiKey   string `json:"api_key"`
	Model    string `json:"model"`
}

type Config struct {
	LedgerPath  string `json:"ledger_path"`
	ClipDir     string `json:"clip_dir"`
	SessionFile string `json:"session_file"`
	// DownloadDir is the browser's download target. Empty means a
	// temporary directory per run, matching how the browser profile is
	// normally set up.
	DownloadDir string `json:"download_dir"`
	JournalPath string `json:"journal_path"`
	// Engine picks the page engine: "chrome" (default) drives a real
	// browser, "static" fetches server-rendered markup over HTTP.
	Engine       string         `json:"engine"`
	Headless     bool           `json:"headless"`
	PageCacheDir string         `json:"page_cache_dir"`
	BaseUrl      string         `json:"base_url"`
	Timeouts     TimeoutsConfig `json:"timeouts"`
	Eval         EvalConfig     `json:"eval"`
}

func defaultConfig() Config {
	return Config{
		LedgerPath:  "data.csv",
		ClipDir:     "Lines",
		SessionFile: "clipcafe_session.json",
		JournalPath: "clipharvest.sqlite",
		Engine:      "chrome",
		BaseUrl:     "https://clip.cafe",
		Timeouts: TimeoutsConfig{
			ContentReadySecs: 15,
			DownloadSecs:     15,
			LoginGraceSecs:   60,
			PollMillis:       1000,
		},
	}
}

func loadConfig() (Config, error) {
	cfg, err := configuration.ReadRecursively[Config]("clipharvest.json5")
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	if err != nil {
		return Config{}, err
	}
	err = mergo.Merge(&cfg, defaultConfig())
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newLedger(c Config) clipledger.Ledger {
	return clipledger.New(c.LedgerPath)
}

func (c Config) acquireTimeouts() (content, download, login, poll time.Duration) {
	return time.Duration(c.Timeouts.ContentReadySecs) * time.Second,
		time.Duration(c.Timeouts.DownloadSecs) * time.Second,
		time.Duration(c.Timeouts.LoginGraceSecs) * time.Second,
		time.Duration(c.Timeouts.PollMillis) * time.Millisecond
}
