package main

import (
	"fmt"
	"os"
	"strings"

	"clipharvest/lib/acquire"
	"clipharvest/lib/runjournal"
	"clipharvest/lib/scrapers/clipcafe"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var acquireListFile string

var acquireCmd = &cobra.Command{
	Use:   "acquire [url]...",
	Short: "Acquire clips from the given urls and append them to the ledger.",
	Long: `Acquire drives one browser session through every target url in order,
downloading the clip audio and appending a metadata row to the ledger.
A failing target is logged and skipped; it never aborts the batch.
The exit code is 0 whenever the batch ran, 1 only when the invocation
itself is malformed (no targets, broken config).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		targets, err := collectTargets(args, acquireListFile)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return fmt.Errorf("no targets given: pass clip urls or --list <file>")
		}

		ctx := cmd.Context()

		downloadDir := cfg.DownloadDir
		if downloadDir == "" {
			tmp, err := os.MkdirTemp("", "clipharvest-dl-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tmp)
			downloadDir = tmp
		}

		engine, closeEngine, err := newEngine(ctx, cfg, downloadDir)
		if err != nil {
			return err
		}
		defer closeEngine()

		var journal *runjournal.Store
		if cfg.JournalPath != "" {
			db, err := runjournal.Open(cfg.JournalPath)
			if err != nil {
				return err
			}
			defer db.Close()
			store := runjournal.NewStore(db)
			journal = &store
		}

		content, download, login, poll := cfg.acquireTimeouts()
		orch, err := acquire.NewOrchestrator(acquire.Options{
			Browser:     engine,
			Ledger:      newLedger(cfg),
			Sessions:    acquire.NewSessionStore(cfg.SessionFile),
			DownloadDir: downloadDir,
			ClipDir:     cfg.ClipDir,
			LandingUrl:  cfg.BaseUrl,
			Timeouts: acquire.Timeouts{
				ContentReady: content,
				Download:     download,
				LoginGrace:   login,
				PollInterval: poll,
			},
			Journal: journal,
		})
		if err != nil {
			return err
		}

		err = orch.EnsureSession(ctx)
		if err != nil {
			return fmt.Errorf("could not establish a session: %w", err)
		}

		results := orch.AcquireBatch(ctx, targets)
		printBatchSummary(results)
		return nil
	},
}

func init() {
	acquireCmd.Flags().StringVar(&acquireListFile, "list", "", "path to a newline-delimited url list")
}

func collectTargets(args []string, listFile string) ([]string, error) {
	targets := append([]string{}, args...)
	if listFile != "" {
		data, err := os.ReadFile(listFile)
		if err != nil {
			return nil, err
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			targets = append(targets, line)
		}
	}
	for _, target := range targets {
		if !clipcafe.IsClipUrl(target) {
			return nil, fmt.Errorf("target %q is not a clip url", target)
		}
	}
	return targets, nil
}

func printBatchSummary(results []acquire.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Target", "Status", "Clip"})

	failures := 0
	for _, res := range results {
		if res.Err != nil {
			failures++
			t.AppendRow(table.Row{res.Target, "FAILED", res.Err.Error()})
			continue
		}
		t.AppendRow(table.Row{
			res.Target,
			"OK",
			fmt.Sprintf("%02d: %s / %s", res.Record.Id, res.Record.Actor, res.Record.Movie),
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d ok, %d failed", len(results)-failures, failures)})
	t.Render()
}
