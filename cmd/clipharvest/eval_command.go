package main

import (
	"fmt"
	"os"

	"clipharvest/lib/evaluate"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	evalEndpoint string
	evalModel    string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Transcribe every clip and score the result against its ledger line.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		endpoint := cfg.Eval.Endpoint
		if evalEndpoint != "" {
			endpoint = evalEndpoint
		}
		if endpoint == "" {
			return fmt.Errorf("no transcription endpoint configured: set eval.endpoint or pass --endpoint")
		}
		model := cfg.Eval.Model
		if evalModel != "" {
			model = evalModel
		}

		client := evaluate.NewClient(evaluate.Options{
			Endpoint: endpoint,
			ApiKey:   cfg.Eval.ApiKey,
			Model:    model,
		})

		reports, err := client.EvaluateLedger(cmd.Context(), newLedger(cfg), cfg.ClipDir)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("ledger is empty, nothing to evaluate")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Score", "Transcript"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Name: "Transcript", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		})

		var total float64
		scored := 0
		for _, r := range reports {
			if r.Err != "" {
				t.AppendRow(table.Row{r.ClipId, "-", r.Err})
				continue
			}
			t.AppendRow(table.Row{r.ClipId, fmt.Sprintf("%.2f", r.Score), r.Transcript})
			total += r.Score
			scored++
		}
		if scored > 0 {
			t.AppendFooter(table.Row{"", fmt.Sprintf("%.2f", total/float64(scored)), fmt.Sprintf("mean over %d clips", scored)})
		}
		t.Render()
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalEndpoint, "endpoint", "", "OpenAI-compatible API base url")
	evalCmd.Flags().StringVar(&evalModel, "model", "", "transcription model name")
}
