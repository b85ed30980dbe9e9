package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Print every clip the ledger knows about.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		records, err := newLedger(cfg).Read(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("ledger is empty")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Actor", "Movie", "Line", "Duration"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Name: "Line", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		})
		for _, rec := range records {
			t.AppendRow(table.Row{rec.Id, rec.Actor, rec.Movie, rec.Line, rec.Duration})
		}
		t.Render()
		return nil
	},
}
