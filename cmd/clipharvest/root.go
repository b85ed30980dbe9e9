package main

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "clipharvest",
	Short:         "clipharvest collects short audio clips and their metadata from clip.cafe.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(acquireCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(noiseCmd)
	rootCmd.AddCommand(evalCmd)
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
