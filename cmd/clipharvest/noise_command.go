package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"clipharvest/lib/audiomix"

	"github.com/spf13/cobra"
)

var (
	noiseFile string
	noiseSnr  float64
)

var noiseCmd = &cobra.Command{
	Use:   "noise",
	Short: "Mix background noise into every ledger clip at a target SNR.",
	Long: `Noise writes an augmented copy of each clip next to the original,
named <id>_noisy.wav. Clips whose audio file is missing are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if noiseFile == "" {
			return fmt.Errorf("--noise <wav> is required")
		}

		ctx := cmd.Context()
		records, err := newLedger(cfg).Read(ctx)
		if err != nil {
			return err
		}

		mixed := 0
		for _, rec := range records {
			src := filepath.Join(cfg.ClipDir, fmt.Sprintf("%02d.wav", rec.Id))
			if _, err := os.Stat(src); err != nil {
				slog.WarnContext(ctx, "skipping clip without file", "clip_id", rec.Id, "path", src)
				continue
			}
			dst := filepath.Join(cfg.ClipDir, fmt.Sprintf("%02d_noisy.wav", rec.Id))
			err := audiomix.MixFile(src, noiseFile, dst, noiseSnr)
			if err != nil {
				slog.ErrorContext(ctx, "failed to mix clip", "clip_id", rec.Id, "error", err)
				continue
			}
			mixed++
		}

		fmt.Printf("mixed %d of %d clips at %.1f dB SNR\n", mixed, len(records), noiseSnr)
		return nil
	},
}

func init() {
	noiseCmd.Flags().StringVar(&noiseFile, "noise", "", "path to the noise wav to mix in")
	noiseCmd.Flags().Float64Var(&noiseSnr, "snr", 10, "target signal-to-noise ratio in dB")
}
