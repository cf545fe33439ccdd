package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/enrich"
	"curator/internal/ingest"
	"curator/internal/pipeline"
)

func newEnergyCommand(ctx *commandContext) *cobra.Command {
	var frameworkPath string
	var noStore bool

	cmd := &cobra.Command{
		Use:   "energy <rows.csv>",
		Short: "Curate a spreadsheet of energy rows into gold and reject sets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source := args[0]

			records, headers, err := ingest.ReadRecords(source)
			if err != nil {
				return fmt.Errorf("reading %s: %w", source, err)
			}

			fwPath := strings.TrimSpace(frameworkPath)
			if fwPath == "" {
				fwPath = strings.TrimSpace(cfg.Energy.FrameworkPath)
			}
			var framework *enrich.Table
			if fwPath != "" {
				framework, err = enrich.LoadCSV(fwPath, cfg.Energy.FrameworkKeyColumn, cfg.Energy.FrameworkColumns)
				if err != nil {
					return fmt.Errorf("loading framework table %s: %w", fwPath, err)
				}
			}

			p, err := pipeline.NewEnergy(cfg, framework, ctx.log())
			if err != nil {
				return err
			}

			started := time.Now().UTC()
			res, err := p.Run(records)
			if err != nil {
				return err
			}

			outDir := cfg.Run.OutputsDir
			goldPath := filepath.Join(outDir, "energy_gold.csv")
			rejectPath := filepath.Join(outDir, "energy_reject.csv")
			if err := writeOutputs(goldPath, rejectPath, headers, res); err != nil {
				return err
			}
			if !noStore {
				if err := saveRun(cmd.Context(), cfg, res, source, started); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), summaryTable(res, goldPath, rejectPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&frameworkPath, "framework", "", "CSV lookup table keyed by energy node")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Skip recording the run in the SQLite store")
	return cmd
}
