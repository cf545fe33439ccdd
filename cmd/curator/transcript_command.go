package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/extractor"
	"curator/internal/ingest"
	"curator/internal/pipeline"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var extract bool
	var noStore bool

	cmd := &cobra.Command{
		Use:   "transcript <segments.json|csv|tsv>",
		Short: "Chunk, classify, and gate transcript segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source := args[0]

			segs, err := ingest.ReadSegments(source)
			if err != nil {
				return fmt.Errorf("reading %s: %w", source, err)
			}

			var backend extractor.Extractor
			if extract {
				backend, err = extractor.New(extractor.Config{
					Backend:        cfg.Extractor.Backend,
					Endpoint:       cfg.Extractor.Endpoint,
					TimeoutSeconds: cfg.Extractor.TimeoutSeconds,
				})
				if err != nil {
					return err
				}
				if backend == nil {
					return fmt.Errorf("--extract requires an extractor backend in the configuration")
				}
			}

			p, err := pipeline.NewTranscript(cfg, backend, ctx.log())
			if err != nil {
				return err
			}

			started := time.Now().UTC()
			res, err := p.Run(segs)
			if err != nil {
				return err
			}

			outDir := cfg.Run.OutputsDir
			headers := []string{
				pipeline.FieldStart, pipeline.FieldEnd, pipeline.FieldWords,
				pipeline.FieldText, pipeline.FieldChunkType,
				pipeline.FieldMeaningScore, pipeline.FieldJunkScore,
			}
			goldPath := filepath.Join(outDir, "transcript_gold.csv")
			rejectPath := filepath.Join(outDir, "transcript_reject.csv")
			if err := writeOutputs(goldPath, rejectPath, headers, res); err != nil {
				return err
			}
			if !noStore {
				if err := saveRun(cmd.Context(), cfg, res, source, started); err != nil {
					return err
				}
			}

			if backend != nil {
				cards := p.Extract(cmd.Context(), res.Accepted)
				cardsPath := filepath.Join(outDir, "transcript_cards.json")
				if err := writeCards(cardsPath, cards); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d cards to %s\n", len(cards), cardsPath)
			}

			fmt.Fprintln(cmd.OutOrStdout(), summaryTable(res, goldPath, rejectPath))
			return nil
		},
	}

	cmd.Flags().BoolVar(&extract, "extract", false, "Run the configured extraction backend on the accepted chunks")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Skip recording the run in the SQLite store")
	return cmd
}

func writeCards(path string, cards []extractor.Card) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
