package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"curator/internal/config"
	"curator/internal/pipeline"
	"curator/internal/sink"
)

// writeOutputs writes the gold and reject partitions as CSV side by side.
// Both files are always produced, even when one partition is empty.
func writeOutputs(goldPath, rejectPath string, headers []string, res pipeline.Result) error {
	if err := sink.WriteCSV(goldPath, headers, res.Accepted, res.Decisions); err != nil {
		return fmt.Errorf("writing %s: %w", goldPath, err)
	}
	if err := sink.WriteCSV(rejectPath, headers, res.Rejected, res.Decisions); err != nil {
		return fmt.Errorf("writing %s: %w", rejectPath, err)
	}
	return nil
}

func saveRun(ctx context.Context, cfg config.Pipeline, res pipeline.Result, source string, started time.Time) error {
	store, err := sink.OpenStore(cfg.Run.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := sink.Run{
		ID:       res.RunID,
		Domain:   res.Domain,
		Source:   source,
		Started:  started,
		Input:    res.Input(),
		Accepted: len(res.Accepted),
		Rejected: len(res.Rejected),
	}
	if err := store.SaveRun(ctx, run, res.Accepted, res.Rejected, res.Decisions); err != nil {
		return fmt.Errorf("recording run %s: %w", res.RunID, err)
	}
	return nil
}

func summaryTable(res pipeline.Result, goldPath, rejectPath string) string {
	rows := [][]string{
		{"Run", res.RunID},
		{"Domain", res.Domain},
		{"Input", strconv.Itoa(res.Input())},
		{"Gold", strconv.Itoa(len(res.Accepted))},
		{"Reject", strconv.Itoa(len(res.Rejected))},
		{"Gold file", goldPath},
		{"Reject file", rejectPath},
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}
