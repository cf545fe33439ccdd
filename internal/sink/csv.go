// Package sink writes the accepted and rejected partitions a run produces:
// CSV files for downstream tooling and a SQLite run store for history. The
// pipeline itself only emits in-memory sequences; all file-format concerns
// live here.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"curator/internal/gate"
	"curator/internal/record"
)

// WriteCSV writes one partition to path. Columns are the source headers
// followed by any extra fields stages added, then verdict, violations, and
// notes. Decisions are matched to records by source index.
func WriteCSV(path string, headers []string, records []*record.Record, decisions map[int]gate.Decision) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cols := outputColumns(headers, records)

	w := csv.NewWriter(f)
	header := append(append([]string{"source_index"}, cols...), "verdict", "violations", "notes")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := make([]string, 0, len(header))
		row = append(row, fmt.Sprint(r.Index))
		for _, c := range cols {
			row = append(row, r.Fields[c])
		}
		d := decisions[r.Index]
		row = append(row, string(d.Verdict), strings.Join(d.Violations, ";"), r.NoteSummary())
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// outputColumns keeps the source header order and appends stage-added
// fields (sorted for determinism) that no header covers.
func outputColumns(headers []string, records []*record.Record) []string {
	cols := make([]string, 0, len(headers))
	seen := map[string]struct{}{}
	for _, h := range headers {
		if h == "" {
			continue
		}
		cols = append(cols, h)
		seen[h] = struct{}{}
	}

	extra := map[string]struct{}{}
	for _, r := range records {
		for k := range r.Fields {
			if _, ok := seen[k]; !ok {
				extra[k] = struct{}{}
			}
		}
	}
	if len(extra) == 0 {
		return cols
	}
	added := make([]string, 0, len(extra))
	for k := range extra {
		added = append(added, k)
	}
	sort.Strings(added)
	return append(cols, added...)
}
