// Package ingest reads source data into pipeline records. It makes no
// assumption about where the files came from; the pipeline only sees plain
// records and segments.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"curator/internal/record"
)

// ReadRecords parses a CSV/TSV file into records. The first row is the
// header; each subsequent row becomes one record keyed by header name with
// a 1-based source index. Blank cells are kept as empty fields so transform
// stages can tell "blank value" from "absent column".
func ReadRecords(path string) ([]*record.Record, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%s: need a header row and at least one data row", path)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]*record.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		r := record.New(i + 1)
		for j, val := range row {
			if j < len(headers) && headers[j] != "" {
				r.Set(headers[j], strings.TrimSpace(val))
			}
		}
		records = append(records, r)
	}
	return records, headers, nil
}
