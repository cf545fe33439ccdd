// Package enrich joins records against read-only reference tables keyed by
// canonical field values. A lookup miss is a diagnosable, non-fatal event:
// the record is annotated and continues to the gate, where a configured
// rule may reject it.
package enrich

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"curator/internal/normalize"
	"curator/internal/record"
)

// Table is an immutable reference table keyed by the folded form of a key
// column. Loaded once before the run; never mutated during it.
type Table struct {
	keyColumn string
	columns   []string
	rows      map[string]map[string]string
}

// NewTable builds a table from in-memory rows. The key is folded so lookups
// are case/whitespace-insensitive.
func NewTable(keyColumn string, columns []string, rows []map[string]string) (*Table, error) {
	t := &Table{
		keyColumn: keyColumn,
		columns:   columns,
		rows:      make(map[string]map[string]string, len(rows)),
	}
	for _, row := range rows {
		key := normalize.Fold(row[keyColumn])
		if key == "" {
			continue
		}
		t.rows[key] = row
	}
	if len(t.rows) == 0 {
		return nil, fmt.Errorf("reference table: no rows with key column %q", keyColumn)
	}
	return t, nil
}

// LoadCSV reads a reference table from a CSV/TSV file. The first row is the
// header; keyColumn must be present. columns selects which columns Apply
// copies onto records (empty = all non-key columns).
func LoadCSV(path, keyColumn string, columns []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing reference table %s: %w", path, err)
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("reference table %s: need a header and at least one row", path)
	}

	headers := all[0]
	keyIdx := -1
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == keyColumn {
			keyIdx = i
		}
	}
	if keyIdx < 0 {
		return nil, fmt.Errorf("reference table %s: missing key column %q", path, keyColumn)
	}

	if len(columns) == 0 {
		for _, h := range headers {
			if h != keyColumn {
				columns = append(columns, h)
			}
		}
	}

	rows := make([]map[string]string, 0, len(all)-1)
	for _, raw := range all[1:] {
		row := make(map[string]string, len(headers))
		for i, v := range raw {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(v)
			}
		}
		rows = append(rows, row)
	}
	return NewTable(keyColumn, columns, rows)
}

// Columns returns the column names Apply copies onto records.
func (t *Table) Columns() []string { return t.columns }

// Len returns the number of keyed rows.
func (t *Table) Len() int { return len(t.rows) }

// Lookup returns the reference row for a key, folding the key first.
func (t *Table) Lookup(key string) (map[string]string, bool) {
	row, ok := t.rows[normalize.Fold(key)]
	return row, ok
}

// Apply joins the record against the table using keyField's value. On a hit
// the configured columns are copied onto the record (empty reference values
// leave existing record values alone). On a miss the record is annotated
// with a lookup_miss note and left otherwise untouched.
func (t *Table) Apply(r *record.Record, keyField string) bool {
	key := r.Get(keyField)
	row, ok := t.Lookup(key)
	if !ok {
		r.Annotate(record.NoteLookupMiss, keyField, key)
		return false
	}
	for _, col := range t.columns {
		if v := strings.TrimSpace(row[col]); v != "" {
			r.Set(col, v)
		}
	}
	return true
}
