package enrich

import (
	"os"
	"path/filepath"
	"testing"

	"curator/internal/record"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable("energy_node", []string{"theme", "practice"}, []map[string]string{
		{"energy_node": "blocked_energy", "theme": "avoidance", "practice": "small steps"},
		{"energy_node": "depleted_energy", "theme": "recovery", "practice": ""},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func TestLookup_FoldsKey(t *testing.T) {
	tbl := testTable(t)
	row, ok := tbl.Lookup("  Blocked_Energy ")
	if !ok {
		t.Fatal("expected hit for folded key")
	}
	if row["theme"] != "avoidance" {
		t.Errorf("wrong row: %v", row)
	}
	if _, ok := tbl.Lookup("missing_energy"); ok {
		t.Error("expected miss")
	}
}

func TestApply_CopiesConfiguredColumns(t *testing.T) {
	tbl := testTable(t)
	r := record.New(1)
	r.Set("energy_node", "blocked_energy")

	if !tbl.Apply(r, "energy_node") {
		t.Fatal("expected hit")
	}
	if r.Get("theme") != "avoidance" || r.Get("practice") != "small steps" {
		t.Errorf("columns not copied: %v", r.Fields)
	}
	if r.HasNote(record.NoteLookupMiss) {
		t.Error("hit must not annotate")
	}
}

func TestApply_EmptyReferenceValueKeepsExisting(t *testing.T) {
	tbl := testTable(t)
	r := record.New(1)
	r.Set("energy_node", "depleted_energy")
	r.Set("practice", "already set")

	tbl.Apply(r, "energy_node")
	if r.Get("practice") != "already set" {
		t.Errorf("empty reference value must not clobber, got %q", r.Get("practice"))
	}
	if r.Get("theme") != "recovery" {
		t.Errorf("non-empty column not copied, got %q", r.Get("theme"))
	}
}

func TestApply_MissAnnotates(t *testing.T) {
	tbl := testTable(t)
	r := record.New(1)
	r.Set("energy_node", "unknown_node")

	if tbl.Apply(r, "energy_node") {
		t.Fatal("expected miss")
	}
	if !r.HasNote(record.NoteLookupMiss) {
		t.Error("miss must annotate the record")
	}
	if r.Get("theme") != "" {
		t.Error("miss must not copy columns")
	}
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framework.csv")
	data := "energy_node,theme,practice\nblocked_energy,avoidance,small steps\ndepleted_energy,recovery,rest\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := LoadCSV(path, "energy_node", nil)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", tbl.Len())
	}
	if got := tbl.Columns(); len(got) != 2 || got[0] != "theme" || got[1] != "practice" {
		t.Errorf("default columns should be all non-key columns, got %v", got)
	}
}

func TestLoadCSV_MissingKeyColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCSV(path, "energy_node", nil); err == nil {
		t.Error("expected error for missing key column")
	}
}

func TestNewTable_RejectsEmptyTable(t *testing.T) {
	if _, err := NewTable("k", nil, nil); err == nil {
		t.Error("expected error for empty table")
	}
	_, err := NewTable("k", nil, []map[string]string{{"other": "x"}})
	if err == nil {
		t.Error("expected error when no row carries the key column")
	}
}
