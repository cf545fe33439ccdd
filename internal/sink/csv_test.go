package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"curator/internal/gate"
	"curator/internal/record"
)

func TestWriteCSV(t *testing.T) {
	r1 := record.New(1)
	r1.Set("aspect", "Career")
	r1.Set("problem", "cannot focus")
	r1.Set("energy_node", "blocked_energy") // stage-added field

	r2 := record.New(2)
	r2.Set("aspect", "Unknown")
	r2.Annotate(record.NoteUnresolvedNormalization, "aspect", "chaos")

	decisions := map[int]gate.Decision{
		1: {Verdict: gate.VerdictGold},
		2: {Verdict: gate.VerdictReject, Violations: []string{"aspect_unknown", "problem_too_short"}},
	}

	path := filepath.Join(t.TempDir(), "out", "gold.csv")
	err := WriteCSV(path, []string{"aspect", "problem"}, []*record.Record{r1, r2}, decisions)
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	header := rows[0]
	want := []string{"source_index", "aspect", "problem", "energy_node", "verdict", "violations", "notes"}
	if len(header) != len(want) {
		t.Fatalf("header: %v", header)
	}
	for i := range want {
		if header[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q", i, header[i], want[i])
		}
	}

	if rows[1][0] != "1" || rows[1][3] != "blocked_energy" || rows[1][4] != "gold" {
		t.Errorf("row 1 wrong: %v", rows[1])
	}
	if rows[2][5] != "aspect_unknown;problem_too_short" {
		t.Errorf("violations join wrong: %q", rows[2][5])
	}
	if rows[2][6] == "" {
		t.Error("notes column should carry the annotation summary")
	}
}

func TestWriteCSV_EmptyPartition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := WriteCSV(path, []string{"a"}, nil, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	f, _ := os.Open(path)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("empty partition should still write the header, got %d rows", len(rows))
	}
}
