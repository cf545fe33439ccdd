package record

import (
	"strings"
	"testing"
)

func TestGetTrimsAndBlank(t *testing.T) {
	r := New(1)
	r.Set("a", "  padded  ")
	if got := r.Get("a"); got != "padded" {
		t.Errorf("Get must trim, got %q", got)
	}
	if r.Blank("a") {
		t.Error("a is not blank")
	}
	r.Set("b", "   ")
	if !r.Blank("b") {
		t.Error("whitespace-only field must be blank")
	}
	if !r.Blank("missing") {
		t.Error("absent field must be blank")
	}
}

func TestSetOnNilFields(t *testing.T) {
	r := &Record{Index: 1}
	r.Set("a", "x")
	if r.Get("a") != "x" {
		t.Error("Set must initialize the field map")
	}
}

func TestAnnotations(t *testing.T) {
	r := New(1)
	if r.HasNote(NoteLookupMiss) {
		t.Error("fresh record has no notes")
	}
	r.Annotate(NoteLookupMiss, "energy_node", "missing_node")
	r.Annotate(NoteInferredField, "energy_node", "blocked_keywords")
	if !r.HasNote(NoteLookupMiss) || !r.HasNote(NoteInferredField) {
		t.Error("annotations lost")
	}

	summary := r.NoteSummary()
	if !strings.Contains(summary, "lookup_miss(energy_node): missing_node") {
		t.Errorf("summary format wrong: %q", summary)
	}
	if !strings.Contains(summary, "; ") {
		t.Errorf("multiple notes must join with semicolons: %q", summary)
	}
}

func TestFieldNamesSorted(t *testing.T) {
	r := New(1)
	r.Set("zeta", "1")
	r.Set("alpha", "2")
	r.Set("mid", "3")
	got := r.FieldNames()
	if len(got) != 3 || got[0] != "alpha" || got[2] != "zeta" {
		t.Errorf("field names must be sorted: %v", got)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	withField := &ValidationError{Field: "start", Reason: "not a number"}
	if !strings.Contains(withField.Error(), `"start"`) {
		t.Errorf("message should name the field: %q", withField.Error())
	}
	bare := &ValidationError{Reason: "empty row"}
	if !strings.Contains(bare.Error(), "empty row") {
		t.Errorf("message should carry the reason: %q", bare.Error())
	}
}
