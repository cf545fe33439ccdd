// Package record defines the unit of work flowing through the curation
// pipeline: one spreadsheet row or one transcript chunk, addressed by field
// name. Records are mutated in place by transform stages and carry
// annotations describing every low-confidence decision made along the way.
package record

import (
	"fmt"
	"sort"
	"strings"
)

// Annotation kinds written by pipeline stages.
const (
	NoteUnresolvedNormalization = "unresolved_normalization"
	NoteInferredField           = "inferred_field"
	NoteLookupMiss              = "lookup_miss"
	NoteValidationError         = "validation_error"
)

// Annotation is a diagnostic marker attached to a record by a transform
// stage. Annotations never remove a record from the batch; gate rules decide
// what they mean.
type Annotation struct {
	Kind   string
	Field  string
	Detail string
}

// Record is a single row or chunk of source data. Index is the stable source
// identity (1-based row number or chunk sequence number).
type Record struct {
	Index  int
	Fields map[string]string
	Notes  []Annotation
}

// New creates an empty record with the given source index.
func New(index int) *Record {
	return &Record{Index: index, Fields: map[string]string{}}
}

// Get returns the trimmed value of a field, or "" when absent.
func (r *Record) Get(field string) string {
	return strings.TrimSpace(r.Fields[field])
}

// Set stores a field value.
func (r *Record) Set(field, value string) {
	if r.Fields == nil {
		r.Fields = map[string]string{}
	}
	r.Fields[field] = value
}

// Blank reports whether a field is missing or whitespace-only.
func (r *Record) Blank(field string) bool {
	return r.Get(field) == ""
}

// Annotate appends a diagnostic annotation.
func (r *Record) Annotate(kind, field, detail string) {
	r.Notes = append(r.Notes, Annotation{Kind: kind, Field: field, Detail: detail})
}

// HasNote reports whether any annotation of the given kind is present.
func (r *Record) HasNote(kind string) bool {
	for _, n := range r.Notes {
		if n.Kind == kind {
			return true
		}
	}
	return false
}

// NoteSummary renders all annotations as a single "kind(field): detail"
// semicolon-joined string for output sinks.
func (r *Record) NoteSummary() string {
	if len(r.Notes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Notes))
	for _, n := range r.Notes {
		switch {
		case n.Field != "" && n.Detail != "":
			parts = append(parts, fmt.Sprintf("%s(%s): %s", n.Kind, n.Field, n.Detail))
		case n.Field != "":
			parts = append(parts, fmt.Sprintf("%s(%s)", n.Kind, n.Field))
		default:
			parts = append(parts, n.Kind)
		}
	}
	return strings.Join(parts, "; ")
}

// FieldNames returns the record's field names in sorted order.
func (r *Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ValidationError marks a malformed input record. The orchestrator catches
// it per record and routes the record to the rejected partition; it never
// aborts the batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid record: " + e.Reason
	}
	return fmt.Sprintf("invalid record: field %q: %s", e.Field, e.Reason)
}
