// Package infer fills missing categorical fields using keyword and regex
// heuristics. Rules are declared in configuration as an ordered list with
// priority weights; evaluation order and tie-breaking are enforced by the
// rule slice itself, never by map iteration order.
package infer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"curator/internal/record"
)

// Rule maps a pattern to a target category value. Pattern is a
// case-insensitive regular expression; a plain keyword is a valid pattern.
// Higher Priority rules are evaluated first; equal priorities keep
// declaration order.
type Rule struct {
	ID       string
	Pattern  string
	Target   string
	Priority int
}

// FallbackPolicy decides what the caller does when no rule matches.
type FallbackPolicy string

const (
	// FallbackBlank leaves the field empty on no match.
	FallbackBlank FallbackPolicy = "blank"
	// FallbackDefault fills the field with a configured default value.
	FallbackDefault FallbackPolicy = "default"
)

// Engine evaluates an ordered rule list against a composite search string
// built from a configured set of record fields.
type Engine struct {
	rules        []Rule
	compiled     []*regexp.Regexp
	sourceFields []string
}

// NewEngine compiles the rules and fixes their evaluation order. A pattern
// that fails to compile is a configuration error, surfaced before any
// record is processed.
func NewEngine(rules []Rule, sourceFields []string) (*Engine, error) {
	if len(sourceFields) == 0 {
		return nil, fmt.Errorf("inference engine: no source fields configured")
	}

	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	e := &Engine{
		rules:        ordered,
		compiled:     make([]*regexp.Regexp, len(ordered)),
		sourceFields: sourceFields,
	}
	for i, r := range ordered {
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, fmt.Errorf("inference rule %q: empty pattern", r.ID)
		}
		re, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("inference rule %q: %w", r.ID, err)
		}
		e.compiled[i] = re
	}
	return e, nil
}

// Infer evaluates the rules against the record's composite text and returns
// the first matching rule's target value and rule ID. No match returns
// ("", ""); the caller applies the configured fallback policy.
func (e *Engine) Infer(r *record.Record) (value, ruleID string) {
	composite := e.composite(r)
	if composite == "" {
		return "", ""
	}
	for i, rule := range e.rules {
		if e.compiled[i].MatchString(composite) {
			return rule.Target, rule.ID
		}
	}
	return "", ""
}

func (e *Engine) composite(r *record.Record) string {
	parts := make([]string, 0, len(e.sourceFields))
	for _, f := range e.sourceFields {
		if v := r.Get(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
