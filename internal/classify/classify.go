// Package classify labels transcript chunks and scores their content.
//
// Classification is rule-based: each label carries keyword/regex patterns
// and a minimum match count, evaluated in a fixed priority order (problem
// before teaching before noise). Scoring combines bounded text signals into
// deterministic integer scores. Both operations are pure functions over the
// chunk text and the configured rule set, safe to run per chunk in parallel.
package classify

import (
	"regexp"
	"sort"
	"strings"
)

// Label is the derived classification of a chunk.
type Label string

const (
	LabelProblem  Label = "problem"
	LabelTeaching Label = "teaching"
	LabelNoise    Label = "noise"
)

// LabelRule binds one label to its match patterns. Prefixes match at the
// start of the cleaned text; Patterns are case-insensitive regexes matched
// anywhere. MinMatches is the match count the label needs to qualify, and
// MinWords gates the label on chunk length (0 = no length requirement).
// Priority breaks ties between labels with equal match counts, higher first.
type LabelRule struct {
	Label      Label
	Prefixes   []string
	Patterns   []string
	MinMatches int
	MinWords   int
	Priority   int
}

// Options bound the fallback behavior when no label rule qualifies.
type Options struct {
	// MinWordsNoise: chunks shorter than this fall to noise.
	MinWordsNoise int
	// UniqRatioFloor: chunks whose unique-word ratio falls below this are
	// degenerate repetition and fall to noise.
	UniqRatioFloor float64
	// DefaultLabel is assigned when no rule qualifies and neither noise
	// fallback triggers.
	DefaultLabel Label
}

// RuleSet is a compiled, immutable classification rule table.
type RuleSet struct {
	rules []compiledRule
	opts  Options
}

type compiledRule struct {
	rule     LabelRule
	prefixes []string
	patterns []*regexp.Regexp
}

// NewRuleSet compiles label rules. Invalid patterns are configuration
// errors. Rules are ordered by descending priority, declaration order on
// ties.
func NewRuleSet(rules []LabelRule, opts Options) (*RuleSet, error) {
	ordered := make([]LabelRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	rs := &RuleSet{opts: opts}
	for _, r := range ordered {
		cr := compiledRule{rule: r}
		for _, p := range r.Prefixes {
			cr.prefixes = append(cr.prefixes, strings.ToLower(p))
		}
		for _, p := range r.Patterns {
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				return nil, err
			}
			cr.patterns = append(cr.patterns, re)
		}
		rs.rules = append(rs.rules, cr)
	}
	return rs, nil
}

// Classify assigns a label to the chunk text. Labels are evaluated by match
// count; the highest count above each label's threshold wins, ties broken by
// the configured priority order. A chunk matching nothing falls to noise
// when short or degenerate, else to the configured default label.
func (rs *RuleSet) Classify(text string) Label {
	cleaned := CleanText(text)
	lower := strings.ToLower(cleaned)
	words := len(strings.Fields(lower))

	bestLabel := Label("")
	bestCount := 0
	for _, cr := range rs.rules {
		if cr.rule.MinWords > 0 && words < cr.rule.MinWords {
			continue
		}
		count := cr.matchCount(lower)
		min := cr.rule.MinMatches
		if min <= 0 {
			min = 1
		}
		if count >= min && count > bestCount {
			bestCount = count
			bestLabel = cr.rule.Label
		}
	}
	if bestLabel != "" {
		return bestLabel
	}

	if rs.opts.MinWordsNoise > 0 && words < rs.opts.MinWordsNoise {
		return LabelNoise
	}
	if rs.opts.UniqRatioFloor > 0 && uniqWordRatio(lower) < rs.opts.UniqRatioFloor {
		return LabelNoise
	}
	if rs.opts.DefaultLabel != "" {
		return rs.opts.DefaultLabel
	}
	return LabelNoise
}

func (cr compiledRule) matchCount(lower string) int {
	count := 0
	for _, p := range cr.prefixes {
		if strings.HasPrefix(lower, p) {
			count++
		}
	}
	for _, re := range cr.patterns {
		if re.MatchString(lower) {
			count++
		}
	}
	return count
}

var cleanSpaceRE = regexp.MustCompile(`\s+`)

// CleanText collapses whitespace runs and trims.
func CleanText(s string) string {
	return strings.TrimSpace(cleanSpaceRE.ReplaceAllString(s, " "))
}
