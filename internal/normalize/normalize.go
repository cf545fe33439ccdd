// Package normalize canonicalizes free-text values against controlled
// vocabularies. Matching is exact-first (after Unicode case folding and
// whitespace collapse), then fuzzy with a 0-100 similarity score and an
// inclusive threshold. Unresolved values are never dropped: the original
// input is returned unchanged so gate rules can decide what to do with it.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Method describes how a value was resolved against the allowed set.
type Method string

const (
	MethodExact      Method = "exact"
	MethodFuzzy      Method = "fuzzy"
	MethodUnresolved Method = "unresolved"
)

// Result is the outcome of normalizing one value against one allowed set.
// Score is populated if and only if Method is MethodFuzzy.
type Result struct {
	Canonical string
	Method    Method
	Score     int
}

// AllowedValueSet is an ordered set of canonical strings. Order matters:
// ties between equal fuzzy scores resolve to the earliest candidate.
type AllowedValueSet struct {
	values []string
	folded []string
}

// NewAllowedValueSet builds a set from canonical values, preserving order.
func NewAllowedValueSet(values []string) AllowedValueSet {
	s := AllowedValueSet{
		values: make([]string, len(values)),
		folded: make([]string, len(values)),
	}
	for i, v := range values {
		s.values[i] = v
		s.folded[i] = Fold(v)
	}
	return s
}

// Values returns the canonical values in declaration order.
func (s AllowedValueSet) Values() []string { return s.values }

// Len returns the number of allowed values.
func (s AllowedValueSet) Len() int { return len(s.values) }

// Contains reports whether the folded form of v is in the set.
func (s AllowedValueSet) Contains(v string) bool {
	f := Fold(v)
	for _, c := range s.folded {
		if c == f {
			return true
		}
	}
	return false
}

var spaceRE = regexp.MustCompile(`\s+`)

var caseFolder = cases.Fold()

// Fold lowercases via Unicode case folding and collapses runs of whitespace.
func Fold(s string) string {
	return strings.TrimSpace(spaceRE.ReplaceAllString(caseFolder.String(s), " "))
}

var slugJunkRE = regexp.MustCompile(`[^a-z0-9]+`)
var slugRunsRE = regexp.MustCompile(`_+`)

// Slug folds a value into a lowercase underscore-separated identifier, the
// form controlled vocabularies like energy nodes are declared in.
func Slug(s string) string {
	out := caseFolder.String(strings.TrimSpace(s))
	out = slugJunkRE.ReplaceAllString(out, "_")
	out = slugRunsRE.ReplaceAllString(out, "_")
	return strings.Trim(out, "_")
}

// Normalize resolves value against the allowed set.
//
// Empty or whitespace-only input is unresolved with an empty canonical
// value. A case/whitespace-insensitive exact match wins regardless of
// threshold. Otherwise the best fuzzy similarity across all candidates is
// taken; a score >= threshold (inclusive) resolves to that candidate, and
// anything below returns the original input unchanged.
func Normalize(value string, allowed AllowedValueSet, threshold int) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Result{Canonical: "", Method: MethodUnresolved}
	}

	folded := Fold(trimmed)
	for i, c := range allowed.folded {
		if c == folded {
			return Result{Canonical: allowed.values[i], Method: MethodExact}
		}
	}

	best, bestIdx := -1, -1
	for i, c := range allowed.folded {
		score := Similarity(folded, c)
		if score > best { // strictly greater: earliest candidate wins ties
			best = score
			bestIdx = i
		}
	}

	if bestIdx >= 0 && best >= threshold {
		return Result{Canonical: allowed.values[bestIdx], Method: MethodFuzzy, Score: best}
	}
	return Result{Canonical: trimmed, Method: MethodUnresolved}
}

// Similarity scores two folded strings in [0,100]. It takes the maximum of
// plain edit-distance ratio, token-sort ratio, and partial ratio, so both
// transpositions ("energy blocked" vs "blocked energy") and truncations
// ("deplet" vs "depleted") score high.
func Similarity(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	best := ratio(a, b)
	if s := ratio(sortTokens(a), sortTokens(b)); s > best {
		best = s
	}
	if s := partialRatio(a, b); s > best {
		best = s
	}
	return best
}

// ratio is the normalized Levenshtein similarity scaled to [0,100].
func ratio(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	maxLen := len(ar)
	if len(br) > maxLen {
		maxLen = len(br)
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein(ar, br)
	return int(100 * (1 - float64(dist)/float64(maxLen)))
}

// partialRatio slides the shorter string over the longer one and returns the
// best windowed ratio, so a good substring match is not penalized by extra
// surrounding text.
func partialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		window := long[i : i+len(short)]
		if s := ratio(string(short), string(window)); s > best {
			best = s
		}
		if best == 100 {
			break
		}
	}
	// Also compare against the whole long string once, in case the short
	// string only partially overlaps every window.
	if s := ratio(string(short), string(long)); s > best {
		best = s
	}
	return best
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) < 2 {
		return s
	}
	for i := 1; i < len(tokens); i++ {
		for j := i; j > 0 && tokens[j] < tokens[j-1]; j-- {
			tokens[j], tokens[j-1] = tokens[j-1], tokens[j]
		}
	}
	return strings.Join(tokens, " ")
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
