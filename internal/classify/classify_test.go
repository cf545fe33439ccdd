package classify

import (
	"strings"
	"testing"
)

func testRuleSet(t *testing.T) *RuleSet {
	t.Helper()
	rs, err := NewRuleSet([]LabelRule{
		{Label: LabelProblem, Priority: 30, Prefixes: []string{
			"how do i", "why do i", "i feel", "i keep", "i can't",
		}},
		{Label: LabelTeaching, Priority: 20, MinWords: 30, Patterns: []string{
			`\bthe thing is\b`, `\bthat means\b`, `\bfor example\b`,
			`\bthe trap is\b`, `\bwe need to\b`,
		}},
		{Label: LabelNoise, Priority: 10, Patterns: []string{
			`\bwe will meet\b`, `\broom\b`, `\bmic\b`,
		}},
	}, Options{
		MinWordsNoise:  25,
		UniqRatioFloor: 0.25,
		DefaultLabel:   LabelTeaching,
	})
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}
	return rs
}

// pad appends neutral distinct words so a fixture clears word-count floors
// without tripping repetition heuristics.
func pad(text string, words int) string {
	fill := []string{
		"morning", "river", "stone", "window", "garden", "letter", "yellow",
		"quiet", "market", "bridge", "candle", "forest", "silver", "meadow",
		"harbor", "autumn", "velvet", "lantern", "orchard", "thunder",
		"willow", "copper", "ember", "saffron", "timber", "canyon",
		"harvest", "granite", "meridian", "alcove", "basalt", "cobalt",
		"dahlia", "ebony", "fathom", "glacier", "heather", "indigo",
		"juniper", "krypton", "lagoon", "marble", "nectar", "opal",
	}
	parts := strings.Fields(text)
	for i := 0; len(parts) < words; i++ {
		parts = append(parts, fill[i%len(fill)])
	}
	return strings.Join(parts, " ")
}

func TestClassify_ProblemPrefix(t *testing.T) {
	rs := testRuleSet(t)
	got := rs.Classify(pad("how do i stop procrastinating every single day", 30))
	if got != LabelProblem {
		t.Errorf("expected problem, got %q", got)
	}
}

func TestClassify_TeachingPattern(t *testing.T) {
	rs := testRuleSet(t)
	text := pad("the thing is that for example this pattern comes from early habits", 40)
	if got := rs.Classify(text); got != LabelTeaching {
		t.Errorf("expected teaching, got %q", got)
	}
}

func TestClassify_TeachingNeedsMinWords(t *testing.T) {
	rs := testRuleSet(t)
	// Teaching matches but the chunk is under the teaching word floor and
	// under the noise floor: noise fallback wins.
	if got := rs.Classify("the thing is this"); got != LabelNoise {
		t.Errorf("short chunk must fall to noise, got %q", got)
	}
}

func TestClassify_HigherMatchCountWins(t *testing.T) {
	rs := testRuleSet(t)
	// One noise hit versus two teaching hits: teaching wins on count even
	// though the text also matches noise.
	text := pad("the thing is that means the mic picks this up", 40)
	if got := rs.Classify(text); got != LabelTeaching {
		t.Errorf("expected teaching on match count, got %q", got)
	}
}

func TestClassify_PriorityBreaksCountTies(t *testing.T) {
	rs := testRuleSet(t)
	// One problem hit and one noise hit: problem has higher priority.
	text := pad("i feel the room closing in on me today", 30)
	if got := rs.Classify(text); got != LabelProblem {
		t.Errorf("expected problem on priority tie-break, got %q", got)
	}
}

func TestClassify_ShortFallsToNoise(t *testing.T) {
	rs := testRuleSet(t)
	if got := rs.Classify("see you later everyone"); got != LabelNoise {
		t.Errorf("expected noise, got %q", got)
	}
}

func TestClassify_DegenerateRepetitionFallsToNoise(t *testing.T) {
	rs := testRuleSet(t)
	text := strings.TrimSpace(strings.Repeat("again and again ", 20))
	if got := rs.Classify(text); got != LabelNoise {
		t.Errorf("expected noise for repetitive text, got %q", got)
	}
}

func TestClassify_DefaultLabel(t *testing.T) {
	rs := testRuleSet(t)
	text := pad("nothing here hits any configured pattern at all", 30)
	if got := rs.Classify(text); got != LabelTeaching {
		t.Errorf("expected default teaching, got %q", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	rs := testRuleSet(t)
	text := pad("i feel the trap is that means we need to look closer", 40)
	first := rs.Classify(text)
	for i := 0; i < 10; i++ {
		if got := rs.Classify(text); got != first {
			t.Fatalf("classification changed between runs: %q then %q", first, got)
		}
	}
}

func TestNewRuleSet_RejectsBadPattern(t *testing.T) {
	_, err := NewRuleSet([]LabelRule{{Label: LabelNoise, Patterns: []string{"("}}}, Options{})
	if err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText("  a\tb\n\nc  "); got != "a b c" {
		t.Errorf("CleanText: got %q", got)
	}
}
