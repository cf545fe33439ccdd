// Package segment cleans raw caption/transcript segments and assembles them
// into chunks bounded by duration and word count. Caption sources repeat
// words and phrases heavily (rolling captions emit the same line several
// times), so cleaning is mostly repetition collapse.
package segment

import (
	"regexp"
	"strings"
)

// Segment is one raw caption or transcript line with time offsets in
// seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// CleanOptions controls segment cleaning and micro-segment merging.
type CleanOptions struct {
	MinDur   float64 // segments shorter than this merge into the next
	MinWords int     // segments with fewer words merge into the next
	MaxGap   float64 // gaps at or under this merge adjacent segments
}

// DefaultCleanOptions mirrors the production caption tuning.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{MinDur: 0.35, MinWords: 2, MaxGap: 0.20}
}

var (
	spaceRE        = regexp.MustCompile(`\s+`)
	wordTokenRE    = regexp.MustCompile(`\w+`)
	fillerPatterns = []string{" uh ", " um ", " you know ", " hmm ", " ah ", " like "}
)

// StrongClean removes repeated words/bigrams and drops fragments under
// three words. Returns "" when nothing survives.
func StrongClean(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return ""
	}
	t = spaceRE.ReplaceAllString(t, " ")
	t = collapseWordRun(t)
	t = collapsePhraseRun(t, 2)
	t = collapseDoubledStop(t)
	if len(strings.Fields(t)) < 3 {
		return ""
	}
	return strings.TrimSpace(t)
}

// LightDedupe collapses repetition without dropping short text, used during
// the merge step where fragments still accumulate into full segments.
func LightDedupe(t string) string {
	t = strings.TrimSpace(t)
	t = spaceRE.ReplaceAllString(t, " ")
	t = collapseWordRun(t)
	t = collapsePhraseRun(t, 2)
	return strings.TrimSpace(t)
}

// collapseWordRun collapses runs of three or more identical consecutive
// words to a single occurrence ("we we we keep" -> "we keep"). Doubled
// words stay; rolling captions double words legitimately for emphasis.
func collapseWordRun(t string) string {
	words := strings.Fields(t)
	out := make([]string, 0, len(words))
	i := 0
	for i < len(words) {
		j := i + 1
		for j < len(words) && strings.EqualFold(words[j], words[i]) {
			j++
		}
		if j-i >= 3 {
			out = append(out, words[i])
		} else {
			out = append(out, words[i:j]...)
		}
		i = j
	}
	return strings.Join(out, " ")
}

// collapsePhraseRun collapses consecutive occurrences of the same n-word
// phrase to a single occurrence ("and then and then x" -> "and then x").
func collapsePhraseRun(t string, n int) string {
	words := strings.Fields(t)
	if len(words) < 2*n {
		return t
	}
	out := make([]string, 0, len(words))
	i := 0
	for i < len(words) {
		if i+n <= len(words) {
			j := i + n
			for j+n <= len(words) && phraseEqual(words[i:i+n], words[j:j+n]) {
				j += n
			}
			if j > i+n {
				out = append(out, words[i:i+n]...)
				i = j
				continue
			}
		}
		out = append(out, words[i])
		i++
	}
	return strings.Join(out, " ")
}

// collapseDoubledStop collapses a sentence-final word echoed across a stop
// ("done. done. next" -> "done. next").
func collapseDoubledStop(t string) string {
	words := strings.Fields(t)
	out := make([]string, 0, len(words))
	i := 0
	for i < len(words) {
		if i+1 < len(words) && strings.HasSuffix(words[i], ".") && strings.EqualFold(words[i], words[i+1]) {
			out = append(out, words[i])
			i += 2
			continue
		}
		out = append(out, words[i])
		i++
	}
	return strings.Join(out, " ")
}

// StripFillers removes spoken fillers ("uh", "um", "you know") and
// collapses whitespace.
func StripFillers(t string) string {
	x := " " + strings.TrimSpace(t) + " "
	for _, f := range fillerPatterns {
		x = strings.ReplaceAll(x, f, " ")
	}
	return strings.TrimSpace(spaceRE.ReplaceAllString(x, " "))
}

// CleanMerge applies StrongClean to every segment, drops the empties, and
// merges tiny or overlapping segments into fewer, longer ones.
func CleanMerge(segs []Segment, opts CleanOptions) []Segment {
	cleaned := make([]Segment, 0, len(segs))
	for _, s := range segs {
		txt := StrongClean(s.Text)
		if txt == "" {
			continue
		}
		cleaned = append(cleaned, Segment{Start: s.Start, End: s.End, Text: txt})
	}
	return mergeMicro(cleaned, opts)
}

func mergeMicro(segs []Segment, opts CleanOptions) []Segment {
	var merged []Segment
	var cur *Segment

	for _, s := range segs {
		txt := LightDedupe(s.Text)
		if txt == "" {
			continue
		}

		if cur == nil {
			c := Segment{Start: s.Start, End: s.End, Text: txt}
			cur = &c
			continue
		}

		gap := s.Start - cur.End
		dur := cur.End - cur.Start
		words := len(wordTokenRE.FindAllString(cur.Text, -1))

		if dur < opts.MinDur || words < opts.MinWords || gap <= opts.MaxGap {
			cur.Text = strings.TrimSpace(cur.Text + " " + txt)
			if s.End > cur.End {
				cur.End = s.End
			}
		} else {
			merged = append(merged, *cur)
			c := Segment{Start: s.Start, End: s.End, Text: txt}
			cur = &c
		}
	}
	if cur != nil {
		merged = append(merged, *cur)
	}
	return merged
}
