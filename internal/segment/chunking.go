package segment

import (
	"regexp"
	"strings"
)

// Chunk is a contiguous span of cleaned transcript text with time offsets.
// Index is assigned by the chunker in emission order and is the chunk's
// stable identity downstream.
type Chunk struct {
	Index int
	Start float64
	End   float64
	Words int
	Text  string
}

// ChunkOptions bounds chunk assembly.
type ChunkOptions struct {
	MaxSeconds      float64 // flush when the chunk spans this long
	MaxWords        int     // flush when the chunk reaches this many words
	MaxGap          float64 // a silence gap above this flushes early...
	MinWordsToSplit int     // ...but only once the chunk has this many words
	OverlapWords    int     // word overlap when splitting oversized text
}

// DefaultChunkOptions mirrors the production transcript tuning.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxSeconds:      55,
		MaxWords:        220,
		MaxGap:          1.3,
		MinWordsToSplit: 35,
		OverlapWords:    20,
	}
}

// ChunkByTimeAndWords assembles cleaned segments into chunks, flushing on
// duration, word count, or a long silence gap.
func ChunkByTimeAndWords(segs []Segment, opts ChunkOptions) []Chunk {
	var chunks []Chunk
	var cur Chunk
	started := false
	prevEnd := 0.0

	flush := func() {
		txt := strings.TrimSpace(cur.Text)
		if txt != "" {
			chunks = append(chunks, Chunk{
				Index: len(chunks) + 1,
				Start: cur.Start,
				End:   cur.End,
				Words: cur.Words,
				Text:  DedupeRepeats(txt),
			})
		}
		cur = Chunk{}
		started = false
	}

	for _, s := range segs {
		txt := StripFillers(s.Text)
		if txt == "" {
			continue
		}

		if !started {
			cur.Start = s.Start
			prevEnd = s.Start
			started = true
		}

		gap := s.Start - prevEnd
		duration := s.End - cur.Start

		if gap > opts.MaxGap && cur.Words >= opts.MinWordsToSplit {
			flush()
			cur.Start = s.Start
			started = true
		}

		cur.Text = strings.TrimSpace(cur.Text + " " + txt)
		cur.End = s.End
		cur.Words += len(strings.Fields(txt))
		prevEnd = s.End

		if duration >= opts.MaxSeconds || cur.Words >= opts.MaxWords {
			flush()
		}
	}
	flush()
	return chunks
}

// SplitByWords splits oversized text into word windows with overlap.
func SplitByWords(text string, maxWords, overlap int) []string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxWords {
		overlap = maxWords - 1
	}
	var out []string
	i := 0
	for i < len(words) {
		j := i + maxWords
		if j > len(words) {
			j = len(words)
		}
		out = append(out, strings.Join(words[i:j], " "))
		if j == len(words) {
			break
		}
		i = j - overlap
		if i < 0 {
			i = 0
		}
	}
	return out
}

var sentenceEndRE = regexp.MustCompile(`([.?!])\s+`)

// DedupeRepeats removes immediately repeated sentences and doubled bigrams
// inside one chunk.
func DedupeRepeats(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	parts := splitSentences(t)
	cleaned := make([]string, 0, len(parts))
	last := ""
	for _, p := range parts {
		p2 := strings.TrimSpace(spaceRE.ReplaceAllString(p, " "))
		if p2 == "" {
			continue
		}
		if strings.EqualFold(p2, last) {
			continue
		}
		cleaned = append(cleaned, p2)
		last = p2
	}
	out := strings.Join(cleaned, " ")
	out = collapseDoubledPhrase(out, 2)
	return strings.TrimSpace(spaceRE.ReplaceAllString(out, " "))
}

// DedupeHeavy is the aggressive variant used after word-window splitting:
// every sentence appears at most once per chunk and fragments of two words
// or fewer are dropped.
func DedupeHeavy(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	t = spaceRE.ReplaceAllString(t, " ")
	parts := splitSentences(t)
	seen := make(map[string]struct{}, len(parts))
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p2 := strings.TrimSpace(spaceRE.ReplaceAllString(p, " "))
		if p2 == "" {
			continue
		}
		key := strings.ToLower(p2)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if len(strings.Fields(p2)) <= 2 {
			continue
		}
		cleaned = append(cleaned, p2)
	}
	out := strings.Join(cleaned, " ")
	out = collapseDoubledPhrase(out, 2)
	out = collapseDoubledPhrase(out, 3)
	return strings.TrimSpace(spaceRE.ReplaceAllString(out, " "))
}

// splitSentences splits on sentence-ending punctuation followed by space,
// and on newlines, keeping the punctuation with the sentence.
func splitSentences(t string) []string {
	marked := sentenceEndRE.ReplaceAllString(t, "$1\x00")
	marked = strings.ReplaceAll(marked, "\n", "\x00")
	return strings.Split(marked, "\x00")
}

// collapseDoubledPhrase removes an immediately repeated n-word phrase
// ("and then we and then we" -> "and then we").
func collapseDoubledPhrase(t string, n int) string {
	words := strings.Fields(t)
	if len(words) < 2*n {
		return t
	}
	out := make([]string, 0, len(words))
	i := 0
	for i < len(words) {
		if i+2*n <= len(words) && phraseEqual(words[i:i+n], words[i+n:i+2*n]) {
			out = append(out, words[i:i+n]...)
			i += 2 * n
			continue
		}
		out = append(out, words[i])
		i++
	}
	return strings.Join(out, " ")
}

func phraseEqual(a, b []string) bool {
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
