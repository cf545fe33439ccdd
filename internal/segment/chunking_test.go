package segment

import (
	"strings"
	"testing"
)

// say builds a segment whose text is n distinct words.
func say(start, end float64, n int, tag string) Segment {
	words := make([]string, n)
	for i := range words {
		words[i] = tag + string(rune('a'+i%26))
	}
	return Segment{Start: start, End: end, Text: strings.Join(words, " ")}
}

func TestChunkByTimeAndWords_SingleChunk(t *testing.T) {
	opts := DefaultChunkOptions()
	segs := []Segment{
		say(0, 5, 10, "x"),
		say(5.2, 10, 10, "y"),
	}
	chunks := ChunkByTimeAndWords(segs, opts)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Index != 1 {
		t.Errorf("index must be 1-based, got %d", c.Index)
	}
	if c.Start != 0 || c.End != 10 {
		t.Errorf("span wrong: [%v, %v]", c.Start, c.End)
	}
	if c.Words != 20 {
		t.Errorf("expected 20 words, got %d", c.Words)
	}
}

func TestChunkByTimeAndWords_FlushOnDuration(t *testing.T) {
	opts := DefaultChunkOptions()
	segs := []Segment{
		say(0, 30, 10, "x"),
		say(30.5, 60, 10, "y"), // duration reaches 60s, over the 55s cap
		say(60.5, 70, 10, "z"),
	}
	chunks := ChunkByTimeAndWords(segs, opts)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].End != 60 {
		t.Errorf("first chunk should flush at 60s, got end %v", chunks[0].End)
	}
	if chunks[1].Index != 2 {
		t.Errorf("indexes must be sequential, got %d", chunks[1].Index)
	}
}

func TestChunkByTimeAndWords_FlushOnWordCount(t *testing.T) {
	opts := ChunkOptions{MaxSeconds: 1000, MaxWords: 15, MaxGap: 100, MinWordsToSplit: 5, OverlapWords: 2}
	segs := []Segment{
		say(0, 1, 10, "x"),
		say(1, 2, 10, "y"),
		say(2, 3, 4, "z"),
	}
	chunks := ChunkByTimeAndWords(segs, opts)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Words != 20 {
		t.Errorf("first chunk flushes once 15 words reached, got %d words", chunks[0].Words)
	}
	if chunks[1].Words != 4 {
		t.Errorf("tail chunk should carry 4 words, got %d", chunks[1].Words)
	}
}

func TestChunkByTimeAndWords_GapSplitsOnlyPastMinWords(t *testing.T) {
	opts := ChunkOptions{MaxSeconds: 1000, MaxWords: 1000, MaxGap: 1.0, MinWordsToSplit: 8, OverlapWords: 0}

	// Below the word floor: the gap does not split.
	small := []Segment{
		say(0, 1, 4, "x"),
		say(5, 6, 4, "y"),
	}
	if got := ChunkByTimeAndWords(small, opts); len(got) != 1 {
		t.Errorf("gap under the word floor must not split, got %d chunks", len(got))
	}

	// Past the word floor: the same gap splits.
	big := []Segment{
		say(0, 1, 10, "x"),
		say(5, 6, 4, "y"),
	}
	if got := ChunkByTimeAndWords(big, opts); len(got) != 2 {
		t.Errorf("gap past the word floor must split, got %d chunks", len(got))
	}
}

func TestChunkByTimeAndWords_EmptyInput(t *testing.T) {
	if got := ChunkByTimeAndWords(nil, DefaultChunkOptions()); len(got) != 0 {
		t.Errorf("expected no chunks, got %d", len(got))
	}
}

func TestSplitByWords(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("w ", 50))
	parts := SplitByWords(text, 20, 5)
	if len(parts) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(parts))
	}
	if n := len(strings.Fields(parts[0])); n != 20 {
		t.Errorf("first window should hold 20 words, got %d", n)
	}

	short := "just a few words"
	if got := SplitByWords(short, 20, 5); len(got) != 1 || got[0] != short {
		t.Errorf("short text must pass through unchanged, got %v", got)
	}
}

func TestSplitByWords_ClampsOverlap(t *testing.T) {
	text := "a b c d e"

	parts := SplitByWords(text, 2, 2)
	if len(parts) == 0 {
		t.Fatal("window never advanced")
	}
	if last := parts[len(parts)-1]; !strings.HasSuffix(last, "e") {
		t.Errorf("final word missing from windows: %v", parts)
	}

	if got := SplitByWords(text, 2, -3); len(got) != 3 {
		t.Errorf("negative overlap must act as zero, got %v", got)
	}
}

func TestDedupeRepeats_AdjacentSentences(t *testing.T) {
	got := DedupeRepeats("This is the point. This is the point. And then more.")
	if strings.Count(got, "This is the point") != 1 {
		t.Errorf("adjacent repeat survived: %q", got)
	}
	if !strings.Contains(got, "And then more") {
		t.Errorf("content lost: %q", got)
	}
}

func TestDedupeRepeats_DoubledBigram(t *testing.T) {
	got := DedupeRepeats("we keep we keep moving ahead now")
	if strings.Contains(got, "we keep we keep") {
		t.Errorf("doubled bigram survived: %q", got)
	}
}

func TestDedupeHeavy_GlobalSentenceDedupe(t *testing.T) {
	got := DedupeHeavy("The key point here. Something in between there. The key point here.")
	if strings.Count(got, "The key point here") != 1 {
		t.Errorf("non-adjacent repeat survived: %q", got)
	}
}

func TestDedupeHeavy_DropsTinyFragments(t *testing.T) {
	got := DedupeHeavy("Ok sure. The full sentence carries actual content here.")
	if strings.Contains(got, "Ok sure") {
		t.Errorf("tiny fragment survived: %q", got)
	}
	if !strings.Contains(got, "actual content") {
		t.Errorf("content lost: %q", got)
	}
}

func TestDedupeHeavy_Empty(t *testing.T) {
	if got := DedupeHeavy("   "); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
