package classify

import (
	"regexp"
	"strings"
	"unicode"
)

// MeaningWeights configures the meaning score: a 0-5 signal of how much
// standalone explanatory content a chunk carries. Higher is better. The
// score is a fixed linear combination, monotonic in each signal.
type MeaningWeights struct {
	// MinWords is the floor below which a chunk scores 0 outright.
	MinWords int
	// Keywords are connective/explanatory markers; any hit adds KeywordWeight.
	Keywords      []string
	KeywordWeight int
	// ShortWordRatioMax: if the share of <=2-char words is under this,
	// add ShortWordWeight (clean prose, not caption debris).
	ShortWordRatioMax float64
	ShortWordWeight   int
	// UniqRatioMin, UniqMinWords: chunks longer than UniqMinWords whose
	// unique-word ratio exceeds UniqRatioMin add UniqWeight.
	UniqRatioMin float64
	UniqMinWords int
	UniqWeight   int
}

// DefaultMeaningWeights mirrors the production tuning.
func DefaultMeaningWeights() MeaningWeights {
	return MeaningWeights{
		MinWords: 35,
		Keywords: []string{
			"because", "so", "therefore", "that is", "means",
			"example", "trap", "principle",
		},
		KeywordWeight:     2,
		ShortWordRatioMax: 0.20,
		ShortWordWeight:   1,
		UniqRatioMin:      0.35,
		UniqMinWords:      40,
		UniqWeight:        2,
	}
}

// JunkThresholds configures the junk score: a 0+ penalty for caption noise
// (repeated bigrams, tiny fragments, low alphabetic density). Higher is
// worse.
type JunkThresholds struct {
	AlphaRatioLow, AlphaRatioMid       float64
	UniqRatioLow, UniqRatioMid, UniqRatioHigh float64
	ShortTokenHigh, ShortTokenMid      float64
	RepeatedTrigrams, RepeatedBigrams  int
	FragmentsHigh, FragmentsMid        int
}

// DefaultJunkThresholds mirrors the production tuning.
func DefaultJunkThresholds() JunkThresholds {
	return JunkThresholds{
		AlphaRatioLow:    0.55,
		AlphaRatioMid:    0.65,
		UniqRatioLow:     0.28,
		UniqRatioMid:     0.35,
		UniqRatioHigh:    0.42,
		ShortTokenHigh:   0.28,
		ShortTokenMid:    0.22,
		RepeatedTrigrams: 25,
		RepeatedBigrams:  35,
		FragmentsHigh:    6,
		FragmentsMid:     4,
	}
}

// MeaningScore rates the explanatory density of a chunk, 0-5.
func MeaningScore(text string, w MeaningWeights) int {
	t := strings.ToLower(strings.TrimSpace(text))
	fields := strings.Fields(t)
	if len(fields) < w.MinWords {
		return 0
	}

	score := 0
	for _, k := range w.Keywords {
		if strings.Contains(t, k) {
			score += w.KeywordWeight
			break
		}
	}

	short := 0
	for _, f := range fields {
		if len(f) <= 2 {
			short++
		}
	}
	if float64(short)/float64(len(fields)) < w.ShortWordRatioMax {
		score += w.ShortWordWeight
	}

	words := wordRE.FindAllString(t, -1)
	if len(words) > w.UniqMinWords && uniqRatio(words) > w.UniqRatioMin {
		score += w.UniqWeight
	}
	return score
}

// JunkScore rates how much caption garbage a chunk carries. Empty text
// scores 10 (maximally junk).
func JunkScore(text string, th JunkThresholds) int {
	t := strings.TrimSpace(text)
	if t == "" {
		return 10
	}

	score := 0
	switch ar := alphaRatio(t); {
	case ar < th.AlphaRatioLow:
		score += 3
	case ar < th.AlphaRatioMid:
		score += 1
	}

	switch uw := uniqWordRatio(strings.ToLower(t)); {
	case uw < th.UniqRatioLow:
		score += 3
	case uw < th.UniqRatioMid:
		score += 2
	case uw < th.UniqRatioHigh:
		score += 1
	}

	switch st := shortTokenRatio(t); {
	case st > th.ShortTokenHigh:
		score += 2
	case st > th.ShortTokenMid:
		score += 1
	}

	if repeatedNgramCount(t, 3) > th.RepeatedTrigrams {
		score += 2
	}
	if repeatedNgramCount(t, 2) > th.RepeatedBigrams {
		score += 2
	}

	switch fr := fragmentCount(t); {
	case fr >= th.FragmentsHigh:
		score += 2
	case fr >= th.FragmentsMid:
		score += 1
	}
	return score
}

var (
	wordRE     = regexp.MustCompile(`[a-z']+`)
	tokenRE    = regexp.MustCompile(`\w+`)
	sentenceRE = regexp.MustCompile(`[.!?]+`)
)

func alphaRatio(t string) float64 {
	if len(t) == 0 {
		return 0
	}
	alpha := 0
	total := 0
	for _, r := range t {
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	return float64(alpha) / float64(total)
}

// uniqWordRatio is 1.0 for short texts: too few words to judge repetition.
func uniqWordRatio(lower string) float64 {
	words := wordRE.FindAllString(lower, -1)
	if len(words) < 30 {
		return 1.0
	}
	return uniqRatio(words)
}

func uniqRatio(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

func shortTokenRatio(t string) float64 {
	toks := tokenRE.FindAllString(strings.ToLower(t), -1)
	if len(toks) < 20 {
		return 1.0
	}
	short := 0
	for _, w := range toks {
		if len(w) <= 2 {
			short++
		}
	}
	return float64(short) / float64(len(toks))
}

func repeatedNgramCount(t string, n int) int {
	words := wordRE.FindAllString(strings.ToLower(t), -1)
	if len(words) < 40 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	repeats := 0
	for i := 0; i+n <= len(words); i++ {
		gram := strings.Join(words[i:i+n], " ")
		if _, ok := seen[gram]; ok {
			repeats++
		} else {
			seen[gram] = struct{}{}
		}
	}
	return repeats
}

// fragmentCount counts sentences of three words or fewer, which in caption
// text is almost always debris.
func fragmentCount(t string) int {
	tiny := 0
	for _, p := range sentenceRE.Split(t, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(strings.Fields(p)) <= 3 {
			tiny++
		}
	}
	return tiny
}
