package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"curator/internal/classify"
	"curator/internal/config"
	"curator/internal/extractor"
	"curator/internal/gate"
	"curator/internal/record"
	"curator/internal/segment"
)

// Chunk record field names.
const (
	FieldStart        = "start"
	FieldEnd          = "end"
	FieldWords        = "words"
	FieldText         = "text"
	FieldChunkType    = "chunk_type"
	FieldMeaningScore = "meaning_score"
	FieldJunkScore    = "junk_score"
)

// Transcript curates caption/transcript segments: clean and merge, chunk by
// time and words, classify and score each chunk, then gate. The accepted
// batch is what an optional extraction backend receives afterwards.
type Transcript struct {
	cfg     config.Transcript
	workers int
	rules   *classify.RuleSet
	meaning classify.MeaningWeights
	junk    classify.JunkThresholds
	gates   *gate.RuleSet
	backend extractor.Extractor
	log     *slog.Logger
}

// NewTranscript builds the transcript pipeline from validated
// configuration. backend may be nil (extraction disabled).
func NewTranscript(cfg config.Pipeline, backend extractor.Extractor, log *slog.Logger) (*Transcript, error) {
	rules, err := cfg.ClassifyRules()
	if err != nil {
		return nil, fmt.Errorf("building classification rules: %w", err)
	}

	p := &Transcript{
		cfg:     cfg.Transcript,
		workers: cfg.Run.Workers,
		rules:   rules,
		meaning: classify.DefaultMeaningWeights(),
		junk:    classify.DefaultJunkThresholds(),
		backend: backend,
		log:     log,
	}
	p.gates = p.buildGates()
	if err := p.gates.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// buildGates assembles the chunk gate: noise chunks are hard rejects; low
// meaning and high junk are soft with unit weight against the configured
// budget, so under the default threshold either alone rejects while both
// together still show up in diagnostics.
func (p *Transcript) buildGates() *gate.RuleSet {
	s := p.cfg.Scoring
	return &gate.RuleSet{
		Rules: []gate.Rule{
			gate.FieldEquals("chunk_noise", FieldChunkType, string(classify.LabelNoise), true, 0),
			gate.MinIntField("meaning_too_low", FieldMeaningScore, s.MeaningMinScore, false, 1),
			gate.MaxIntField("junk_too_high", FieldJunkScore, s.JunkDropThreshold, false, 1),
		},
		SoftThreshold: s.SoftThreshold,
	}
}

// Run takes raw segments through cleaning, chunking, classification,
// scoring, and the gate.
func (p *Transcript) Run(segs []segment.Segment) (Result, error) {
	cleanOpts := segment.CleanOptions{
		MinDur:   p.cfg.Segments.MinDur,
		MinWords: p.cfg.Segments.MinWords,
		MaxGap:   p.cfg.Segments.MaxGap,
	}
	chunkOpts := segment.ChunkOptions{
		MaxSeconds:      p.cfg.Chunking.MaxSeconds,
		MaxWords:        p.cfg.Chunking.MaxWords,
		MaxGap:          p.cfg.Chunking.MaxGap,
		MinWordsToSplit: p.cfg.Chunking.MinWordsToSplit,
		OverlapWords:    p.cfg.Chunking.OverlapWords,
	}

	cleaned := segment.CleanMerge(segs, cleanOpts)
	chunks := segment.ChunkByTimeAndWords(cleaned, chunkOpts)
	records := p.explode(chunks, chunkOpts)
	p.log.Info("transcript segmented",
		"segments_in", len(segs),
		"segments_clean", len(cleaned),
		"chunks", len(chunks),
		"records", len(records))

	errs := processAll(p.workers, records, p.process)
	accepted, rejected, decisions := partition(records, errs, p.gates)

	res := Result{
		RunID:     newRunID(),
		Domain:    "transcript",
		Accepted:  accepted,
		Rejected:  rejected,
		Decisions: decisions,
	}
	if res.Input() != len(records) {
		return res, fmt.Errorf("record count mismatch: %d in, %d out", len(records), res.Input())
	}
	p.log.Info("transcript run complete",
		"run_id", res.RunID,
		"input", len(records),
		"gold", len(accepted),
		"reject", len(rejected))
	return res, nil
}

// explode re-deduplicates each chunk's text and splits oversized chunks
// into word windows, distributing the time span evenly across the windows.
// Each window becomes one record with a fresh 1-based source index.
func (p *Transcript) explode(chunks []segment.Chunk, opts segment.ChunkOptions) []*record.Record {
	var out []*record.Record
	for _, c := range chunks {
		txt := segment.DedupeHeavy(c.Text)
		if txt == "" {
			continue
		}
		parts := segment.SplitByWords(txt, opts.MaxWords, opts.OverlapWords)
		dur := c.End - c.Start
		if dur <= 0 {
			dur = 0.001
		}
		step := dur / float64(len(parts))
		for k, part := range parts {
			r := record.New(len(out) + 1)
			r.Set(FieldStart, formatSeconds(c.Start+float64(k)*step))
			r.Set(FieldEnd, formatSeconds(c.Start+float64(k+1)*step))
			r.Set(FieldWords, strconv.Itoa(len(strings.Fields(part))))
			r.Set(FieldText, part)
			out = append(out, r)
		}
	}
	return out
}

// process classifies and scores one chunk record, in place.
func (p *Transcript) process(r *record.Record) error {
	text := r.Get(FieldText)
	if text == "" {
		return &record.ValidationError{Field: FieldText, Reason: "empty chunk text"}
	}

	label := p.rules.Classify(text)
	r.Set(FieldChunkType, string(label))
	r.Set(FieldMeaningScore, strconv.Itoa(classify.MeaningScore(text, p.meaning)))
	r.Set(FieldJunkScore, strconv.Itoa(classify.JunkScore(text, p.junk)))
	return nil
}

// Extract hands each accepted record's text to the configured backend and
// collects the cards. Extraction errors are logged and skipped; the gold
// partition is already final, and the backend's responses are not folded
// back into it.
func (p *Transcript) Extract(ctx context.Context, accepted []*record.Record) []extractor.Card {
	if p.backend == nil || len(accepted) == 0 {
		return nil
	}
	cards := make([]extractor.Card, 0, len(accepted))
	for _, r := range accepted {
		card, err := p.backend.Extract(ctx, r.Get(FieldText))
		if err != nil {
			p.log.Warn("extraction failed", "source_index", r.Index, "error", err)
			continue
		}
		card["_start"] = r.Get(FieldStart)
		card["_end"] = r.Get(FieldEnd)
		card["_words"] = r.Get(FieldWords)
		cards = append(cards, card)
	}
	return cards
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
