package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"curator/internal/segment"
)

// ReadSegments parses transcript segments from a file. JSON files hold an
// array of {"start": float, "end": float, "text": string}; CSV/TSV files
// need start, end, text columns. Segments with an end before their start
// are rejected as malformed input.
func ReadSegments(path string) ([]segment.Segment, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return readSegmentsJSON(path)
	case ".csv", ".tsv":
		return readSegmentsCSV(path, ext == ".tsv")
	default:
		return nil, fmt.Errorf("unsupported segments format %q (want .json, .csv, or .tsv)", ext)
	}
}

type jsonSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func readSegmentsJSON(path string) ([]segment.Segment, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []jsonSegment
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	segs := make([]segment.Segment, 0, len(raw))
	for i, s := range raw {
		if s.End < s.Start {
			return nil, fmt.Errorf("%s: segment %d: end %.3f before start %.3f", path, i, s.End, s.Start)
		}
		segs = append(segs, segment.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return segs, nil
}

func readSegmentsCSV(path string, tsv bool) ([]segment.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if tsv {
		reader.Comma = '\t'
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: need a header row and at least one segment", path)
	}

	startIdx, endIdx, textIdx := -1, -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "start":
			startIdx = i
		case "end":
			endIdx = i
		case "text":
			textIdx = i
		}
	}
	if startIdx < 0 || endIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("%s: missing start/end/text columns", path)
	}

	segs := make([]segment.Segment, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) <= startIdx || len(row) <= endIdx || len(row) <= textIdx {
			return nil, fmt.Errorf("%s: row %d: too few columns", path, i+2)
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(row[startIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad start: %w", path, i+2, err)
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(row[endIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad end: %w", path, i+2, err)
		}
		if end < start {
			return nil, fmt.Errorf("%s: row %d: end %.3f before start %.3f", path, i+2, end, start)
		}
		segs = append(segs, segment.Segment{Start: start, End: end, Text: row[textIdx]})
	}
	return segs, nil
}
