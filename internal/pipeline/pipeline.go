// Package pipeline sequences the curation stages over a batch of records:
// normalization, inference, enrichment, and the quality gate for
// spreadsheet rows; cleaning, chunking, classification, and scoring for
// transcripts. Per-record errors are isolated: a malformed record routes
// to the rejected partition and never aborts the batch. Every run
// satisfies the conservation invariant input == accepted + rejected.
package pipeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"curator/internal/gate"
	"curator/internal/record"
)

// Result is the outcome of one pipeline run. Accepted and Rejected keep the
// original source-index ordering; Decisions is keyed by source index.
type Result struct {
	RunID     string
	Domain    string
	Accepted  []*record.Record
	Rejected  []*record.Record
	Decisions map[int]gate.Decision
}

// Input returns the total number of records the run processed.
func (r Result) Input() int { return len(r.Accepted) + len(r.Rejected) }

// newRunID mints the identifier stamped on a run's decisions and store row.
func newRunID() string { return uuid.NewString() }

// processAll applies fn to every record using the configured number of
// workers. Records are independent, so order of execution doesn't matter;
// results land in a slice indexed by position, which keeps output ordering
// deterministic. A panic inside fn is captured as a per-record validation
// error rather than taking down the batch.
func processAll(workers int, records []*record.Record, fn func(*record.Record) error) []error {
	if workers < 1 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}

	errs := make([]error, len(records))
	if len(records) == 0 {
		return errs
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = runGuarded(records[i], fn)
			}
		}()
	}
	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return errs
}

func runGuarded(r *record.Record, fn func(*record.Record) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &record.ValidationError{Reason: fmt.Sprintf("panic: %v", p)}
		}
	}()
	return fn(r)
}

// partition routes every record by its gate decision, replacing decisions
// for records whose processing failed with an error-tagged rejection.
func partition(records []*record.Record, errs []error, rules *gate.RuleSet) (accepted, rejected []*record.Record, decisions map[int]gate.Decision) {
	decisions = make(map[int]gate.Decision, len(records))
	for i, r := range records {
		if errs[i] != nil {
			r.Annotate(record.NoteValidationError, "", errs[i].Error())
			decisions[r.Index] = gate.Decision{
				RecordIndex: r.Index,
				Verdict:     gate.VerdictReject,
				Violations:  []string{record.NoteValidationError},
			}
			rejected = append(rejected, r)
			continue
		}
		d := rules.Evaluate(r)
		decisions[r.Index] = d
		if d.Verdict == gate.VerdictGold {
			accepted = append(accepted, r)
		} else {
			rejected = append(rejected, r)
		}
	}
	return accepted, rejected, decisions
}
