// Package gate partitions records into gold and reject under a configurable
// rule set. Hard rules reject outright; soft rules accumulate weight toward
// a rejection threshold. Evaluation is pure and idempotent: the same record
// and rule set always produce the identical decision.
package gate

import (
	"fmt"
	"strconv"
	"strings"

	"curator/internal/record"
)

// Verdict is the gate outcome for one record.
type Verdict string

const (
	VerdictGold   Verdict = "gold"
	VerdictReject Verdict = "reject"
)

// Rule is one gate check. Violated returns true when the record breaks the
// rule. Hard rules force rejection; soft rules contribute Weight to the
// cumulative soft score.
type Rule struct {
	ID       string
	Hard     bool
	Weight   float64
	Violated func(*record.Record) bool
}

// RuleSet is an ordered gate rule table. Soft violations reject only when
// their summed weight exceeds SoftThreshold.
type RuleSet struct {
	Rules         []Rule
	SoftThreshold float64
}

// Decision records the verdict for one record. Violations lists every
// violated rule ID in rule declaration order; it is empty iff the verdict
// is gold.
type Decision struct {
	RecordIndex int
	Verdict     Verdict
	Violations  []string
	SoftScore   float64
}

// Evaluate checks every rule against the record. All rules are checked (no
// short-circuit) so a rejection lists the full set of violations in rule
// declaration order. Any hard violation rejects regardless of soft score;
// soft violations under the threshold leave the record gold with an empty
// violation list (the soft score is still reported for diagnostics).
func (rs *RuleSet) Evaluate(r *record.Record) Decision {
	d := Decision{RecordIndex: r.Index}
	var violated []string
	hardViolated := false

	for _, rule := range rs.Rules {
		if !rule.Violated(r) {
			continue
		}
		violated = append(violated, rule.ID)
		if rule.Hard {
			hardViolated = true
		} else {
			d.SoftScore += rule.Weight
		}
	}

	if hardViolated || d.SoftScore > rs.SoftThreshold {
		d.Verdict = VerdictReject
		d.Violations = violated
		return d
	}
	d.Verdict = VerdictGold
	return d
}

// MinFieldLength builds a rule violated when the field's trimmed length is
// under min.
func MinFieldLength(id, field string, min int, hard bool, weight float64) Rule {
	return Rule{
		ID:     id,
		Hard:   hard,
		Weight: weight,
		Violated: func(r *record.Record) bool {
			return len(r.Get(field)) < min
		},
	}
}

// FieldInSet builds a rule violated when the field's value is not one of the
// allowed values (exact, already-canonical comparison).
func FieldInSet(id, field string, allowed []string, hard bool, weight float64) Rule {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	return Rule{
		ID:     id,
		Hard:   hard,
		Weight: weight,
		Violated: func(r *record.Record) bool {
			_, ok := set[r.Get(field)]
			return !ok
		},
	}
}

// FieldEquals builds a rule violated when the field equals the given value.
func FieldEquals(id, field, value string, hard bool, weight float64) Rule {
	return Rule{
		ID:     id,
		Hard:   hard,
		Weight: weight,
		Violated: func(r *record.Record) bool {
			return r.Get(field) == value
		},
	}
}

// MinMultiValueCount builds a rule violated when a separator-joined field
// has fewer than min non-empty parts.
func MinMultiValueCount(id, field, sep string, min int, hard bool, weight float64) Rule {
	return Rule{
		ID:     id,
		Hard:   hard,
		Weight: weight,
		Violated: func(r *record.Record) bool {
			v := r.Get(field)
			if v == "" {
				return min > 0
			}
			count := 0
			for _, p := range strings.Split(v, sep) {
				if strings.TrimSpace(p) != "" {
					count++
				}
			}
			return count < min
		},
	}
}

// MinIntField builds a rule violated when the field parses below min.
// An unparsable field counts as violated.
func MinIntField(id, field string, min int, hard bool, weight float64) Rule {
	return Rule{
		ID:     id,
		Hard:   hard,
		Weight: weight,
		Violated: func(r *record.Record) bool {
			n, err := strconv.Atoi(r.Get(field))
			return err != nil || n < min
		},
	}
}

// MaxIntField builds a rule violated when the field parses above max.
// An unparsable field counts as violated.
func MaxIntField(id, field string, max int, hard bool, weight float64) Rule {
	return Rule{
		ID:     id,
		Hard:   hard,
		Weight: weight,
		Violated: func(r *record.Record) bool {
			n, err := strconv.Atoi(r.Get(field))
			return err != nil || n > max
		},
	}
}

// NotePresent builds a rule violated when the record carries an annotation
// of the given kind (e.g. a lookup miss promoted to a rejection).
func NotePresent(id, kind string, hard bool, weight float64) Rule {
	return Rule{
		ID:     id,
		Hard:   hard,
		Weight: weight,
		Violated: func(r *record.Record) bool {
			return r.HasNote(kind)
		},
	}
}

// Validate rejects rule sets that could never gate meaningfully.
func (rs *RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return fmt.Errorf("gate: no rules configured")
	}
	seen := map[string]struct{}{}
	for _, r := range rs.Rules {
		if r.ID == "" {
			return fmt.Errorf("gate: rule with empty id")
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("gate: duplicate rule id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
		if r.Violated == nil {
			return fmt.Errorf("gate: rule %q has no check", r.ID)
		}
		if !r.Hard && r.Weight <= 0 {
			return fmt.Errorf("gate: soft rule %q needs a positive weight", r.ID)
		}
	}
	return nil
}
