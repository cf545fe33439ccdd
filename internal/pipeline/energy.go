package pipeline

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"curator/internal/config"
	"curator/internal/enrich"
	"curator/internal/gate"
	"curator/internal/infer"
	"curator/internal/normalize"
	"curator/internal/record"
)

// Energy curates spreadsheet rows: aspect and node normalization against
// controlled vocabularies, keyword inference for blank nodes, framework
// enrichment, and the quality gate.
type Energy struct {
	cfg       config.Energy
	workers   int
	aspects   normalize.AllowedValueSet
	nodes     normalize.AllowedValueSet
	engine    *infer.Engine
	framework *enrich.Table
	gates     *gate.RuleSet
	log       *slog.Logger
}

// NewEnergy builds the energy pipeline from validated configuration. The
// framework table may be nil when no enrichment source is configured.
func NewEnergy(cfg config.Pipeline, framework *enrich.Table, log *slog.Logger) (*Energy, error) {
	e := cfg.Energy

	rules := make([]infer.Rule, 0, len(e.InferenceRules))
	for _, r := range e.InferenceRules {
		rules = append(rules, infer.Rule{
			ID:       r.ID,
			Pattern:  r.Pattern,
			Target:   r.Target,
			Priority: r.Priority,
		})
	}
	engine, err := infer.NewEngine(rules, e.InferenceSourceFields)
	if err != nil {
		return nil, err
	}

	p := &Energy{
		cfg:       e,
		workers:   cfg.Run.Workers,
		aspects:   normalize.NewAllowedValueSet(e.AspectsAllowed),
		nodes:     normalize.NewAllowedValueSet(e.NodesAllowed),
		engine:    engine,
		framework: framework,
		log:       log,
	}
	p.gates = p.buildGates()
	if err := p.gates.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// buildGates assembles the energy gate: unresolved aspect and
// out-of-vocabulary node are hard rejects; the length/count gates are soft
// with unit weight, so any single violation exceeds the threshold and
// rejects, but diagnostics list every one that fired.
func (p *Energy) buildGates() *gate.RuleSet {
	e := p.cfg
	g := e.Gates
	rules := []gate.Rule{
		gate.FieldEquals("aspect_unknown", e.AspectField, e.UnknownAspect, true, 0),
		gate.FieldInSet("node_not_allowed", e.NodeField, e.NodesAllowed, true, 0),
		gate.MinFieldLength("problem_too_short", e.ProblemField, g.MinProblemLen, false, 1),
		gate.MinFieldLength("duality_too_short", e.DualityField, g.MinDualityLen, false, 1),
		gate.MinFieldLength("blocks_too_short", e.BlocksField, g.MinBlocksLen, false, 1),
		gate.MinMultiValueCount("too_few_blocks", e.BlocksField, "/", g.MinBlocksCount, false, 1),
	}
	if e.RejectOnLookupMiss {
		rules = append(rules, gate.NotePresent("framework_missing", record.NoteLookupMiss, true, 0))
	}
	return &gate.RuleSet{Rules: rules, SoftThreshold: g.SoftThreshold}
}

// Run processes a batch of rows and partitions them into gold and reject.
func (p *Energy) Run(records []*record.Record) (Result, error) {
	errs := processAll(p.workers, records, p.process)
	accepted, rejected, decisions := partition(records, errs, p.gates)

	res := Result{
		RunID:     newRunID(),
		Domain:    "energy",
		Accepted:  accepted,
		Rejected:  rejected,
		Decisions: decisions,
	}
	if res.Input() != len(records) {
		return res, fmt.Errorf("record count mismatch: %d in, %d out", len(records), res.Input())
	}
	p.log.Info("energy run complete",
		"run_id", res.RunID,
		"input", len(records),
		"gold", len(accepted),
		"reject", len(rejected))
	return res, nil
}

// process runs the transform stages for one row, in place.
func (p *Energy) process(r *record.Record) error {
	if r.Fields == nil {
		return &record.ValidationError{Reason: "record has no fields"}
	}

	p.normalizeAspect(r)
	p.normalizeNode(r)
	p.normalizeBlocks(r)

	if r.Blank(p.cfg.NodeField) {
		p.inferNode(r)
	}

	if p.framework != nil {
		p.framework.Apply(r, p.cfg.NodeField)
	}
	return nil
}

// normalizeAspect resolves the aspect field against its vocabulary. An
// empty vocabulary disables the constraint and leaves the value untouched.
func (p *Energy) normalizeAspect(r *record.Record) {
	if p.aspects.Len() == 0 {
		return
	}
	raw := r.Get(p.cfg.AspectField)
	res := normalize.Normalize(raw, p.aspects, p.cfg.AspectThreshold)
	switch res.Method {
	case normalize.MethodUnresolved:
		if raw != "" {
			r.Annotate(record.NoteUnresolvedNormalization, p.cfg.AspectField, raw)
		}
		r.Set(p.cfg.AspectField, p.cfg.UnknownAspect)
	default:
		r.Set(p.cfg.AspectField, res.Canonical)
	}
}

// normalizeNode resolves the energy node field: slug folding, then the
// synonym map, then exact membership, then substring containment, then
// fuzzy matching. Anything still unresolved is blanked so inference can
// take over.
func (p *Energy) normalizeNode(r *record.Record) {
	raw := r.Get(p.cfg.NodeField)
	if raw == "" {
		return
	}

	slug := normalize.Slug(raw)
	if canonical, ok := p.cfg.NodeSynonyms[slug]; ok {
		r.Set(p.cfg.NodeField, canonical)
		return
	}
	if p.nodes.Contains(slug) {
		r.Set(p.cfg.NodeField, slug)
		return
	}
	for _, n := range p.nodes.Values() {
		if strings.Contains(slug, n) {
			r.Set(p.cfg.NodeField, n)
			return
		}
	}

	res := normalize.Normalize(slug, p.nodes, p.cfg.NodeThreshold)
	if res.Method == normalize.MethodUnresolved {
		r.Annotate(record.NoteUnresolvedNormalization, p.cfg.NodeField, raw)
		r.Set(p.cfg.NodeField, "")
		return
	}
	r.Set(p.cfg.NodeField, res.Canonical)
}

var (
	listNumberRE = regexp.MustCompile(`\b\d+\.\s*`)
	listSplitRE  = regexp.MustCompile(`•|\n|,|;|/`)
	blockSpaceRE = regexp.MustCompile(`\s+`)
)

// normalizeBlocks canonicalizes the free-text multi-value blocks field:
// numbering stripped, split on bullets/commas/semicolons/slashes, parts
// deduplicated case-insensitively and rejoined with " / ".
func (p *Energy) normalizeBlocks(r *record.Record) {
	s := blockSpaceRE.ReplaceAllString(r.Get(p.cfg.BlocksField), " ")
	if s == "" {
		return
	}
	s = listNumberRE.ReplaceAllString(s, "")

	seen := map[string]struct{}{}
	var out []string
	for _, part := range listSplitRE.Split(s, -1) {
		part = strings.Trim(blockSpaceRE.ReplaceAllString(part, " "), " -–—\t")
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		if lower == "nan" || lower == "none" {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, part)
	}
	r.Set(p.cfg.BlocksField, strings.Join(out, " / "))
}

func (p *Energy) inferNode(r *record.Record) {
	value, ruleID := p.engine.Infer(r)
	if value != "" {
		r.Set(p.cfg.NodeField, value)
		r.Annotate(record.NoteInferredField, p.cfg.NodeField, ruleID)
		return
	}
	if p.cfg.InferenceFallback == string(infer.FallbackDefault) {
		r.Set(p.cfg.NodeField, p.cfg.InferenceDefault)
		r.Annotate(record.NoteInferredField, p.cfg.NodeField, "fallback_default")
	}
}
