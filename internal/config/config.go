// Package config loads and validates the pipeline configuration tree.
//
// The tree is loaded once from YAML before any record is processed and is
// immutable for the run's lifetime. Environment variables override file
// values so the same config file works locally and in deployment. A
// malformed configuration is fatal at startup: the pipeline refuses to run
// rather than silently default.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"curator/internal/classify"
)

// Pipeline is the full configuration tree.
type Pipeline struct {
	Run        Run        `yaml:"run"`
	Energy     Energy     `yaml:"energy"`
	Transcript Transcript `yaml:"transcript"`
	Extractor  Extractor  `yaml:"extractor"`
	Logging    Logging    `yaml:"logging"`
}

// Run holds run-wide settings.
type Run struct {
	OutputsDir string `yaml:"outputs_dir"`
	Workers    int    `yaml:"workers"`
	StorePath  string `yaml:"store_path"`
}

// Logging holds logger settings.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// InferenceRule is one keyword/regex rule for filling a missing field.
type InferenceRule struct {
	ID       string `yaml:"id"`
	Pattern  string `yaml:"pattern"`
	Target   string `yaml:"target"`
	Priority int    `yaml:"priority"`
}

// EnergyGates holds the spreadsheet quality gate thresholds.
type EnergyGates struct {
	MinProblemLen  int     `yaml:"min_problem_len"`
	MinDualityLen  int     `yaml:"min_duality_len"`
	MinBlocksLen   int     `yaml:"min_blocks_len"`
	MinBlocksCount int     `yaml:"min_blocks_count"`
	SoftThreshold  float64 `yaml:"soft_threshold"`
}

// Energy configures the spreadsheet curation domain.
type Energy struct {
	AspectField  string `yaml:"aspect_field"`
	NodeField    string `yaml:"node_field"`
	ProblemField string `yaml:"problem_field"`
	DualityField string `yaml:"duality_field"`
	BlocksField  string `yaml:"blocks_field"`

	AspectsAllowed  []string `yaml:"aspects_allowed"`
	NodesAllowed    []string `yaml:"nodes_allowed"`
	AspectThreshold int      `yaml:"aspect_threshold"`
	NodeThreshold   int      `yaml:"node_threshold"`
	UnknownAspect   string   `yaml:"unknown_aspect"`

	NodeSynonyms map[string]string `yaml:"node_synonyms"`

	InferenceRules        []InferenceRule `yaml:"inference_rules"`
	InferenceSourceFields []string        `yaml:"inference_source_fields"`
	InferenceFallback     string          `yaml:"inference_fallback"` // blank | default
	InferenceDefault      string          `yaml:"inference_default"`

	FrameworkPath      string   `yaml:"framework_path"`
	FrameworkKeyColumn string   `yaml:"framework_key_column"`
	FrameworkColumns   []string `yaml:"framework_columns"`
	RejectOnLookupMiss bool     `yaml:"reject_on_lookup_miss"`

	Gates EnergyGates `yaml:"gates"`
}

// Segments configures caption segment cleaning.
type Segments struct {
	MinDur   float64 `yaml:"min_dur"`
	MinWords int     `yaml:"min_words"`
	MaxGap   float64 `yaml:"max_gap"`
}

// Chunking configures chunk assembly.
type Chunking struct {
	MaxSeconds      float64 `yaml:"max_seconds"`
	MaxWords        int     `yaml:"max_words"`
	MaxGap          float64 `yaml:"max_gap"`
	MinWordsToSplit int     `yaml:"min_words_to_split"`
	OverlapWords    int     `yaml:"overlap_words"`
}

// Classify configures the chunk classifier.
type Classify struct {
	MinWordsNoise    int      `yaml:"min_words_noise"`
	MinWordsTeaching int      `yaml:"min_words_teaching"`
	UniqRatioFloor   float64  `yaml:"uniq_ratio_floor"`
	ProblemPrefixes  []string `yaml:"problem_prefixes"`
	TeachingPatterns []string `yaml:"teaching_patterns"`
	NoisePatterns    []string `yaml:"noise_patterns"`
}

// Scoring configures chunk score thresholds and the soft gate budget.
type Scoring struct {
	MeaningMinScore   int     `yaml:"meaning_min_score"`
	JunkDropThreshold int     `yaml:"junk_drop_threshold"`
	SoftThreshold     float64 `yaml:"soft_threshold"`
}

// Transcript configures the transcript curation domain.
type Transcript struct {
	Segments Segments `yaml:"segments"`
	Chunking Chunking `yaml:"chunking"`
	Classify Classify `yaml:"classify"`
	Scoring  Scoring  `yaml:"scoring"`
}

// Extractor selects the optional extraction backend handed the accepted
// teaching batch.
type Extractor struct {
	Backend        string `yaml:"backend"` // none | httpjson
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Default returns the configuration tree with production defaults. A file
// only needs to state what differs.
func Default() Pipeline {
	return Pipeline{
		Run: Run{
			OutputsDir: "outputs",
			Workers:    2,
			StorePath:  "outputs/curator.db",
		},
		Logging: Logging{Level: "info", Format: "console"},
		Energy: Energy{
			AspectField:     "aspect",
			NodeField:       "energy_node",
			ProblemField:    "problem",
			DualityField:    "duality",
			BlocksField:     "deeper_blocks",
			AspectThreshold: 70,
			NodeThreshold:   75,
			UnknownAspect:   "Unknown",
			NodesAllowed: []string{
				"blocked_energy",
				"depleted_energy",
				"scattered_energy",
				"outofcontrol_energy",
				"normal_energy",
			},
			NodeSynonyms: map[string]string{
				"depleted":              "depleted_energy",
				"depletedenergy":        "depleted_energy",
				"blocked":               "blocked_energy",
				"scattered":             "scattered_energy",
				"out_of_control_energy": "outofcontrol_energy",
				"outofcontrol":          "outofcontrol_energy",
				"normal":                "normal_energy",
			},
			InferenceSourceFields: []string{"problem", "deeper_blocks"},
			InferenceFallback:     "default",
			InferenceDefault:      "blocked_energy",
			InferenceRules:        defaultInferenceRules(),
			FrameworkKeyColumn:    "energy_node",
			Gates: EnergyGates{
				MinProblemLen:  12,
				MinDualityLen:  25,
				MinBlocksLen:   8,
				MinBlocksCount: 2,
				SoftThreshold:  0.5,
			},
		},
		Transcript: Transcript{
			Segments: Segments{MinDur: 0.35, MinWords: 2, MaxGap: 0.20},
			Chunking: Chunking{
				MaxSeconds:      55,
				MaxWords:        220,
				MaxGap:          1.3,
				MinWordsToSplit: 35,
				OverlapWords:    20,
			},
			Classify: Classify{
				MinWordsNoise:    25,
				MinWordsTeaching: 30,
				UniqRatioFloor:   0.25,
				ProblemPrefixes: []string{
					"how do i", "why do i", "i feel", "i am", "i'm",
					"how can i", "what should i", "i keep", "i can't",
				},
				TeachingPatterns: []string{
					`\bthe thing is\b`, `\bthat means\b`, `\bthis is why\b`,
					`\bthe trap is\b`, `\bwhen we\b`, `\bwe develop\b`,
					`\byou have to\b`, `\bwe need to\b`, `\bit comes from\b`,
					`\bthe point is\b`, `\bfor example\b`, `\bold saying\b`,
					`\bso check\b`,
				},
				NoisePatterns: []string{
					`\bwe will meet\b`, `\bat three\b`, `\broom\b`,
					`\bgarden\b`, `\bmic\b`,
				},
			},
			Scoring: Scoring{MeaningMinScore: 3, JunkDropThreshold: 7, SoftThreshold: 0.5},
		},
		Extractor: Extractor{Backend: "none", TimeoutSeconds: 60},
	}
}

func defaultInferenceRules() []InferenceRule {
	return []InferenceRule{
		{ID: "outofcontrol_keywords", Priority: 40, Target: "outofcontrol_energy",
			Pattern: `anger|rage|impulsive|reactive|panic|explode|overreact|shouting`},
		{ID: "depleted_keywords", Priority: 30, Target: "depleted_energy",
			Pattern: `tired|burnout|burnt out|exhaust|fatigue|low energy|drained|no motivation`},
		{ID: "scattered_keywords", Priority: 20, Target: "scattered_energy",
			Pattern: `overwhelm|too much|multitask|stress|anxious|anxiety|pressure|restless|racing mind`},
		{ID: "blocked_keywords", Priority: 10, Target: "blocked_energy",
			Pattern: `fear|inadequacy|failure|self doubt|confidence|stuck|procrast|avoid|guilt|shame`},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. An empty path loads defaults plus env only.
func Load(path string) (Pipeline, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Pipeline) {
	if v := strings.TrimSpace(os.Getenv("CURATOR_OUTPUTS_DIR")); v != "" {
		cfg.Run.OutputsDir = v
	}
	if v := strings.TrimSpace(os.Getenv("CURATOR_STORE_PATH")); v != "" {
		cfg.Run.StorePath = v
	}
	if v := strings.TrimSpace(os.Getenv("CURATOR_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Run.Workers = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CURATOR_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("CURATOR_EXTRACTOR")); v != "" {
		cfg.Extractor.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("CURATOR_EXTRACTOR_ENDPOINT")); v != "" {
		cfg.Extractor.Endpoint = v
	}
}

// Validate fails fast on configuration that would make the run
// non-deterministic or meaningless.
func (c Pipeline) Validate() error {
	if c.Run.Workers < 1 {
		return fmt.Errorf("run.workers must be >= 1, got %d", c.Run.Workers)
	}

	e := c.Energy
	if len(e.NodesAllowed) == 0 {
		return fmt.Errorf("energy.nodes_allowed must not be empty")
	}
	if e.AspectThreshold < 0 || e.AspectThreshold > 100 {
		return fmt.Errorf("energy.aspect_threshold must be in [0,100], got %d", e.AspectThreshold)
	}
	if e.NodeThreshold < 0 || e.NodeThreshold > 100 {
		return fmt.Errorf("energy.node_threshold must be in [0,100], got %d", e.NodeThreshold)
	}
	switch e.InferenceFallback {
	case "", "blank", "default":
	default:
		return fmt.Errorf("energy.inference_fallback must be \"blank\" or \"default\", got %q", e.InferenceFallback)
	}
	if e.InferenceFallback == "default" && strings.TrimSpace(e.InferenceDefault) == "" {
		return fmt.Errorf("energy.inference_default required when inference_fallback is \"default\"")
	}
	for _, r := range e.InferenceRules {
		if strings.TrimSpace(r.Pattern) == "" {
			return fmt.Errorf("energy.inference_rules[%s]: empty pattern", r.ID)
		}
		if _, err := regexp.Compile(`(?i)` + r.Pattern); err != nil {
			return fmt.Errorf("energy.inference_rules[%s]: %w", r.ID, err)
		}
	}

	t := c.Transcript
	for _, p := range append(append([]string{}, t.Classify.TeachingPatterns...), t.Classify.NoisePatterns...) {
		if _, err := regexp.Compile(`(?i)` + p); err != nil {
			return fmt.Errorf("transcript.classify pattern %q: %w", p, err)
		}
	}
	if t.Chunking.MaxWords < 1 {
		return fmt.Errorf("transcript.chunking.max_words must be >= 1")
	}
	if t.Chunking.MaxSeconds <= 0 {
		return fmt.Errorf("transcript.chunking.max_seconds must be > 0")
	}
	if t.Chunking.OverlapWords < 0 {
		return fmt.Errorf("transcript.chunking.overlap_words must be >= 0")
	}
	if t.Chunking.OverlapWords >= t.Chunking.MaxWords {
		return fmt.Errorf("transcript.chunking.overlap_words must be < max_words")
	}
	if t.Scoring.SoftThreshold < 0 {
		return fmt.Errorf("transcript.scoring.soft_threshold must be >= 0")
	}

	switch c.Extractor.Backend {
	case "", "none":
	case "httpjson":
		if strings.TrimSpace(c.Extractor.Endpoint) == "" {
			return fmt.Errorf("extractor.endpoint required for the httpjson backend")
		}
	default:
		// Unknown backends fail later at registry lookup with the list of
		// registered names; don't duplicate that knowledge here.
	}
	return nil
}

// ClassifyRules builds the compiled classification rule set from the
// transcript configuration. Label priority is fixed: problem before
// teaching before noise.
func (c Pipeline) ClassifyRules() (*classify.RuleSet, error) {
	cl := c.Transcript.Classify
	rules := []classify.LabelRule{
		{Label: classify.LabelProblem, Prefixes: cl.ProblemPrefixes, Priority: 30},
		{Label: classify.LabelTeaching, Patterns: cl.TeachingPatterns, MinWords: cl.MinWordsTeaching, Priority: 20},
		{Label: classify.LabelNoise, Patterns: cl.NoisePatterns, Priority: 10},
	}
	return classify.NewRuleSet(rules, classify.Options{
		MinWordsNoise:  cl.MinWordsNoise,
		UniqRatioFloor: cl.UniqRatioFloor,
		DefaultLabel:   classify.LabelTeaching,
	})
}
