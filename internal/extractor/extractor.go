// Package extractor defines the pluggable extraction backend handed the
// accepted teaching batch at the end of a transcript run. Backends are
// registered by name and selected by a configuration string. The pipeline's
// responsibility ends at producing the batch; backend responses are not
// processed further.
package extractor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Card is one structured extraction produced by a backend.
type Card map[string]string

// Extractor is the capability interface every backend implements.
type Extractor interface {
	// Extract produces a structured card from one chunk of text.
	Extract(ctx context.Context, text string) (Card, error)
	// Name returns the backend's registered name.
	Name() string
}

// Config selects and configures a backend.
type Config struct {
	Backend        string
	Endpoint       string
	TimeoutSeconds int
}

// Factory builds a backend from its config.
type Factory func(Config) (Extractor, error)

var registry = map[string]Factory{}

// Register adds a named backend factory. Called from init by each backend
// implementation.
func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

// New builds the backend named by cfg.Backend. The "none" backend (and an
// empty name) return nil without error: extraction is simply disabled.
func New(cfg Config) (Extractor, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if name == "" || name == "none" {
		return nil, nil
	}
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown extractor backend %q (registered: %s)",
			cfg.Backend, strings.Join(registeredNames(), ", "))
	}
	return f(cfg)
}

func registeredNames() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func timeoutOf(cfg Config) time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}
