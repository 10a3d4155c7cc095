// Package config loads and validates the sqlsift configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sqlsift/sqlsift/internal/dialect"
	"github.com/sqlsift/sqlsift/internal/fileset"
)

// Config mirrors the expected sqlsift configuration schema. Both the TOML
// and YAML forms use these same field tags; Load picks the codec from the
// file extension.
type Config struct {
	Dialect       string   `toml:"dialect" yaml:"dialect"`
	Schemas       []string `toml:"schemas" yaml:"schemas"`
	Queries       []string `toml:"queries" yaml:"queries"`
	DisabledRules []string `toml:"disabled_rules" yaml:"disabled_rules"`
	MaxErrors     int      `toml:"max_errors" yaml:"max_errors"`
}

// JobPlan is the fully-resolved configuration used by the analyzer pipeline.
type JobPlan struct {
	Dialect       dialect.Dialect
	Schemas       []string
	Queries       []string
	DisabledRules map[string]struct{}
	MaxErrors     int
}

// Disabled reports whether code has been disabled globally by configuration.
func (p JobPlan) Disabled(code string) bool {
	_, ok := p.DisabledRules[code]
	return ok
}

// LoadOptions tunes config loading behavior.
type LoadOptions struct {
	Strict   bool
	Resolver *fileset.Resolver
}

// Result wraps a loaded job plan alongside any non-fatal warnings.
type Result struct {
	Plan     JobPlan
	Warnings []string
}

// Load reads, validates, and resolves a sqlsift configuration file. The
// codec is chosen from path's extension: ".yaml"/".yml" decodes as YAML,
// anything else (including ".toml" and no extension) decodes as TOML.
func Load(path string, opts LoadOptions) (Result, error) {
	var res Result

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}

	isYAML := isYAMLPath(path)

	var cfg Config
	if err := unmarshal(isYAML, data, &cfg); err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}

	unknownKeys, err := collectUnknownKeys(isYAML, data)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	if len(unknownKeys) > 0 {
		slices.Sort(unknownKeys)
		message := fmt.Sprintf("%s: unknown configuration keys: %s", path, strings.Join(unknownKeys, ", "))
		if opts.Strict {
			return res, errors.New(message)
		}
		res.Warnings = append(res.Warnings, message)
	}

	dial, err := resolveDialect(path, cfg.Dialect)
	if err != nil {
		return res, err
	}

	maxErrors, err := resolveMaxErrors(path, cfg.MaxErrors)
	if err != nil {
		return res, err
	}

	baseDir := filepath.Dir(path)

	var resolver fileset.Resolver
	if opts.Resolver != nil {
		resolver = *opts.Resolver
	} else {
		resolver, err = fileset.NewOSResolver(baseDir)
		if err != nil {
			return res, fmt.Errorf("%s: %w", path, err)
		}
	}

	schemas, err := resolvePatterns(resolver, "schemas", cfg.Schemas)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}

	queries, err := resolvePatterns(resolver, "queries", cfg.Queries)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}

	disabled := make(map[string]struct{}, len(cfg.DisabledRules))
	for _, code := range cfg.DisabledRules {
		disabled[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
	}

	res.Plan = JobPlan{
		Dialect:       dial,
		Schemas:       schemas,
		Queries:       queries,
		DisabledRules: disabled,
		MaxErrors:     maxErrors,
	}

	return res, nil
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func unmarshal(isYAML bool, data []byte, v any) error {
	if isYAML {
		return yaml.Unmarshal(data, v)
	}
	return toml.Unmarshal(data, v)
}

func collectUnknownKeys(isYAML bool, data []byte) ([]string, error) {
	var raw map[string]any
	if err := unmarshal(isYAML, data, &raw); err != nil {
		return nil, err
	}

	known := map[string]struct{}{
		"dialect":        {},
		"schemas":        {},
		"queries":        {},
		"disabled_rules": {},
		"max_errors":     {},
	}

	unknown := make([]string, 0)
	for key := range raw {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}

	return unknown, nil
}

func resolveDialect(path, raw string) (dialect.Dialect, error) {
	if raw == "" {
		return dialect.PostgreSQL, nil
	}
	d, ok := dialect.Parse(raw)
	if !ok {
		return "", fmt.Errorf("%s: unsupported dialect %q", path, raw)
	}
	return d, nil
}

func resolveMaxErrors(path string, maxErrors int) (int, error) {
	if maxErrors < 0 {
		return 0, fmt.Errorf("%s: max_errors must not be negative", path)
	}
	return maxErrors, nil
}

func resolvePatterns(resolver fileset.Resolver, field string, patterns []string) ([]string, error) {
	paths, err := resolver.Resolve(patterns)
	if err != nil {
		switch {
		case errors.Is(err, fileset.ErrNoPatterns):
			return nil, fmt.Errorf("%s must include at least one pattern", field)
		default:
			var noMatchErr fileset.NoMatchError
			if errors.As(err, &noMatchErr) {
				return nil, fmt.Errorf("%s patterns matched no files: %s", field, strings.Join(noMatchErr.Patterns, ", "))
			}

			var patternErr fileset.PatternError
			if errors.As(err, &patternErr) {
				return nil, fmt.Errorf("%s: invalid glob pattern %q: %w", field, patternErr.Pattern, patternErr.Err)
			}

			return nil, fmt.Errorf("%s: %w", field, err)
		}
	}

	return paths, nil
}
