// Package config loads the flint.toml project configuration: rule
// enable/disable lists, severity overrides, file-category globs, and run
// budget. The core rule contract knows nothing of this; it is applied by
// the driver around the engine.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"flint/internal/diag"
	"flint/internal/rule"
)

// ManifestName is the file the driver looks for when no --config is given.
const ManifestName = "flint.toml"

// Analysis is the [analysis] section.
type Analysis struct {
	// Budget is "full" or "fast"; fast drops high-cost rules.
	Budget string `toml:"budget"`
	// Jobs bounds parallel file analysis; 0 means one per CPU.
	Jobs int `toml:"jobs"`
	// MaxDiagnostics caps the per-file bag; 0 keeps the engine default.
	MaxDiagnostics int `toml:"max-diagnostics"`
}

// Rules is the [rules] section.
type Rules struct {
	Disabled []string          `toml:"disabled"`
	Severity map[string]string `toml:"severity"`
}

// Config is the whole manifest.
type Config struct {
	Analysis Analysis `toml:"analysis"`
	Rules    Rules    `toml:"rules"`
	// Categories maps a category tag to the path globs that carry it.
	Categories map[string][]string `toml:"categories"`

	disabled map[string]bool
	override map[string]diag.Severity
}

// Default returns the configuration used when no manifest exists.
func Default() *Config {
	cfg := &Config{}
	cfg.finish()
	return cfg
}

// Load parses and validates a manifest file.
func Load(manifestPath string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(manifestPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", manifestPath, err)
	}
	if err := cfg.validate(manifestPath); err != nil {
		return nil, err
	}
	cfg.finish()
	return &cfg, nil
}

// Find walks up from startDir looking for flint.toml, mirroring how build
// tools locate their manifest.
func Find(startDir string) (string, bool, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, err
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		info, statErr := os.Stat(candidate)
		if statErr == nil && !info.IsDir() {
			return candidate, true, nil
		}
		if statErr != nil && !os.IsNotExist(statErr) {
			return "", false, statErr
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

func (c *Config) validate(manifestPath string) error {
	switch c.Analysis.Budget {
	case "", "full", "fast":
	default:
		return fmt.Errorf("%s: unknown budget %q (want full or fast)", manifestPath, c.Analysis.Budget)
	}
	if c.Analysis.Jobs < 0 {
		return fmt.Errorf("%s: jobs must not be negative", manifestPath)
	}
	for id, sev := range c.Rules.Severity {
		if _, ok := diag.ParseSeverity(sev); !ok {
			return fmt.Errorf("%s: rule %q: unknown severity %q", manifestPath, id, sev)
		}
	}
	for cat, patterns := range c.Categories {
		for _, p := range patterns {
			if _, err := path.Match(strings.TrimSuffix(p, "/**"), "probe"); err != nil {
				return fmt.Errorf("%s: category %q: bad glob %q: %v", manifestPath, cat, p, err)
			}
		}
	}
	return nil
}

func (c *Config) finish() {
	c.disabled = make(map[string]bool, len(c.Rules.Disabled))
	for _, id := range c.Rules.Disabled {
		c.disabled[id] = true
	}
	c.override = make(map[string]diag.Severity, len(c.Rules.Severity))
	for id, sev := range c.Rules.Severity {
		if parsed, ok := diag.ParseSeverity(sev); ok {
			c.override[id] = parsed
		}
	}
}

// RuleDisabled reports whether the manifest switched the rule off.
func (c *Config) RuleDisabled(id string) bool {
	return c.disabled[id]
}

// SeverityOverride returns the configured severity for a rule, if any.
func (c *Config) SeverityOverride(id string) (diag.Severity, bool) {
	sev, ok := c.override[id]
	return sev, ok
}

// Budget maps the manifest string onto the registry budget.
func (c *Config) Budget() rule.Budget {
	if c.Analysis.Budget == "fast" {
		return rule.BudgetFast
	}
	return rule.BudgetFull
}

// CategoriesFor resolves the category tags of one file, given its path
// relative to the project root. Config globs come first; the test
// convention (test/ prefix or _test suffix) and the production fallback
// fill in the rest. The result is sorted for deterministic rule selection.
func (c *Config) CategoriesFor(relPath string) []rule.Category {
	rel := filepath.ToSlash(relPath)
	set := make(map[rule.Category]bool)

	for cat, patterns := range c.Categories {
		for _, p := range patterns {
			if matchGlob(p, rel) {
				set[rule.Category(cat)] = true
				break
			}
		}
	}

	if isTestPath(rel) {
		set[rule.CategoryTest] = true
	}
	if !set[rule.CategoryTest] {
		set[rule.CategoryProduction] = true
	}

	out := make([]rule.Category, 0, len(set))
	for cat := range set {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// matchGlob matches one config pattern against a slash path. Three forms:
// "dir/**" matches everything under dir, a bare pattern without slashes
// matches the base name, anything else matches the whole path.
func matchGlob(pattern, rel string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}
	if !strings.Contains(pattern, "/") {
		ok, _ := path.Match(pattern, path.Base(rel))
		return ok
	}
	ok, _ := path.Match(pattern, rel)
	return ok
}

func isTestPath(rel string) bool {
	if strings.HasPrefix(rel, "test/") || strings.Contains(rel, "/test/") {
		return true
	}
	base := path.Base(rel)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return strings.HasSuffix(base, "_test")
}
