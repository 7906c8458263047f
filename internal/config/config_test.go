package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"flint/internal/diag"
	"flint/internal/rule"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadFullManifest(t *testing.T) {
	p := writeManifest(t, t.TempDir(), `
[analysis]
budget = "fast"
jobs = 4
max-diagnostics = 200

[rules]
disabled = ["secure_random_source"]

[rules.severity]
always_dispose = "error"

[categories]
"widget-like" = ["lib/widgets/**", "*_screen.dart"]
`)

	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Budget() != rule.BudgetFast {
		t.Error("budget not fast")
	}
	if cfg.Analysis.Jobs != 4 || cfg.Analysis.MaxDiagnostics != 200 {
		t.Errorf("analysis section = %+v", cfg.Analysis)
	}
	if !cfg.RuleDisabled("secure_random_source") || cfg.RuleDisabled("always_dispose") {
		t.Error("disabled list misread")
	}
	sev, ok := cfg.SeverityOverride("always_dispose")
	if !ok || sev != diag.SevError {
		t.Errorf("severity override = %v, %v", sev, ok)
	}
	if _, ok := cfg.SeverityOverride("unguarded_state_update"); ok {
		t.Error("phantom override")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad budget", "[analysis]\nbudget = \"turbo\"\n"},
		{"negative jobs", "[analysis]\njobs = -1\n"},
		{"bad severity", "[rules.severity]\nx = \"fatal\"\n"},
		{"bad glob", "[categories]\ntest = [\"[\"]\n"},
		{"bad toml", "not toml at all ["},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			p := writeManifest(t, t.TempDir(), tt.body)
			if _, err := Load(p); err == nil {
				t.Fatal("want error")
			}
		})
	}
}

func TestDefaultBehaviour(t *testing.T) {
	cfg := Default()
	if cfg.Budget() != rule.BudgetFull {
		t.Error("default budget not full")
	}
	if cfg.RuleDisabled("always_dispose") {
		t.Error("rules disabled by default")
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[analysis]\n")
	nested := filepath.Join(root, "lib", "src")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	found, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find: %v, %v", ok, err)
	}
	if found != filepath.Join(root, ManifestName) {
		t.Errorf("found %s", found)
	}

	_, ok, err = Find(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("manifest found where none exists")
	}
}

func TestCategoriesFor(t *testing.T) {
	cfg := Default()
	cfg.Categories = map[string][]string{
		"widget-like": {"lib/widgets/**", "*_screen.dart"},
	}

	cases := []struct {
		rel  string
		want []rule.Category
	}{
		{"lib/widgets/button.dart", []rule.Category{rule.CategoryProduction, rule.CategoryWidget}},
		{"lib/home_screen.dart", []rule.Category{rule.CategoryProduction, rule.CategoryWidget}},
		{"lib/model.dart", []rule.Category{rule.CategoryProduction}},
		{"test/model_test.dart", []rule.Category{rule.CategoryTest}},
		{"lib/util_test.dart", []rule.Category{rule.CategoryTest}},
		{"lib/widgets/button_test.dart", []rule.Category{rule.CategoryTest, rule.CategoryWidget}},
	}
	for _, tt := range cases {
		t.Run(tt.rel, func(t *testing.T) {
			got := cfg.CategoriesFor(tt.rel)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CategoriesFor(%s) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}
