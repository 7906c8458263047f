package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"flint/internal/diag"
	"flint/internal/source"
)

func fixtureFileSet(t *testing.T) (*source.FileSet, diag.Diagnostic) {
	t.Helper()
	fs := source.NewFileSet()
	src := "var x = 1;\nvar r = Random();\n"
	id := fs.Add("lib/auth.dart", []byte(src), 0)

	d := diag.Diagnostic{
		RuleID:     "secure_random_source",
		Severity:   diag.SevWarning,
		Message:    "Random() is predictable",
		Correction: "use Random.secure() for security-sensitive values",
		// "Random()" on line 2.
		Primary: source.Span{File: id, Start: 19, End: 27},
		Notes: []diag.Note{
			{Span: source.Span{File: id, Start: 0, End: 3}, Msg: "declared here"},
		},
		Fixes: []diag.Fix{{
			ID:            "secure_random_source-0",
			Title:         "use a cryptographic source",
			Applicability: diag.FixSafeWithHeuristics,
			IsPreferred:   true,
			Edits: []diag.TextEdit{{
				Span:    source.Span{File: id, Start: 19, End: 27},
				NewText: "Random.secure()",
				OldText: "Random()",
			}},
		}},
	}
	return fs, d
}

func TestPrettyAnnotatesSpan(t *testing.T) {
	fs, d := fixtureFileSet(t)
	var buf bytes.Buffer
	Pretty(&buf, []diag.Diagnostic{d}, fs, PrettyOpts{ShowNotes: true, ShowFixes: true})
	out := buf.String()

	if !strings.Contains(out, "lib/auth.dart:2:9: WARNING secure_random_source: Random() is predictable") {
		t.Errorf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "var r = Random();") {
		t.Errorf("source line missing:\n%s", out)
	}
	if !strings.Contains(out, "        ^~~~~~~") {
		t.Errorf("underline missing or misplaced:\n%s", out)
	}
	if !strings.Contains(out, "help: use Random.secure()") {
		t.Errorf("correction missing:\n%s", out)
	}
	if !strings.Contains(out, "note: lib/auth.dart:1:1: declared here") {
		t.Errorf("note missing:\n%s", out)
	}
	if !strings.Contains(out, "fix: use a cryptographic source [safe-with-heuristics] (preferred)") {
		t.Errorf("fix line missing:\n%s", out)
	}
}

func TestPrettyContextLines(t *testing.T) {
	fs, d := fixtureFileSet(t)
	var buf bytes.Buffer
	Pretty(&buf, []diag.Diagnostic{d}, fs, PrettyOpts{Context: 1})
	if !strings.Contains(buf.String(), "var x = 1;") {
		t.Errorf("context line missing:\n%s", buf.String())
	}
}

func TestPrettyInternalDiagnosticUsesCode(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("broken.tree", nil, 0)
	d := diag.Diagnostic{
		Code:     diag.DecodeError,
		Severity: diag.SevError,
		Message:  "bundle has no nodes",
		Primary:  source.Span{File: id},
	}
	var buf bytes.Buffer
	Pretty(&buf, []diag.Diagnostic{d}, fs, PrettyOpts{})
	if !strings.Contains(buf.String(), "ERROR decode-error: bundle has no nodes") {
		t.Errorf("output:\n%s", buf.String())
	}
}

func TestJSONReport(t *testing.T) {
	fs, d := fixtureFileSet(t)
	var buf bytes.Buffer
	err := JSON(&buf, []diag.Diagnostic{d}, fs, JSONOpts{
		IncludePositions: true,
		IncludeNotes:     true,
		IncludeFixes:     true,
	})
	if err != nil {
		t.Fatal(err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	dj := out.Diagnostics[0]
	if dj.Rule != "secure_random_source" || dj.Severity != "WARNING" {
		t.Errorf("identity = %s/%s", dj.Rule, dj.Severity)
	}
	if dj.Location.StartLine != 2 || dj.Location.StartCol != 9 {
		t.Errorf("location = %+v", dj.Location)
	}
	if len(dj.Notes) != 1 || dj.Notes[0].Message != "declared here" {
		t.Errorf("notes = %+v", dj.Notes)
	}
	if len(dj.Fixes) != 1 || dj.Fixes[0].Applicability != "safe-with-heuristics" {
		t.Errorf("fixes = %+v", dj.Fixes)
	}
	if len(dj.Fixes[0].Edits) != 1 || dj.Fixes[0].Edits[0].OldText != "Random()" {
		t.Errorf("edits = %+v", dj.Fixes[0].Edits)
	}
}

func TestJSONMaxTruncatesOutput(t *testing.T) {
	fs, d := fixtureFileSet(t)
	var buf bytes.Buffer
	if err := JSON(&buf, []diag.Diagnostic{d, d, d}, fs, JSONOpts{Max: 2}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 {
		t.Errorf("count = %d, want 2", out.Count)
	}
}

func TestSarifLog(t *testing.T) {
	fs, d := fixtureFileSet(t)
	critical := d
	critical.Severity = diag.SevCritical

	var buf bytes.Buffer
	err := Sarif(&buf, []diag.Diagnostic{d, critical}, fs, SarifRunMeta{
		ToolName:       "flint",
		ToolVersion:    "1.2.3",
		InvocationArgs: []string{"flint", "analyze", "."},
	})
	if err != nil {
		t.Fatal(err)
	}

	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						Region struct {
							StartLine uint32 `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatal(err)
	}

	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "flint" {
		t.Errorf("driver = %+v", run.Tool.Driver)
	}
	if len(run.Tool.Driver.Rules) != 1 {
		t.Errorf("rules = %+v", run.Tool.Driver.Rules)
	}
	if len(run.Results) != 2 {
		t.Fatalf("results = %d", len(run.Results))
	}
	if run.Results[0].Level != "warning" || run.Results[1].Level != "error" {
		t.Errorf("levels = %s, %s", run.Results[0].Level, run.Results[1].Level)
	}
	if run.Results[0].Locations[0].PhysicalLocation.Region.StartLine != 2 {
		t.Errorf("region = %+v", run.Results[0].Locations[0])
	}
}
