package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"flint/internal/config"
	"flint/internal/diag"
	"flint/internal/diagfmt"
	"flint/internal/observ"
	"flint/internal/rules"
	"flint/internal/tree"
)

// writeBundle encodes one bundle under root, mirroring the front end's
// layout: the .tree file sits next to where the source would be.
func writeBundle(t *testing.T, root string, b *tree.Bundle) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(b.Path)+BundleExt)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := tree.EncodeBundle(f, b); err != nil {
		t.Fatal(err)
	}
}

func insecureRandomBundle(path string) *tree.Bundle {
	src := `var r = Random();`
	b := tree.NewBuilder(path, src)
	b.AddText(b.Root(), tree.KindConstructorCall, "Random()", 0, tree.WithSymbol("Random"))
	return b.Bundle()
}

func focusedTestBundle(path string) *tree.Bundle {
	src := `void main() { solo_test("only", body); }`
	b := tree.NewBuilder(path, src)
	method := b.AddText(b.Root(), tree.KindMethodDecl, src, 0, tree.WithSymbol("main"))
	body := b.AddText(method, tree.KindBlock, `{ solo_test("only", body); }`, 0)
	b.AddText(body, tree.KindInvocation, `solo_test("only", body)`, 0, tree.WithSymbol("solo_test"))
	return b.Bundle()
}

func cleanBundle(path string) *tree.Bundle {
	b := tree.NewBuilder(path, `var x = 1;`)
	return b.Bundle()
}

func ruleIDs(items []diag.Diagnostic) map[string]int {
	out := make(map[string]int)
	for _, d := range items {
		if d.Code.Internal() {
			out[d.Code.String()]++
			continue
		}
		out[d.RuleID]++
	}
	return out
}

func TestAnalyzeDirEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, insecureRandomBundle("lib/auth.dart"))
	writeBundle(t, root, focusedTestBundle("test/auth_test.dart"))
	writeBundle(t, root, cleanBundle("lib/model.dart"))

	tm := observ.NewTimer()
	res, err := AnalyzeDir(context.Background(), root, Options{
		Registry: rules.NewRegistry(),
		Timer:    tm,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Files) != 3 {
		t.Fatalf("files = %d", len(res.Files))
	}
	got := ruleIDs(res.Findings)
	if got["secure_random_source"] != 1 {
		t.Errorf("secure_random_source findings = %d", got["secure_random_source"])
	}
	if got["no_focused_test"] != 1 {
		t.Errorf("no_focused_test findings = %d", got["no_focused_test"])
	}
	if len(res.Findings) != 2 {
		t.Errorf("findings = %v", got)
	}

	// Findings come back sorted: lib/auth.dart loads before test/auth_test.dart.
	if res.Findings[0].RuleID != "secure_random_source" {
		t.Errorf("first finding = %s", res.Findings[0].RuleID)
	}

	report := tm.Report()
	if len(report.Phases) != 4 {
		t.Errorf("timer phases = %d", len(report.Phases))
	}
}

func TestAnalyzeDirBadBundleReportsDecodeError(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, cleanBundle("lib/ok.dart"))
	if err := os.WriteFile(filepath.Join(root, "broken.tree"), []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := AnalyzeDir(context.Background(), root, Options{Registry: rules.NewRegistry()})
	if err != nil {
		t.Fatal(err)
	}

	got := ruleIDs(res.Findings)
	if got[diag.DecodeError.String()] != 1 {
		t.Errorf("findings = %v, want one decode error", got)
	}
}

func TestAnalyzeDirBrokenBundleOnlyStillRenders(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "broken.tree"), []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := AnalyzeDir(context.Background(), root, Options{Registry: rules.NewRegistry()})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(res.Findings))
	}

	d := res.Findings[0]
	if d.Severity != diag.SevError {
		t.Errorf("severity = %v, want %v", d.Severity, diag.SevError)
	}
	f := res.FileSet.Get(d.Primary.File)
	if f == nil {
		t.Fatal("load-error finding not anchored to a registered file")
	}
	if f.Path != "broken.tree" {
		t.Errorf("anchored path = %q", f.Path)
	}

	var out bytes.Buffer
	diagfmt.Pretty(&out, res.Findings, res.FileSet, diagfmt.PrettyOpts{Context: 2})
	if !strings.Contains(out.String(), diag.DecodeError.String()) {
		t.Errorf("pretty output = %q, want a %s line", out.String(), diag.DecodeError.String())
	}
	if !strings.Contains(out.String(), "broken.tree") {
		t.Errorf("pretty output = %q, want the bundle path", out.String())
	}
}

func TestAnalyzeDirEmptyRoot(t *testing.T) {
	res, err := AnalyzeDir(context.Background(), t.TempDir(), Options{Registry: rules.NewRegistry()})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 0 || len(res.Findings) != 0 {
		t.Errorf("non-empty result for empty root: %d files, %d findings",
			len(res.Files), len(res.Findings))
	}
}

func TestAnalyzeDirConfigDisableAndOverride(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, insecureRandomBundle("lib/auth.dart"))
	writeBundle(t, root, focusedTestBundle("test/auth_test.dart"))

	manifest := filepath.Join(root, config.ManifestName)
	body := "[rules]\ndisabled = [\"no_focused_test\"]\n\n[rules.severity]\nsecure_random_source = \"error\"\n"
	if err := os.WriteFile(manifest, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(manifest)
	if err != nil {
		t.Fatal(err)
	}

	res, err := AnalyzeDir(context.Background(), root, Options{
		Registry: rules.NewRegistry(),
		Config:   cfg,
	})
	if err != nil {
		t.Fatal(err)
	}

	got := ruleIDs(res.Findings)
	if got["no_focused_test"] != 0 {
		t.Error("disabled rule still fired")
	}
	if len(res.Findings) != 1 || res.Findings[0].Severity != diag.SevError {
		t.Errorf("findings = %+v, want one upgraded to error", res.Findings)
	}
}

func TestAnalyzeDirCacheRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, insecureRandomBundle("lib/auth.dart"))
	writeBundle(t, root, cleanBundle("lib/model.dart"))

	cache, err := OpenFindingsCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Registry: rules.NewRegistry(), Cache: cache}

	first, err := AnalyzeDir(context.Background(), root, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, fr := range first.Files {
		if fr.Cached {
			t.Errorf("%s cached on a cold run", fr.Path)
		}
	}

	second, err := AnalyzeDir(context.Background(), root, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, fr := range second.Files {
		if !fr.Cached {
			t.Errorf("%s missed the cache on a warm run", fr.Path)
		}
	}
	if !reflect.DeepEqual(first.Findings, second.Findings) {
		t.Error("cached findings differ from computed ones")
	}

	// A different rule set must miss.
	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	third, err := AnalyzeDir(context.Background(), root, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, fr := range third.Files {
		if fr.Cached {
			t.Errorf("%s hit a dropped cache", fr.Path)
		}
	}
}

func TestAnalyzeDirDeterministicAcrossJobs(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, insecureRandomBundle("lib/a.dart"))
	writeBundle(t, root, insecureRandomBundle("lib/b.dart"))
	writeBundle(t, root, focusedTestBundle("test/c_test.dart"))
	writeBundle(t, root, cleanBundle("lib/d.dart"))

	serial, err := AnalyzeDir(context.Background(), root, Options{Registry: rules.NewRegistry(), Jobs: 1})
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := AnalyzeDir(context.Background(), root, Options{Registry: rules.NewRegistry(), Jobs: 4})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(serial.Findings, parallel.Findings) {
		t.Error("findings depend on job count")
	}
}

func TestAnalyzeDirEvents(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, insecureRandomBundle("lib/a.dart"))
	writeBundle(t, root, cleanBundle("lib/b.dart"))

	var mu sync.Mutex
	seen := make(map[string][]Status)
	_, err := AnalyzeDir(context.Background(), root, Options{
		Registry: rules.NewRegistry(),
		Events: func(ev Event) {
			mu.Lock()
			seen[ev.File] = append(seen[ev.File], ev.Status)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, file := range []string{"lib/a.dart", "lib/b.dart"} {
		statuses := seen[file]
		if len(statuses) < 2 {
			t.Fatalf("%s: statuses = %v", file, statuses)
		}
		if statuses[0] != StatusQueued {
			t.Errorf("%s: first status = %v", file, statuses[0])
		}
		last := statuses[len(statuses)-1]
		if last != StatusDone && last != StatusCached {
			t.Errorf("%s: terminal status = %v", file, last)
		}
	}
}

func TestAnalyzeDirCancelled(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, cleanBundle("lib/a.dart"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnalyzeDir(ctx, root, Options{Registry: rules.NewRegistry()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAnalyzeDirRequiresRegistry(t *testing.T) {
	if _, err := AnalyzeDir(context.Background(), t.TempDir(), Options{}); err == nil {
		t.Fatal("want error without a registry")
	}
}
