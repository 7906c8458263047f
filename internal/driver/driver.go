// Package driver runs the whole analysis pipeline: it discovers tree
// bundles under a root, decodes them, selects the active rules per file,
// fans the engine out across files, and merges the per-file findings into
// one deterministic report.
package driver

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"flint/internal/config"
	"flint/internal/diag"
	"flint/internal/engine"
	"flint/internal/fix"
	"flint/internal/observ"
	"flint/internal/rule"
	"flint/internal/source"
	"flint/internal/tree"
)

// BundleExt is the extension of the front end's per-file tree bundles.
const BundleExt = ".tree"

// Options configures one AnalyzeDir run.
type Options struct {
	// Config falls back to config.Default() when nil.
	Config *config.Config
	// Registry holds the candidate rules. Required.
	Registry *rule.Registry
	// Jobs bounds parallel file analysis; 0 uses the config, then one per
	// CPU.
	Jobs int
	// MaxDiagnostics caps each file's bag; 0 uses the config, then the
	// engine default.
	MaxDiagnostics int
	// Fast forces the fast budget regardless of config.
	Fast bool
	// Categories, when non-empty, overrides per-file category resolution.
	Categories []rule.Category
	// Cache may be nil to disable the findings cache.
	Cache *FindingsCache
	// Events receives progress notifications. Called from worker
	// goroutines; implementations must be safe for concurrent use.
	Events func(Event)
	// Timer, when set, records the discover/load/analyze/merge phases.
	Timer *observ.Timer
}

// FileResult is the outcome for one bundle.
type FileResult struct {
	// Path of the source file the bundle describes, relative to the root
	// when possible.
	Path    string
	FileID  source.FileID
	Tree    *tree.Tree
	Bag     *diag.Bag
	Cached  bool
	Elapsed time.Duration
}

// Result aggregates a whole run.
type Result struct {
	Root     string
	FileSet  *source.FileSet
	Interner *source.Interner
	Files    []FileResult
	// Findings is the merged, fix-sanitized, severity-adjusted, sorted
	// diagnostic list.
	Findings []diag.Diagnostic
}

// preparedFile is the serial-phase output handed to the workers.
type preparedFile struct {
	srcPath    string
	raw        []byte
	tree       *tree.Tree
	fileID     source.FileID
	categories []rule.Category
	loadErr    error
	loadCode   diag.Code
}

// ListBundles returns the sorted bundle paths under root.
func ListBundles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, BundleExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// AnalyzeDir analyzes every bundle under root. Bundles are loaded and
// decoded serially (the FileSet is not safe for concurrent writes), then
// analyzed in parallel; per-file results land in preindexed slots so no
// worker ever touches another's data.
func AnalyzeDir(ctx context.Context, root string, opts Options) (*Result, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("driver: Registry is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	discoverPhase := opts.Timer.Begin("discover")
	paths, err := ListBundles(root)
	opts.Timer.End(discoverPhase, fmt.Sprintf("%d bundles", len(paths)))
	if err != nil {
		return nil, err
	}

	fileSet := source.NewFileSetWithBase(root)
	interner := source.NewInterner()
	result := &Result{
		Root:     root,
		FileSet:  fileSet,
		Interner: interner,
		Files:    make([]FileResult, len(paths)),
	}
	if len(paths) == 0 {
		return result, nil
	}

	budget := cfg.Budget()
	if opts.Fast {
		budget = rule.BudgetFast
	}
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = cfg.Analysis.MaxDiagnostics
	}
	if maxDiags <= 0 {
		maxDiags = engine.DefaultMaxDiagnostics
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = cfg.Analysis.Jobs
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	loadPhase := opts.Timer.Begin("load")
	prepared := make([]preparedFile, len(paths))
	for i, p := range paths {
		prepared[i] = loadBundle(root, p, fileSet, interner, cfg, opts.Categories)
		emit(opts.Events, Event{File: prepared[i].srcPath, Status: StatusQueued})
	}
	opts.Timer.End(loadPhase, "")

	analyzePhase := opts.Timer.Begin("analyze")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i := range prepared {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			result.Files[i] = analyzeOne(gctx, &prepared[i], cfg, opts, budget, maxDiags)
			return nil
		})
	}
	waitErr := g.Wait()
	opts.Timer.End(analyzePhase, "")

	mergePhase := opts.Timer.Begin("merge")
	result.Findings = mergeFindings(result.Files, cfg)
	opts.Timer.End(mergePhase, fmt.Sprintf("%d findings", len(result.Findings)))

	return result, waitErr
}

// loadBundle reads and decodes one bundle. On failure the path is still
// registered in the FileSet so the load-error diagnostic resolves to a
// real file.
func loadBundle(root, path string, fs *source.FileSet, in *source.Interner, cfg *config.Config, forced []rule.Category) preparedFile {
	pf := preparedFile{srcPath: relTo(root, path)}

	raw, err := os.ReadFile(path)
	if err != nil {
		pf.loadErr = err
		pf.loadCode = diag.IOLoadError
		pf.fileID = fs.AddVirtual(pf.srcPath, nil)
		return pf
	}
	pf.raw = raw

	b, err := tree.DecodeBundle(bytes.NewReader(raw))
	if err != nil {
		pf.loadErr = err
		pf.loadCode = diag.DecodeError
		pf.fileID = fs.AddVirtual(pf.srcPath, nil)
		return pf
	}
	pf.srcPath = relTo(root, b.Path)

	t, err := tree.FromBundle(b, fs, in)
	if err != nil {
		pf.loadErr = err
		pf.loadCode = diag.DecodeError
		pf.fileID = fs.AddVirtual(pf.srcPath, []byte(b.Source))
		return pf
	}
	pf.tree = t
	pf.fileID = t.File().ID

	if len(forced) > 0 {
		pf.categories = forced
	} else {
		pf.categories = cfg.CategoriesFor(pf.srcPath)
	}
	return pf
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func analyzeOne(ctx context.Context, pf *preparedFile, cfg *config.Config, opts Options, budget rule.Budget, maxDiags int) FileResult {
	started := time.Now()
	emit(opts.Events, Event{File: pf.srcPath, Status: StatusAnalyzing})

	res := FileResult{Path: pf.srcPath, FileID: pf.fileID, Tree: pf.tree}

	if pf.loadErr != nil {
		bag := diag.NewBag(maxDiags)
		bag.Add(diag.Diagnostic{
			Code:     pf.loadCode,
			Severity: diag.SevError,
			Message:  fmt.Sprintf("%s: %v", pf.srcPath, pf.loadErr),
			Primary:  source.Span{File: pf.fileID},
		})
		res.Bag = bag
		res.Elapsed = time.Since(started)
		emit(opts.Events, Event{File: pf.srcPath, Status: StatusError})
		return res
	}

	active := activeRules(opts.Registry, cfg, pf.categories, budget)

	key := CacheKey(pf.raw, active, pf.categories, budget)
	if cached, hit, err := opts.Cache.Get(key, pf.fileID); err == nil && hit {
		bag := diag.NewBag(max(maxDiags, len(cached)))
		for _, d := range cached {
			bag.Add(d)
		}
		res.Bag = bag
		res.Cached = true
		res.Elapsed = time.Since(started)
		emit(opts.Events, Event{File: pf.srcPath, Status: StatusCached, Findings: bag.Len()})
		return res
	}

	bag := engine.Run(ctx, pf.tree, active, engine.Options{MaxDiagnostics: maxDiags})
	attachFixes(bag.Items(), opts.Registry, pf.tree)
	// A broken cache must never fail the analysis.
	_ = opts.Cache.Put(key, bag.Items())

	res.Bag = bag
	res.Elapsed = time.Since(started)
	emit(opts.Events, Event{File: pf.srcPath, Status: StatusDone, Findings: bag.Len()})
	return res
}

// activeRules applies the registry's category/budget scoping plus the
// config's disabled list.
func activeRules(reg *rule.Registry, cfg *config.Config, categories []rule.Category, budget rule.Budget) []rule.Rule {
	active := reg.ActiveFor(categories, budget)
	out := active[:0]
	for _, rl := range active {
		if cfg.RuleDisabled(rl.Descriptor().ID) {
			continue
		}
		out = append(out, rl)
	}
	return out
}

// attachFixes lets FixProvider rules add remediation to findings that were
// emitted without any.
func attachFixes(items []diag.Diagnostic, reg *rule.Registry, t *tree.Tree) {
	for i := range items {
		d := &items[i]
		if d.Code.Internal() || len(d.Fixes) > 0 {
			continue
		}
		rl, ok := reg.Get(d.RuleID)
		if !ok {
			continue
		}
		if fp, ok := rl.(rule.FixProvider); ok {
			d.Fixes = fp.FixesFor(*d, t)
		}
	}
}

// mergeFindings merges per-file bags in file order, drops malformed fixes,
// applies severity overrides, and sorts.
func mergeFindings(files []FileResult, cfg *config.Config) []diag.Diagnostic {
	total := 0
	for i := range files {
		if files[i].Bag != nil {
			total += files[i].Bag.Len()
		}
	}
	merged := diag.NewBag(max(total, 1))
	for i := range files {
		merged.Merge(files[i].Bag)
	}

	conflicts := diag.NewBag(max(total, 1))
	sanitized := fix.Sanitize(merged.Items(), diag.BagReporter{Bag: conflicts})

	final := diag.NewBag(len(sanitized) + conflicts.Len() + 1)
	for _, d := range sanitized {
		if !d.Code.Internal() {
			if sev, ok := cfg.SeverityOverride(d.RuleID); ok {
				d.Severity = sev
			}
		}
		final.Add(d)
	}
	for _, d := range conflicts.Items() {
		final.Add(d)
	}
	final.Sort()
	return final.Items()
}

func emit(events func(Event), ev Event) {
	if events != nil {
		events(ev)
	}
}
