package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"flint/internal/diag"
	"flint/internal/rule"
	"flint/internal/source"
)

// findingsCacheSchema versions the cached payload layout. Increment when
// cachedFinding changes.
const findingsCacheSchema uint16 = 1

// Digest keys cache entries.
type Digest = [sha256.Size]byte

// FindingsCache stores per-file findings on disk, keyed by bundle content
// and the active rule-set signature. Thread-safe.
type FindingsCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenFindingsCache initializes the cache at the standard XDG location.
func OpenFindingsCache(app string) (*FindingsCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenFindingsCacheAt(filepath.Join(base, app))
}

// OpenFindingsCacheAt initializes the cache rooted at an explicit directory.
func OpenFindingsCacheAt(dir string) (*FindingsCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FindingsCache{dir: dir}, nil
}

// cachedEdit through cachedFinding mirror the diag types without FileIDs:
// ids are per-run, so spans are cached as bare offsets and rebound to the
// file's current id on load.
type cachedEdit struct {
	Start   uint32 `msgpack:"s"`
	End     uint32 `msgpack:"e"`
	NewText string `msgpack:"n"`
	OldText string `msgpack:"o,omitempty"`
}

type cachedFix struct {
	ID            string       `msgpack:"id"`
	Title         string       `msgpack:"t"`
	Applicability uint8        `msgpack:"a"`
	Preferred     bool         `msgpack:"p,omitempty"`
	Edits         []cachedEdit `msgpack:"ed"`
}

type cachedNote struct {
	Start uint32 `msgpack:"s"`
	End   uint32 `msgpack:"e"`
	Msg   string `msgpack:"m"`
}

type cachedFinding struct {
	RuleID     string       `msgpack:"r,omitempty"`
	Code       uint16       `msgpack:"c,omitempty"`
	Severity   uint8        `msgpack:"v"`
	Message    string       `msgpack:"m"`
	Correction string       `msgpack:"x,omitempty"`
	Start      uint32       `msgpack:"s"`
	End        uint32       `msgpack:"e"`
	Notes      []cachedNote `msgpack:"n,omitempty"`
	Fixes      []cachedFix  `msgpack:"f,omitempty"`
}

type cachePayload struct {
	Schema   uint16          `msgpack:"schema"`
	Findings []cachedFinding `msgpack:"findings"`
}

func (c *FindingsCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "findings", hex.EncodeToString(key[:])+".mp")
}

// Put serializes the diagnostics of one file under key. Writes go through a
// temp file and a rename so concurrent readers never see a torn payload.
func (c *FindingsCache) Put(key Digest, items []diag.Diagnostic) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload := cachePayload{
		Schema:   findingsCacheSchema,
		Findings: make([]cachedFinding, 0, len(items)),
	}
	for _, d := range items {
		payload.Findings = append(payload.Findings, freezeFinding(d))
	}

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads cached diagnostics for key, rebinding spans to fileID. A stale
// schema reads as a miss.
func (c *FindingsCache) Get(key Digest, fileID source.FileID) ([]diag.Diagnostic, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != findingsCacheSchema {
		return nil, false, nil
	}

	out := make([]diag.Diagnostic, 0, len(payload.Findings))
	for _, cf := range payload.Findings {
		out = append(out, thawFinding(cf, fileID))
	}
	return out, true, nil
}

// DropAll invalidates the whole cache.
func (c *FindingsCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "findings"))
}

// CacheKey derives the entry key from the raw bundle bytes and the rule-set
// signature: a config change that alters the active rules must miss.
func CacheKey(bundleRaw []byte, rules []rule.Rule, categories []rule.Category, budget rule.Budget) Digest {
	h := sha256.New()
	h.Write(bundleRaw)

	ids := make([]string, 0, len(rules))
	for _, rl := range rules {
		d := rl.Descriptor()
		ids = append(ids, fmt.Sprintf("%s:%d:%d", d.ID, d.Severity, d.Cost))
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(h, "|%s", id)
	}
	cats := make([]string, 0, len(categories))
	for _, c := range categories {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(h, "@%s", c)
	}
	fmt.Fprintf(h, "#%d#%d", budget, findingsCacheSchema)

	var key Digest
	h.Sum(key[:0])
	return key
}

func freezeFinding(d diag.Diagnostic) cachedFinding {
	cf := cachedFinding{
		RuleID:     d.RuleID,
		Code:       uint16(d.Code),
		Severity:   uint8(d.Severity),
		Message:    d.Message,
		Correction: d.Correction,
		Start:      d.Primary.Start,
		End:        d.Primary.End,
	}
	for _, n := range d.Notes {
		cf.Notes = append(cf.Notes, cachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
	}
	for _, fx := range d.Fixes {
		c := cachedFix{
			ID:            fx.ID,
			Title:         fx.Title,
			Applicability: uint8(fx.Applicability),
			Preferred:     fx.IsPreferred,
		}
		for _, e := range fx.Edits {
			c.Edits = append(c.Edits, cachedEdit{
				Start:   e.Span.Start,
				End:     e.Span.End,
				NewText: e.NewText,
				OldText: e.OldText,
			})
		}
		cf.Fixes = append(cf.Fixes, c)
	}
	return cf
}

func thawFinding(cf cachedFinding, fileID source.FileID) diag.Diagnostic {
	d := diag.Diagnostic{
		RuleID:     cf.RuleID,
		Code:       diag.Code(cf.Code),
		Severity:   diag.Severity(cf.Severity),
		Message:    cf.Message,
		Correction: cf.Correction,
		Primary:    source.Span{File: fileID, Start: cf.Start, End: cf.End},
	}
	for _, n := range cf.Notes {
		d.Notes = append(d.Notes, diag.Note{
			Span: source.Span{File: fileID, Start: n.Start, End: n.End},
			Msg:  n.Msg,
		})
	}
	for _, c := range cf.Fixes {
		fx := diag.Fix{
			ID:            c.ID,
			Title:         c.Title,
			Applicability: diag.FixApplicability(c.Applicability),
			IsPreferred:   c.Preferred,
		}
		for _, e := range c.Edits {
			fx.Edits = append(fx.Edits, diag.TextEdit{
				Span:    source.Span{File: fileID, Start: e.Start, End: e.End},
				NewText: e.NewText,
				OldText: e.OldText,
			})
		}
		d.Fixes = append(d.Fixes, fx)
	}
	return d
}
