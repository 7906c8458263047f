package diag

import (
	"fmt"
	"sort"
)

// Bag accumulates diagnostics for one file (or one merged run) up to a
// limit.
type Bag struct {
	items []Diagnostic
	max   int
}

func NewBag(max int) *Bag {
	if max <= 0 {
		max = 1
	}
	return &Bag{
		items: make([]Diagnostic, 0, min(max, 64)),
		max:   max,
	}
}

// Add appends a diagnostic, honouring the limit.
// Returns false when the bag is full and the diagnostic was dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() int {
	return b.max
}

func (b *Bag) Len() int {
	return len(b.items)
}

// HasSeverity reports whether any diagnostic reaches the given severity.
func (b *Bag) HasSeverity(sev Severity) bool {
	for i := range b.items {
		if b.items[i].Severity >= sev {
			return true
		}
	}
	return false
}

// HasInternal reports whether the bag holds any internal engine diagnostics
// (rule failures, range errors, malformed fixes).
func (b *Bag) HasInternal() bool {
	for i := range b.items {
		if b.items[i].Code.Internal() {
			return true
		}
	}
	return false
}

// Items returns the diagnostics as a read-only slice.
// Callers must not modify it: it aliases the bag's backing array.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends all diagnostics from other, growing max when needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	newTotal := len(b.items) + len(other.items)
	if newTotal > b.max {
		b.max = newTotal
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics by file, span start, span end, rule id, then
// severity (descending) for deterministic output independent of rule
// registration order.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.RuleID != dj.RuleID {
			return di.RuleID < dj.RuleID
		}
		return di.Severity > dj.Severity
	})
}

// Dedup collapses diagnostics that share a rule id and primary span. A rule
// whose callback fires on nested matching nodes must not double-report the
// same anchor.
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	newitems := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s:%s", d.RuleID, d.Code.String(), d.Primary.String())
		if seen[key] {
			continue
		}
		seen[key] = true
		newitems = append(newitems, d)
	}
	b.items = newitems
}
