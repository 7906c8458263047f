package diag

import "flint/internal/source"

type dedupKey struct {
	ruleID string
	code   Code
	file   source.FileID
	start  uint32
	end    uint32
}

// DedupReporter wraps another Reporter and suppresses duplicates with the
// same rule id, code and primary span. This is the aggregator's dedup
// contract enforced at the source: a rule firing on nested matching nodes
// reports a span once.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that forwards only unique findings.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	key := dedupKey{
		ruleID: d.RuleID,
		code:   d.Code,
		file:   d.Primary.File,
		start:  d.Primary.Start,
		end:    d.Primary.End,
	}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(d)
	}
}
