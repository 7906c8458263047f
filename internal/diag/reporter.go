package diag

import "flint/internal/source"

// Reporter is the minimal contract for receiving diagnostics from rules
// and the engine. Implementations: BagReporter (stores into a Bag),
// DedupReporter (suppresses duplicates), test doubles.
type Reporter interface {
	Report(d Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to a reporter.
func NewReportBuilder(r Reporter, ruleID string, sev Severity, primary source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag: Diagnostic{
			RuleID:   ruleID,
			Severity: sev,
			Message:  msg,
			Primary:  primary,
		},
	}
}

// NewInternal constructs a builder for an internal engine diagnostic.
func NewInternal(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	b := NewReportBuilder(r, "", SevWarning, primary, msg)
	b.diag.Code = code
	return b
}

// ForRule tags an internal diagnostic with the implicated rule id.
func (b *ReportBuilder) ForRule(ruleID string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.RuleID = ruleID
	return b
}

// WithNote appends a note.
func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Notes = append(b.diag.Notes, Note{Span: sp, Msg: msg})
	return b
}

// WithCorrection sets the human-readable remediation hint.
func (b *ReportBuilder) WithCorrection(text string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Correction = text
	return b
}

// WithFix appends a ready-to-use fix with default metadata.
func (b *ReportBuilder) WithFix(title string, edits ...TextEdit) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithFix(title, edits...)
	return b
}

// WithFixSuggestion appends a configured fix.
func (b *ReportBuilder) WithFixSuggestion(fix Fix) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithFixSuggestion(fix)
	return b
}

// Emit sends the diagnostic to the underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
	b.emitted = true
}

// Diagnostic returns the accumulated diagnostic without emitting.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter adapts a *Bag into a Reporter.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// FuncReporter adapts a plain function into a Reporter.
type FuncReporter func(Diagnostic)

func (f FuncReporter) Report(d Diagnostic) { f(d) }
