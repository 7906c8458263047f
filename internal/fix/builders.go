package fix

import (
	"flint/internal/diag"
	"flint/internal/source"
)

// Option mutates a fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// Preferred marks the fix as the preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets a stable identifier for the fix.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func applyOptions(f diag.Fix, opts []Option) diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText creates a fix that inserts text at span (Start == End). A
// non-empty guard refuses the edit when the insertion point's surrounding
// text changed.
func InsertText(title string, at source.Span, text string, guard string, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title:         title,
		Applicability: diag.FixAlwaysSafe,
		Edits: []diag.TextEdit{{
			Span:    at,
			NewText: text,
			OldText: guard,
		}},
	}
	return applyOptions(fix, opts)
}

// DeleteSpan removes the text covered by span.
func DeleteSpan(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title:         title,
		Applicability: diag.FixAlwaysSafe,
		Edits: []diag.TextEdit{{
			Span:    span,
			NewText: "",
			OldText: expect,
		}},
	}
	return applyOptions(fix, opts)
}

// ReplaceSpan replaces the text covered by span with newText.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title:         title,
		Applicability: diag.FixAlwaysSafe,
		Edits: []diag.TextEdit{{
			Span:    span,
			NewText: newText,
			OldText: expect,
		}},
	}
	return applyOptions(fix, opts)
}

// WrapWith surrounds span with prefix and suffix insertions. Wrapping
// changes control flow around the span, so it defaults to
// safe-with-heuristics.
func WrapWith(title string, span source.Span, prefix, suffix string, opts ...Option) diag.Fix {
	fix := diag.Fix{
		Title:         title,
		Applicability: diag.FixSafeWithHeuristics,
		Edits: []diag.TextEdit{
			{
				Span:    source.Span{File: span.File, Start: span.Start, End: span.Start},
				NewText: prefix,
			},
			{
				Span:    source.Span{File: span.File, Start: span.End, End: span.End},
				NewText: suffix,
			},
		},
	}
	return applyOptions(fix, opts)
}
