package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"flint/internal/diag"
	"flint/internal/source"
)

// identity names a diagnostic for display: the rule id for findings, the
// code for internal engine conditions.
func identity(d diag.Diagnostic) string {
	if d.Code.Internal() {
		return d.Code.String()
	}
	return d.RuleID
}

func formatPath(span source.Span, fs *source.FileSet, mode PathMode) string {
	f := fs.Get(span.File)
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", "")
	}
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevInfo:
		return color.New(color.FgCyan, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

// Pretty renders diagnostics in annotated terminal form. Items are expected
// to be sorted already. Each one prints as
//
//	<path>:<line>:<col>: <SEVERITY> <id>: <message>
//
// followed by the source line with a ^~~~ underline across the span, then
// notes, fixes, and the correction hint when enabled.
func Pretty(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	paint := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		return c.Sprint(s)
	}

	for _, d := range items {
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			paint(color.New(color.Bold), formatPath(d.Primary, fs, opts.PathMode)),
			start.Line, start.Col,
			paint(severityColor(d.Severity), d.Severity.String()),
			identity(d),
			d.Message)

		writeSnippet(w, fs, d.Primary, opts, paint)

		if d.Correction != "" {
			fmt.Fprintf(w, "  %s %s\n", paint(color.New(color.FgGreen), "help:"), d.Correction)
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				ns, _ := fs.Resolve(n.Span)
				fmt.Fprintf(w, "  %s %s:%d:%d: %s\n",
					paint(color.New(color.FgCyan), "note:"),
					formatPath(n.Span, fs, opts.PathMode), ns.Line, ns.Col, n.Msg)
			}
		}
		if opts.ShowFixes {
			for _, fx := range d.Fixes {
				marker := ""
				if fx.IsPreferred {
					marker = " (preferred)"
				}
				fmt.Fprintf(w, "  %s %s [%s]%s\n",
					paint(color.New(color.FgGreen), "fix:"),
					fx.Title, fx.Applicability, marker)
			}
		}
	}
}

// writeSnippet prints the span's first source line with an underline, plus
// up to opts.Context preceding lines.
func writeSnippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, paint func(*color.Color, string) string) {
	f := fs.Get(span.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(span)

	for i := opts.Context; i > 0; i-- {
		if start.Line <= uint32(i) {
			continue
		}
		ctx := f.GetLine(start.Line - uint32(i))
		fmt.Fprintf(w, "    %s\n", clip(ctx, opts.Width))
	}

	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "    %s\n", clip(line, opts.Width))

	// The underline covers the span on its first line only; multi-line spans
	// mark through the line end.
	prefix := line
	if int(start.Col-1) <= len(line) {
		prefix = line[:start.Col-1]
	}
	underlineEnd := len(line) + 1
	if end.Line == start.Line {
		underlineEnd = int(end.Col)
	}
	width := underlineEnd - int(start.Col)
	if width < 1 {
		width = 1
	}
	pad := strings.Repeat(" ", runewidth.StringWidth(prefix))
	marks := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "    %s%s\n", pad, paint(color.New(color.FgRed, color.Bold), marks))
}

func clip(line string, width int) string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return line
	}
	return runewidth.Truncate(line, width, "…")
}
