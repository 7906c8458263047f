package heur

import (
	"sort"
	"strings"
)

// DefaultExpandDepth bounds helper-call inlining.
const DefaultExpandDepth = 3

// ExpandHelperCalls textually inlines same-class private helper bodies into
// bodyText so substring-level detection can see through one or more levels
// of delegation (`dispose()` calling `_cancelTimer()` which calls
// `_timer?.cancel()`). Each helper body is appended at most once, and the
// frontier advances level by level up to maxDepth, so mutually recursive
// helpers terminate.
//
// The expansion is append-only text, good enough for "does the teardown
// path ever mention X" checks and nothing more.
func ExpandHelperCalls(bodyText string, methodBodiesByName map[string]string, maxDepth int) string {
	if maxDepth <= 0 {
		maxDepth = DefaultExpandDepth
	}
	if len(methodBodiesByName) == 0 {
		return bodyText
	}

	names := make([]string, 0, len(methodBodiesByName))
	for name := range methodBodiesByName {
		names = append(names, name)
	}
	sort.Strings(names)

	var out strings.Builder
	out.WriteString(bodyText)

	inlined := make(map[string]bool, len(names))
	frontier := bodyText

	for depth := 0; depth < maxDepth; depth++ {
		var next strings.Builder
		for _, name := range names {
			if inlined[name] {
				continue
			}
			if !callsHelper(frontier, name) {
				continue
			}
			inlined[name] = true
			body := methodBodiesByName[name]
			out.WriteByte('\n')
			out.WriteString(body)
			next.WriteByte('\n')
			next.WriteString(body)
		}
		if next.Len() == 0 {
			break
		}
		frontier = next.String()
	}
	return out.String()
}

// callsHelper reports whether text contains an invocation of name. The
// check requires `name(` with no identifier character immediately before,
// so `_cancel(` does not match `cancel`.
func callsHelper(text, name string) bool {
	for off := 0; ; {
		idx := strings.Index(text[off:], name+"(")
		if idx < 0 {
			return false
		}
		idx += off
		if idx == 0 || !isIdentChar(text[idx-1]) {
			return true
		}
		off = idx + 1
	}
}

func isIdentChar(b byte) bool {
	return b == '_' || b == '$' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}
