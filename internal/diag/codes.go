package diag

// Code classifies internal engine conditions. Regular rule findings carry
// NoCode; their identity is the rule id string.
type Code uint16

const (
	// NoCode marks an ordinary rule finding.
	NoCode Code = 0

	// RuleFailure records a rule callback that panicked. The diagnostic
	// keeps the failing rule's id; other rules are unaffected.
	RuleFailure Code = 3001
	// OutOfRange records a source text lookup past the buffer end, which
	// indicates a front-end/engine desync.
	OutOfRange Code = 3002
	// ConflictingEdit records a fix whose edits overlap. Only the fix is
	// dropped; the underlying finding is still reported.
	ConflictingEdit Code = 3003
	// IOLoadError records a bundle that could not be read from disk.
	IOLoadError Code = 3004
	// DecodeError records a bundle that could not be decoded into a tree.
	DecodeError Code = 3005
)

// Internal reports whether the code marks an engine condition rather than a
// rule finding.
func (c Code) Internal() bool { return c != NoCode }

func (c Code) String() string {
	switch c {
	case NoCode:
		return "finding"
	case RuleFailure:
		return "rule-failure"
	case OutOfRange:
		return "out-of-range"
	case ConflictingEdit:
		return "conflicting-edit"
	case IOLoadError:
		return "io-load-error"
	case DecodeError:
		return "decode-error"
	}
	return "unknown"
}
